package orchestrator

import (
	"fmt"
	"strings"

	"shopassist/pkg/tools"
)

const systemPromptHeader = `You are a helpful shopping assistant for a PC hardware store. You help customers find products, manage their cart, place and track orders, and answer questions about store policies.

Rules:
- Use the tools to look up real data; never invent products, prices, stock, carts or orders.
- When a tool reports login_required, relay its message and do not retry the tool.
- Report cart contents exactly as the cart tools return them.
- Be concise and friendly. Quote prices with a dollar sign and two decimals.`

// buildSystemPrompt assembles the system message for a general turn.
func buildSystemPrompt(registry *tools.Registry, userID, lastCartResult string) string {
	var b strings.Builder
	b.WriteString(systemPromptHeader)
	b.WriteString("\n\n")
	b.WriteString(registry.GenerateDocumentation())

	if userID != "" {
		fmt.Fprintf(&b, "\nUser ID: %s (logged in)\n", userID)
	} else {
		b.WriteString("\nUser ID: none (guest, not logged in)\n")
	}

	if lastCartResult != "" {
		b.WriteString("\nMost recent cart state from tools:\n")
		b.WriteString(lastCartResult)
		b.WriteString("\n")
	}
	return b.String()
}
