package flow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"shopassist/pkg/commerce"
	"shopassist/pkg/llm"
	"shopassist/pkg/logx"
)

const (
	builderFailureMessage = "Sorry, something went wrong with the PC builder. Your flow has been reset; please try again."
	builderMenuSize       = 5
)

// questionIndicators flag inputs that should go to the QA sub-path instead of
// being parsed as a menu selection.
var questionIndicators = []string{
	"what", "which", "why", "how", "when", "where", "who",
	"tell me", "explain", "difference", "compare", "better",
	"recommend", "suggest", "help", "?", "confused",
	"don't understand", "go back", "previous", "change", "modify",
}

// isQuestion reports whether the input reads as a question or conversation
// rather than a menu selection.
func isQuestion(input string) bool {
	lowered := strings.ToLower(strings.TrimSpace(input))
	if lowered == "" {
		return false
	}
	for _, indicator := range questionIndicators {
		if strings.Contains(lowered, indicator) {
			return true
		}
	}
	return false
}

// Builder runs the deterministic PC-builder step machine.
type Builder struct {
	svc    commerce.Service
	client llm.Client
	logger *logx.Logger
}

// NewBuilder creates the PC-builder machine. The LLM client serves the QA
// sub-path for questions asked mid-flow.
func NewBuilder(svc commerce.Service, client llm.Client, logger *logx.Logger) *Builder {
	return &Builder{svc: svc, client: client, logger: logger}
}

// Enter starts the PC-builder flow: creates the build record and renders the
// first component menu. The persisted step is the category the next message
// answers.
func (b *Builder) Enter(ctx context.Context, userID string, meta *Metadata) (string, error) {
	build, err := b.svc.StartBuild(ctx, userID)
	if err != nil {
		b.logger.Error("builder entry failed starting build: %v", err)
		meta.Reset()
		return builderFailureMessage, nil
	}

	meta.EnterBuilder()
	meta.Builder.BuildID = build.ID

	intro := "Let's build your PC. I'll walk you through each component; pick by number or say \"0\" to skip.\n\n"
	menu, err := b.advanceFrom(ctx, meta, "")
	if err != nil {
		b.logger.Error("builder entry failed rendering menu: %v", err)
		meta.Reset()
		return builderFailureMessage, nil
	}
	return intro + menu, nil
}

// Handle processes one inbound message for the active PC-builder flow.
func (b *Builder) Handle(ctx context.Context, userID string, meta *Metadata, input string) (string, error) {
	if meta.BuilderStep == BuilderStepCompleted {
		return b.handleCompleted(ctx, meta, input)
	}

	if isQuestion(input) {
		return b.answerQuestion(ctx, meta, input)
	}

	trimmed := strings.ToLower(strings.TrimSpace(input))
	if trimmed == "0" || trimmed == "skip" {
		reply, err := b.advanceFrom(ctx, meta, meta.BuilderStep)
		if err != nil {
			b.logger.Error("builder failed advancing: %v", err)
			meta.Reset()
			return builderFailureMessage, nil
		}
		return reply, nil
	}

	if n, err := strconv.Atoi(strings.TrimSpace(input)); err == nil {
		if n >= 1 && n <= len(meta.Builder.Candidates) {
			product := meta.Builder.Candidates[n-1]
			if _, err := b.svc.AddBuildComponent(ctx, meta.Builder.BuildID, string(meta.BuilderStep), product.ID); err != nil {
				b.logger.Error("builder failed adding component: %v", err)
				meta.Reset()
				return builderFailureMessage, nil
			}
			confirm := fmt.Sprintf("Added %s to your build.\n\n", product.Name)
			reply, err := b.advanceFrom(ctx, meta, meta.BuilderStep)
			if err != nil {
				b.logger.Error("builder failed advancing: %v", err)
				meta.Reset()
				return builderFailureMessage, nil
			}
			return confirm + reply, nil
		}
		return fmt.Sprintf("Please pick a number between 0 and %d.\n\n%s",
			len(meta.Builder.Candidates), renderComponentMenu(meta.BuilderStep, meta.Builder.Candidates)), nil
	}

	return "Pick a component by number, say \"0\" to skip, or ask me a question about the options.\n\n" +
		renderComponentMenu(meta.BuilderStep, meta.Builder.Candidates), nil
}

// advanceFrom moves past the given step (empty means before the first),
// fetching and rendering the next category's menu. Empty categories are
// auto-skipped with a notice. Reaching the end renders the build summary.
func (b *Builder) advanceFrom(ctx context.Context, meta *Metadata, current BuilderStep) (string, error) {
	idx := 0
	if current != "" {
		for i, step := range BuilderStepOrder {
			if step == current {
				idx = i + 1
				break
			}
		}
	}

	var notices strings.Builder
	for idx < len(BuilderStepOrder) {
		step := BuilderStepOrder[idx]
		candidates, err := b.svc.ProductsByCategory(ctx, string(step), builderMenuSize)
		if err != nil {
			return "", err
		}
		if len(candidates) == 0 {
			fmt.Fprintf(&notices, "No %s options available right now, skipping.\n", step)
			idx++
			continue
		}

		meta.BuilderStep = step
		meta.Builder.Candidates = candidates
		return notices.String() + renderComponentMenu(step, candidates), nil
	}

	// All categories done.
	meta.BuilderStep = BuilderStepCompleted
	meta.Builder.Candidates = nil

	summary, err := b.renderSummary(ctx, meta.Builder.BuildID)
	if err != nil {
		return "", err
	}
	return notices.String() + summary, nil
}

func (b *Builder) handleCompleted(ctx context.Context, meta *Metadata, input string) (string, error) {
	lowered := strings.ToLower(strings.TrimSpace(input))
	buildID := meta.Builder.BuildID
	meta.Reset()

	if lowered == "yes" || lowered == "add" || strings.Contains(lowered, "add to cart") {
		cart, err := b.svc.SaveBuildToCart(ctx, buildID)
		if err != nil {
			b.logger.Error("builder failed saving build to cart: %v", err)
			return "Sorry, saving your build to the cart failed. Your components are still recorded in the build.", nil
		}
		return fmt.Sprintf("Your build is in the cart: %d item(s), subtotal $%.2f. Say \"checkout\" when you're ready.", len(cart.Items), cart.Total), nil
	}
	return "No problem, your build is saved but not added to the cart. Anything else I can help with?", nil
}

// answerQuestion delegates a mid-flow question to the LLM with the current
// candidate list as grounding context. The step does not advance.
func (b *Builder) answerQuestion(ctx context.Context, meta *Metadata, input string) (string, error) {
	var contextList strings.Builder
	for i, p := range meta.Builder.Candidates {
		fmt.Fprintf(&contextList, "%d. %s - $%.2f\n", i+1, p.Name, p.Price)
	}

	systemPrompt := fmt.Sprintf(
		"You are a PC building assistant. The customer is choosing a %s. The numbered options are:\n%s\nAnswer their question briefly and factually, then remind them to pick an option by number or say 0 to skip.",
		meta.BuilderStep, contextList.String())

	req := llm.NewCompletionRequest([]llm.CompletionMessage{
		llm.NewSystemMessage(systemPrompt),
		llm.NewUserMessage(input),
	})
	req.Temperature = llm.TemperatureDeterministic

	resp, err := b.client.Complete(ctx, req)
	if err != nil {
		b.logger.Warn("builder QA completion failed: %v", err)
		return "I couldn't answer that right now. Pick an option by number, or say \"0\" to skip.\n\n" +
			renderComponentMenu(meta.BuilderStep, meta.Builder.Candidates), nil
	}
	return resp.Content, nil
}

func (b *Builder) renderSummary(ctx context.Context, buildID string) (string, error) {
	build, err := b.svc.GetBuild(ctx, buildID)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	out.WriteString("Your build is complete:\n")
	total := 0.0
	for _, step := range BuilderStepOrder {
		if product, ok := build.Components[string(step)]; ok {
			fmt.Fprintf(&out, "- %s: %s ($%.2f)\n", step, product.Name, product.Price)
			total += product.Price
		}
	}
	if total == 0 {
		out.WriteString("(no components selected)\n")
	}
	fmt.Fprintf(&out, "Total: $%.2f\n\nSay \"yes\" to add the build to your cart.", total)
	return out.String(), nil
}

func renderComponentMenu(step BuilderStep, candidates []commerce.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Choose your %s:\n", step)
	for i, p := range candidates {
		fmt.Fprintf(&b, "%d. %s - $%.2f\n", i+1, p.Name, p.Price)
	}
	b.WriteString("0. Skip\n")
	return b.String()
}
