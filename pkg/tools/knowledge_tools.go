package tools

import (
	"context"
	"fmt"

	"shopassist/pkg/knowledge"
)

// SearchKnowledgeTool answers policy and how-to questions from the store's
// knowledge base.
type SearchKnowledgeTool struct {
	base        *knowledge.Base
	tokenBudget int
}

// NewSearchKnowledgeTool creates a new knowledge search tool instance.
func NewSearchKnowledgeTool(base *knowledge.Base, tokenBudget int) *SearchKnowledgeTool {
	return &SearchKnowledgeTool{base: base, tokenBudget: tokenBudget}
}

// Definition returns the tool's definition in provider-neutral format.
func (t *SearchKnowledgeTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolSearchKnowledge,
		Description: "Search store policies and guides: returns, shipping, warranty, PC build compatibility. Returns relevant article excerpts.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "The user's question or topic keywords",
				},
			},
			Required: []string{"query"},
		},
	}
}

// Name returns the tool identifier.
func (t *SearchKnowledgeTool) Name() string {
	return ToolSearchKnowledge
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *SearchKnowledgeTool) PromptDocumentation() string {
	return `- **search_knowledge** - Search store policies and guides
  - Parameters: query (string, REQUIRED)
  - Use for returns, shipping, warranty and compatibility questions
  - Answer from the returned excerpts, never from general knowledge`
}

// Exec executes the knowledge search.
func (t *SearchKnowledgeTool) Exec(ctx context.Context, args map[string]any) (any, error) {
	query, err := GetString(args, "query")
	if err != nil {
		return nil, err
	}

	excerpt, err := t.base.GetContext(ctx, query, t.tokenBudget)
	if err != nil {
		return nil, fmt.Errorf("knowledge search failed: %w", err)
	}
	if excerpt == "" {
		return Failure("no store documentation matched that question"), nil
	}
	return Success(map[string]any{"context": excerpt}), nil
}
