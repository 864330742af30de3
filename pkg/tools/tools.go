// Package tools defines the assistant tool contract and the registry that
// exposes tools to the reasoning loop.
package tools

import (
	"context"
	"fmt"
)

// Property defines a single parameter in a tool's input schema.
type Property struct {
	Type        string               `json:"type"`
	Description string               `json:"description,omitempty"`
	Enum        []string             `json:"enum,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
}

// InputSchema describes a tool's parameters as a JSON schema object.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// ToolDefinition is the provider-neutral description sent to the LLM.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`
}

// Tool is implemented by every capability exposed to the reasoning loop.
// Exec results are maps with a "success" key; failures that the model should
// see (rather than abort the turn) are returned as {"success": false, "error": ...}.
type Tool interface {
	Definition() ToolDefinition
	Name() string
	// PromptDocumentation returns markdown guidance injected into the system prompt.
	PromptDocumentation() string
	Exec(ctx context.Context, args map[string]any) (any, error)
}

// UserIDContextKey carries the authenticated user id through tool execution.
type contextKey string

const UserIDContextKey contextKey = "user_id"

// UserIDFromContext extracts the user id, if any, from a tool execution context.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(UserIDContextKey).(string); ok {
		return v
	}
	return ""
}

// LoginRequired is the structured payload tools return when an operation
// needs an authenticated user. The model relays the message instead of
// fabricating a result.
func LoginRequired(action string) map[string]any {
	return map[string]any{
		"success": false,
		"error":   "login_required",
		"message": fmt.Sprintf("Please log in to %s.", action),
	}
}

// Success wraps a tool result payload.
func Success(fields map[string]any) map[string]any {
	out := map[string]any{"success": true}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// Failure wraps a tool error payload the model should see.
func Failure(message string) map[string]any {
	return map[string]any{"success": false, "error": message}
}

// GetString extracts a required string argument.
func GetString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required parameter: %s", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %s must be a string", key)
	}
	return s, nil
}

// GetOptionalString extracts an optional string argument, returning def when absent.
func GetOptionalString(args map[string]any, key, def string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// GetInt extracts an integer argument. JSON numbers arrive as float64.
func GetInt(args map[string]any, key string) (int, error) {
	v, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing required parameter: %s", key)
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, fmt.Errorf("parameter %s must be a number", key)
	}
}

// GetOptionalInt extracts an optional integer argument, returning def when absent.
func GetOptionalInt(args map[string]any, key string, def int) int {
	if v, ok := args[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}
