// Package tools defines the callable surface the agent exposes to the
// model: six read-only analysis tools plus one email tool, looked up
// through a fixed registry.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool is a single capability the model can invoke.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON Schema for the tool's arguments.
	Parameters() map[string]interface{}
	Execute(ctx context.Context, args map[string]interface{}) *ToolResult
}

// ToolResult is what a tool execution produced. ForLLM goes back into the
// conversation; IsError marks recoverable failures the model should see
// and route around.
type ToolResult struct {
	ForLLM  string
	IsError bool
}

// JSONResult marshals a payload for the model. Marshal failures become
// error results rather than panics.
func JSONResult(v interface{}) *ToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return ErrorResult(fmt.Sprintf("failed to encode result: %v", err))
	}
	return &ToolResult{ForLLM: string(data)}
}

// ErrorResult wraps a recoverable failure as a JSON error payload.
func ErrorResult(msg string) *ToolResult {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return &ToolResult{ForLLM: string(data), IsError: true}
}

// getStringArg extracts an optional string argument.
func getStringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// getStringSliceArg extracts a list-of-strings argument, tolerating the
// mixed []interface{} decoding JSON produces.
func getStringSliceArg(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
