package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/marginguard/marginguard/pkg/logger"
	"github.com/marginguard/marginguard/pkg/providers"
)

// Registry holds the fixed tool set in registration order.
type Registry struct {
	tools []Tool
}

// NewRegistry validates that tool names are unique and non-empty. The tool
// set is closed at startup; a bad registration is a programming error.
func NewRegistry(tools ...Tool) (*Registry, error) {
	seen := map[string]bool{}
	for _, t := range tools {
		name := t.Name()
		if name == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate tool name: %s", name)
		}
		seen[name] = true
	}
	return &Registry{tools: tools}, nil
}

// Definitions returns the tool schemas in registration order, shaped for
// the chat completions API.
func (r *Registry) Definitions() []providers.ToolDefinition {
	defs := make([]providers.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, providers.ToolDefinition{
			Type: "function",
			Function: providers.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// Execute dispatches one call by name. Unknown tools come back as error
// results so the model can correct itself instead of killing the
// conversation.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) *ToolResult {
	for _, t := range r.tools {
		if t.Name() != name {
			continue
		}
		start := time.Now()
		res := t.Execute(ctx, args)
		logger.InfoCF("tools", "Tool executed", map[string]interface{}{
			"tool":        name,
			"duration_ms": time.Since(start).Milliseconds(),
			"is_error":    res.IsError,
		})
		return res
	}
	logger.WarnCF("tools", "Unknown tool requested", map[string]interface{}{
		"tool": name,
	})
	return ErrorResult(fmt.Sprintf("unknown tool: %s", name))
}
