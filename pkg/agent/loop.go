// Package agent runs the bounded tool-calling conversation between the
// model and the analysis tools.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/marginguard/marginguard/pkg/logger"
	"github.com/marginguard/marginguard/pkg/providers"
	"github.com/marginguard/marginguard/pkg/tools"
)

// truncationNotice is appended when the conversation hits the round cap
// before the model produces a final answer.
const truncationNotice = "\n\n[Analysis stopped: reached the maximum number of reasoning rounds. The findings above may be incomplete.]"

// Loop drives one multi-round conversation per Run call. It holds no
// per-conversation state, so a single Loop serves concurrent requests.
type Loop struct {
	provider  providers.ChatProvider
	registry  *tools.Registry
	model     string
	maxRounds int
	options   map[string]interface{}
}

// New creates a loop. maxRounds below 1 falls back to a single round.
func New(provider providers.ChatProvider, registry *tools.Registry, model string, maxRounds int) *Loop {
	if maxRounds < 1 {
		maxRounds = 1
	}
	return &Loop{
		provider:  provider,
		registry:  registry,
		model:     model,
		maxRounds: maxRounds,
		options:   map[string]interface{}{},
	}
}

// SetOptions sets per-request sampling options passed through to the
// provider, such as max_tokens and temperature. Call before Run.
func (l *Loop) SetOptions(options map[string]interface{}) {
	if options == nil {
		options = map[string]interface{}{}
	}
	l.options = options
}

// Run answers a conversation whose last turn is the user's question. Every
// round streams; prose deltas are forwarded to sink as they arrive, and tool
// activity is announced through sink with bracketed markers. The returned
// string is the full final text.
func (l *Loop) Run(ctx context.Context, conversation []providers.Message, sink func(string)) (string, error) {
	if len(conversation) == 0 {
		return "", fmt.Errorf("empty conversation")
	}
	last := conversation[len(conversation)-1]
	if last.Role != "user" || strings.TrimSpace(last.Content) == "" {
		return "", fmt.Errorf("conversation must end with a non-empty user message")
	}
	if sink == nil {
		sink = func(string) {}
	}

	messages := make([]providers.Message, 0, len(conversation)+1)
	messages = append(messages, providers.Message{Role: "system", Content: systemPrompt})
	messages = append(messages, conversation...)
	defs := l.registry.Definitions()

	var final strings.Builder
	for round := 1; round <= l.maxRounds; round++ {
		resp, err := l.provider.ChatStream(ctx, messages, defs, l.model, l.options, func(delta string) {
			final.WriteString(delta)
			sink(delta)
		})
		if err != nil {
			return final.String(), fmt.Errorf("round %d: %w", round, err)
		}

		logger.InfoCF("agent", "Round completed", map[string]interface{}{
			"round":         round,
			"tool_calls":    len(resp.ToolCalls),
			"finish_reason": resp.FinishReason,
		})

		if len(resp.ToolCalls) == 0 {
			return final.String(), nil
		}

		messages = append(messages, assistantToolMessage(resp))
		for _, call := range resp.ToolCalls {
			if err := ctx.Err(); err != nil {
				return final.String(), err
			}
			marker := fmt.Sprintf("\n[Calling tool: %s...]\n", call.Name)
			final.WriteString(marker)
			sink(marker)

			result := l.registry.Execute(ctx, call.Name, call.Arguments)
			messages = append(messages, providers.Message{
				Role:       "tool",
				Content:    result.ForLLM,
				ToolCallID: call.ID,
			})
		}
	}

	logger.WarnCF("agent", "Round limit reached", map[string]interface{}{
		"max_rounds": l.maxRounds,
	})
	final.WriteString(truncationNotice)
	sink(truncationNotice)
	return final.String(), nil
}

// assistantToolMessage replays the model's tool call turn into history in
// the wire shape the API expects back.
func assistantToolMessage(resp *providers.LLMResponse) providers.Message {
	msg := providers.Message{
		Role:    "assistant",
		Content: resp.Content,
	}
	for _, call := range resp.ToolCalls {
		args := call.RawArguments
		if args == "" {
			args = "{}"
		}
		msg.ToolCalls = append(msg.ToolCalls, providers.RawToolCall{
			ID:   call.ID,
			Type: "function",
			Function: providers.RawFunction{
				Name:      call.Name,
				Arguments: args,
			},
		})
	}
	return msg
}
