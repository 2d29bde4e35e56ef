package providers

import "context"

// Message is one turn in the conversation sent to the model. Tool results
// use role "tool" with ToolCallID linking back to the call they answer.
type Message struct {
	Role       string        `json:"role"`
	Content    string        `json:"content"`
	ToolCalls  []RawToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

// RawToolCall is the wire shape of a tool call inside an assistant message,
// echoed back verbatim when replaying conversation history.
type RawToolCall struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	Function RawFunction `json:"function"`
}

type RawFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition advertises one callable tool to the model.
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

type FunctionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// ToolCall is a parsed tool invocation request from the model. Arguments
// that fail to parse as JSON are preserved under the "raw" key.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]interface{}
	// RawArguments keeps the original argument text for history replay.
	RawArguments string
}

// UsageInfo reports token consumption when the API includes it.
type UsageInfo struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// LLMResponse is one completed model turn: prose, tool calls, or both.
type LLMResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
	Usage        *UsageInfo
}

// ChatProvider is the surface the agent loop depends on. ChatStream invokes
// onText with each content delta as it arrives and returns the fully
// accumulated response once the stream closes.
type ChatProvider interface {
	Chat(ctx context.Context, messages []Message, tools []ToolDefinition, model string, options map[string]interface{}) (*LLMResponse, error)
	ChatStream(ctx context.Context, messages []Message, tools []ToolDefinition, model string, options map[string]interface{}, onText func(string)) (*LLMResponse, error)
}
