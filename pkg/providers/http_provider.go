package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marginguard/marginguard/pkg/logger"
)

// HTTPProvider talks to any OpenAI-compatible /chat/completions endpoint.
type HTTPProvider struct {
	apiKey     string
	apiBase    string
	httpClient *http.Client
}

// NewHTTPProvider creates a provider. An optional proxy URL routes the
// client's transport.
func NewHTTPProvider(apiKey, apiBase, proxy string) *HTTPProvider {
	client := &http.Client{
		Timeout: 120 * time.Second,
	}
	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil {
			client.Transport = &http.Transport{
				Proxy: http.ProxyURL(proxyURL),
			}
		}
	}
	return &HTTPProvider{
		apiKey:     apiKey,
		apiBase:    strings.TrimRight(apiBase, "/"),
		httpClient: client,
	}
}

func (p *HTTPProvider) buildRequestBody(messages []Message, tools []ToolDefinition, model string, options map[string]interface{}) map[string]interface{} {
	requestBody := map[string]interface{}{
		"model":    model,
		"messages": messages,
	}
	if len(tools) > 0 {
		requestBody["tools"] = tools
		requestBody["tool_choice"] = "auto"
	}
	if maxTokens, ok := options["max_tokens"].(int); ok {
		requestBody["max_tokens"] = maxTokens
	}
	if temperature, ok := options["temperature"].(float64); ok {
		requestBody["temperature"] = temperature
	}
	return requestBody
}

func (p *HTTPProvider) post(ctx context.Context, requestBody map[string]interface{}) (*http.Response, error) {
	if p.apiBase == "" {
		return nil, fmt.Errorf("API base not configured")
	}
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.apiBase+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("API request failed:\n  Status: %d\n  Body:   %s", resp.StatusCode, string(body))
	}
	return resp, nil
}

// Chat performs one non-streaming completion.
func (p *HTTPProvider) Chat(ctx context.Context, messages []Message, tools []ToolDefinition, model string, options map[string]interface{}) (*LLMResponse, error) {
	requestBody := p.buildRequestBody(messages, tools, model, options)

	logger.DebugCF("provider.http", "LLM request sent", map[string]interface{}{
		"endpoint":       p.apiBase + "/chat/completions",
		"model":          model,
		"messages_count": len(messages),
	})

	resp, err := p.post(ctx, requestBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	llmResp, err := parseResponse(body)
	if err != nil {
		return nil, err
	}
	logger.DebugCF("provider.http", "LLM response parsed", map[string]interface{}{
		"model":         model,
		"content_len":   len(llmResp.Content),
		"tool_calls":    len(llmResp.ToolCalls),
		"finish_reason": llmResp.FinishReason,
	})
	return llmResp, nil
}

// ChatStream performs one streaming completion. Content deltas are passed
// to onText as they arrive; tool call fragments are accumulated and
// returned whole. Malformed stream chunks are skipped rather than failing
// the whole request.
func (p *HTTPProvider) ChatStream(ctx context.Context, messages []Message, tools []ToolDefinition, model string, options map[string]interface{}, onText func(string)) (*LLMResponse, error) {
	requestBody := p.buildRequestBody(messages, tools, model, options)
	requestBody["stream"] = true

	logger.DebugCF("provider.http", "LLM stream started", map[string]interface{}{
		"endpoint":       p.apiBase + "/chat/completions",
		"model":          model,
		"messages_count": len(messages),
	})

	resp, err := p.post(ctx, requestBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	result := &LLMResponse{}
	var content strings.Builder
	calls := newToolCallAccumulator()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			logger.DebugCF("provider.http", "Skipping malformed stream chunk", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		if chunk.Usage != nil {
			result.Usage = chunk.Usage
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		if choice.FinishReason != "" {
			result.FinishReason = choice.FinishReason
		}
		if choice.Delta.Content != "" {
			content.WriteString(choice.Delta.Content)
			if onText != nil {
				onText(choice.Delta.Content)
			}
		}
		for _, tc := range choice.Delta.ToolCalls {
			calls.add(tc)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}

	result.Content = content.String()
	result.ToolCalls = calls.finish()
	if result.FinishReason == "" {
		if len(result.ToolCalls) > 0 {
			result.FinishReason = "tool_calls"
		} else {
			result.FinishReason = "stop"
		}
	}
	logger.DebugCF("provider.http", "LLM stream finished", map[string]interface{}{
		"model":         model,
		"content_len":   len(result.Content),
		"tool_calls":    len(result.ToolCalls),
		"finish_reason": result.FinishReason,
	})
	return result, nil
}

func (p *HTTPProvider) GetDefaultModel() string {
	return ""
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content   string          `json:"content"`
			ToolCalls []toolCallDelta `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *UsageInfo `json:"usage"`
}

type toolCallDelta struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// toolCallAccumulator stitches streamed tool call fragments back together.
// Fragments for the same call share an index; names and ids arrive on the
// first fragment, argument text is appended across all of them.
type toolCallAccumulator struct {
	byIndex map[int]*partialCall
}

type partialCall struct {
	index int
	id    string
	name  string
	args  strings.Builder
}

func newToolCallAccumulator() *toolCallAccumulator {
	return &toolCallAccumulator{byIndex: map[int]*partialCall{}}
}

func (a *toolCallAccumulator) add(d toolCallDelta) {
	pc := a.byIndex[d.Index]
	if pc == nil {
		pc = &partialCall{index: d.Index}
		a.byIndex[d.Index] = pc
	}
	if d.ID != "" {
		pc.id = d.ID
	}
	if d.Function.Name != "" {
		pc.name = d.Function.Name
	}
	pc.args.WriteString(d.Function.Arguments)
}

func (a *toolCallAccumulator) finish() []ToolCall {
	if len(a.byIndex) == 0 {
		return nil
	}
	partials := make([]*partialCall, 0, len(a.byIndex))
	for _, pc := range a.byIndex {
		partials = append(partials, pc)
	}
	sort.Slice(partials, func(i, j int) bool { return partials[i].index < partials[j].index })

	out := make([]ToolCall, 0, len(partials))
	for _, pc := range partials {
		id := pc.id
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		out = append(out, parseToolCall(id, pc.name, pc.args.String()))
	}
	return out
}

// parseToolCall decodes argument JSON, degrading to a {"raw": ...} map when
// the model emits something unparseable.
func parseToolCall(id, name, rawArgs string) ToolCall {
	arguments := make(map[string]interface{})
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &arguments); err != nil {
			arguments = map[string]interface{}{"raw": rawArgs}
		}
	}
	return ToolCall{
		ID:           id,
		Name:         name,
		Arguments:    arguments,
		RawArguments: rawArgs,
	}
}

func parseResponse(body []byte) (*LLMResponse, error) {
	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content   string `json:"content"`
				ToolCalls []struct {
					ID       string `json:"id"`
					Type     string `json:"type"`
					Function *struct {
						Name      string `json:"name"`
						Arguments string `json:"arguments"`
					} `json:"function"`
				} `json:"tool_calls"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage *UsageInfo `json:"usage"`
	}

	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(apiResponse.Choices) == 0 {
		return &LLMResponse{FinishReason: "stop"}, nil
	}

	choice := apiResponse.Choices[0]
	toolCalls := make([]ToolCall, 0, len(choice.Message.ToolCalls))
	for _, tc := range choice.Message.ToolCalls {
		name := ""
		rawArgs := ""
		if tc.Function != nil {
			name = tc.Function.Name
			rawArgs = tc.Function.Arguments
		}
		id := tc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		toolCalls = append(toolCalls, parseToolCall(id, name, rawArgs))
	}

	return &LLMResponse{
		Content:      choice.Message.Content,
		ToolCalls:    toolCalls,
		FinishReason: choice.FinishReason,
		Usage:        apiResponse.Usage,
	}, nil
}
