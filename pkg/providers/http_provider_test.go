package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatParsesToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		w.Write([]byte(`{
			"choices": [{
				"message": {
					"content": "",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "scanPortfolio", "arguments": "{}"}
					}]
				},
				"finish_reason": "tool_calls"
			}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider("key-1", srv.URL, "")
	resp, err := p.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil, "test-model", nil)
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "scanPortfolio", resp.ToolCalls[0].Name)
	assert.Equal(t, "tool_calls", resp.FinishReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
}

func TestChatMalformedArgumentsDegradeToRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"choices": [{
				"message": {
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "investigateProject", "arguments": "{not json"}
					}]
				},
				"finish_reason": "tool_calls"
			}]
		}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider("key", srv.URL, "")
	resp, err := p.Chat(context.Background(), nil, nil, "test-model", nil)
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "{not json", resp.ToolCalls[0].Arguments["raw"])
}

func TestChatNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider("key", srv.URL, "")
	_, err := p.Chat(context.Background(), nil, nil, "test-model", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}

func sseBody(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestChatStreamForwardsTextDeltas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(sseBody(
			`data: {"choices":[{"delta":{"content":"Margins "}}]}`,
			``,
			`data: {"choices":[{"delta":{"content":"look thin."},"finish_reason":"stop"}]}`,
			`data: [DONE]`,
		)))
	}))
	defer srv.Close()

	var deltas []string
	p := NewHTTPProvider("key", srv.URL, "")
	resp, err := p.ChatStream(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil, "test-model", nil, func(s string) {
		deltas = append(deltas, s)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Margins ", "look thin."}, deltas)
	assert.Equal(t, "Margins look thin.", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Empty(t, resp.ToolCalls)
}

func TestChatStreamAccumulatesToolCallFragments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sseBody(
			`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_9","type":"function","function":{"name":"analyzeLaborDetails","arguments":""}}]}}]}`,
			`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"project_id\":"}}]}}]}`,
			`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"P1\"}"}}]}}]}`,
			`data: {"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
			`data: [DONE]`,
		)))
	}))
	defer srv.Close()

	p := NewHTTPProvider("key", srv.URL, "")
	resp, err := p.ChatStream(context.Background(), nil, nil, "test-model", nil, nil)
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	call := resp.ToolCalls[0]
	assert.Equal(t, "call_9", call.ID)
	assert.Equal(t, "analyzeLaborDetails", call.Name)
	assert.Equal(t, "P1", call.Arguments["project_id"])
	assert.Equal(t, "tool_calls", resp.FinishReason)
}

func TestChatStreamSkipsMalformedChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sseBody(
			`data: {"choices":[{"delta":{"content":"ok "}}]}`,
			`data: {corrupt`,
			`: keepalive comment`,
			`data: {"choices":[{"delta":{"content":"fine"}}]}`,
			`data: [DONE]`,
		)))
	}))
	defer srv.Close()

	p := NewHTTPProvider("key", srv.URL, "")
	resp, err := p.ChatStream(context.Background(), nil, nil, "test-model", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok fine", resp.Content)
}

func TestChatStreamMissingCallIDGetsGenerated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sseBody(
			`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"name":"scanPortfolio","arguments":"{}"}}]}}]}`,
			`data: [DONE]`,
		)))
	}))
	defer srv.Close()

	p := NewHTTPProvider("key", srv.URL, "")
	resp, err := p.ChatStream(context.Background(), nil, nil, "test-model", nil, nil)
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.True(t, strings.HasPrefix(resp.ToolCalls[0].ID, "call_"))
}
