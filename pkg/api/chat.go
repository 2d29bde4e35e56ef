package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/marginguard/marginguard/pkg/logger"
	"github.com/marginguard/marginguard/pkg/providers"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
}

// streamWriter defers the 200 header until the first byte of agent output,
// so failures before anything streamed can still return a JSON error.
type streamWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func (s *streamWriter) write(text string) {
	if !s.started {
		s.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}
	s.w.Write([]byte(text))
	s.flusher.Flush()
}

// handleChat runs one agent conversation and streams the agent's output as
// plain text: prose tokens as they arrive, interleaved with bracketed tool
// markers.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.ValidateForChat(); err != nil || s.loop == nil {
		writeError(w, http.StatusServiceUnavailable, "model API key not configured")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	conversation := make([]providers.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role != "user" && m.Role != "assistant" {
			continue
		}
		conversation = append(conversation, providers.Message{Role: m.Role, Content: m.Content})
	}
	if len(conversation) == 0 || conversation[len(conversation)-1].Role != "user" ||
		strings.TrimSpace(conversation[len(conversation)-1].Content) == "" {
		writeError(w, http.StatusBadRequest, "a non-empty user message is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	timeout := time.Duration(s.cfg.Server.RequestTimeoutSec) * time.Second
	ctx := r.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sw := &streamWriter{w: w, flusher: flusher}
	_, err := s.loop.Run(ctx, conversation, sw.write)
	if err != nil {
		logger.ErrorCF("api", "Chat request failed", map[string]interface{}{
			"error": err.Error(),
		})
		if !sw.started {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		// Headers are gone; mark the stream as interrupted instead.
		sw.write("\n\n[Analysis interrupted: " + err.Error() + "]")
		return
	}
	if !sw.started {
		// The model produced nothing; still commit an empty 200 stream.
		sw.write("")
	}
}
