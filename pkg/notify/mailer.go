// Package notify delivers email through an HTTP mail API. Delivery problems
// are reported as failed Results, not errors, so a failed send never aborts
// an agent conversation.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marginguard/marginguard/pkg/logger"
)

// Result is the outcome of a send attempt.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Mailer posts messages to a Resend-compatible email API.
type Mailer struct {
	apiKey     string
	apiBase    string
	from       string
	httpClient *http.Client
}

// NewMailer creates a mailer. An empty apiBase defaults to the Resend API.
func NewMailer(apiKey, apiBase, from string) *Mailer {
	if apiBase == "" {
		apiBase = "https://api.resend.com"
	}
	return &Mailer{
		apiKey:  apiKey,
		apiBase: apiBase,
		from:    from,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Send delivers one HTML email. It always returns a Result describing what
// happened.
func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) Result {
	if m.apiKey == "" {
		return Result{Message: "email is not configured: missing mail API key"}
	}
	if to == "" {
		return Result{Message: "email is not configured: no recipient address"}
	}

	payload := map[string]interface{}{
		"from":    m.from,
		"to":      []string{to},
		"subject": subject,
		"html":    htmlBody,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Message: fmt.Sprintf("failed to encode email: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", m.apiBase+"/emails", bytes.NewReader(body))
	if err != nil {
		return Result{Message: fmt.Sprintf("failed to build email request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		logger.WarnCF("notify", "Email send failed", map[string]interface{}{
			"to":    to,
			"error": err.Error(),
		})
		return Result{Message: fmt.Sprintf("email send failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.WarnCF("notify", "Mail API rejected message", map[string]interface{}{
			"to":     to,
			"status": resp.StatusCode,
		})
		return Result{Message: fmt.Sprintf("mail API returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))}
	}

	logger.InfoCF("notify", "Email sent", map[string]interface{}{
		"to":      to,
		"subject": subject,
	})
	return Result{Success: true, Message: fmt.Sprintf("Email sent to %s", to)}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
