package tools

import (
	"context"

	"github.com/marginguard/marginguard/pkg/notify"
)

// EmailReportTool sends an HTML report to the configured recipient. Send
// failures come back as ordinary results, never error results: a broken
// mail pipe should not derail an analysis conversation.
type EmailReportTool struct {
	mailer    *notify.Mailer
	defaultTo string
}

func NewEmailReportTool(m *notify.Mailer, defaultTo string) *EmailReportTool {
	return &EmailReportTool{mailer: m, defaultTo: defaultTo}
}

func (t *EmailReportTool) Name() string { return "sendEmailReport" }

func (t *EmailReportTool) Description() string {
	return "Email an HTML report to the project executive. Use after completing an analysis when the user asks for a report to be sent."
}

func (t *EmailReportTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"subject": map[string]interface{}{
				"type":        "string",
				"description": "Email subject line",
			},
			"html_body": map[string]interface{}{
				"type":        "string",
				"description": "HTML body of the report",
			},
			"to": map[string]interface{}{
				"type":        "string",
				"description": "Optional recipient; defaults to the configured report address",
			},
		},
		"required": []string{"subject", "html_body"},
	}
}

func (t *EmailReportTool) Execute(ctx context.Context, args map[string]interface{}) *ToolResult {
	to := getStringArg(args, "to")
	if to == "" {
		to = t.defaultTo
	}
	res := t.mailer.Send(ctx, to, getStringArg(args, "subject"), getStringArg(args, "html_body"))
	return JSONResult(res)
}
