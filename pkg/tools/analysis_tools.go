package tools

import (
	"context"
	"errors"

	"github.com/marginguard/marginguard/pkg/analysis"
)

// toolError maps analyzer failures onto recoverable error results.
func toolError(err error) *ToolResult {
	var notFound *analysis.ProjectNotFoundError
	if errors.As(err, &notFound) {
		return ErrorResult(notFound.Error())
	}
	var noData *analysis.NoDataError
	if errors.As(err, &noData) {
		return ErrorResult(noData.Error())
	}
	return ErrorResult(err.Error())
}

func projectIDParam(required bool) map[string]interface{} {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"project_id": map[string]interface{}{
				"type":        "string",
				"description": "Project identifier, e.g. PROJ-001",
			},
		},
	}
	if required {
		schema["required"] = []string{"project_id"}
	}
	return schema
}

// ScanPortfolioTool surveys every project's financial health.
type ScanPortfolioTool struct {
	analyzer *analysis.Analyzer
}

func NewScanPortfolioTool(a *analysis.Analyzer) *ScanPortfolioTool {
	return &ScanPortfolioTool{analyzer: a}
}

func (t *ScanPortfolioTool) Name() string { return "scanPortfolio" }

func (t *ScanPortfolioTool) Description() string {
	return "Scan all projects and return margin, labor, billing, and change order health metrics for each, with a risk level (CRITICAL, WATCH, HEALTHY) and top concerns. Start here for any portfolio-wide question."
}

func (t *ScanPortfolioTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (t *ScanPortfolioTool) Execute(ctx context.Context, args map[string]interface{}) *ToolResult {
	return JSONResult(t.analyzer.ScanPortfolio())
}

// InvestigateProjectTool drills into one project's SOV lines.
type InvestigateProjectTool struct {
	analyzer *analysis.Analyzer
}

func NewInvestigateProjectTool(a *analysis.Analyzer) *InvestigateProjectTool {
	return &InvestigateProjectTool{analyzer: a}
}

func (t *InvestigateProjectTool) Name() string { return "investigateProject" }

func (t *InvestigateProjectTool) Description() string {
	return "Deep-dive one project: per-SOV-line estimated vs actual cost and hours, percent billed, estimated cost at completion, and a status per line (ON_TRACK, OVERRUNNING, CRITICAL). Worst line first."
}

func (t *InvestigateProjectTool) Parameters() map[string]interface{} {
	return projectIDParam(true)
}

func (t *InvestigateProjectTool) Execute(ctx context.Context, args map[string]interface{}) *ToolResult {
	res, err := t.analyzer.InvestigateProject(getStringArg(args, "project_id"))
	if err != nil {
		return toolError(err)
	}
	return JSONResult(res)
}

// AnalyzeLaborTool breaks labor down by role, week, and employee.
type AnalyzeLaborTool struct {
	analyzer *analysis.Analyzer
}

func NewAnalyzeLaborTool(a *analysis.Analyzer) *AnalyzeLaborTool {
	return &AnalyzeLaborTool{analyzer: a}
}

func (t *AnalyzeLaborTool) Name() string { return "analyzeLaborDetails" }

func (t *AnalyzeLaborTool) Description() string {
	return "Break down a project's labor by role, by week (flagging heavy overtime weeks), and by top employees, with the overtime premium paid. Optionally scope to one SOV line to compare against its labor budget."
}

func (t *AnalyzeLaborTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"project_id": map[string]interface{}{
				"type":        "string",
				"description": "Project identifier",
			},
			"sov_line_id": map[string]interface{}{
				"type":        "string",
				"description": "Optional SOV line to scope the analysis to",
			},
		},
		"required": []string{"project_id"},
	}
}

func (t *AnalyzeLaborTool) Execute(ctx context.Context, args map[string]interface{}) *ToolResult {
	res, err := t.analyzer.AnalyzeLaborDetails(getStringArg(args, "project_id"), getStringArg(args, "sov_line_id"))
	if err != nil {
		return toolError(err)
	}
	return JSONResult(res)
}

// BillingHealthTool compares billed progress to cost progress.
type BillingHealthTool struct {
	analyzer *analysis.Analyzer
}

func NewBillingHealthTool(a *analysis.Analyzer) *BillingHealthTool {
	return &BillingHealthTool{analyzer: a}
}

func (t *BillingHealthTool) Name() string { return "checkBillingHealth" }

func (t *BillingHealthTool) Description() string {
	return "Compare each SOV line's billed percent complete against its cost-based percent complete to find underbilled and overbilled lines, plus the project's cash position."
}

func (t *BillingHealthTool) Parameters() map[string]interface{} {
	return projectIDParam(true)
}

func (t *BillingHealthTool) Execute(ctx context.Context, args map[string]interface{}) *ToolResult {
	res, err := t.analyzer.CheckBillingHealth(getStringArg(args, "project_id"))
	if err != nil {
		return toolError(err)
	}
	return JSONResult(res)
}

// ChangeOrderTool audits change orders and RFI exposure.
type ChangeOrderTool struct {
	analyzer *analysis.Analyzer
}

func NewChangeOrderTool(a *analysis.Analyzer) *ChangeOrderTool {
	return &ChangeOrderTool{analyzer: a}
}

func (t *ChangeOrderTool) Name() string { return "reviewChangeOrders" }

func (t *ChangeOrderTool) Description() string {
	return "Review a project's change orders (pending value, days pending, overdue approvals) and RFIs, flagging cost-impact RFIs that no change order covers."
}

func (t *ChangeOrderTool) Parameters() map[string]interface{} {
	return projectIDParam(true)
}

func (t *ChangeOrderTool) Execute(ctx context.Context, args map[string]interface{}) *ToolResult {
	return JSONResult(t.analyzer.ReviewChangeOrders(getStringArg(args, "project_id")))
}

// FieldNotesTool searches field note content.
type FieldNotesTool struct {
	analyzer *analysis.Analyzer
}

func NewFieldNotesTool(a *analysis.Analyzer) *FieldNotesTool {
	return &FieldNotesTool{analyzer: a}
}

func (t *FieldNotesTool) Name() string { return "searchFieldNotes" }

func (t *FieldNotesTool) Description() string {
	return "Search a project's field notes for keywords (case-insensitive), newest first. Useful for finding verbal directives, delays, damage reports, or other ground truth from the field."
}

func (t *FieldNotesTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"project_id": map[string]interface{}{
				"type":        "string",
				"description": "Project identifier",
			},
			"keywords": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Keywords to match; empty returns every note",
			},
		},
		"required": []string{"project_id"},
	}
}

func (t *FieldNotesTool) Execute(ctx context.Context, args map[string]interface{}) *ToolResult {
	return JSONResult(t.analyzer.SearchFieldNotes(getStringArg(args, "project_id"), getStringSliceArg(args, "keywords")))
}
