package tools

import (
	"github.com/marginguard/marginguard/pkg/analysis"
	"github.com/marginguard/marginguard/pkg/notify"
)

// DefaultRegistry wires the full tool set over one analyzer and mailer.
func DefaultRegistry(a *analysis.Analyzer, m *notify.Mailer, reportTo string) (*Registry, error) {
	return NewRegistry(
		NewScanPortfolioTool(a),
		NewInvestigateProjectTool(a),
		NewAnalyzeLaborTool(a),
		NewBillingHealthTool(a),
		NewChangeOrderTool(a),
		NewFieldNotesTool(a),
		NewEmailReportTool(m, reportTo),
	)
}
