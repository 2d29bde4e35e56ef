// Package digest emails a scheduled portfolio health summary.
package digest

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/adhocore/gronx"

	"github.com/marginguard/marginguard/pkg/analysis"
	"github.com/marginguard/marginguard/pkg/logger"
	"github.com/marginguard/marginguard/pkg/notify"
)

// Scheduler fires the digest when its cron expression is due, checked once
// a minute.
type Scheduler struct {
	expr     string
	analyzer *analysis.Analyzer
	mailer   *notify.Mailer
	to       string
	gron     *gronx.Gronx
	now      func() time.Time
}

// New validates the cron expression up front. A nil now defaults to
// time.Now.
func New(expr string, analyzer *analysis.Analyzer, mailer *notify.Mailer, to string, now func() time.Time) (*Scheduler, error) {
	g := gronx.New()
	if !g.IsValid(expr) {
		return nil, fmt.Errorf("invalid cron expression: %q", expr)
	}
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		expr:     expr,
		analyzer: analyzer,
		mailer:   mailer,
		to:       to,
		gron:     g,
		now:      now,
	}, nil
}

// Start blocks until ctx is done, checking the schedule once a minute.
func (s *Scheduler) Start(ctx context.Context) {
	logger.InfoCF("digest", "Digest scheduler started", map[string]interface{}{
		"cron": s.expr,
		"to":   s.to,
	})
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoCF("digest", "Digest scheduler stopped", nil)
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one schedule check and sends the digest when due.
func (s *Scheduler) Tick(ctx context.Context) {
	due, err := s.gron.IsDue(s.expr, s.now())
	if err != nil {
		logger.WarnCF("digest", "Schedule check failed", map[string]interface{}{
			"cron":  s.expr,
			"error": err.Error(),
		})
		return
	}
	if !due {
		return
	}

	scan := s.analyzer.ScanPortfolio()
	subject := fmt.Sprintf("Portfolio digest: %d critical, %d watch",
		scan.Summary.CriticalCount, scan.Summary.WatchCount)
	res := s.mailer.Send(ctx, s.to, subject, BuildHTML(scan))
	if !res.Success {
		logger.WarnCF("digest", "Digest delivery failed", map[string]interface{}{
			"message": res.Message,
		})
		return
	}
	logger.InfoCF("digest", "Digest sent", map[string]interface{}{
		"to":       s.to,
		"projects": scan.Summary.ProjectCount,
	})
}

// BuildHTML renders the scan as a simple HTML table, riskiest projects
// first with their top concerns.
func BuildHTML(scan *analysis.PortfolioScan) string {
	var b strings.Builder
	b.WriteString("<h2>Portfolio health digest</h2>")
	b.WriteString(fmt.Sprintf(
		"<p>%d projects: %d critical, %d watch, %d healthy. Total billing lag $%.0f.</p>",
		scan.Summary.ProjectCount, scan.Summary.CriticalCount,
		scan.Summary.WatchCount, scan.Summary.HealthyCount,
		scan.Summary.TotalBillingLag))

	b.WriteString("<table border=\"1\" cellpadding=\"4\"><tr><th>Project</th><th>Risk</th><th>Margin</th><th>Billing lag</th><th>Top concerns</th></tr>")
	for _, p := range scan.Projects {
		concerns := "None"
		if len(p.TopConcerns) > 0 {
			concerns = html.EscapeString(strings.Join(p.TopConcerns, "; "))
		}
		b.WriteString(fmt.Sprintf(
			"<tr><td>%s (%s)</td><td>%s</td><td>%.1f%%</td><td>$%.0f</td><td>%s</td></tr>",
			html.EscapeString(p.ProjectName), html.EscapeString(p.ProjectID),
			p.RiskLevel, p.CurrentMarginPct, p.BillingLag, concerns))
	}
	b.WriteString("</table>")
	return b.String()
}
