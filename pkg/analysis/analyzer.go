// Package analysis implements the deterministic financial aggregations the
// agent's tools invoke. Every operation is a pure query over the injected
// read-only dataset plus the injected clock; nothing here mutates state.
package analysis

import (
	"errors"
	"fmt"
	"time"

	"github.com/marginguard/marginguard/pkg/dataset"
)

// Sentinel errors. Tool dispatch turns these into recoverable {"error": ...}
// results so the conversation can continue.
var (
	ErrProjectNotFound = errors.New("project not found")
	ErrNoData          = errors.New("no matching data")
)

// ProjectNotFoundError reports an unknown project id.
type ProjectNotFoundError struct {
	ProjectID string
}

func (e *ProjectNotFoundError) Error() string {
	return fmt.Sprintf("Project %s not found", e.ProjectID)
}

func (e *ProjectNotFoundError) Unwrap() error { return ErrProjectNotFound }

// NoDataError reports a query that matched zero rows.
type NoDataError struct {
	What string
}

func (e *NoDataError) Error() string { return e.What }

func (e *NoDataError) Unwrap() error { return ErrNoData }

// Analyzer runs the aggregation operations. The clock is injected so that
// wall-clock metrics (days pending, days waiting) are deterministic in tests.
type Analyzer struct {
	store *dataset.Store
	now   func() time.Time
}

// New creates an Analyzer over a loaded store. A nil now defaults to
// time.Now.
func New(store *dataset.Store, now func() time.Time) *Analyzer {
	if now == nil {
		now = time.Now
	}
	return &Analyzer{store: store, now: now}
}

// Store exposes the underlying dataset for read-only consumers such as the
// reports endpoint.
func (a *Analyzer) Store() *dataset.Store { return a.store }

// daysSince counts whole days from a YYYY-MM-DD date to the analyzer clock.
// Unparseable dates count as zero days.
func (a *Analyzer) daysSince(dateStr string) int {
	d, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return 0
	}
	days := int(a.now().UTC().Sub(d).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Risk tiers, ordered by severity for sorting.
const (
	RiskCritical = "CRITICAL"
	RiskWatch    = "WATCH"
	RiskHealthy  = "HEALTHY"
)

func riskRank(level string) int {
	switch level {
	case RiskCritical:
		return 0
	case RiskWatch:
		return 1
	default:
		return 2
	}
}

// SOV line statuses used by project investigation.
const (
	LineStatusCritical = "CRITICAL"
	LineStatusOverrun  = "OVERRUNNING"
	LineStatusOnTrack  = "ON_TRACK"
	BillingUnderbilled = "UNDERBILLED"
	BillingOverbilled  = "OVERBILLED"
	BillingOnTrack     = "ON_TRACK"
)
