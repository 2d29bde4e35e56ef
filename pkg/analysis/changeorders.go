package analysis

import (
	"github.com/marginguard/marginguard/pkg/dataset"
	"github.com/marginguard/marginguard/pkg/metrics"
)

// Threshold after which a pending change order counts as overdue.
const coOverdueDays = 21

// ChangeOrderReview is one change order's row in the review.
type ChangeOrderReview struct {
	CONumber      string   `json:"co_number"`
	Description   string   `json:"description"`
	Status        string   `json:"status"`
	Amount        float64  `json:"amount"`
	DateSubmitted string   `json:"date_submitted"`
	DaysPending   int      `json:"days_pending"`
	Overdue       bool     `json:"overdue"`
	RelatedRFI    string   `json:"related_rfi,omitempty"`
	AffectedLines []string `json:"affected_sov_lines"`
}

// RFIExposure is one RFI's row: cost-impact RFIs with no change order
// referencing them are flagged as unbilled exposure.
type RFIExposure struct {
	RFINumber        string `json:"rfi_number"`
	Subject          string `json:"subject"`
	Status           string `json:"status"`
	DateSubmitted    string `json:"date_submitted"`
	CostImpact       bool   `json:"cost_impact"`
	ScheduleImpact   bool   `json:"schedule_impact"`
	DaysOpen         int    `json:"days_open"`
	UnbilledExposure bool   `json:"unbilled_exposure"`
}

// ChangeOrderSummary totals the review.
type ChangeOrderSummary struct {
	PendingCount     int     `json:"pending_count"`
	PendingValue     float64 `json:"pending_value"`
	ApprovedCount    int     `json:"approved_count"`
	ApprovedValue    float64 `json:"approved_value"`
	RejectedCount    int     `json:"rejected_count"`
	RejectedValue    float64 `json:"rejected_value"`
	OverdueCount     int     `json:"overdue_count"`
	UnbilledRFICount int     `json:"unbilled_rfi_count"`
}

// ChangeOrderReviewResult is the reviewChangeOrders result.
type ChangeOrderReviewResult struct {
	ProjectID    string              `json:"project_id"`
	Summary      ChangeOrderSummary  `json:"summary"`
	ChangeOrders []ChangeOrderReview `json:"change_orders"`
	RFIs         []RFIExposure       `json:"rfis"`
}

// ReviewChangeOrders audits a project's change orders and RFIs for stalled
// approvals and uncovered cost exposure. An unknown project yields an empty
// review rather than an error.
func (a *Analyzer) ReviewChangeOrders(projectID string) *ChangeOrderReviewResult {
	res := &ChangeOrderReviewResult{
		ProjectID:    projectID,
		ChangeOrders: []ChangeOrderReview{},
		RFIs:         []RFIExposure{},
	}

	cos := a.store.ChangeOrdersFor(projectID)
	for _, co := range cos {
		row := ChangeOrderReview{
			CONumber:      co.CONumber,
			Description:   co.Description,
			Status:        co.Status,
			Amount:        metrics.RoundMoney(co.Amount),
			DateSubmitted: co.DateSubmitted,
			RelatedRFI:    co.RelatedRFI,
			AffectedLines: metrics.ParseAffectedLines(co.AffectedSOVLines),
		}
		switch co.Status {
		case dataset.COStatusPending:
			row.DaysPending = a.daysSince(co.DateSubmitted)
			row.Overdue = row.DaysPending > coOverdueDays
			res.Summary.PendingCount++
			res.Summary.PendingValue += co.Amount
			if row.Overdue {
				res.Summary.OverdueCount++
			}
		case dataset.COStatusApproved:
			res.Summary.ApprovedCount++
			res.Summary.ApprovedValue += co.Amount
		case dataset.COStatusRejected:
			res.Summary.RejectedCount++
			res.Summary.RejectedValue += co.Amount
		}
		res.ChangeOrders = append(res.ChangeOrders, row)
	}

	for _, r := range a.store.RFIsFor(projectID) {
		costImpact := metrics.ParseBool(r.CostImpact)
		row := RFIExposure{
			RFINumber:      r.RFINumber,
			Subject:        r.Subject,
			Status:         r.Status,
			DateSubmitted:  r.DateSubmitted,
			CostImpact:     costImpact,
			ScheduleImpact: metrics.ParseBool(r.ScheduleImpact),
		}
		if r.Status != "Answered" && r.Status != "Closed" {
			row.DaysOpen = a.daysSince(r.DateSubmitted)
		}
		if costImpact && !rfiCoveredByCO(r.RFINumber, cos) {
			row.UnbilledExposure = true
			res.Summary.UnbilledRFICount++
		}
		res.RFIs = append(res.RFIs, row)
	}

	res.Summary.PendingValue = metrics.RoundMoney(res.Summary.PendingValue)
	res.Summary.ApprovedValue = metrics.RoundMoney(res.Summary.ApprovedValue)
	res.Summary.RejectedValue = metrics.RoundMoney(res.Summary.RejectedValue)
	return res
}
