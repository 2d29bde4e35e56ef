package analysis

import (
	"sort"

	"github.com/marginguard/marginguard/pkg/metrics"
)

// LineBillingHealth compares billed progress to cost-based progress on one
// SOV line.
type LineBillingHealth struct {
	SOVLineID      string  `json:"sov_line_id"`
	Description    string  `json:"description"`
	ScheduledValue float64 `json:"scheduled_value"`
	CostBasedPct   float64 `json:"cost_based_pct_complete"`
	BilledPct      float64 `json:"billed_pct_complete"`
	GapPct         float64 `json:"gap_pct"`
	GapDollars     float64 `json:"gap_dollars"`
	Status         string  `json:"status"`
}

// BillingHealth is the checkBillingHealth result.
type BillingHealth struct {
	ProjectID            string              `json:"project_id"`
	ProjectName          string              `json:"project_name"`
	Lines                []LineBillingHealth `json:"lines"`
	TotalCostIncurred    float64             `json:"total_cost_incurred"`
	CumulativeBilled     float64             `json:"cumulative_billed"`
	NetCashReceived      float64             `json:"net_cash_received"`
	CashGap              float64             `json:"cash_gap"`
	TotalUnderbilled     float64             `json:"total_underbilled_dollars"`
	UnderbilledLineCount int                 `json:"underbilled_line_count"`
}

// CheckBillingHealth compares each SOV line's billed percent complete
// against its cost-based percent complete and summarizes the cash position.
func (a *Analyzer) CheckBillingHealth(projectID string) (*BillingHealth, error) {
	c := a.store.Contract(projectID)
	if c == nil {
		return nil, &ProjectNotFoundError{ProjectID: projectID}
	}

	res := &BillingHealth{
		ProjectID:   c.ProjectID,
		ProjectName: c.ProjectName,
		Lines:       []LineBillingHealth{},
	}

	// Actual cost per line: burdened labor plus materials.
	lineCost := map[string]float64{}
	var totalCost float64
	for _, l := range a.store.LaborFor(projectID, "") {
		cost := metrics.LaborCost(l)
		lineCost[l.SOVLineID] += cost
		totalCost += cost
	}
	for _, m := range a.store.MaterialsFor(projectID, "") {
		lineCost[m.SOVLineID] += m.TotalCost
		totalCost += m.TotalCost
	}

	for _, line := range a.store.SOVLinesFor(projectID) {
		var estCost float64
		if b := a.store.BudgetFor(projectID, line.SOVLineID); b != nil {
			estCost = b.EstimatedLaborCost + b.EstimatedMaterialCost + b.EstimatedEquipmentCost + b.EstimatedSubCost
		}
		costPct := metrics.SafeDivide(lineCost[line.SOVLineID], estCost) * 100

		var billedPct float64
		if li := a.store.LatestLineBilling(projectID, line.SOVLineID); li != nil {
			billedPct = li.PctComplete
		}

		gap := costPct - billedPct
		gapDollars := gap / 100 * line.ScheduledValue
		status := BillingOnTrack
		switch {
		case gap > 10:
			status = BillingUnderbilled
		case gap < -10:
			status = BillingOverbilled
		}
		if status == BillingUnderbilled {
			res.TotalUnderbilled += gapDollars
			res.UnderbilledLineCount++
		}

		res.Lines = append(res.Lines, LineBillingHealth{
			SOVLineID:      line.SOVLineID,
			Description:    line.Description,
			ScheduledValue: line.ScheduledValue,
			CostBasedPct:   metrics.RoundPct(costPct),
			BilledPct:      metrics.RoundPct(billedPct),
			GapPct:         metrics.RoundPct(gap),
			GapDollars:     metrics.RoundMoney(gapDollars),
			Status:         status,
		})
	}
	sort.SliceStable(res.Lines, func(i, j int) bool {
		return res.Lines[i].GapDollars > res.Lines[j].GapDollars
	})

	var billed, received float64
	if app := a.store.LatestBilling(projectID); app != nil {
		billed = app.CumulativeBilled
	}
	for _, app := range a.store.BillingFor(projectID) {
		if app.Status == "Paid" {
			received += app.NetPaymentDue
		}
	}

	res.TotalCostIncurred = metrics.RoundMoney(totalCost)
	res.CumulativeBilled = metrics.RoundMoney(billed)
	res.NetCashReceived = metrics.RoundMoney(received)
	res.CashGap = metrics.RoundMoney(totalCost - received)
	res.TotalUnderbilled = metrics.RoundMoney(res.TotalUnderbilled)
	return res, nil
}
