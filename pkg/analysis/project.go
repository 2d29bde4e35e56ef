package analysis

import (
	"sort"

	"github.com/marginguard/marginguard/pkg/metrics"
)

// SOVLineBreakdown compares one schedule-of-values line's estimate against
// its actuals.
type SOVLineBreakdown struct {
	SOVLineID             string  `json:"sov_line_id"`
	Description           string  `json:"description"`
	ScheduledValue        float64 `json:"scheduled_value"`
	EstimatedCost         float64 `json:"estimated_cost"`
	EstimatedLaborHours   float64 `json:"estimated_labor_hours"`
	ActualLaborHours      float64 `json:"actual_labor_hours"`
	ActualLaborCost       float64 `json:"actual_labor_cost"`
	ActualMaterialCost    float64 `json:"actual_material_cost"`
	ActualTotalCost       float64 `json:"actual_total_cost"`
	CostVariance          float64 `json:"cost_variance"`
	CostVariancePct       float64 `json:"cost_variance_pct"`
	HoursVariancePct      float64 `json:"hours_variance_pct"`
	PctBilled             float64 `json:"pct_billed"`
	EstimatedAtCompletion float64 `json:"estimated_at_completion"`
	Status                string  `json:"status"`
}

// ProjectInvestigation is the investigateProject result: the project's
// health row plus a per-SOV-line cost breakdown, worst line first.
type ProjectInvestigation struct {
	Project ProjectHealth      `json:"project"`
	Lines   []SOVLineBreakdown `json:"sov_lines"`
}

// InvestigateProject drills into one project, attributing cost and hours to
// each schedule-of-values line.
func (a *Analyzer) InvestigateProject(projectID string) (*ProjectInvestigation, error) {
	c := a.store.Contract(projectID)
	if c == nil {
		return nil, &ProjectNotFoundError{ProjectID: projectID}
	}

	inv := &ProjectInvestigation{
		Project: a.projectHealth(*c),
		Lines:   []SOVLineBreakdown{},
	}
	for _, line := range a.store.SOVLinesFor(projectID) {
		inv.Lines = append(inv.Lines, a.lineBreakdown(projectID, line.SOVLineID, line.Description, line.ScheduledValue))
	}
	sort.SliceStable(inv.Lines, func(i, j int) bool {
		return inv.Lines[i].CostVariance > inv.Lines[j].CostVariance
	})
	return inv, nil
}

func (a *Analyzer) lineBreakdown(projectID, sovLineID, description string, scheduledValue float64) SOVLineBreakdown {
	var estCost, estHours float64
	if b := a.store.BudgetFor(projectID, sovLineID); b != nil {
		estCost = b.EstimatedLaborCost + b.EstimatedMaterialCost + b.EstimatedEquipmentCost + b.EstimatedSubCost
		estHours = b.EstimatedLaborHours
	}

	var laborCost, hours float64
	for _, l := range a.store.LaborFor(projectID, sovLineID) {
		laborCost += metrics.LaborCost(l)
		hours += l.HoursST + l.HoursOT
	}

	var materialCost float64
	for _, m := range a.store.MaterialsFor(projectID, sovLineID) {
		materialCost += m.TotalCost
	}

	actualCost := laborCost + materialCost
	costVar := actualCost - estCost
	costVarPct := metrics.SafeDivide(costVar, estCost) * 100
	hoursVarPct := metrics.SafeDivide(hours-estHours, estHours) * 100

	var pctBilled float64
	if li := a.store.LatestLineBilling(projectID, sovLineID); li != nil {
		pctBilled = li.PctComplete
	}

	// A completion estimate extrapolated from billed progress is only
	// meaningful once real progress exists.
	eac := estCost
	if pctBilled > 5 {
		eac = metrics.SafeDivide(actualCost, pctBilled/100)
	}

	status := LineStatusOnTrack
	switch {
	case hoursVarPct > 30, costVarPct > 30:
		status = LineStatusCritical
	case hoursVarPct > 10, costVarPct > 10:
		status = LineStatusOverrun
	}

	return SOVLineBreakdown{
		SOVLineID:             sovLineID,
		Description:           description,
		ScheduledValue:        scheduledValue,
		EstimatedCost:         metrics.RoundMoney(estCost),
		EstimatedLaborHours:   metrics.Round(estHours, 1),
		ActualLaborHours:      metrics.Round(hours, 1),
		ActualLaborCost:       metrics.RoundMoney(laborCost),
		ActualMaterialCost:    metrics.RoundMoney(materialCost),
		ActualTotalCost:       metrics.RoundMoney(actualCost),
		CostVariance:          metrics.RoundMoney(costVar),
		CostVariancePct:       metrics.RoundPct(costVarPct),
		HoursVariancePct:      metrics.RoundPct(hoursVarPct),
		PctBilled:             metrics.RoundPct(pctBilled),
		EstimatedAtCompletion: metrics.RoundMoney(eac),
		Status:                status,
	}
}
