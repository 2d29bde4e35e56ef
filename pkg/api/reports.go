package api

import (
	"net/http"

	"github.com/marginguard/marginguard/pkg/dataset"
	"github.com/marginguard/marginguard/pkg/metrics"
)

// projectReport is one row of the static portfolio report: contract,
// billing, labor, and change order roll-ups with no risk judgment applied.
type projectReport struct {
	ProjectID        string  `json:"project_id"`
	ProjectName      string  `json:"project_name"`
	GCName           string  `json:"gc_name"`
	ContractValue    float64 `json:"contract_value"`
	CompletionDate   string  `json:"completion_date"`
	ScheduledValue   float64 `json:"scheduled_value"`
	CumulativeBilled float64 `json:"cumulative_billed"`
	BilledPct        float64 `json:"billed_pct"`
	TotalLaborCost   float64 `json:"total_labor_cost"`
	TotalSTHours     float64 `json:"total_st_hours"`
	TotalOTHours     float64 `json:"total_ot_hours"`
	OvertimePct      float64 `json:"overtime_pct"`
	ApprovedCOs      int     `json:"approved_cos"`
	PendingCOs       int     `json:"pending_cos"`
	ApprovedCOValue  float64 `json:"approved_co_value"`
	PendingCOValue   float64 `json:"pending_co_value"`
}

type reportTotals struct {
	ContractValue    float64 `json:"contract_value"`
	CumulativeBilled float64 `json:"cumulative_billed"`
	TotalLaborCost   float64 `json:"total_labor_cost"`
	PendingCOValue   float64 `json:"pending_co_value"`
}

type reportsResponse struct {
	Projects []projectReport `json:"projects"`
	Totals   reportTotals    `json:"totals"`
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	store := s.analyzer.Store()
	resp := reportsResponse{Projects: []projectReport{}}

	for _, c := range store.Contracts {
		rep := projectReport{
			ProjectID:      c.ProjectID,
			ProjectName:    c.ProjectName,
			GCName:         c.GCName,
			ContractValue:  c.OriginalContractValue,
			CompletionDate: c.SubstantialCompletionDate,
		}

		for _, line := range store.SOVLinesFor(c.ProjectID) {
			rep.ScheduledValue += line.ScheduledValue
		}

		if app := store.LatestBilling(c.ProjectID); app != nil {
			rep.CumulativeBilled = app.CumulativeBilled
		}
		rep.BilledPct = metrics.RoundPct(metrics.SafeDivide(rep.CumulativeBilled, rep.ScheduledValue) * 100)

		for _, l := range store.LaborFor(c.ProjectID, "") {
			rep.TotalLaborCost += metrics.LaborCost(l)
			rep.TotalSTHours += l.HoursST
			rep.TotalOTHours += l.HoursOT
		}
		rep.OvertimePct = metrics.RoundPct(metrics.SafeDivide(rep.TotalOTHours, rep.TotalSTHours+rep.TotalOTHours) * 100)
		rep.TotalLaborCost = metrics.RoundMoney(rep.TotalLaborCost)

		for _, co := range store.ChangeOrdersFor(c.ProjectID) {
			switch co.Status {
			case dataset.COStatusApproved:
				rep.ApprovedCOs++
				rep.ApprovedCOValue += co.Amount
			case dataset.COStatusPending:
				rep.PendingCOs++
				rep.PendingCOValue += co.Amount
			}
		}

		resp.Totals.ContractValue += rep.ContractValue
		resp.Totals.CumulativeBilled += rep.CumulativeBilled
		resp.Totals.TotalLaborCost += rep.TotalLaborCost
		resp.Totals.PendingCOValue += rep.PendingCOValue
		resp.Projects = append(resp.Projects, rep)
	}

	writeJSON(w, http.StatusOK, resp)
}
