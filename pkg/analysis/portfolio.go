package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/marginguard/marginguard/pkg/dataset"
	"github.com/marginguard/marginguard/pkg/metrics"
)

// ProjectHealth is one project's row in the portfolio scan.
type ProjectHealth struct {
	ProjectID             string   `json:"project_id"`
	ProjectName           string   `json:"project_name"`
	GCName                string   `json:"gc_name"`
	OriginalContractValue float64  `json:"original_contract_value"`
	AdjustedContractValue float64  `json:"adjusted_contract_value"`
	EstimatedTotalCost    float64  `json:"estimated_total_cost"`
	CostToDate            float64  `json:"cost_to_date"`
	ProjectedTotalCost    float64  `json:"projected_total_cost"`
	BidMarginPct          float64  `json:"bid_margin_pct"`
	CurrentMarginPct      float64  `json:"current_margin_pct"`
	MarginErosionPct      float64  `json:"margin_erosion_pct"`
	CumulativeBilled      float64  `json:"cumulative_billed"`
	BillingLag            float64  `json:"billing_lag"`
	EstimatedLaborHours   float64  `json:"estimated_labor_hours"`
	ActualLaborHours      float64  `json:"actual_labor_hours"`
	LaborHoursVariancePct float64  `json:"labor_hours_variance_pct"`
	OvertimePct           float64  `json:"overtime_pct"`
	OvertimePremium       float64  `json:"overtime_premium"`
	PendingCOCount        int      `json:"pending_co_count"`
	PendingCOValue        float64  `json:"pending_co_value"`
	ApprovedCOValue       float64  `json:"approved_co_value"`
	UnbilledRFICount      int      `json:"unbilled_rfi_count"`
	RiskLevel             string   `json:"risk_level"`
	TopConcerns           []string `json:"top_concerns"`
}

// PortfolioSummary aggregates the scan across all projects.
type PortfolioSummary struct {
	ProjectCount        int     `json:"project_count"`
	CriticalCount       int     `json:"critical_count"`
	WatchCount          int     `json:"watch_count"`
	HealthyCount        int     `json:"healthy_count"`
	TotalContractValue  float64 `json:"total_contract_value"`
	TotalCostToDate     float64 `json:"total_cost_to_date"`
	TotalBillingLag     float64 `json:"total_billing_lag"`
	TotalPendingCOValue float64 `json:"total_pending_co_value"`
}

// PortfolioScan is the scanPortfolio result: every project's health,
// riskiest first.
type PortfolioScan struct {
	Summary  PortfolioSummary `json:"summary"`
	Projects []ProjectHealth  `json:"projects"`
}

// ScanPortfolio computes health metrics for every project and classifies
// each into a risk tier.
func (a *Analyzer) ScanPortfolio() *PortfolioScan {
	scan := &PortfolioScan{Projects: []ProjectHealth{}}
	for _, c := range a.store.Contracts {
		p := a.projectHealth(c)
		scan.Projects = append(scan.Projects, p)

		scan.Summary.ProjectCount++
		switch p.RiskLevel {
		case RiskCritical:
			scan.Summary.CriticalCount++
		case RiskWatch:
			scan.Summary.WatchCount++
		default:
			scan.Summary.HealthyCount++
		}
		scan.Summary.TotalContractValue += p.AdjustedContractValue
		scan.Summary.TotalCostToDate += p.CostToDate
		scan.Summary.TotalBillingLag += p.BillingLag
		scan.Summary.TotalPendingCOValue += p.PendingCOValue
	}
	scan.Summary.TotalContractValue = metrics.RoundMoney(scan.Summary.TotalContractValue)
	scan.Summary.TotalCostToDate = metrics.RoundMoney(scan.Summary.TotalCostToDate)
	scan.Summary.TotalBillingLag = metrics.RoundMoney(scan.Summary.TotalBillingLag)
	scan.Summary.TotalPendingCOValue = metrics.RoundMoney(scan.Summary.TotalPendingCOValue)

	sort.SliceStable(scan.Projects, func(i, j int) bool {
		return riskRank(scan.Projects[i].RiskLevel) < riskRank(scan.Projects[j].RiskLevel)
	})
	return scan
}

func (a *Analyzer) projectHealth(c dataset.Contract) ProjectHealth {
	p := ProjectHealth{
		ProjectID:             c.ProjectID,
		ProjectName:           c.ProjectName,
		GCName:                c.GCName,
		OriginalContractValue: c.OriginalContractValue,
		TopConcerns:           []string{},
	}

	var estCost, estHours float64
	for _, b := range a.store.BudgetsFor(c.ProjectID) {
		estCost += b.EstimatedLaborCost + b.EstimatedMaterialCost + b.EstimatedEquipmentCost + b.EstimatedSubCost
		estHours += b.EstimatedLaborHours
	}

	var laborCost, stHours, otHours, otPremium float64
	for _, l := range a.store.LaborFor(c.ProjectID, "") {
		laborCost += metrics.LaborCost(l)
		otPremium += metrics.OvertimePremium(l)
		stHours += l.HoursST
		otHours += l.HoursOT
	}

	var materialCost float64
	for _, m := range a.store.MaterialsFor(c.ProjectID, "") {
		materialCost += m.TotalCost
	}

	costToDate := laborCost + materialCost
	remaining := estCost - costToDate
	if remaining < 0 {
		remaining = 0
	}
	projected := costToDate + remaining

	var approvedCO, pendingCO float64
	var pendingCount int
	cos := a.store.ChangeOrdersFor(c.ProjectID)
	for _, co := range cos {
		switch co.Status {
		case dataset.COStatusApproved:
			approvedCO += co.Amount
		case dataset.COStatusPending:
			pendingCO += co.Amount
			pendingCount++
		}
	}
	adjusted := c.OriginalContractValue + approvedCO

	bidMargin := metrics.SafeDivide(c.OriginalContractValue-estCost, c.OriginalContractValue) * 100
	currentMargin := metrics.SafeDivide(adjusted-projected, adjusted) * 100
	var erosion float64
	if bidMargin > 0 {
		erosion = (bidMargin - currentMargin) / bidMargin * 100
	}

	var billed float64
	if app := a.store.LatestBilling(c.ProjectID); app != nil {
		billed = app.CumulativeBilled
	}
	billingLag := costToDate - billed

	actualHours := stHours + otHours
	laborVar := metrics.SafeDivide(actualHours-estHours, estHours) * 100
	otPct := metrics.SafeDivide(otHours, actualHours) * 100

	unbilledRFIs := 0
	for _, r := range a.store.RFIsFor(c.ProjectID) {
		if !metrics.ParseBool(r.CostImpact) {
			continue
		}
		if !rfiCoveredByCO(r.RFINumber, cos) {
			unbilledRFIs++
		}
	}

	p.AdjustedContractValue = metrics.RoundMoney(adjusted)
	p.EstimatedTotalCost = metrics.RoundMoney(estCost)
	p.CostToDate = metrics.RoundMoney(costToDate)
	p.ProjectedTotalCost = metrics.RoundMoney(projected)
	p.BidMarginPct = metrics.RoundPct(bidMargin)
	p.CurrentMarginPct = metrics.RoundPct(currentMargin)
	p.MarginErosionPct = metrics.RoundPct(erosion)
	p.CumulativeBilled = metrics.RoundMoney(billed)
	p.BillingLag = metrics.RoundMoney(billingLag)
	p.EstimatedLaborHours = metrics.Round(estHours, 1)
	p.ActualLaborHours = metrics.Round(actualHours, 1)
	p.LaborHoursVariancePct = metrics.RoundPct(laborVar)
	p.OvertimePct = metrics.RoundPct(otPct)
	p.OvertimePremium = metrics.RoundMoney(otPremium)
	p.PendingCOCount = pendingCount
	p.PendingCOValue = metrics.RoundMoney(pendingCO)
	p.ApprovedCOValue = metrics.RoundMoney(approvedCO)
	p.UnbilledRFICount = unbilledRFIs

	p.RiskLevel = classifyRisk(p, adjusted)
	p.TopConcerns = topConcerns(p, estHours, billingLag)
	return p
}

func classifyRisk(p ProjectHealth, adjusted float64) string {
	switch {
	case p.MarginErosionPct > 50, p.LaborHoursVariancePct > 25, p.CurrentMarginPct < 5:
		return RiskCritical
	case p.LaborHoursVariancePct > 10, p.OvertimePct > 15, p.BillingLag > 0.05*adjusted:
		return RiskWatch
	default:
		return RiskHealthy
	}
}

// topConcerns builds the ranked concern strings: labor overrun, overtime
// premium, unbilled work, pending change orders, unbilled cost-impact RFIs.
func topConcerns(p ProjectHealth, estHours, billingLag float64) []string {
	concerns := []string{}
	if p.LaborHoursVariancePct > 10 {
		concerns = append(concerns, fmt.Sprintf(
			"Labor %.1f%% over budget (%.0f hrs actual vs %.0f estimated)",
			p.LaborHoursVariancePct, p.ActualLaborHours, estHours))
	}
	if p.OvertimePct > 15 {
		concerns = append(concerns, fmt.Sprintf(
			"Overtime at %.1f%% of hours ($%.0f premium paid)",
			p.OvertimePct, p.OvertimePremium))
	}
	if billingLag > 0 {
		concerns = append(concerns, fmt.Sprintf(
			"$%.0f of incurred cost not yet billed", billingLag))
	}
	if p.PendingCOCount > 0 {
		concerns = append(concerns, fmt.Sprintf(
			"%d pending change order(s) worth $%.0f",
			p.PendingCOCount, p.PendingCOValue))
	}
	if p.UnbilledRFICount > 0 {
		concerns = append(concerns, fmt.Sprintf(
			"%d cost-impact RFI(s) with no change order coverage",
			p.UnbilledRFICount))
	}
	return concerns
}

// rfiCoveredByCO reports whether any change order references the RFI.
func rfiCoveredByCO(rfiNumber string, cos []dataset.ChangeOrder) bool {
	if rfiNumber == "" {
		return false
	}
	for _, co := range cos {
		if strings.EqualFold(strings.TrimSpace(co.RelatedRFI), rfiNumber) {
			return true
		}
	}
	return false
}
