package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marginguard/marginguard/pkg/dataset"
)

// fixedNow pins the analyzer clock for day-count assertions.
var fixedNow = time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

func testAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	store := &dataset.Store{
		Contracts: []dataset.Contract{
			{ProjectID: "P1", ProjectName: "Downtown Tower", OriginalContractValue: 1000000, GCName: "Turner Construction"},
			{ProjectID: "P2", ProjectName: "Airport Annex", OriginalContractValue: 500000, GCName: "Skanska"},
			{ProjectID: "P3", ProjectName: "Medical Office", OriginalContractValue: 200000, GCName: "Mortenson"},
		},
		SOVLines: []dataset.SOVLine{
			{ProjectID: "P1", SOVLineID: "SOV-01", LineNumber: 1, Description: "Ductwork", ScheduledValue: 1000000},
			{ProjectID: "P2", SOVLineID: "SOV-01", LineNumber: 1, Description: "Rooftop units", ScheduledValue: 500000},
			{ProjectID: "P3", SOVLineID: "SOV-01", LineNumber: 1, Description: "Controls", ScheduledValue: 200000},
		},
		SOVBudgets: []dataset.SOVBudget{
			{ProjectID: "P1", SOVLineID: "SOV-01", EstimatedLaborHours: 1000, EstimatedLaborCost: 400000, EstimatedMaterialCost: 200000, EstimatedEquipmentCost: 50000, EstimatedSubCost: 50000, ProductivityFactor: 1.0},
			{ProjectID: "P2", SOVLineID: "SOV-01", EstimatedLaborHours: 500, EstimatedLaborCost: 200000, EstimatedMaterialCost: 200000},
			{ProjectID: "P3", SOVLineID: "SOV-01", EstimatedLaborHours: 100, EstimatedLaborCost: 10000, EstimatedMaterialCost: 100000},
		},
		LaborLogs: []dataset.LaborLog{
			// P1: 1000 hours, 480,000 burdened labor cost.
			{ProjectID: "P1", LogID: "L1", Date: "2024-03-04", EmployeeID: "E1", Role: "Journeyman", SOVLineID: "SOV-01", HoursST: 600, HoursOT: 0, HourlyRate: 500, BurdenMultiplier: 1.0},
			{ProjectID: "P1", LogID: "L2", Date: "2024-03-11", EmployeeID: "E2", Role: "Foreman", SOVLineID: "SOV-01", HoursST: 300, HoursOT: 100, HourlyRate: 400, BurdenMultiplier: 1.0},
			// P2: comfortably on budget.
			{ProjectID: "P2", LogID: "L3", Date: "2024-03-04", EmployeeID: "E3", Role: "Journeyman", SOVLineID: "SOV-01", HoursST: 200, HoursOT: 0, HourlyRate: 100, BurdenMultiplier: 1.0},
			// P3: 130 hours against a 100 hour budget.
			{ProjectID: "P3", LogID: "L4", Date: "2024-03-04", EmployeeID: "E4", Role: "Apprentice", SOVLineID: "SOV-01", HoursST: 130, HoursOT: 0, HourlyRate: 50, BurdenMultiplier: 1.0},
		},
		MaterialDeliveries: []dataset.MaterialDelivery{
			{ProjectID: "P1", DeliveryID: "M1", Date: "2024-03-05", SOVLineID: "SOV-01", TotalCost: 270000},
			{ProjectID: "P2", DeliveryID: "M2", Date: "2024-03-05", SOVLineID: "SOV-01", TotalCost: 80000},
		},
		BillingHistory: []dataset.BillingHistory{
			{ProjectID: "P1", ApplicationNumber: 1, CumulativeBilled: 400000, NetPaymentDue: 380000, Status: "Paid"},
			{ProjectID: "P1", ApplicationNumber: 2, CumulativeBilled: 600000, NetPaymentDue: 170000, Status: "Paid"},
			{ProjectID: "P2", ApplicationNumber: 1, CumulativeBilled: 280000, NetPaymentDue: 266000, Status: "Submitted"},
		},
		BillingLineItems: []dataset.BillingLineItem{
			{ProjectID: "P1", ApplicationNumber: 1, SOVLineID: "SOV-01", PctComplete: 40},
			{ProjectID: "P1", ApplicationNumber: 2, SOVLineID: "SOV-01", PctComplete: 60},
		},
		ChangeOrders: []dataset.ChangeOrder{
			{ProjectID: "P1", CONumber: "CO-001", DateSubmitted: "2024-03-01", Description: "Added VAV boxes", Amount: 25000, Status: dataset.COStatusPending, AffectedSOVLines: "['SOV-01']"},
			{ProjectID: "P1", CONumber: "CO-002", DateSubmitted: "2024-02-01", Description: "Duct reroute", Amount: 10000, Status: dataset.COStatusApproved, RelatedRFI: "RFI-002"},
		},
		RFIs: []dataset.RFI{
			{ProjectID: "P1", RFINumber: "RFI-001", DateSubmitted: "2024-03-20", Subject: "Structural conflict at level 3", Status: "Open", CostImpact: "True", ScheduleImpact: "False"},
			{ProjectID: "P1", RFINumber: "RFI-002", DateSubmitted: "2024-02-10", Subject: "Duct routing clarification", Status: "Answered", CostImpact: "True", ScheduleImpact: "False"},
		},
		FieldNotes: []dataset.FieldNote{
			{ProjectID: "P1", NoteID: "FN-001", Date: "2024-03-10", Author: "J. Ortiz", NoteType: "Daily", Content: "GC gave verbal approval to proceed with the reroute."},
			{ProjectID: "P1", NoteID: "FN-002", Date: "2024-03-12", Author: "J. Ortiz", NoteType: "Issue", Content: "Crane delay pushed the rooftop picks to Thursday."},
			{ProjectID: "P1", NoteID: "FN-003", Date: "2024-03-08", Author: "M. Chen", NoteType: "Daily", Content: "Second verbal direction from the GC super about the VAV boxes."},
		},
	}
	return New(store, func() time.Time { return fixedNow })
}

func findProject(t *testing.T, scan *PortfolioScan, id string) ProjectHealth {
	t.Helper()
	for _, p := range scan.Projects {
		if p.ProjectID == id {
			return p
		}
	}
	t.Fatalf("project %s missing from scan", id)
	return ProjectHealth{}
}

func TestScanPortfolioMargins(t *testing.T) {
	a := testAnalyzer(t)
	scan := a.ScanPortfolio()
	require.Equal(t, 3, scan.Summary.ProjectCount)

	p1 := findProject(t, scan, "P1")
	// 1,000,000 contract against a 700,000 estimate.
	assert.Equal(t, 700000.0, p1.EstimatedTotalCost)
	assert.Equal(t, 30.0, p1.BidMarginPct)
	// Cost to date 750,000 already exceeds the estimate, so the projection
	// holds at cost to date.
	assert.Equal(t, 750000.0, p1.CostToDate)
	assert.Equal(t, 750000.0, p1.ProjectedTotalCost)
	// Approved CO lifts the contract to 1,010,000.
	assert.Equal(t, 1010000.0, p1.AdjustedContractValue)
	assert.InDelta(t, 25.7, p1.CurrentMarginPct, 0.05)
	// Latest application billed 600,000 against 750,000 incurred.
	assert.Equal(t, 600000.0, p1.CumulativeBilled)
	assert.Equal(t, 150000.0, p1.BillingLag)
}

func TestScanPortfolioRiskTiers(t *testing.T) {
	a := testAnalyzer(t)
	scan := a.ScanPortfolio()

	// P1 is not over on labor or margin but carries a billing lag above 5%
	// of contract value.
	assert.Equal(t, RiskWatch, findProject(t, scan, "P1").RiskLevel)
	assert.Equal(t, RiskHealthy, findProject(t, scan, "P2").RiskLevel)
	// P3 burned 130 hours against a 100 hour budget.
	p3 := findProject(t, scan, "P3")
	assert.Equal(t, 30.0, p3.LaborHoursVariancePct)
	assert.Equal(t, RiskCritical, p3.RiskLevel)

	// Riskiest first.
	assert.Equal(t, "P3", scan.Projects[0].ProjectID)
	assert.Equal(t, "P1", scan.Projects[1].ProjectID)
	assert.Equal(t, "P2", scan.Projects[2].ProjectID)
	assert.Equal(t, 1, scan.Summary.CriticalCount)
	assert.Equal(t, 1, scan.Summary.WatchCount)
	assert.Equal(t, 1, scan.Summary.HealthyCount)
}

func TestScanPortfolioConcernsAndRFIs(t *testing.T) {
	a := testAnalyzer(t)
	p1 := findProject(t, a.ScanPortfolio(), "P1")

	assert.Equal(t, 1, p1.PendingCOCount)
	assert.Equal(t, 25000.0, p1.PendingCOValue)
	assert.Equal(t, 10000.0, p1.ApprovedCOValue)
	// RFI-001 has cost impact and no covering CO; RFI-002 is covered by CO-002.
	assert.Equal(t, 1, p1.UnbilledRFICount)
	assert.NotEmpty(t, p1.TopConcerns)
}

func TestInvestigateProject(t *testing.T) {
	a := testAnalyzer(t)
	inv, err := a.InvestigateProject("P1")
	require.NoError(t, err)
	require.Len(t, inv.Lines, 1)

	line := inv.Lines[0]
	assert.Equal(t, "SOV-01", line.SOVLineID)
	assert.Equal(t, 700000.0, line.EstimatedCost)
	assert.Equal(t, 750000.0, line.ActualTotalCost)
	assert.Equal(t, 50000.0, line.CostVariance)
	assert.Equal(t, 60.0, line.PctBilled)
	// Billed progress above the floor, so completion is extrapolated:
	// 750,000 / 0.60.
	assert.Equal(t, 1250000.0, line.EstimatedAtCompletion)
	assert.Equal(t, LineStatusOnTrack, line.Status)
}

func TestInvestigateProjectUnknown(t *testing.T) {
	a := testAnalyzer(t)
	_, err := a.InvestigateProject("P9")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProjectNotFound)
	assert.Contains(t, err.Error(), "P9")
}

func TestAnalyzeLaborDetails(t *testing.T) {
	a := testAnalyzer(t)
	res, err := a.AnalyzeLaborDetails("P1", "")
	require.NoError(t, err)

	assert.Equal(t, 900.0, res.TotalHoursST)
	assert.Equal(t, 100.0, res.TotalHoursOT)
	assert.Equal(t, 480000.0, res.TotalCost)
	// 100 OT hours at 400/hr, half-time premium.
	assert.Equal(t, 20000.0, res.OvertimePremium)
	assert.Equal(t, 10.0, res.OvertimePct)

	require.Len(t, res.ByRole, 2)
	assert.Equal(t, "Journeyman", res.ByRole[0].Role)
	assert.Equal(t, 300000.0, res.ByRole[0].Cost)

	require.Len(t, res.ByWeek, 2)
	assert.Equal(t, "2024-W10", res.ByWeek[0].Week)
	assert.False(t, res.ByWeek[0].HeavyOT)
	// Week two is 300 ST / 100 OT, 25% overtime.
	assert.Equal(t, "2024-W11", res.ByWeek[1].Week)
	assert.Equal(t, 25.0, res.ByWeek[1].OvertimePct)
	assert.True(t, res.ByWeek[1].HeavyOT)

	require.Len(t, res.TopEmployees, 2)
	assert.Equal(t, "E1", res.TopEmployees[0].EmployeeID)
	assert.Nil(t, res.Budget)
}

func TestAnalyzeLaborDetailsWithBudget(t *testing.T) {
	a := testAnalyzer(t)
	res, err := a.AnalyzeLaborDetails("P1", "SOV-01")
	require.NoError(t, err)
	require.NotNil(t, res.Budget)
	assert.Equal(t, 1000.0, res.Budget.EstimatedHours)
	assert.Equal(t, 1000.0, res.Budget.ActualHours)
	assert.Equal(t, 0.0, res.Budget.HoursVariancePct)
	assert.Equal(t, 80000.0, res.Budget.CostVariance)
	assert.Equal(t, 1.0, res.Budget.ProductivityFactor)
}

func TestAnalyzeLaborDetailsNoData(t *testing.T) {
	a := testAnalyzer(t)
	_, err := a.AnalyzeLaborDetails("P9", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Contains(t, err.Error(), "P9")
}

func TestCheckBillingHealth(t *testing.T) {
	a := testAnalyzer(t)
	res, err := a.CheckBillingHealth("P1")
	require.NoError(t, err)
	require.Len(t, res.Lines, 1)

	line := res.Lines[0]
	// Cost progress 750/700 = 107.1% against 60% billed.
	assert.InDelta(t, 107.1, line.CostBasedPct, 0.05)
	assert.Equal(t, 60.0, line.BilledPct)
	assert.Equal(t, BillingUnderbilled, line.Status)
	assert.InDelta(t, 471429.0, line.GapDollars, 1)

	assert.Equal(t, 750000.0, res.TotalCostIncurred)
	assert.Equal(t, 600000.0, res.CumulativeBilled)
	// Both applications paid: 380,000 + 170,000.
	assert.Equal(t, 550000.0, res.NetCashReceived)
	assert.Equal(t, 200000.0, res.CashGap)
	assert.Equal(t, 1, res.UnderbilledLineCount)
}

func TestCheckBillingHealthUnknown(t *testing.T) {
	a := testAnalyzer(t)
	_, err := a.CheckBillingHealth("P9")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestReviewChangeOrders(t *testing.T) {
	a := testAnalyzer(t)
	res := a.ReviewChangeOrders("P1")
	require.Len(t, res.ChangeOrders, 2)

	var pending ChangeOrderReview
	for _, co := range res.ChangeOrders {
		if co.CONumber == "CO-001" {
			pending = co
		}
	}
	// Submitted 2024-03-01, clock fixed at 2024-04-01.
	assert.Equal(t, 31, pending.DaysPending)
	assert.True(t, pending.Overdue)
	assert.Equal(t, []string{"SOV-01"}, pending.AffectedLines)

	assert.Equal(t, 1, res.Summary.PendingCount)
	assert.Equal(t, 25000.0, res.Summary.PendingValue)
	assert.Equal(t, 1, res.Summary.ApprovedCount)
	assert.Equal(t, 1, res.Summary.OverdueCount)
	assert.Equal(t, 1, res.Summary.UnbilledRFICount)

	require.Len(t, res.RFIs, 2)
	for _, r := range res.RFIs {
		switch r.RFINumber {
		case "RFI-001":
			assert.True(t, r.UnbilledExposure)
			assert.Equal(t, 12, r.DaysOpen)
		case "RFI-002":
			assert.False(t, r.UnbilledExposure)
			assert.Zero(t, r.DaysOpen)
		}
	}
}

func TestReviewChangeOrdersUnknownProjectIsEmpty(t *testing.T) {
	a := testAnalyzer(t)
	res := a.ReviewChangeOrders("P9")
	assert.Empty(t, res.ChangeOrders)
	assert.Empty(t, res.RFIs)
	assert.Zero(t, res.Summary.PendingCount)
}

func TestSearchFieldNotes(t *testing.T) {
	a := testAnalyzer(t)
	res := a.SearchFieldNotes("P1", []string{"verbal"})
	assert.Equal(t, 3, res.TotalNotes)
	require.Equal(t, 2, res.MatchCount)
	// Newest first.
	assert.Equal(t, "FN-001", res.Matches[0].NoteID)
	assert.Equal(t, "FN-003", res.Matches[1].NoteID)
	assert.Equal(t, []string{"verbal"}, res.Matches[0].MatchedKeywords)
}

func TestSearchFieldNotesEmptyKeywordsReturnsAll(t *testing.T) {
	a := testAnalyzer(t)
	res := a.SearchFieldNotes("P1", nil)
	assert.Equal(t, 3, res.MatchCount)
	assert.Equal(t, "FN-002", res.Matches[0].NoteID)
}

func TestSearchFieldNotesNoMatches(t *testing.T) {
	a := testAnalyzer(t)
	res := a.SearchFieldNotes("P1", []string{"asbestos"})
	assert.Zero(t, res.MatchCount)
	assert.Empty(t, res.Matches)
}
