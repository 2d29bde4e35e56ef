package analysis

import (
	"fmt"
	"sort"

	"github.com/marginguard/marginguard/pkg/metrics"
)

// RoleBreakdown aggregates labor by role.
type RoleBreakdown struct {
	Role      string  `json:"role"`
	Headcount int     `json:"headcount"`
	HoursST   float64 `json:"hours_st"`
	HoursOT   float64 `json:"hours_ot"`
	Cost      float64 `json:"cost"`
	AvgRate   float64 `json:"avg_rate"`
	AvgBurden float64 `json:"avg_burden"`
}

// WeekBreakdown aggregates labor by ISO-style week bucket.
type WeekBreakdown struct {
	Week        string  `json:"week"`
	HoursST     float64 `json:"hours_st"`
	HoursOT     float64 `json:"hours_ot"`
	Cost        float64 `json:"cost"`
	OvertimePct float64 `json:"overtime_pct"`
	HeavyOT     bool    `json:"heavy_ot"`
}

// EmployeeCost ranks one employee's burdened cost on the project.
type EmployeeCost struct {
	EmployeeID string  `json:"employee_id"`
	Role       string  `json:"role"`
	Hours      float64 `json:"hours"`
	Cost       float64 `json:"cost"`
}

// LaborBudgetComparison compares a single SOV line's labor actuals against
// its budget. Only populated when the query names a line.
type LaborBudgetComparison struct {
	SOVLineID          string  `json:"sov_line_id"`
	EstimatedHours     float64 `json:"estimated_hours"`
	ActualHours        float64 `json:"actual_hours"`
	HoursVariancePct   float64 `json:"hours_variance_pct"`
	EstimatedCost      float64 `json:"estimated_cost"`
	ActualCost         float64 `json:"actual_cost"`
	CostVariance       float64 `json:"cost_variance"`
	ProductivityFactor float64 `json:"productivity_factor"`
}

// LaborAnalysis is the analyzeLaborDetails result.
type LaborAnalysis struct {
	ProjectID       string                 `json:"project_id"`
	SOVLineID       string                 `json:"sov_line_id,omitempty"`
	TotalHoursST    float64                `json:"total_hours_st"`
	TotalHoursOT    float64                `json:"total_hours_ot"`
	TotalCost       float64                `json:"total_cost"`
	OvertimePremium float64                `json:"overtime_premium"`
	OvertimePct     float64                `json:"overtime_pct"`
	ByRole          []RoleBreakdown        `json:"by_role"`
	ByWeek          []WeekBreakdown        `json:"by_week"`
	TopEmployees    []EmployeeCost         `json:"top_employees"`
	Budget          *LaborBudgetComparison `json:"budget,omitempty"`
}

// AnalyzeLaborDetails breaks a project's labor down by role, week, and
// employee. An empty sovLineID covers the whole project.
func (a *Analyzer) AnalyzeLaborDetails(projectID, sovLineID string) (*LaborAnalysis, error) {
	logs := a.store.LaborFor(projectID, sovLineID)
	if len(logs) == 0 {
		scope := projectID
		if sovLineID != "" {
			scope = fmt.Sprintf("%s line %s", projectID, sovLineID)
		}
		return nil, &NoDataError{What: fmt.Sprintf("No labor data found for %s", scope)}
	}

	res := &LaborAnalysis{ProjectID: projectID, SOVLineID: sovLineID}

	type roleAgg struct {
		employees map[string]bool
		st, ot    float64
		cost      float64
		rateSum   float64
		burdenSum float64
		rows      int
	}
	type empAgg struct {
		role  string
		hours float64
		cost  float64
	}
	roles := map[string]*roleAgg{}
	weeks := map[string]*WeekBreakdown{}
	emps := map[string]*empAgg{}

	for _, l := range logs {
		cost := metrics.LaborCost(l)
		res.TotalHoursST += l.HoursST
		res.TotalHoursOT += l.HoursOT
		res.TotalCost += cost
		res.OvertimePremium += metrics.OvertimePremium(l)

		r := roles[l.Role]
		if r == nil {
			r = &roleAgg{employees: map[string]bool{}}
			roles[l.Role] = r
		}
		r.employees[l.EmployeeID] = true
		r.st += l.HoursST
		r.ot += l.HoursOT
		r.cost += cost
		r.rateSum += l.HourlyRate
		r.burdenSum += l.BurdenMultiplier
		r.rows++

		if wk := metrics.Week(l.Date); wk != "" {
			w := weeks[wk]
			if w == nil {
				w = &WeekBreakdown{Week: wk}
				weeks[wk] = w
			}
			w.HoursST += l.HoursST
			w.HoursOT += l.HoursOT
			w.Cost += cost
		}

		e := emps[l.EmployeeID]
		if e == nil {
			e = &empAgg{role: l.Role}
			emps[l.EmployeeID] = e
		}
		e.hours += l.HoursST + l.HoursOT
		e.cost += cost
	}

	res.OvertimePct = metrics.RoundPct(metrics.SafeDivide(res.TotalHoursOT, res.TotalHoursST+res.TotalHoursOT) * 100)
	res.TotalHoursST = metrics.Round(res.TotalHoursST, 1)
	res.TotalHoursOT = metrics.Round(res.TotalHoursOT, 1)
	res.TotalCost = metrics.RoundMoney(res.TotalCost)
	res.OvertimePremium = metrics.RoundMoney(res.OvertimePremium)

	res.ByRole = []RoleBreakdown{}
	for role, r := range roles {
		res.ByRole = append(res.ByRole, RoleBreakdown{
			Role:      role,
			Headcount: len(r.employees),
			HoursST:   metrics.Round(r.st, 1),
			HoursOT:   metrics.Round(r.ot, 1),
			Cost:      metrics.RoundMoney(r.cost),
			AvgRate:   metrics.Round(r.rateSum/float64(r.rows), 2),
			AvgBurden: metrics.Round(r.burdenSum/float64(r.rows), 2),
		})
	}
	sort.Slice(res.ByRole, func(i, j int) bool { return res.ByRole[i].Cost > res.ByRole[j].Cost })

	res.ByWeek = []WeekBreakdown{}
	for _, w := range weeks {
		total := w.HoursST + w.HoursOT
		w.OvertimePct = metrics.RoundPct(metrics.SafeDivide(w.HoursOT, total) * 100)
		w.HeavyOT = w.OvertimePct > 20
		w.HoursST = metrics.Round(w.HoursST, 1)
		w.HoursOT = metrics.Round(w.HoursOT, 1)
		w.Cost = metrics.RoundMoney(w.Cost)
		res.ByWeek = append(res.ByWeek, *w)
	}
	sort.Slice(res.ByWeek, func(i, j int) bool { return res.ByWeek[i].Week < res.ByWeek[j].Week })

	res.TopEmployees = []EmployeeCost{}
	for id, e := range emps {
		res.TopEmployees = append(res.TopEmployees, EmployeeCost{
			EmployeeID: id,
			Role:       e.role,
			Hours:      metrics.Round(e.hours, 1),
			Cost:       metrics.RoundMoney(e.cost),
		})
	}
	sort.Slice(res.TopEmployees, func(i, j int) bool {
		if res.TopEmployees[i].Cost != res.TopEmployees[j].Cost {
			return res.TopEmployees[i].Cost > res.TopEmployees[j].Cost
		}
		return res.TopEmployees[i].EmployeeID < res.TopEmployees[j].EmployeeID
	})
	if len(res.TopEmployees) > 10 {
		res.TopEmployees = res.TopEmployees[:10]
	}

	if sovLineID != "" {
		if b := a.store.BudgetFor(projectID, sovLineID); b != nil {
			actualHours := res.TotalHoursST + res.TotalHoursOT
			res.Budget = &LaborBudgetComparison{
				SOVLineID:          sovLineID,
				EstimatedHours:     b.EstimatedLaborHours,
				ActualHours:        metrics.Round(actualHours, 1),
				HoursVariancePct:   metrics.RoundPct(metrics.SafeDivide(actualHours-b.EstimatedLaborHours, b.EstimatedLaborHours) * 100),
				EstimatedCost:      metrics.RoundMoney(b.EstimatedLaborCost),
				ActualCost:         res.TotalCost,
				CostVariance:       metrics.RoundMoney(res.TotalCost - b.EstimatedLaborCost),
				ProductivityFactor: b.ProductivityFactor,
			}
		}
	}
	return res, nil
}
