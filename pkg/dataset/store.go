package dataset

import "sort"

// Store holds the full dataset in memory. It is built once by Load (or by a
// test fixture), never mutated afterwards, and therefore safe for concurrent
// readers without locking.
type Store struct {
	Contracts          []Contract
	SOVLines           []SOVLine
	SOVBudgets         []SOVBudget
	LaborLogs          []LaborLog
	MaterialDeliveries []MaterialDelivery
	BillingHistory     []BillingHistory
	BillingLineItems   []BillingLineItem
	ChangeOrders       []ChangeOrder
	RFIs               []RFI
	FieldNotes         []FieldNote
}

// Contract returns the contract for a project, or nil when the project is
// unknown.
func (s *Store) Contract(projectID string) *Contract {
	for i := range s.Contracts {
		if s.Contracts[i].ProjectID == projectID {
			return &s.Contracts[i]
		}
	}
	return nil
}

func (s *Store) SOVLinesFor(projectID string) []SOVLine {
	var out []SOVLine
	for _, l := range s.SOVLines {
		if l.ProjectID == projectID {
			out = append(out, l)
		}
	}
	return out
}

// BudgetFor returns the budget row for one SOV line, or nil.
func (s *Store) BudgetFor(projectID, sovLineID string) *SOVBudget {
	for i := range s.SOVBudgets {
		b := &s.SOVBudgets[i]
		if b.ProjectID == projectID && b.SOVLineID == sovLineID {
			return b
		}
	}
	return nil
}

func (s *Store) BudgetsFor(projectID string) []SOVBudget {
	var out []SOVBudget
	for _, b := range s.SOVBudgets {
		if b.ProjectID == projectID {
			out = append(out, b)
		}
	}
	return out
}

// LaborFor returns the labor logs for a project, optionally filtered to one
// SOV line (empty sovLineID means all lines).
func (s *Store) LaborFor(projectID, sovLineID string) []LaborLog {
	var out []LaborLog
	for _, l := range s.LaborLogs {
		if l.ProjectID != projectID {
			continue
		}
		if sovLineID != "" && l.SOVLineID != sovLineID {
			continue
		}
		out = append(out, l)
	}
	return out
}

func (s *Store) MaterialsFor(projectID, sovLineID string) []MaterialDelivery {
	var out []MaterialDelivery
	for _, m := range s.MaterialDeliveries {
		if m.ProjectID != projectID {
			continue
		}
		if sovLineID != "" && m.SOVLineID != sovLineID {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (s *Store) BillingFor(projectID string) []BillingHistory {
	var out []BillingHistory
	for _, b := range s.BillingHistory {
		if b.ProjectID == projectID {
			out = append(out, b)
		}
	}
	return out
}

// LatestBilling returns the payment application with the highest application
// number for a project, or nil when the project has never billed.
func (s *Store) LatestBilling(projectID string) *BillingHistory {
	var latest *BillingHistory
	for i := range s.BillingHistory {
		b := &s.BillingHistory[i]
		if b.ProjectID != projectID {
			continue
		}
		if latest == nil || b.ApplicationNumber > latest.ApplicationNumber {
			latest = b
		}
	}
	return latest
}

// LatestLineBilling returns the billing detail for one SOV line from the
// latest application that includes it.
func (s *Store) LatestLineBilling(projectID, sovLineID string) *BillingLineItem {
	var latest *BillingLineItem
	for i := range s.BillingLineItems {
		li := &s.BillingLineItems[i]
		if li.ProjectID != projectID || li.SOVLineID != sovLineID {
			continue
		}
		if latest == nil || li.ApplicationNumber > latest.ApplicationNumber {
			latest = li
		}
	}
	return latest
}

func (s *Store) ChangeOrdersFor(projectID string) []ChangeOrder {
	var out []ChangeOrder
	for _, co := range s.ChangeOrders {
		if co.ProjectID == projectID {
			out = append(out, co)
		}
	}
	return out
}

func (s *Store) RFIsFor(projectID string) []RFI {
	var out []RFI
	for _, r := range s.RFIs {
		if r.ProjectID == projectID {
			out = append(out, r)
		}
	}
	return out
}

// FieldNotesFor returns a project's field notes, newest first.
func (s *Store) FieldNotesFor(projectID string) []FieldNote {
	var out []FieldNote
	for _, n := range s.FieldNotes {
		if n.ProjectID == projectID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// Counts reports per-entity row counts, used by the health endpoint.
func (s *Store) Counts() map[string]int {
	return map[string]int{
		"contracts":           len(s.Contracts),
		"sov_lines":           len(s.SOVLines),
		"sov_budgets":         len(s.SOVBudgets),
		"labor_logs":          len(s.LaborLogs),
		"material_deliveries": len(s.MaterialDeliveries),
		"billing_history":     len(s.BillingHistory),
		"billing_line_items":  len(s.BillingLineItems),
		"change_orders":       len(s.ChangeOrders),
		"rfis":                len(s.RFIs),
		"field_notes":         len(s.FieldNotes),
	}
}
