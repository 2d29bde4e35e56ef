package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/marginguard/marginguard/pkg/logger"
)

// Load materializes the whole dataset from the CSV files in dir. It is
// called once at startup; the returned Store is immutable from then on.
func Load(dir string) (*Store, error) {
	s := &Store{}

	if err := loadFile(dir, "contracts.csv", func(r row) {
		s.Contracts = append(s.Contracts, Contract{
			ProjectID:                 r.str("project_id"),
			ProjectName:               r.str("project_name"),
			OriginalContractValue:     r.float("original_contract_value"),
			ContractDate:              r.str("contract_date"),
			SubstantialCompletionDate: r.str("substantial_completion_date"),
			RetentionPct:              r.float("retention_pct"),
			PaymentTerms:              r.str("payment_terms"),
			GCName:                    r.str("gc_name"),
			Architect:                 r.str("architect"),
			EngineerOfRecord:          r.str("engineer_of_record"),
		})
	}); err != nil {
		return nil, err
	}

	if err := loadFile(dir, "sov.csv", func(r row) {
		s.SOVLines = append(s.SOVLines, SOVLine{
			ProjectID:      r.str("project_id"),
			SOVLineID:      r.str("sov_line_id"),
			LineNumber:     r.int("line_number"),
			Description:    r.str("description"),
			ScheduledValue: r.float("scheduled_value"),
			LaborPct:       r.float("labor_pct"),
			MaterialPct:    r.float("material_pct"),
		})
	}); err != nil {
		return nil, err
	}

	if err := loadFile(dir, "sov_budget.csv", func(r row) {
		s.SOVBudgets = append(s.SOVBudgets, SOVBudget{
			ProjectID:              r.str("project_id"),
			SOVLineID:              r.str("sov_line_id"),
			EstimatedLaborHours:    r.float("estimated_labor_hours"),
			EstimatedLaborCost:     r.float("estimated_labor_cost"),
			EstimatedMaterialCost:  r.float("estimated_material_cost"),
			EstimatedEquipmentCost: r.float("estimated_equipment_cost"),
			EstimatedSubCost:       r.float("estimated_sub_cost"),
			ProductivityFactor:     r.float("productivity_factor"),
			KeyAssumptions:         r.str("key_assumptions"),
		})
	}); err != nil {
		return nil, err
	}

	if err := loadFile(dir, "labor_logs.csv", func(r row) {
		s.LaborLogs = append(s.LaborLogs, LaborLog{
			ProjectID:        r.str("project_id"),
			LogID:            r.str("log_id"),
			Date:             r.str("date"),
			EmployeeID:       r.str("employee_id"),
			Role:             r.str("role"),
			SOVLineID:        r.str("sov_line_id"),
			HoursST:          r.float("hours_st"),
			HoursOT:          r.float("hours_ot"),
			HourlyRate:       r.float("hourly_rate"),
			BurdenMultiplier: r.float("burden_multiplier"),
			WorkArea:         r.str("work_area"),
			CostCode:         r.str("cost_code"),
		})
	}); err != nil {
		return nil, err
	}

	if err := loadFile(dir, "material_deliveries.csv", func(r row) {
		s.MaterialDeliveries = append(s.MaterialDeliveries, MaterialDelivery{
			ProjectID:        r.str("project_id"),
			DeliveryID:       r.str("delivery_id"),
			Date:             r.str("date"),
			SOVLineID:        r.str("sov_line_id"),
			MaterialCategory: r.str("material_category"),
			ItemDescription:  r.str("item_description"),
			Quantity:         r.float("quantity"),
			Unit:             r.str("unit"),
			UnitCost:         r.float("unit_cost"),
			TotalCost:        r.float("total_cost"),
			PONumber:         r.str("po_number"),
			Vendor:           r.str("vendor"),
			ReceivedBy:       r.str("received_by"),
			ConditionNotes:   r.str("condition_notes"),
		})
	}); err != nil {
		return nil, err
	}

	if err := loadFile(dir, "billing_history.csv", func(r row) {
		s.BillingHistory = append(s.BillingHistory, BillingHistory{
			ProjectID:         r.str("project_id"),
			ApplicationNumber: r.int("application_number"),
			PeriodEnd:         r.str("period_end"),
			PeriodTotal:       r.float("period_total"),
			CumulativeBilled:  r.float("cumulative_billed"),
			RetentionHeld:     r.float("retention_held"),
			NetPaymentDue:     r.float("net_payment_due"),
			Status:            r.str("status"),
			PaymentDate:       r.str("payment_date"),
			LineItemCount:     r.int("line_item_count"),
		})
	}); err != nil {
		return nil, err
	}

	if err := loadFile(dir, "billing_line_items.csv", func(r row) {
		s.BillingLineItems = append(s.BillingLineItems, BillingLineItem{
			SOVLineID:         r.str("sov_line_id"),
			Description:       r.str("description"),
			ScheduledValue:    r.float("scheduled_value"),
			PreviousBilled:    r.float("previous_billed"),
			ThisPeriod:        r.float("this_period"),
			TotalBilled:       r.float("total_billed"),
			PctComplete:       r.float("pct_complete"),
			BalanceToFinish:   r.float("balance_to_finish"),
			ProjectID:         r.str("project_id"),
			ApplicationNumber: r.int("application_number"),
		})
	}); err != nil {
		return nil, err
	}

	if err := loadFile(dir, "change_orders.csv", func(r row) {
		s.ChangeOrders = append(s.ChangeOrders, ChangeOrder{
			ProjectID:          r.str("project_id"),
			CONumber:           r.str("co_number"),
			DateSubmitted:      r.str("date_submitted"),
			ReasonCategory:     r.str("reason_category"),
			Description:        r.str("description"),
			Amount:             r.float("amount"),
			Status:             r.str("status"),
			RelatedRFI:         r.str("related_rfi"),
			AffectedSOVLines:   r.str("affected_sov_lines"),
			LaborHoursImpact:   r.float("labor_hours_impact"),
			ScheduleImpactDays: r.float("schedule_impact_days"),
			SubmittedBy:        r.str("submitted_by"),
			ApprovedBy:         r.str("approved_by"),
		})
	}); err != nil {
		return nil, err
	}

	if err := loadFile(dir, "rfis.csv", func(r row) {
		s.RFIs = append(s.RFIs, RFI{
			ProjectID:       r.str("project_id"),
			RFINumber:       r.str("rfi_number"),
			DateSubmitted:   r.str("date_submitted"),
			Subject:         r.str("subject"),
			SubmittedBy:     r.str("submitted_by"),
			AssignedTo:      r.str("assigned_to"),
			Priority:        r.str("priority"),
			Status:          r.str("status"),
			DateRequired:    r.str("date_required"),
			DateResponded:   r.str("date_responded"),
			ResponseSummary: r.str("response_summary"),
			CostImpact:      r.str("cost_impact"),
			ScheduleImpact:  r.str("schedule_impact"),
		})
	}); err != nil {
		return nil, err
	}

	if err := loadFile(dir, "field_notes.csv", func(r row) {
		s.FieldNotes = append(s.FieldNotes, FieldNote{
			ProjectID:      r.str("project_id"),
			NoteID:         r.str("note_id"),
			Date:           r.str("date"),
			Author:         r.str("author"),
			NoteType:       r.str("note_type"),
			Content:        r.str("content"),
			PhotosAttached: r.int("photos_attached"),
			Weather:        r.str("weather"),
			TempHigh:       r.float("temp_high"),
			TempLow:        r.float("temp_low"),
		})
	}); err != nil {
		return nil, err
	}

	logger.InfoCF("dataset", "dataset loaded", map[string]interface{}{
		"dir":    dir,
		"counts": s.Counts(),
	})

	return s, nil
}

// row pairs one CSV record with its header index and does the type coercion
// for the entity builders. Missing columns and unparseable numbers coerce to
// zero values, matching the tolerant ingestion of the tabular source.
type row struct {
	header map[string]int
	fields []string
}

func (r row) str(col string) string {
	idx, ok := r.header[col]
	if !ok || idx >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[idx])
}

func (r row) float(col string) float64 {
	v := r.str(col)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func (r row) int(col string) int {
	v := r.str(col)
	if v == "" {
		return 0
	}
	// Some exports write integers as "4.0".
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return int(f)
}

func loadFile(dir, name string, build func(row)) error {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	if len(records) == 0 {
		return nil
	}

	header := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		header[strings.TrimSpace(col)] = i
	}

	for _, fields := range records[1:] {
		if len(fields) == 0 {
			continue
		}
		build(row{header: header, fields: fields})
	}
	return nil
}
