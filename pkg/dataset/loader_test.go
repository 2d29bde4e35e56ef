package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixtureCSVs(t *testing.T, dir string) {
	t.Helper()

	files := map[string]string{
		"contracts.csv": "project_id,project_name,original_contract_value,contract_date,substantial_completion_date,retention_pct,payment_terms,gc_name,architect,engineer_of_record\n" +
			"P1,Downtown Tower,1000000,2024-01-15,2025-06-30,10,Net 30,Acme GC,Arch LLC,EOR Inc\n",
		"sov.csv": "project_id,sov_line_id,line_number,description,scheduled_value,labor_pct,material_pct\n" +
			"P1,SOV-01,1,Ductwork,400000,60,40\n" +
			"P1,SOV-02,2.0,Piping,600000,55,45\n",
		"sov_budget.csv": "project_id,sov_line_id,estimated_labor_hours,estimated_labor_cost,estimated_material_cost,estimated_equipment_cost,estimated_sub_cost,productivity_factor,key_assumptions\n" +
			"P1,SOV-01,2000,150000,100000,20000,30000,1.0,normal access\n",
		"labor_logs.csv": "project_id,log_id,date,employee_id,role,sov_line_id,hours_st,hours_ot,hourly_rate,burden_multiplier,work_area,cost_code\n" +
			"P1,L1,2024-03-04,E1,Foreman,SOV-01,8,2,50,1.4,Level 2,.\n" +
			"P1,L2,2024-03-05,E2,Journeyman,SOV-01,8,0,not-a-number,1.35,Level 2,.\n",
		"material_deliveries.csv": "project_id,delivery_id,date,sov_line_id,material_category,item_description,quantity,unit,unit_cost,total_cost,po_number,vendor,received_by,condition_notes\n" +
			"P1,D1,2024-03-01,SOV-01,Sheet Metal,Duct,100,lf,25,2500,PO-1,Vendor,Bob,ok\n",
		"billing_history.csv": "project_id,application_number,period_end,period_total,cumulative_billed,retention_held,net_payment_due,status,payment_date,line_item_count\n" +
			"P1,1,2024-02-29,100000,100000,10000,90000,Paid,2024-03-20,2\n" +
			"P1,2,2024-03-31,150000,250000,25000,135000,Submitted,,2\n",
		"billing_line_items.csv": "sov_line_id,description,scheduled_value,previous_billed,this_period,total_billed,pct_complete,balance_to_finish,project_id,application_number\n" +
			"SOV-01,Ductwork,400000,0,100000,100000,25,300000,P1,1\n" +
			"SOV-01,Ductwork,400000,100000,60000,160000,40,240000,P1,2\n",
		"change_orders.csv": "project_id,co_number,date_submitted,reason_category,description,amount,status,related_rfi,affected_sov_lines,labor_hours_impact,schedule_impact_days,submitted_by,approved_by\n" +
			"P1,CO-001,2024-03-10,Design Change,Add VAV boxes,25000,Pending,RFI-002,\"['SOV-01', 'SOV-02']\",120,5,PM,\n",
		"rfis.csv": "project_id,rfi_number,date_submitted,subject,submitted_by,assigned_to,priority,status,date_required,date_responded,response_summary,cost_impact,schedule_impact\n" +
			"P1,RFI-001,2024-02-20,Duct routing conflict,PM,Architect,High,Open,2024-03-01,,,True,False\n",
		"field_notes.csv": "project_id,note_id,date,author,note_type,content,photos_attached,weather,temp_high,temp_low\n" +
			"P1,N1,2024-03-04,Foreman,Daily,GC asked for extra diffusers verbal approval,2,Clear,65,48\n",
	}

	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
}

func TestLoadBuildsAllCollections(t *testing.T) {
	dir := t.TempDir()
	writeFixtureCSVs(t, dir)

	s, err := Load(dir)
	require.NoError(t, err)

	counts := s.Counts()
	assert.Equal(t, 1, counts["contracts"])
	assert.Equal(t, 2, counts["sov_lines"])
	assert.Equal(t, 2, counts["labor_logs"])
	assert.Equal(t, 2, counts["billing_history"])

	c := s.Contract("P1")
	require.NotNil(t, c)
	assert.Equal(t, "Downtown Tower", c.ProjectName)
	assert.Equal(t, 1000000.0, c.OriginalContractValue)
}

func TestLoadCoercesLooseNumbers(t *testing.T) {
	dir := t.TempDir()
	writeFixtureCSVs(t, dir)

	s, err := Load(dir)
	require.NoError(t, err)

	// "2.0" line number parses as 2; an unparseable rate coerces to 0.
	assert.Equal(t, 2, s.SOVLines[1].LineNumber)
	assert.Equal(t, 0.0, s.LaborLogs[1].HourlyRate)
}

func TestLoadMissingFileFails(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestStoreQueries(t *testing.T) {
	dir := t.TempDir()
	writeFixtureCSVs(t, dir)

	s, err := Load(dir)
	require.NoError(t, err)

	assert.Nil(t, s.Contract("P404"))
	assert.Len(t, s.LaborFor("P1", "SOV-01"), 2)
	assert.Empty(t, s.LaborFor("P1", "SOV-99"))

	latest := s.LatestBilling("P1")
	require.NotNil(t, latest)
	assert.Equal(t, 2, latest.ApplicationNumber)
	assert.Equal(t, 250000.0, latest.CumulativeBilled)

	li := s.LatestLineBilling("P1", "SOV-01")
	require.NotNil(t, li)
	assert.Equal(t, 40.0, li.PctComplete)
}
