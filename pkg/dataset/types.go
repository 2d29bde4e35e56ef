package dataset

// The ten entity types mirror the tabular source files one struct field per
// column. All coercion from the loosely-typed source happens in the loader;
// past that boundary every field is a well-typed value. The two exceptions
// are ChangeOrder.AffectedSOVLines and the RFI impact flags, which keep
// their raw string encodings and are normalized on demand by pkg/metrics.

// Contract is the root of all per-project aggregation.
type Contract struct {
	ProjectID                 string
	ProjectName               string
	OriginalContractValue     float64
	ContractDate              string
	SubstantialCompletionDate string
	RetentionPct              float64
	PaymentTerms              string
	GCName                    string
	Architect                 string
	EngineerOfRecord          string
}

// SOVLine is one billable line item on a project's schedule of values.
type SOVLine struct {
	ProjectID      string
	SOVLineID      string
	LineNumber     int
	Description    string
	ScheduledValue float64
	LaborPct       float64
	MaterialPct    float64
}

// SOVBudget is the plan side of every variance computation.
type SOVBudget struct {
	ProjectID              string
	SOVLineID              string
	EstimatedLaborHours    float64
	EstimatedLaborCost     float64
	EstimatedMaterialCost  float64
	EstimatedEquipmentCost float64
	EstimatedSubCost       float64
	ProductivityFactor     float64
	KeyAssumptions         string
}

// LaborLog is a single worker-day entry. Cost is always derived, never stored.
type LaborLog struct {
	ProjectID        string
	LogID            string
	Date             string
	EmployeeID       string
	Role             string
	SOVLineID        string
	HoursST          float64
	HoursOT          float64
	HourlyRate       float64
	BurdenMultiplier float64
	WorkArea         string
	CostCode         string
}

type MaterialDelivery struct {
	ProjectID        string
	DeliveryID       string
	Date             string
	SOVLineID        string
	MaterialCategory string
	ItemDescription  string
	Quantity         float64
	Unit             string
	UnitCost         float64
	TotalCost        float64
	PONumber         string
	Vendor           string
	ReceivedBy       string
	ConditionNotes   string
}

// BillingHistory is one payment application; the latest is the one with the
// highest application number.
type BillingHistory struct {
	ProjectID         string
	ApplicationNumber int
	PeriodEnd         string
	PeriodTotal       float64
	CumulativeBilled  float64
	RetentionHeld     float64
	NetPaymentDue     float64
	Status            string
	PaymentDate       string
	LineItemCount     int
}

type BillingLineItem struct {
	SOVLineID         string
	Description       string
	ScheduledValue    float64
	PreviousBilled    float64
	ThisPeriod        float64
	TotalBilled       float64
	PctComplete       float64
	BalanceToFinish   float64
	ProjectID         string
	ApplicationNumber int
}

type ChangeOrder struct {
	ProjectID          string
	CONumber           string
	DateSubmitted      string
	ReasonCategory     string
	Description        string
	Amount             float64
	Status             string
	RelatedRFI         string
	AffectedSOVLines   string // quoted-list literal, parsed by metrics.ParseAffectedLines
	LaborHoursImpact   float64
	ScheduleImpactDays float64
	SubmittedBy        string
	ApprovedBy         string
}

type RFI struct {
	ProjectID       string
	RFINumber       string
	DateSubmitted   string
	Subject         string
	SubmittedBy     string
	AssignedTo      string
	Priority        string
	Status          string
	DateRequired    string
	DateResponded   string
	ResponseSummary string
	CostImpact      string // "True"/"False" style, normalized by metrics.ParseBool
	ScheduleImpact  string
}

type FieldNote struct {
	ProjectID      string
	NoteID         string
	Date           string
	Author         string
	NoteType       string
	Content        string
	PhotosAttached int
	Weather        string
	TempHigh       float64
	TempLow        float64
}

// Change order statuses.
const (
	COStatusPending  = "Pending"
	COStatusApproved = "Approved"
	COStatusRejected = "Rejected"
)
