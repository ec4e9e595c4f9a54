package domain

import "time"

// CalculationDetails is the wire-level snapshot persisted with every
// ReorderExecution; field names and JSON shape are fixed by spec.md §6.
type CalculationDetails struct {
	CurrentStock    int             `json:"currentStock"`
	ReorderPoint    int             `json:"reorderPoint"`
	LeadTimeDemand  float64         `json:"leadTimeDemand"`
	SafetyStock     int             `json:"safetyStock"`
	ForecastDemand  *float64        `json:"forecastDemand,omitempty"`
	EOQCalculation  *int            `json:"eoqCalculation,omitempty"`
	SeasonalFactor  *float64        `json:"seasonalFactor,omitempty"`
	SupplierScores  map[string]float64 `json:"supplierScores"`
}

// ReorderExecution is an append-only audit record of one evaluation/attempt
// against a rule. It is immutable once Success=true; while Success=false it
// may be overwritten by a retry carrying the same ExecutionID (spec.md §4.5
// idempotency: "persisted row is overwritten only while success=false").
type ReorderExecution struct {
	ExecutionID          string
	ReorderRuleID        string
	TenantID             string
	ExecutedAt           time.Time
	Success              bool
	TriggeredQuantity    int
	RecommendedQuantity  int
	ActualQuantity       int
	OrderValue           float64
	SelectedSupplierID   string
	PurchaseOrderID      string
	TriggerReason        string
	ErrorMessage         *string
	CalculationDetails   CalculationDetails
	ExecutionTimeMs      int64
	Cancelled            bool
}
