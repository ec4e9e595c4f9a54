package domain

import "time"

// RuleType enumerates the calculation strategy a rule uses, per spec.md §3.
type RuleType string

const (
	RuleTypeFixedQuantity RuleType = "FIXED_QUANTITY"
	RuleTypeEOQ           RuleType = "EOQ"
	RuleTypeMinMax        RuleType = "MIN_MAX"
	RuleTypeDemandBased   RuleType = "DEMAND_BASED"
	RuleTypeSeasonal      RuleType = "SEASONAL"
)

// TriggerKind enumerates the trigger variant a rule is evaluated under.
type TriggerKind string

const (
	TriggerStockLevel     TriggerKind = "STOCK_LEVEL"
	TriggerDaysOfSupply   TriggerKind = "DAYS_OF_SUPPLY"
	TriggerScheduled      TriggerKind = "SCHEDULED"
	TriggerDemandForecast TriggerKind = "DEMAND_FORECAST"
	TriggerCombined       TriggerKind = "COMBINED"
)

// RuleStatus is the lifecycle state of a ReorderRule.
type RuleStatus string

const (
	RuleStatusActive    RuleStatus = "ACTIVE"
	RuleStatusInactive  RuleStatus = "INACTIVE"
	RuleStatusSuspended RuleStatus = "SUSPENDED"
	RuleStatusExpired   RuleStatus = "EXPIRED"
)

// SupplierSelectionMethod picks the weighting scheme used by the selector.
type SupplierSelectionMethod string

const (
	MethodPrimary         SupplierSelectionMethod = "PRIMARY"
	MethodBalanced        SupplierSelectionMethod = "BALANCED"
	MethodCostOptimal     SupplierSelectionMethod = "COST_OPTIMAL"
	MethodQualityOptimal  SupplierSelectionMethod = "QUALITY_OPTIMAL"
	MethodDeliveryOptimal SupplierSelectionMethod = "DELIVERY_OPTIMAL"
)

// SupplierWeights is the {cost, quality, delivery, reliability} composite
// used by the Supplier Selector (spec.md §4.4).
type SupplierWeights struct {
	Cost        float64 `json:"cost"`
	Quality     float64 `json:"quality"`
	Delivery    float64 `json:"delivery"`
	Reliability float64 `json:"reliability"`
}

// DefaultWeights returns the method's default composite weighting.
func DefaultWeights(method SupplierSelectionMethod) SupplierWeights {
	switch method {
	case MethodCostOptimal:
		return SupplierWeights{Cost: 0.60, Quality: 0.15, Delivery: 0.15, Reliability: 0.10}
	case MethodQualityOptimal:
		return SupplierWeights{Cost: 0.10, Quality: 0.60, Delivery: 0.15, Reliability: 0.15}
	case MethodDeliveryOptimal:
		return SupplierWeights{Cost: 0.15, Quality: 0.15, Delivery: 0.60, Reliability: 0.10}
	default: // PRIMARY, BALANCED
		return SupplierWeights{Cost: 0.30, Quality: 0.25, Delivery: 0.25, Reliability: 0.20}
	}
}

// ReorderRule is scoped by (tenantId, productId, locationId); see spec.md §3.
type ReorderRule struct {
	ID          string
	TenantID    string
	ProductID   string
	LocationID  string

	RuleType RuleType
	Trigger  TriggerKind
	Status   RuleStatus

	ReorderPoint    int
	ReorderQuantity int
	MinStockLevel   int
	MaxStockLevel   int
	SafetyStockDays float64
	LeadTimeDays    int

	// EOQ inputs
	AnnualDemand    float64
	OrderingCost    float64
	HoldingCostRate float64 // percent, e.g. 25 == 25%
	UnitCost        float64

	// Demand params
	LookbackDays      int
	DemandMultiplier  float64
	ServiceLevel      float64 // [0,1]
	ForecastHorizonDays int

	// Supplier selection
	SupplierMethod     SupplierSelectionMethod
	SupplierWeights     *SupplierWeights // overrides DefaultWeights when set
	PrimarySupplierID   string
	AllowedSupplierIDs  []string

	// Budget
	MaxOrderValue    float64
	BudgetLimit      float64
	CurrentMonthSpend float64
	SpendMonth       time.Time // first-of-month marker for the rollover invariant

	MinOrderQuantity int
	MaxOrderQuantity int

	// Approval
	RequiresApproval      bool
	AutoApprovalThreshold float64
	IsFullyAutomated      bool

	// Schedule
	CronSchedule   string
	Timezone       string // IANA zone, default Asia/Jakarta
	NextReviewDate time.Time
	LastExecutedAt *time.Time

	// Counters
	TotalOrdersGenerated int
	TotalValueOrdered    float64
	ConsecutiveErrors    int
	MaxRetryAttempts     int
	LastErrorAt          *time.Time
	LastErrorMessage     *string // nullable: spec.md §9 Open Question (c)

	// Seasonal multipliers, month (1-12) -> factor
	SeasonalFactors map[int]float64

	// Pause state
	IsPaused    bool
	PausedUntil *time.Time
	PauseReason string

	IsActive  bool
	IsDeleted bool
	UpdatedBy string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsEligibleForExecution implements the derived invariant from spec.md §3:
// isEligibleForExecution = isActive ∧ ¬isPaused ∧ status=ACTIVE ∧
// (pausedUntil ≤ now ∨ null).
func (r *ReorderRule) IsEligibleForExecution(now time.Time) bool {
	if !r.IsActive || r.IsDeleted || r.Status != RuleStatusActive {
		return false
	}
	if r.IsPaused {
		if r.PausedUntil == nil || r.PausedUntil.After(now) {
			return false
		}
	}
	return true
}

// IsDue implements isDue = nextReviewDate ≤ now.
func (r *ReorderRule) IsDue(now time.Time) bool {
	return !r.NextReviewDate.After(now)
}

// HasRecentErrors implements hasRecentErrors = consecutiveErrors ≥
// maxRetryAttempts ∨ lastErrorAt within 1h.
func (r *ReorderRule) HasRecentErrors(now time.Time) bool {
	if r.MaxRetryAttempts > 0 && r.ConsecutiveErrors >= r.MaxRetryAttempts {
		return true
	}
	if r.LastErrorAt != nil && now.Sub(*r.LastErrorAt) <= time.Hour {
		return true
	}
	return false
}

// IsQuarantined is true once consecutive failures reach the retry ceiling;
// the rule is excluded from planning until an operator intervenes.
func (r *ReorderRule) IsQuarantined() bool {
	return r.MaxRetryAttempts > 0 && r.ConsecutiveErrors >= r.MaxRetryAttempts
}

// RemainingBudget is budgetLimit - currentMonthSpend, floored at 0. Callers
// must call RolloverMonth first if the month boundary has passed.
func (r *ReorderRule) RemainingBudget() float64 {
	remaining := r.BudgetLimit - r.CurrentMonthSpend
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RolloverMonth resets currentMonthSpend when now has crossed into a new
// calendar month since SpendMonth, implementing testable property 3: spend
// is monotone within a month and resets on the boundary.
func (r *ReorderRule) RolloverMonth(now time.Time) {
	y1, m1, _ := r.SpendMonth.Date()
	y2, m2, _ := now.Date()
	if y1 != y2 || m1 != m2 {
		r.CurrentMonthSpend = 0
		r.SpendMonth = time.Date(y2, m2, 1, 0, 0, 0, 0, now.Location())
	}
}

// EffectiveWeights returns the rule's override, or the method's default.
func (r *ReorderRule) EffectiveWeights() SupplierWeights {
	if r.SupplierWeights != nil {
		return *r.SupplierWeights
	}
	return DefaultWeights(r.SupplierMethod)
}

// SeasonalFactor returns rule.seasonalFactors[month] ?? 1.0.
func (r *ReorderRule) SeasonalFactor(month time.Month) float64 {
	if r.SeasonalFactors == nil {
		return 1.0
	}
	if f, ok := r.SeasonalFactors[int(month)]; ok {
		return f
	}
	return 1.0
}

// RecordExecution updates the rule's counters after an attempt, per
// spec.md §4.1 "Failure semantics" and testable property 5/the
// idempotence round-trip property in §8.
func (r *ReorderRule) RecordExecution(now time.Time, success bool, orderValue float64, errMsg string) {
	r.RolloverMonth(now)
	if success {
		r.TotalOrdersGenerated++
		r.TotalValueOrdered += orderValue
		r.CurrentMonthSpend += orderValue
		r.ConsecutiveErrors = 0
		r.LastErrorAt = nil
		r.LastErrorMessage = nil
	} else {
		r.ConsecutiveErrors++
		r.LastErrorAt = &now
		msg := errMsg
		r.LastErrorMessage = &msg
	}
	r.LastExecutedAt = &now
}
