package domain

import "errors"

// Error kinds from spec.md §7. ValidationError, CalculationError and
// SupplierSelectionError wrap a reason string; EligibilityError and
// BudgetError never escape as errors — they are represented by SkipResult
// instead (see trigger.go), per the REDESIGN FLAG that exceptions-for-control-
// flow become explicit values.
var (
	ErrRuleNotFound       = errors.New("reorder rule not found")
	ErrSupplierNotFound   = errors.New("supplier not found")
	ErrInventoryNotFound  = errors.New("inventory item not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrInvalidRule        = errors.New("invalid reorder rule configuration")
	ErrNoEligibleSupplier = errors.New("no eligible supplier")
	ErrQuarantined        = errors.New("rule quarantined after repeated failures")
	ErrTenantBusy         = errors.New("tenant already has a process() in flight")
	ErrFatal              = errors.New("fatal: dependency unreachable")
)

// ValidationError signals malformed rule/input (spec.md §7). The rule is
// never mutated when this is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Field + ": " + e.Reason
}

// CalculationError signals a recoverable calculation problem (forecast
// unavailable, insufficient history). Callers fall back locally and reduce
// confidence rather than failing the rule.
type CalculationError struct {
	Reason string
}

func (e *CalculationError) Error() string { return "calculation: " + e.Reason }

// SupplierSelectionError signals no eligible supplier was found. It is
// returned alongside a SelectionResult with Success=false, never blocks the
// batch, and creates no purchase order.
type SupplierSelectionError struct {
	Reason string
}

func (e *SupplierSelectionError) Error() string { return "supplier selection: " + e.Reason }

// PortError wraps a failure from an external port, distinguishing transient
// (retryable) from permanent failures per spec.md §7.
type PortError struct {
	Port      string
	Transient bool
	Err       error
}

func (e *PortError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return "port(" + e.Port + ") " + kind + ": " + e.Err.Error()
}

func (e *PortError) Unwrap() error { return e.Err }
