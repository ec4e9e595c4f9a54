// Package ruleengine implements the Rule Engine (spec.md §4.1): loads
// eligible rules for a tenant, evaluates their triggers, builds a
// risk-rated execution plan, and dispatches it in bounded-concurrency
// batches.
package ruleengine

import "sync"

// TenantLocks enforces "at most one concurrent process(tenant) invocation"
// (spec.md §5, testable property 2) via a process-wide, per-tenant
// compare-and-swap flag. Reentrance is not permitted: a tenant already
// processing returns false from TryAcquire.
type TenantLocks struct {
	inFlight sync.Map // tenantID -> struct{}
}

// NewTenantLocks constructs an empty lock table.
func NewTenantLocks() *TenantLocks {
	return &TenantLocks{}
}

// TryAcquire attempts to mark tenantID as processing. It returns false if
// another process() call already holds the lock for this tenant.
func (l *TenantLocks) TryAcquire(tenantID string) bool {
	_, loaded := l.inFlight.LoadOrStore(tenantID, struct{}{})
	return !loaded
}

// Release clears tenantID's in-flight marker. Callers must defer this
// immediately after a successful TryAcquire.
func (l *TenantLocks) Release(tenantID string) {
	l.inFlight.Delete(tenantID)
}
