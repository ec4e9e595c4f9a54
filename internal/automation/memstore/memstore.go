// Package memstore provides in-process implementations of
// ports.RuleRepository and ports.ExecutionRepository. The core intentionally
// never opens a database handle itself (spec.md §6: persistence is the outer
// platform's job); memstore exists so the engine can run standalone, and as
// the seam a real Postgres- or gRPC-backed repository would slot into.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andriipushkar/replenishment/internal/automation/domain"
)

// RuleStore is a thread-safe, in-memory ports.RuleRepository.
type RuleStore struct {
	mu    sync.RWMutex
	rules map[string]map[string]*domain.ReorderRule // tenantID -> ruleID -> rule
}

// NewRuleStore returns an empty RuleStore.
func NewRuleStore() *RuleStore {
	return &RuleStore{rules: make(map[string]map[string]*domain.ReorderRule)}
}

// Seed registers a rule directly, without a context; like Save it stores a
// copy. Useful for bootstrapping a demo or test fixture set.
func (s *RuleStore) Seed(rule *domain.ReorderRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(rule)
}

func (s *RuleStore) put(rule *domain.ReorderRule) {
	tenant, ok := s.rules[rule.TenantID]
	if !ok {
		tenant = make(map[string]*domain.ReorderRule)
		s.rules[rule.TenantID] = tenant
	}
	cp := *rule
	tenant[rule.ID] = &cp
}

// ListEligible returns every active, non-deleted rule for tenantID whose
// NextReviewDate has passed. The Rule Engine applies the remaining
// eligibility filter (quarantine, backoff, budget) itself.
func (s *RuleStore) ListEligible(ctx context.Context, tenantID string, now time.Time) ([]*domain.ReorderRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.ReorderRule
	for _, rule := range s.rules[tenantID] {
		if !rule.IsActive || rule.IsDeleted {
			continue
		}
		if rule.NextReviewDate.After(now) {
			continue
		}
		cp := *rule
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *RuleStore) GetByID(ctx context.Context, tenantID, ruleID string) (*domain.ReorderRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.rules[tenantID][ruleID]
	if !ok {
		return nil, domain.ErrRuleNotFound
	}
	cp := *rule
	return &cp, nil
}

func (s *RuleStore) GetByProductLocation(ctx context.Context, tenantID, productID, locationID string) (*domain.ReorderRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rule := range s.rules[tenantID] {
		if rule.ProductID == productID && rule.LocationID == locationID {
			cp := *rule
			return &cp, nil
		}
	}
	return nil, domain.ErrRuleNotFound
}

func (s *RuleStore) Save(ctx context.Context, rule *domain.ReorderRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(rule)
	return nil
}

// ListActiveTenants implements scheduler.TenantSource: every tenant with at
// least one non-deleted rule.
func (s *RuleStore) ListActiveTenants(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tenants []string
	for tenantID, rules := range s.rules {
		for _, rule := range rules {
			if !rule.IsDeleted {
				tenants = append(tenants, tenantID)
				break
			}
		}
	}
	sort.Strings(tenants)
	return tenants, nil
}

// ExecutionStore is a thread-safe, in-memory ports.ExecutionRepository. The
// audit trail is append-only in spirit: Update replaces the row in place
// (mirroring a single UPDATE ... WHERE execution_id = $1 statement) only
// while the stored row has Success=false, and Create never overwrites an
// existing id.
type ExecutionStore struct {
	mu    sync.RWMutex
	execs map[string]map[string]*domain.ReorderExecution // tenantID -> executionID -> exec
}

func NewExecutionStore() *ExecutionStore {
	return &ExecutionStore{execs: make(map[string]map[string]*domain.ReorderExecution)}
}

func (s *ExecutionStore) Create(ctx context.Context, exec *domain.ReorderExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tenant, ok := s.execs[exec.TenantID]
	if !ok {
		tenant = make(map[string]*domain.ReorderExecution)
		s.execs[exec.TenantID] = tenant
	}
	if _, exists := tenant[exec.ExecutionID]; exists {
		return fmt.Errorf("execution %s already exists", exec.ExecutionID)
	}
	cp := *exec
	tenant[exec.ExecutionID] = &cp
	return nil
}

func (s *ExecutionStore) Update(ctx context.Context, exec *domain.ReorderExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tenant, ok := s.execs[exec.TenantID]
	if !ok {
		tenant = make(map[string]*domain.ReorderExecution)
		s.execs[exec.TenantID] = tenant
	}
	if prev, exists := tenant[exec.ExecutionID]; exists && prev.Success {
		return fmt.Errorf("execution %s already succeeded and cannot be overwritten", exec.ExecutionID)
	}
	cp := *exec
	tenant[exec.ExecutionID] = &cp
	return nil
}

func (s *ExecutionStore) GetByExecutionID(ctx context.Context, tenantID, executionID string) (*domain.ReorderExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exec, ok := s.execs[tenantID][executionID]
	if !ok {
		return nil, domain.ErrRuleNotFound
	}
	cp := *exec
	return &cp, nil
}

// FindLatestUnfinished returns the most recent execution for ruleID with no
// terminal result yet recorded (spec.md §4.5: resuming a crashed attempt
// rather than double-executing it).
func (s *ExecutionStore) FindLatestUnfinished(ctx context.Context, tenantID, ruleID string) (*domain.ReorderExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.ReorderExecution
	for _, exec := range s.execs[tenantID] {
		if exec.ReorderRuleID != ruleID || exec.ErrorMessage != nil || exec.Success {
			continue
		}
		if latest == nil || exec.ExecutedAt.After(latest.ExecutedAt) {
			cp := *exec
			latest = &cp
		}
	}
	return latest, nil
}

func (s *ExecutionStore) DeleteOlderThan(ctx context.Context, tenantID string, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant, ok := s.execs[tenantID]
	if !ok {
		return 0, nil
	}
	deleted := 0
	for id, exec := range tenant {
		if exec.ExecutedAt.Before(cutoff) {
			delete(tenant, id)
			deleted++
		}
	}
	return deleted, nil
}
