package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andriipushkar/replenishment/internal/automation/domain"
	"github.com/andriipushkar/replenishment/internal/automation/ports"
	"github.com/andriipushkar/replenishment/internal/automation/ruleengine"
)

type fakeTenants struct{ ids []string }

func (f *fakeTenants) ListActiveTenants(ctx context.Context) ([]string, error) { return f.ids, nil }

type fakeExecsRepo struct {
	deletedPerTenant map[string]int
	calls            int
}

func (f *fakeExecsRepo) Create(ctx context.Context, exec *domain.ReorderExecution) error { return nil }
func (f *fakeExecsRepo) Update(ctx context.Context, exec *domain.ReorderExecution) error { return nil }
func (f *fakeExecsRepo) GetByExecutionID(ctx context.Context, tenantID, executionID string) (*domain.ReorderExecution, error) {
	return nil, domain.ErrRuleNotFound
}
func (f *fakeExecsRepo) FindLatestUnfinished(ctx context.Context, tenantID, ruleID string) (*domain.ReorderExecution, error) {
	return nil, nil
}
func (f *fakeExecsRepo) DeleteOlderThan(ctx context.Context, tenantID string, cutoff time.Time) (int, error) {
	f.calls++
	return f.deletedPerTenant[tenantID], nil
}

type emptyRuleRepo struct{}

func (emptyRuleRepo) ListEligible(ctx context.Context, tenantID string, now time.Time) ([]*domain.ReorderRule, error) {
	return nil, nil
}
func (emptyRuleRepo) GetByID(ctx context.Context, tenantID, ruleID string) (*domain.ReorderRule, error) {
	return nil, domain.ErrRuleNotFound
}
func (emptyRuleRepo) GetByProductLocation(ctx context.Context, tenantID, productID, locationID string) (*domain.ReorderRule, error) {
	return nil, domain.ErrRuleNotFound
}
func (emptyRuleRepo) Save(ctx context.Context, rule *domain.ReorderRule) error { return nil }

type noInventory struct{}

func (noInventory) GetItem(ctx context.Context, tenantID, productID, locationID string) (*domain.InventoryItem, error) {
	return &domain.InventoryItem{}, nil
}
func (noInventory) QueryTransactions(ctx context.Context, tenantID string, item *domain.InventoryItem, from, to time.Time) ([]domain.Transaction, error) {
	return nil, nil
}

type noForecast struct{}

func (noForecast) GenerateDemandForecast(ctx context.Context, tenantID string, req ports.ForecastRequest) (*ports.DemandForecast, error) {
	return nil, nil
}

type noopEngineExecutor struct{}

func (noopEngineExecutor) Execute(ctx context.Context, rule *domain.ReorderRule, eval domain.TriggerEvaluation) (ruleengine.ExecutionOutcome, error) {
	return ruleengine.ExecutionOutcome{Success: true}, nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func TestScheduler_CleanupExecutionsDeletesPerTenant(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	tenants := &fakeTenants{ids: []string{"t1", "t2"}}
	execs := &fakeExecsRepo{deletedPerTenant: map[string]int{"t1": 3, "t2": 0}}

	engine := ruleengine.NewEngine(emptyRuleRepo{}, noInventory{}, noForecast{}, fixedClock{now}, noopEngineExecutor{}, nil)
	s := New(DefaultConfig(), engine, execs, tenants, nil, nil, fixedClock{now})

	s.cleanupExecutions(context.Background())

	assert.Equal(t, 2, execs.calls)
}

func TestScheduler_ScheduledTickRunsWithoutFailing(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	tenants := &fakeTenants{ids: []string{"t1"}}
	engine := ruleengine.NewEngine(emptyRuleRepo{}, noInventory{}, noForecast{}, fixedClock{now}, noopEngineExecutor{}, nil)
	s := New(DefaultConfig(), engine, &fakeExecsRepo{}, tenants, nil, nil, fixedClock{now})

	require.NotPanics(t, func() { s.RunScheduledTick(context.Background()) })
}

func TestScheduler_ConditionTickNoopsWithoutSource(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	tenants := &fakeTenants{ids: nil}
	engine := ruleengine.NewEngine(emptyRuleRepo{}, noInventory{}, noForecast{}, fixedClock{now}, noopEngineExecutor{}, nil)
	s := New(DefaultConfig(), engine, &fakeExecsRepo{}, tenants, nil, nil, fixedClock{now})

	require.NotPanics(t, func() { s.RunConditionTick(context.Background()) })
}

type fakeConditionSource struct{ rules []ConditionRule }

func (f *fakeConditionSource) ListConditionRules(ctx context.Context) ([]ConditionRule, error) {
	return f.rules, nil
}

func TestScheduler_ConditionTickFiresOnMatchingData(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	cfg := &domain.ConditionTriggerConfig{
		Conditions: []domain.ConditionNode{{Field: "stock.level", Operator: domain.OpLessThan, Value: 10.0}},
		LogicalOp:  domain.LogicalAnd,
	}
	source := &fakeConditionSource{rules: []ConditionRule{{
		Rule: &domain.ReorderRule{ID: "r1"},
		Cfg:  cfg,
		Data: map[string]any{"stock": map[string]any{"level": 5.0}},
	}}}

	engine := ruleengine.NewEngine(emptyRuleRepo{}, noInventory{}, noForecast{}, fixedClock{now}, noopEngineExecutor{}, nil)
	s := New(DefaultConfig(), engine, &fakeExecsRepo{}, &fakeTenants{}, source, nil, fixedClock{now})

	require.NotPanics(t, func() { s.RunConditionTick(context.Background()) })
	assert.True(t, cfg.LastState())
}
