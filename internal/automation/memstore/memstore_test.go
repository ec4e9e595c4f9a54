package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andriipushkar/replenishment/internal/automation/domain"
)

func TestRuleStore_ListEligibleFiltersInactiveAndNotDue(t *testing.T) {
	store := NewRuleStore()
	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	store.Seed(&domain.ReorderRule{ID: "due", TenantID: "acme", IsActive: true, NextReviewDate: now.Add(-time.Hour)})
	store.Seed(&domain.ReorderRule{ID: "not-due", TenantID: "acme", IsActive: true, NextReviewDate: now.Add(time.Hour)})
	store.Seed(&domain.ReorderRule{ID: "inactive", TenantID: "acme", IsActive: false, NextReviewDate: now.Add(-time.Hour)})
	store.Seed(&domain.ReorderRule{ID: "deleted", TenantID: "acme", IsActive: true, IsDeleted: true, NextReviewDate: now.Add(-time.Hour)})
	store.Seed(&domain.ReorderRule{ID: "other-tenant", TenantID: "globex", IsActive: true, NextReviewDate: now.Add(-time.Hour)})

	rules, err := store.ListEligible(context.Background(), "acme", now)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "due", rules[0].ID)
}

func TestRuleStore_SaveThenGetByIDReturnsACopy(t *testing.T) {
	store := NewRuleStore()
	rule := &domain.ReorderRule{ID: "r1", TenantID: "acme", IsActive: true}
	require.NoError(t, store.Save(context.Background(), rule))

	got, err := store.GetByID(context.Background(), "acme", "r1")
	require.NoError(t, err)
	got.IsActive = false

	again, err := store.GetByID(context.Background(), "acme", "r1")
	require.NoError(t, err)
	assert.True(t, again.IsActive, "mutating a returned rule must not affect the store")
}

func TestRuleStore_GetByIDUnknownReturnsErrRuleNotFound(t *testing.T) {
	store := NewRuleStore()
	_, err := store.GetByID(context.Background(), "acme", "missing")
	assert.ErrorIs(t, err, domain.ErrRuleNotFound)
}

func TestRuleStore_GetByProductLocationFindsMatch(t *testing.T) {
	store := NewRuleStore()
	store.Seed(&domain.ReorderRule{ID: "r1", TenantID: "acme", ProductID: "p1", LocationID: "l1"})

	got, err := store.GetByProductLocation(context.Background(), "acme", "p1", "l1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)
}

func TestRuleStore_ListActiveTenantsExcludesTenantsWithOnlyDeletedRules(t *testing.T) {
	store := NewRuleStore()
	store.Seed(&domain.ReorderRule{ID: "r1", TenantID: "acme", IsDeleted: false})
	store.Seed(&domain.ReorderRule{ID: "r2", TenantID: "globex", IsDeleted: true})

	tenants, err := store.ListActiveTenants(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"acme"}, tenants)
}

func TestExecutionStore_CreateThenGetByExecutionID(t *testing.T) {
	store := NewExecutionStore()
	exec := &domain.ReorderExecution{ExecutionID: "exec_1", TenantID: "acme", ReorderRuleID: "r1"}
	require.NoError(t, store.Create(context.Background(), exec))

	got, err := store.GetByExecutionID(context.Background(), "acme", "exec_1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ReorderRuleID)
}

func TestExecutionStore_FindLatestUnfinishedIgnoresFinishedExecutions(t *testing.T) {
	store := NewExecutionStore()
	now := time.Now()

	require.NoError(t, store.Create(context.Background(), &domain.ReorderExecution{
		ExecutionID: "exec_done", TenantID: "acme", ReorderRuleID: "r1", Success: true, ExecutedAt: now.Add(-time.Minute),
	}))
	require.NoError(t, store.Create(context.Background(), &domain.ReorderExecution{
		ExecutionID: "exec_pending", TenantID: "acme", ReorderRuleID: "r1", Success: false, ExecutedAt: now,
	}))

	latest, err := store.FindLatestUnfinished(context.Background(), "acme", "r1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "exec_pending", latest.ExecutionID)
}

func TestExecutionStore_DeleteOlderThanReturnsCount(t *testing.T) {
	store := NewExecutionStore()
	now := time.Now()

	require.NoError(t, store.Create(context.Background(), &domain.ReorderExecution{
		ExecutionID: "old", TenantID: "acme", ExecutedAt: now.Add(-48 * time.Hour),
	}))
	require.NoError(t, store.Create(context.Background(), &domain.ReorderExecution{
		ExecutionID: "new", TenantID: "acme", ExecutedAt: now,
	}))

	deleted, err := store.DeleteOlderThan(context.Background(), "acme", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = store.GetByExecutionID(context.Background(), "acme", "new")
	assert.NoError(t, err)
}
