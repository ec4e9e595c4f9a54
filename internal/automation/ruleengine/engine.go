package ruleengine

import (
	"context"
	"sync"
	"time"

	"github.com/andriipushkar/replenishment/internal/automation/domain"
	"github.com/andriipushkar/replenishment/internal/automation/ports"
	"github.com/andriipushkar/replenishment/internal/automation/triggers"
	"github.com/andriipushkar/replenishment/internal/logger"
	"github.com/andriipushkar/replenishment/internal/metrics"
)

// Batch dispatch tunables (spec.md §4.1 defaults).
const (
	DefaultBatchSize         = 3
	DefaultMaxConcurrent     = 5
	DefaultBatchDelay        = 2 * time.Second
	SystemLoadCPUWarnPercent = 90.0
	SystemLoadQueueWarn      = 100
)

// Executor is the narrow contract the Rule Engine needs from the
// Purchase Executor (spec.md §4.5): attempt one rule and report whether
// it produced a purchase order and at what value.
type Executor interface {
	Execute(ctx context.Context, rule *domain.ReorderRule, eval domain.TriggerEvaluation) (ExecutionOutcome, error)
}

// ExecutionOutcome is the minimal result the plan dispatcher aggregates
// into Metrics; the full ReorderExecution detail lives with the executor.
type ExecutionOutcome struct {
	Success     bool
	OrderValue  float64
	SupplierID  string
	ProcessTime time.Duration
}

// SystemLoad abstracts CPU/queue pressure so the eligibility filter can
// defer low-urgency rules under load without depending on a concrete
// metrics backend.
type SystemLoad interface {
	CPUPercent() float64
	QueueDepth() int
}

// Metrics is the aggregated result of one process() tick (spec.md §4.1).
type Metrics struct {
	TotalRulesProcessed    int
	TriggeredRules         int
	SuccessfulExecutions   int
	FailedExecutions       int
	SkippedRules           int
	AverageProcessingTime  time.Duration
	TotalValueGenerated    float64
	SystemEfficiency       float64
}

// Engine implements the Rule Engine & Trigger Dispatcher (spec.md §4.1).
type Engine struct {
	rules      ports.RuleRepository
	inventory  ports.InventoryPort
	forecaster ports.ForecastPort
	clock      ports.Clock
	locks      *TenantLocks
	executor   Executor
	load       SystemLoad

	BatchSize     int
	MaxConcurrent int
	BatchDelay    time.Duration
}

// NewEngine wires the Rule Engine's dependencies. load may be nil, in
// which case system-load back-pressure is disabled.
func NewEngine(rules ports.RuleRepository, inventory ports.InventoryPort, forecaster ports.ForecastPort, clock ports.Clock, executor Executor, load SystemLoad) *Engine {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Engine{
		rules:         rules,
		inventory:     inventory,
		forecaster:    forecaster,
		clock:         clock,
		locks:         NewTenantLocks(),
		executor:      executor,
		load:          load,
		BatchSize:     DefaultBatchSize,
		MaxConcurrent: DefaultMaxConcurrent,
		BatchDelay:    DefaultBatchDelay,
	}
}

// Process runs at most one concurrent invocation per tenant (spec.md §5,
// testable property 2): a second concurrent call for the same tenant
// returns domain.ErrTenantBusy immediately.
func (e *Engine) Process(ctx context.Context, tenantID string) (Metrics, error) {
	if !e.locks.TryAcquire(tenantID) {
		return Metrics{}, domain.ErrTenantBusy
	}
	defer e.locks.Release(tenantID)

	tickStart := time.Now()
	defer func() { metrics.RecordPlanDuration(tenantID, time.Since(tickStart).Seconds()) }()

	now := e.clock.Now()
	rules, err := e.rules.ListEligible(ctx, tenantID, now)
	if err != nil {
		return Metrics{}, &domain.PortError{Port: "RuleRepository", Transient: true, Err: err}
	}
	metrics.RecordRuleProcessed(tenantID, len(rules))

	var items []PlanItem
	var skipped []Skip
	quarantined := 0

	for _, rule := range rules {
		eval, skip := e.evaluate(ctx, rule, now)
		if skip != nil {
			if skip.Reason == "quarantined after repeated failures" {
				quarantined++
			}
			skipped = append(skipped, *skip)
			continue
		}
		if !eval.ShouldTrigger {
			skipped = append(skipped, Skip{RuleID: rule.ID, Reason: eval.Reason})
			continue
		}
		items = append(items, PlanItem{Rule: rule, Evaluation: eval})
	}

	activeJobs := 0
	if e.load != nil {
		activeJobs = e.load.QueueDepth()
	}
	plan := BuildPlan(items, skipped, func(ruleID string) float64 {
		for _, it := range items {
			if it.Rule.ID == ruleID {
				return it.Rule.RemainingBudget()
			}
		}
		return 0
	}, activeJobs)

	metrics.SetQuarantinedRules(quarantined)

	result := e.dispatch(ctx, plan)
	result.TotalRulesProcessed = len(rules)
	result.SkippedRules = len(plan.Skipped)
	return result, nil
}

// evaluate applies the eligibility filter (in order, short-circuit on
// failure) and, if the rule passes, evaluates its trigger.
func (e *Engine) evaluate(ctx context.Context, rule *domain.ReorderRule, now time.Time) (domain.TriggerEvaluation, *Skip) {
	if !rule.IsActive || rule.IsDeleted {
		return domain.TriggerEvaluation{}, &Skip{RuleID: rule.ID, Reason: "rule inactive"}
	}
	if !rule.IsDue(now) {
		return domain.TriggerEvaluation{}, &Skip{RuleID: rule.ID, Reason: "not due"}
	}
	if rule.IsQuarantined() {
		return domain.TriggerEvaluation{}, &Skip{RuleID: rule.ID, Reason: "quarantined after repeated failures"}
	}
	if rule.HasRecentErrors(now) {
		return domain.TriggerEvaluation{}, &Skip{RuleID: rule.ID, Reason: "recent errors, backing off"}
	}
	if rule.BudgetLimit > 0 && rule.RemainingBudget() <= 0 {
		return domain.TriggerEvaluation{}, &Skip{RuleID: rule.ID, Reason: "budget exhausted"}
	}
	if e.load != nil {
		if e.load.CPUPercent() > SystemLoadCPUWarnPercent {
			logger.Warn().Str("rule", rule.ID).Msg("system CPU load elevated during rule evaluation")
		}
		if e.load.QueueDepth() > SystemLoadQueueWarn {
			logger.Warn().Str("rule", rule.ID).Msg("queue depth elevated during rule evaluation")
		}
	}

	item, err := e.inventory.GetItem(ctx, rule.TenantID, rule.ProductID, rule.LocationID)
	if err != nil {
		return domain.TriggerEvaluation{}, &Skip{RuleID: rule.ID, Reason: "inventory lookup failed: " + err.Error()}
	}

	lookback := rule.LookbackDays
	if lookback <= 0 {
		lookback = 30
	}
	txns, err := e.inventory.QueryTransactions(ctx, rule.TenantID, item, now.AddDate(0, 0, -lookback), now)
	if err != nil {
		txns = nil // demand history is best-effort; an empty vector degrades confidence, it doesn't fail the rule
	}
	avgDaily := averageDailyDemand(txns, lookback)

	eval := triggers.Dispatch(ctx, e.forecaster, rule, nil, triggers.EvalInput{
		CurrentStock:   item.QuantityAvailable(),
		AvgDailyDemand: avgDaily,
		Now:            now,
	})
	return eval, nil
}

func averageDailyDemand(txns []domain.Transaction, lookback int) float64 {
	if lookback <= 0 {
		return 0
	}
	var total float64
	for _, t := range txns {
		total += float64(t.Quantity)
	}
	return total / float64(lookback)
}

// dispatch executes plan.Items in bounded-concurrency batches (spec.md
// §4.1: default 3 per batch, max 5 concurrent, 2s delay between batches).
// Per-rule failure never aborts the plan.
func (e *Engine) dispatch(ctx context.Context, plan ExecutionPlan) Metrics {
	var metrics Metrics
	var totalDuration time.Duration
	var mu sync.Mutex

	batchSize := e.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	sem := make(chan struct{}, e.MaxConcurrent)

	for start := 0; start < len(plan.Items); start += batchSize {
		end := start + batchSize
		if end > len(plan.Items) {
			end = len(plan.Items)
		}
		batch := plan.Items[start:end]

		var wg sync.WaitGroup
		for _, it := range batch {
			it := it
			wg.Add(1)
			sem <- struct{}{}
			go func() {
				defer wg.Done()
				defer func() { <-sem }()

				outcome, err := e.executor.Execute(ctx, it.Rule, it.Evaluation)

				mu.Lock()
				defer mu.Unlock()
				metrics.TriggeredRules++
				totalDuration += outcome.ProcessTime
				if err != nil || !outcome.Success {
					metrics.FailedExecutions++
				} else {
					metrics.SuccessfulExecutions++
					metrics.TotalValueGenerated += outcome.OrderValue
				}
			}()
		}
		wg.Wait()

		if end < len(plan.Items) && e.BatchDelay > 0 {
			select {
			case <-time.After(e.BatchDelay):
			case <-ctx.Done():
				return metrics
			}
		}
	}

	if metrics.TriggeredRules > 0 {
		metrics.AverageProcessingTime = totalDuration / time.Duration(metrics.TriggeredRules)
		metrics.SystemEfficiency = float64(metrics.SuccessfulExecutions) / float64(metrics.TriggeredRules)
	}
	return metrics
}
