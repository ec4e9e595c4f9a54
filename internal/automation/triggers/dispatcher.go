package triggers

import (
	"context"
	"time"

	"github.com/andriipushkar/replenishment/internal/automation/domain"
	"github.com/andriipushkar/replenishment/internal/automation/ports"
)

// EvalInput bundles the live data the dispatcher needs to evaluate any
// trigger variant against a rule.
type EvalInput struct {
	CurrentStock   int
	AvgDailyDemand float64
	Now            time.Time
}

// Dispatch evaluates rule.Trigger's matching TriggerConfig variant
// (SCHEDULED with no attached config falls back to comparing the rule's
// nextReviewDate, and any trigger kind not handled below is evaluated as
// STOCK_LEVEL) and applies the universal time restrictions in the rule's
// timezone (Asia/Jakarta when unset) before returning, per spec.md §4.2.
func Dispatch(ctx context.Context, forecaster ports.ForecastPort, rule *domain.ReorderRule, cfg *domain.TriggerConfig, in EvalInput) domain.TriggerEvaluation {
	var result domain.TriggerEvaluation

	switch rule.Trigger {
	case domain.TriggerStockLevel:
		result = StockLevel(rule, in.CurrentStock)
	case domain.TriggerDaysOfSupply:
		result = DaysOfSupply(rule, in.CurrentStock, in.AvgDailyDemand)
	case domain.TriggerScheduled:
		if cfg != nil && cfg.Scheduled != nil {
			result = Scheduled(rule, cfg.Scheduled, in.Now)
		} else {
			result = scheduledFallback(rule, in.Now)
		}
	case domain.TriggerDemandForecast:
		result = DemandForecast(ctx, forecaster, rule, in.CurrentStock)
	case domain.TriggerCombined:
		stock := StockLevel(rule, in.CurrentStock)
		dos := DaysOfSupply(rule, in.CurrentStock, in.AvgDailyDemand)
		scheduled := scheduledFallback(rule, in.Now)
		forecast := DemandForecast(ctx, forecaster, rule, in.CurrentStock)
		result = Combined(stock, dos, scheduled, forecast)
	default:
		result = StockLevel(rule, in.CurrentStock)
	}

	if !result.ShouldTrigger {
		return result
	}

	tz := rule.Timezone
	if tz == "" {
		tz = "Asia/Jakarta"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	if blocked, reason := Restricted(in.Now, loc, result.Urgency); blocked {
		result.ShouldTrigger = false
		result.Blockers = append(result.Blockers, reason)
	}
	return result
}

// scheduledFallback is used by COMBINED/SCHEDULED evaluation when no
// explicit ScheduledTriggerConfig is attached to the rule: it compares
// the rule's own nextReviewDate directly, without cron recomputation.
func scheduledFallback(rule *domain.ReorderRule, now time.Time) domain.TriggerEvaluation {
	if rule.NextReviewDate.After(now) {
		next := rule.NextReviewDate
		return domain.TriggerEvaluation{ShouldTrigger: false, Reason: "not yet due", NextEvaluationTime: &next}
	}
	return domain.TriggerEvaluation{ShouldTrigger: true, Reason: "scheduled review due", Urgency: 4, Confidence: 1.0}
}
