package ruleengine

import (
	"sort"

	"github.com/andriipushkar/replenishment/internal/automation/domain"
)

// PlanItem is one rule admitted to an execution plan, carrying the
// trigger evaluation that earned its place.
type PlanItem struct {
	Rule       *domain.ReorderRule
	Evaluation domain.TriggerEvaluation
}

// Skip is a non-error, explicit reason a rule was excluded from the plan
// (spec.md §9 REDESIGN FLAG: exceptions-for-control-flow become values).
type Skip struct {
	RuleID string
	Reason string
}

// ExecutionPlan is the Rule Engine's authoritative, risk-rated ordering
// for one process() tick (spec.md §4.1).
type ExecutionPlan struct {
	Items                []PlanItem
	Skipped              []Skip
	TotalEstimatedValue  float64
	BudgetExceedanceRisk float64
	SystemOverloadRisk   float64
	HighRiskRuleIDs      []string
}

// BuildPlan sorts items by urgency*confidence descending and computes
// the plan-level risk assessment of spec.md §4.1.
func BuildPlan(items []PlanItem, skipped []Skip, remainingBudgetByRule func(ruleID string) float64, activeJobs int) ExecutionPlan {
	sortByPriority(items)

	var total float64
	var highRisk []string
	for _, it := range items {
		total += it.Evaluation.EstimatedValue
		if it.Evaluation.Urgency >= 8 || it.Evaluation.Confidence < 0.6 {
			highRisk = append(highRisk, it.Rule.ID)
		}
	}

	budgetRisk := 0.0
	if len(items) > 0 {
		var remaining float64
		for _, it := range items {
			remaining += remainingBudgetByRule(it.Rule.ID)
		}
		if remaining > 0 {
			budgetRisk = total / remaining
			if budgetRisk > 1 {
				budgetRisk = 1
			}
		} else if total > 0 {
			budgetRisk = 1
		}
	}

	overloadRisk := float64(activeJobs) / 100
	if overloadRisk > 1 {
		overloadRisk = 1
	}

	return ExecutionPlan{
		Items:                items,
		Skipped:              skipped,
		TotalEstimatedValue:  total,
		BudgetExceedanceRisk: budgetRisk,
		SystemOverloadRisk:   overloadRisk,
		HighRiskRuleIDs:      highRisk,
	}
}

func sortByPriority(items []PlanItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return priority(items[i]) > priority(items[j])
	})
}

func priority(it PlanItem) float64 {
	return float64(it.Evaluation.Urgency) * it.Evaluation.Confidence
}
