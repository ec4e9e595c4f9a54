package triggers

import (
	"math"

	"github.com/andriipushkar/replenishment/internal/automation/domain"
)

// DaysOfSupply evaluates the DAYS_OF_SUPPLY trigger variant (spec.md
// §4.2): triggers when daysOfSupply <= safetyStockDays, raising urgency
// to >= 8 when a stockout is imminent within the lead time.
func DaysOfSupply(rule *domain.ReorderRule, currentStock int, avgDailyDemand float64) domain.TriggerEvaluation {
	if avgDailyDemand <= 0 {
		return domain.TriggerEvaluation{ShouldTrigger: false, Reason: "no demand history to compute days of supply"}
	}

	daysOfSupply := float64(currentStock) / avgDailyDemand
	if daysOfSupply > rule.SafetyStockDays {
		return domain.TriggerEvaluation{ShouldTrigger: false, Reason: "days of supply above safety stock threshold"}
	}

	urgency := 6
	if rule.LeadTimeDays > 0 && daysOfSupply <= float64(rule.LeadTimeDays) {
		urgency = 8
	}
	return domain.TriggerEvaluation{
		ShouldTrigger: true,
		Reason:        "days of supply at or below safety stock threshold",
		Urgency:       urgency,
		Confidence:    confidenceFromDataSpread(daysOfSupply, float64(rule.SafetyStockDays)),
	}
}

// confidenceFromDataSpread is a small heuristic: the closer daysOfSupply
// sits to zero relative to the safety threshold, the more confident the
// dispatcher is that the trigger correctly reflects an urgent shortage
// rather than noise near the threshold boundary.
func confidenceFromDataSpread(daysOfSupply, threshold float64) float64 {
	if threshold <= 0 {
		return 0.8
	}
	ratio := daysOfSupply / threshold
	confidence := 1 - math.Abs(ratio)*0.2
	if confidence < 0.5 {
		confidence = 0.5
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}
