package triggers

import (
	"github.com/andriipushkar/replenishment/internal/automation/domain"
)

// StockLevel evaluates the STOCK_LEVEL trigger variant (spec.md §4.2):
// triggers when currentStock <= 0 or currentStock <= reorderPoint, with
// urgency tiers at 25%/50%/100%/110% of reorderPoint.
func StockLevel(rule *domain.ReorderRule, currentStock int) domain.TriggerEvaluation {
	if currentStock <= 0 {
		return domain.TriggerEvaluation{
			ShouldTrigger: true,
			Reason:        "stock depleted",
			Urgency:       10,
			Confidence:    1.0,
		}
	}

	rp := rule.ReorderPoint
	if rp <= 0 {
		return domain.TriggerEvaluation{ShouldTrigger: false, Reason: "no reorder point configured"}
	}

	switch {
	case currentStock <= int(float64(rp)*0.25):
		return eval(true, "stock at or below 25% of reorder point", 9)
	case currentStock <= int(float64(rp)*0.50):
		return eval(true, "stock at or below 50% of reorder point", 7)
	case currentStock <= rp:
		return eval(true, "stock at or below reorder point", 5)
	case currentStock <= int(float64(rp)*1.10):
		return eval(true, "stock within 10% above reorder point", 3)
	default:
		return domain.TriggerEvaluation{ShouldTrigger: false, Reason: "stock above reorder point"}
	}
}

func eval(should bool, reason string, urgency int) domain.TriggerEvaluation {
	return domain.TriggerEvaluation{ShouldTrigger: should, Reason: reason, Urgency: urgency, Confidence: 1.0}
}
