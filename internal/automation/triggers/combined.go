package triggers

import "github.com/andriipushkar/replenishment/internal/automation/domain"

// Combined implements the COMBINED trigger variant (spec.md §4.2): a
// logical OR across the evaluated sub-triggers. The reason concatenates
// every active sub-reason; urgency and confidence take the max/maximum
// reported by any firing sub-trigger, and blockers/warnings merge.
func Combined(evals ...domain.TriggerEvaluation) domain.TriggerEvaluation {
	result := domain.TriggerEvaluation{}
	var reasons []string

	for _, e := range evals {
		result.Blockers = append(result.Blockers, e.Blockers...)
		result.Warnings = append(result.Warnings, e.Warnings...)
		if !e.ShouldTrigger {
			continue
		}
		result.ShouldTrigger = true
		if e.Reason != "" {
			reasons = append(reasons, e.Reason)
		}
		if e.Urgency > result.Urgency {
			result.Urgency = e.Urgency
		}
		if e.Confidence > result.Confidence {
			result.Confidence = e.Confidence
		}
		result.EstimatedValue += e.EstimatedValue
	}

	if len(reasons) > 0 {
		result.Reason = joinReasons(reasons)
	} else {
		result.Reason = "no sub-trigger fired"
	}
	return result
}

func joinReasons(reasons []string) string {
	out := reasons[0]
	for _, r := range reasons[1:] {
		out += "; " + r
	}
	return out
}
