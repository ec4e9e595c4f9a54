package triggers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andriipushkar/replenishment/internal/automation/domain"
)

// FieldValue dot-traverses data (a tree of map[string]any) and returns
// the value at path, e.g. "inventory.quantityOnHand".
func FieldValue(data map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = data
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// EvaluateNode applies one ConditionNode against data, per spec.md §4.2's
// operator set.
func EvaluateNode(node domain.ConditionNode, data map[string]any) bool {
	actual, ok := FieldValue(data, node.Field)
	if !ok {
		return false
	}

	switch node.Operator {
	case domain.OpEquals:
		return toComparable(actual) == toComparable(node.Value)
	case domain.OpNotEquals:
		return toComparable(actual) != toComparable(node.Value)
	case domain.OpGreaterThan:
		a, okA := toFloat(actual)
		b, okB := toFloat(node.Value)
		return okA && okB && a > b
	case domain.OpLessThan:
		a, okA := toFloat(actual)
		b, okB := toFloat(node.Value)
		return okA && okB && a < b
	case domain.OpContains:
		return strings.Contains(fmt.Sprint(actual), fmt.Sprint(node.Value))
	case domain.OpIn:
		list, ok := node.Value.([]any)
		if !ok {
			return false
		}
		for _, v := range list {
			if toComparable(v) == toComparable(actual) {
				return true
			}
		}
		return false
	case domain.OpBetween:
		a, okA := toFloat(actual)
		lo, okLo := toFloat(node.Value)
		hi, okHi := toFloat(node.SecondValue)
		return okA && okLo && okHi && a >= lo && a <= hi
	default:
		return false
	}
}

// EvaluateConditions combines a list of ConditionNodes with the given
// logical operator (spec.md §4.2 ConditionTriggerConfig).
func EvaluateConditions(nodes []domain.ConditionNode, op domain.LogicalOp, data map[string]any) bool {
	if len(nodes) == 0 {
		return false
	}
	if op == domain.LogicalOr {
		for _, n := range nodes {
			if EvaluateNode(n, data) {
				return true
			}
		}
		return false
	}
	for _, n := range nodes {
		if !EvaluateNode(n, data) {
			return false
		}
	}
	return true
}

// ConditionPollInterval is the default 30-second poll period of spec.md
// §4.2; callers may override via cfg.EvaluationInterval.
const ConditionPollInterval = 30 * time.Second

// Condition evaluates the CONDITION-based trigger variant. It fires once
// per state-edge (false -> true) unless cfg.Persistent, in which case it
// fires on every true evaluation while the conditions hold.
func Condition(cfg *domain.ConditionTriggerConfig, data map[string]any) domain.TriggerEvaluation {
	result := EvaluateConditions(cfg.Conditions, cfg.LogicalOp, data)
	defer cfg.SetLastState(result)

	if !result {
		return domain.TriggerEvaluation{ShouldTrigger: false, Reason: "conditions not met"}
	}
	if !cfg.Persistent && cfg.LastState() {
		return domain.TriggerEvaluation{ShouldTrigger: false, Reason: "conditions held, already fired this edge"}
	}
	return domain.TriggerEvaluation{ShouldTrigger: true, Reason: "conditions met", Urgency: 5, Confidence: 1.0}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toComparable(v any) string {
	return fmt.Sprint(v)
}
