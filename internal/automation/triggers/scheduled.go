package triggers

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/andriipushkar/replenishment/internal/automation/domain"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextCronTime parses a standard 5-field cron expression and returns the
// next fire time strictly after after, in the given IANA zone (defaulting
// to Asia/Jakarta, per spec.md §9). Cron parsing errors surface to the
// caller rather than silently defaulting, since a malformed expression
// must never be treated as "never fires".
func NextCronTime(expr, timezone string, after time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil || timezone == "" {
		loc, _ = time.LoadLocation("Asia/Jakarta")
	}
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.Next(after.In(loc)).UTC(), nil
}

// Scheduled evaluates the SCHEDULED trigger variant (spec.md §4.2):
// triggers when rule.NextReviewDate <= now, subject to the config's
// start/end window and maxExecutions ceiling.
func Scheduled(rule *domain.ReorderRule, cfg *domain.ScheduledTriggerConfig, now time.Time) domain.TriggerEvaluation {
	if cfg.Start != nil && now.Before(*cfg.Start) {
		return domain.TriggerEvaluation{ShouldTrigger: false, Reason: "before scheduled start window"}
	}
	if cfg.End != nil && now.After(*cfg.End) {
		return domain.TriggerEvaluation{ShouldTrigger: false, Reason: "after scheduled end window"}
	}
	if cfg.MaxExecutions > 0 && cfg.Executions >= cfg.MaxExecutions {
		return domain.TriggerEvaluation{ShouldTrigger: false, Reason: "max executions reached"}
	}
	if rule.NextReviewDate.After(now) {
		next := rule.NextReviewDate
		return domain.TriggerEvaluation{ShouldTrigger: false, Reason: "not yet due", NextEvaluationTime: &next}
	}

	next, err := NextCronTime(cfg.Cron, cfg.Timezone, now)
	var warnings []string
	if err != nil {
		warnings = append(warnings, "cron expression invalid, keeping previous schedule: "+err.Error())
	}
	eval := domain.TriggerEvaluation{
		ShouldTrigger: true,
		Reason:        "scheduled review due",
		Urgency:       4,
		Confidence:    1.0,
		Warnings:      warnings,
	}
	if err == nil {
		eval.NextEvaluationTime = &next
	}
	return eval
}
