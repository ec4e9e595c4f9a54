// Package triggers implements the Trigger Dispatcher (spec.md §4.2): it
// multiplexes the six trigger variants into one uniform
// domain.TriggerEvaluation.
package triggers

import "time"

// MaintenanceWindowStart/End bound the daily maintenance window
// (02:00-04:00 local) during which no trigger variant fires.
const (
	MaintenanceWindowStart = 2
	MaintenanceWindowEnd   = 4
)

// InMaintenanceWindow reports whether now (interpreted in loc) falls
// inside the nightly maintenance window.
func InMaintenanceWindow(now time.Time, loc *time.Location) bool {
	local := now.In(loc)
	h := local.Hour()
	return h >= MaintenanceWindowStart && h < MaintenanceWindowEnd
}

// IsWeekend reports whether now (interpreted in loc) falls on a
// Saturday or Sunday.
func IsWeekend(now time.Time, loc *time.Location) bool {
	switch now.In(loc).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

// Restricted applies the time restrictions common to every trigger
// variant: the maintenance window blocks everything; weekends block
// everything except urgent rules (urgency >= 8).
func Restricted(now time.Time, loc *time.Location, urgency int) (blocked bool, reason string) {
	if loc == nil {
		loc = time.UTC
	}
	if InMaintenanceWindow(now, loc) {
		return true, "blocked by maintenance window (02:00-04:00 local)"
	}
	if IsWeekend(now, loc) && urgency < 8 {
		return true, "blocked on weekend for non-urgent rule"
	}
	return false, ""
}
