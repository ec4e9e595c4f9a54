// Package scheduler implements the Scheduler (spec.md §4.6): a single
// process-wide timetable driving scheduled rule reviews, condition-trigger
// polling, automation-schedule cron jobs, and housekeeping maintenance jobs.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/andriipushkar/replenishment/internal/automation/domain"
	"github.com/andriipushkar/replenishment/internal/automation/ports"
	"github.com/andriipushkar/replenishment/internal/automation/ruleengine"
	"github.com/andriipushkar/replenishment/internal/automation/triggers"
	"github.com/andriipushkar/replenishment/internal/logger"
)

// Tick intervals and maintenance defaults (spec.md §4.6).
const (
	ScheduledTickInterval = time.Minute
	ConditionTickInterval = 30 * time.Second

	DefaultRetentionDays = 90

	// MaxConsecutiveScheduleFailures transitions an AutomationSchedule to
	// the ERROR status after this many failed runs in a row.
	MaxConsecutiveScheduleFailures = 5
)

// TenantSource enumerates the tenants the scheduler must sweep each tick.
// A narrow, scheduler-local port: the platform has no single "list all
// tenants" concern elsewhere in the core.
type TenantSource interface {
	ListActiveTenants(ctx context.Context) ([]string, error)
}

// ConditionRule is one (rule, condition config, live field values) tuple
// the condition-tick loop polls.
type ConditionRule struct {
	Rule *domain.ReorderRule
	Cfg  *domain.ConditionTriggerConfig
	Data map[string]any
}

// ConditionSource supplies the rules configured with a condition-based
// trigger, plus the live field values their conditions reference.
type ConditionSource interface {
	ListConditionRules(ctx context.Context) ([]ConditionRule, error)
}

// ScheduleSource persists AutomationSchedule rows (REORDER_CHECK,
// INVENTORY_REVIEW, DEMAND_FORECAST, SUPPLIER_EVALUATION,
// SYSTEM_MAINTENANCE) and the job each due schedule should run.
type ScheduleSource interface {
	ListDue(ctx context.Context, now time.Time) ([]*domain.AutomationSchedule, error)
	Save(ctx context.Context, schedule *domain.AutomationSchedule) error
	RunJob(ctx context.Context, schedule *domain.AutomationSchedule) error
}

// Config tunes the scheduler's intervals and retention policy.
type Config struct {
	ScheduledTick time.Duration
	ConditionTick time.Duration
	RetentionDays int

	CleanupExecutionsCron string
	ArchiveLogsCron       string
	UpdateMetricsCron     string
	HealthCheckCron       string
}

// DefaultConfig mirrors spec.md §4.6's defaults.
func DefaultConfig() Config {
	return Config{
		ScheduledTick:         ScheduledTickInterval,
		ConditionTick:         ConditionTickInterval,
		RetentionDays:         DefaultRetentionDays,
		CleanupExecutionsCron: "0 3 * * *",
		ArchiveLogsCron:       "30 3 * * *",
		UpdateMetricsCron:     "*/5 * * * *",
		HealthCheckCron:       "* * * * *",
	}
}

// Scheduler drives every periodic concern of the automation core.
type Scheduler struct {
	cfg Config

	engine    *ruleengine.Engine
	execs     ports.ExecutionRepository
	tenants   TenantSource
	condition ConditionSource
	schedules ScheduleSource
	clock     ports.Clock

	maintenance *cron.Cron
	stopFuncs   []func()
}

// New wires the Scheduler. condition and schedules may be nil to disable
// those ticks (e.g. a deployment with no condition-based workflows).
func New(cfg Config, engine *ruleengine.Engine, execs ports.ExecutionRepository, tenants TenantSource, condition ConditionSource, schedules ScheduleSource, clock ports.Clock) *Scheduler {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if cfg.ScheduledTick <= 0 {
		cfg.ScheduledTick = ScheduledTickInterval
	}
	if cfg.ConditionTick <= 0 {
		cfg.ConditionTick = ConditionTickInterval
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = DefaultRetentionDays
	}
	return &Scheduler{
		cfg: cfg, engine: engine, execs: execs, tenants: tenants,
		condition: condition, schedules: schedules, clock: clock,
	}
}

// Start launches the scheduled-tick and condition-tick loops as background
// goroutines and registers the maintenance cron jobs. It returns
// immediately; call Stop (or cancel ctx) to shut down.
func (s *Scheduler) Start(ctx context.Context) error {
	s.maintenance = cron.New()
	if _, err := s.maintenance.AddFunc(s.cfg.CleanupExecutionsCron, func() { s.runMaintenanceJob(ctx, "cleanup_executions") }); err != nil {
		return err
	}
	if _, err := s.maintenance.AddFunc(s.cfg.ArchiveLogsCron, func() { s.runMaintenanceJob(ctx, "archive_logs") }); err != nil {
		return err
	}
	if _, err := s.maintenance.AddFunc(s.cfg.UpdateMetricsCron, func() { s.runMaintenanceJob(ctx, "update_metrics") }); err != nil {
		return err
	}
	if _, err := s.maintenance.AddFunc(s.cfg.HealthCheckCron, func() { s.runMaintenanceJob(ctx, "health_check") }); err != nil {
		return err
	}
	s.maintenance.Start()

	scheduledStop := s.runTicker(ctx, s.cfg.ScheduledTick, s.RunScheduledTick)
	conditionStop := s.runTicker(ctx, s.cfg.ConditionTick, s.RunConditionTick)
	scheduleStop := s.runTicker(ctx, s.cfg.ScheduledTick, s.RunAutomationScheduleTick)
	s.stopFuncs = []func(){scheduledStop, conditionStop, scheduleStop}

	return nil
}

// Stop halts the cron jobs and tick loops.
func (s *Scheduler) Stop() {
	if s.maintenance != nil {
		s.maintenance.Stop()
	}
	for _, stop := range s.stopFuncs {
		stop()
	}
}

func (s *Scheduler) runTicker(ctx context.Context, interval time.Duration, fn func(context.Context)) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn(ctx)
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return func() { close(done) }
}

// RunScheduledTick sweeps every active tenant and runs the Rule Engine,
// which itself applies the eligibility filter and evaluates each rule's
// trigger (spec.md §4.6 1-minute tick). A tenant already mid-process
// (domain.ErrTenantBusy) is skipped, not retried within this tick.
func (s *Scheduler) RunScheduledTick(ctx context.Context) {
	tenantIDs, err := s.tenants.ListActiveTenants(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("scheduler: failed to list active tenants")
		return
	}
	for _, tenantID := range tenantIDs {
		metrics, err := s.engine.Process(ctx, tenantID)
		if err != nil {
			if err == domain.ErrTenantBusy {
				continue
			}
			logger.Error().Err(err).Str("tenant", tenantID).Msg("scheduler: rule engine tick failed")
			continue
		}
		logger.Info().Str("tenant", tenantID).
			Int("triggered", metrics.TriggeredRules).
			Int("successful", metrics.SuccessfulExecutions).
			Int("failed", metrics.FailedExecutions).
			Msg("scheduler: rule engine tick complete")
	}
}

// RunConditionTick evaluates every registered condition-based trigger
// (spec.md §4.6 30-second tick), firing once per state-edge unless the
// config is persistent.
func (s *Scheduler) RunConditionTick(ctx context.Context) {
	if s.condition == nil {
		return
	}
	rules, err := s.condition.ListConditionRules(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("scheduler: failed to list condition rules")
		return
	}
	for _, cr := range rules {
		eval := triggers.Condition(cr.Cfg, cr.Data)
		if eval.ShouldTrigger {
			logger.Info().Str("rule", cr.Rule.ID).Str("reason", eval.Reason).Msg("scheduler: condition trigger fired")
		}
	}
}

// RunAutomationScheduleTick fires every due AutomationSchedule (REORDER_CHECK,
// INVENTORY_REVIEW, DEMAND_FORECAST, SUPPLIER_EVALUATION, SYSTEM_MAINTENANCE),
// recomputing its next execution and quarantining it to ERROR after
// MaxConsecutiveScheduleFailures in a row (spec.md §4.6 per-schedule cron).
func (s *Scheduler) RunAutomationScheduleTick(ctx context.Context) {
	if s.schedules == nil {
		return
	}
	now := s.clock.Now()
	due, err := s.schedules.ListDue(ctx, now)
	if err != nil {
		logger.Error().Err(err).Msg("scheduler: failed to list due automation schedules")
		return
	}
	for _, sched := range due {
		if !sched.ShouldExecute(now) {
			continue
		}
		runErr := s.schedules.RunJob(ctx, sched)
		sched.LastExecutionAt = &now
		if runErr != nil {
			sched.ConsecutiveFailures++
			if sched.ConsecutiveFailures >= MaxConsecutiveScheduleFailures {
				sched.Status = "error"
			}
			logger.Error().Err(runErr).Str("schedule", sched.ID).Msg("scheduler: automation schedule job failed")
		} else {
			sched.ConsecutiveFailures = 0
		}
		next, cronErr := triggers.NextCronTime(sched.Cron, sched.Timezone, now)
		if cronErr == nil {
			sched.NextExecutionAt = next
		}
		if err := s.schedules.Save(ctx, sched); err != nil {
			logger.Error().Err(err).Str("schedule", sched.ID).Msg("scheduler: failed to persist automation schedule")
		}
	}
}

// runMaintenanceJob dispatches one of the four housekeeping jobs (spec.md
// §4.6). cleanup_executions is the only one with a concrete, already-wired
// port (ExecutionRepository.DeleteOlderThan); the others only have a
// logging surface today since no audit-log/metrics-snapshot port exists yet.
func (s *Scheduler) runMaintenanceJob(ctx context.Context, job string) {
	switch job {
	case "cleanup_executions":
		s.cleanupExecutions(ctx)
	case "archive_logs":
		logger.Info().Msg("scheduler: archive_logs tick")
	case "update_metrics":
		logger.Info().Msg("scheduler: update_metrics tick")
	case "health_check":
		logger.Debug().Msg("scheduler: health_check tick")
	}
}

func (s *Scheduler) cleanupExecutions(ctx context.Context) {
	if s.execs == nil {
		return
	}
	tenantIDs, err := s.tenants.ListActiveTenants(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("scheduler: cleanup_executions failed to list tenants")
		return
	}
	cutoff := s.clock.Now().AddDate(0, 0, -s.cfg.RetentionDays)
	for _, tenantID := range tenantIDs {
		deleted, err := s.execs.DeleteOlderThan(ctx, tenantID, cutoff)
		if err != nil {
			logger.Error().Err(err).Str("tenant", tenantID).Msg("scheduler: cleanup_executions failed")
			continue
		}
		if deleted > 0 {
			logger.Info().Str("tenant", tenantID).Int("deleted", deleted).Msg("scheduler: cleanup_executions removed stale rows")
		}
	}
}
