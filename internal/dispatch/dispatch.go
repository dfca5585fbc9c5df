// Package dispatch keeps the periodic job runner's live registration set
// consistent with one scheduled-task row.
package dispatch

import (
	"context"
	"runtime/debug"
	"strings"

	"homehub/internal/model"
	"homehub/internal/runner"
	logx "homehub/pkg/logx"
)

// JobRunner is the slice of the runner the dispatcher drives.
type JobRunner interface {
	RegisterCron(name string, fields runner.CronFields, fn runner.TaskFunc) error
	RegisterInterval(name string, seconds int64, fn runner.TaskFunc) error
	Revoke(name string) bool
}

// TaskLookup resolves task functions by their stable string key.
type TaskLookup interface {
	Lookup(key string) (runner.TaskFunc, bool)
}

// ScheduleSource loads the schedule definitions a task row links to.
type ScheduleSource interface {
	Crontab(ctx context.Context, id int64) (model.CrontabSchedule, error)
	Interval(ctx context.Context, id int64) (model.IntervalSchedule, error)
}

// Report is the caller-facing outcome of a dispatch. Dispatch never fails
// the save that triggered it; a bad outcome is reported, not returned as an
// error.
type Report struct {
	OK      bool
	Message string
}

type Dispatcher struct {
	run       JobRunner
	tasks     TaskLookup
	schedules ScheduleSource
	log       logx.Logger
}

func New(run JobRunner, tasks TaskLookup, schedules ScheduleSource, log logx.Logger) *Dispatcher {
	return &Dispatcher{run: run, tasks: tasks, schedules: schedules, log: log}
}

// RegistrationName derives the deterministic runner key for a task row.
// Re-registration under the same task name replaces the prior entry, which
// is how edits take effect.
func RegistrationName(taskName string) string {
	return "task-" + taskName
}

// shortName is the task_type's final dot-separated segment; deactivation
// revokes by this name.
func shortName(taskType string) string {
	parts := strings.Split(taskType, ".")
	return parts[len(parts)-1]
}

// Sync registers or revokes the task's periodic job so the runner reflects
// the row's is_active, schedule_type and linked schedule. Any internal
// fault is caught, logged and downgraded to a generic failure report.
func (d *Dispatcher) Sync(ctx context.Context, task model.ScheduledTask) (rep Report) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("dispatch panicked",
				logx.String("task", task.Name),
				logx.Any("panic", r),
				logx.String("stack", string(debug.Stack())))
			rep = Report{OK: false, Message: "task scheduling failed"}
		}
	}()

	fn, ok := d.tasks.Lookup(task.TaskType)
	if !ok {
		return Report{OK: false, Message: "task not found"}
	}

	if !task.IsActive {
		// Fire-and-forget: a miss here is not surfaced to the caller.
		d.run.Revoke(shortName(task.TaskType))
		return Report{OK: true, Message: "task paused"}
	}

	switch task.ScheduleType {
	case model.ScheduleCrontab:
		if !task.CrontabID.Valid {
			return Report{OK: false, Message: "crontab not found"}
		}
		crontab, err := d.schedules.Crontab(ctx, task.CrontabID.Int64)
		if err != nil {
			return Report{OK: false, Message: "crontab not found"}
		}
		fields := runner.CronFields{
			Minute:      crontab.Minute,
			Hour:        crontab.Hour,
			DayOfMonth:  crontab.DayOfMonth,
			MonthOfYear: crontab.MonthOfYear,
			DayOfWeek:   crontab.DayOfWeek,
		}
		if err := d.run.RegisterCron(RegistrationName(task.Name), fields, fn); err != nil {
			d.log.Error("cron registration failed", logx.String("task", task.Name), logx.Err(err))
			return Report{OK: false, Message: "task scheduling failed"}
		}

	case model.ScheduleInterval:
		if !task.IntervalID.Valid {
			return Report{OK: false, Message: "interval not found"}
		}
		interval, err := d.schedules.Interval(ctx, task.IntervalID.Int64)
		if err != nil {
			return Report{OK: false, Message: "interval not found"}
		}
		seconds, ok := model.IntervalSeconds(interval.Every, interval.Period)
		if !ok {
			return Report{OK: false, Message: "invalid period parameter"}
		}
		if err := d.run.RegisterInterval(RegistrationName(task.Name), seconds, fn); err != nil {
			d.log.Error("interval registration failed", logx.String("task", task.Name), logx.Err(err))
			return Report{OK: false, Message: "task scheduling failed"}
		}

	default:
		return Report{OK: false, Message: "invalid schedule_type parameter"}
	}

	d.log.Info("task dispatched",
		logx.String("task", task.Name),
		logx.String("type", task.TaskType),
		logx.String("schedule", task.ScheduleType))
	return Report{OK: true, Message: "task added"}
}

// Resync replays Sync over a set of rows, typically the active tasks at
// boot. Failures are reported per task and do not stop the sweep.
func (d *Dispatcher) Resync(ctx context.Context, tasks []model.ScheduledTask) {
	for _, t := range tasks {
		rep := d.Sync(ctx, t)
		if !rep.OK {
			d.log.Warn("task resync skipped",
				logx.String("task", t.Name),
				logx.String("reason", rep.Message))
		}
	}
}
