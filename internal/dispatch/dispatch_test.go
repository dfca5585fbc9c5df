package dispatch

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homehub/internal/model"
	"homehub/internal/runner"
	logx "homehub/pkg/logx"
)

type fakeRunner struct {
	crons     map[string]string // name -> spec
	intervals map[string]int64  // name -> seconds
	revoked   []string
	failNext  error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{crons: map[string]string{}, intervals: map[string]int64{}}
}

func (f *fakeRunner) RegisterCron(name string, fields runner.CronFields, fn runner.TaskFunc) error {
	if f.failNext != nil {
		return f.failNext
	}
	f.crons[name] = fields.Spec()
	return nil
}

func (f *fakeRunner) RegisterInterval(name string, seconds int64, fn runner.TaskFunc) error {
	if f.failNext != nil {
		return f.failNext
	}
	f.intervals[name] = seconds
	return nil
}

func (f *fakeRunner) Revoke(name string) bool {
	f.revoked = append(f.revoked, name)
	return true
}

type fakeLookup map[string]runner.TaskFunc

func (f fakeLookup) Lookup(key string) (runner.TaskFunc, bool) {
	fn, ok := f[key]
	return fn, ok
}

type fakeSchedules struct {
	crontabs  map[int64]model.CrontabSchedule
	intervals map[int64]model.IntervalSchedule
}

func (f fakeSchedules) Crontab(_ context.Context, id int64) (model.CrontabSchedule, error) {
	c, ok := f.crontabs[id]
	if !ok {
		return model.CrontabSchedule{}, sql.ErrNoRows
	}
	return c, nil
}

func (f fakeSchedules) Interval(_ context.Context, id int64) (model.IntervalSchedule, error) {
	iv, ok := f.intervals[id]
	if !ok {
		return model.IntervalSchedule{}, sql.ErrNoRows
	}
	return iv, nil
}

func noop(context.Context) error { return nil }

func valid(id int64) sql.NullInt64 { return sql.NullInt64{Int64: id, Valid: true} }

func newTestDispatcher(run *fakeRunner, schedules fakeSchedules) *Dispatcher {
	return New(run, fakeLookup{"jobs.daily_menu": noop}, schedules, logx.Nop())
}

func TestSyncUnknownTaskType(t *testing.T) {
	t.Parallel()
	run := newFakeRunner()
	d := newTestDispatcher(run, fakeSchedules{})

	rep := d.Sync(context.Background(), model.ScheduledTask{
		Name: "x", TaskType: "jobs.nope", IsActive: true, ScheduleType: model.ScheduleCrontab,
	})
	assert.False(t, rep.OK)
	assert.Equal(t, "task not found", rep.Message)
	assert.Empty(t, run.crons)
}

func TestSyncInactiveRevokesByShortName(t *testing.T) {
	t.Parallel()
	run := newFakeRunner()
	d := newTestDispatcher(run, fakeSchedules{})

	rep := d.Sync(context.Background(), model.ScheduledTask{
		Name: "menu push", TaskType: "jobs.daily_menu", IsActive: false,
	})
	assert.True(t, rep.OK)
	assert.Equal(t, "task paused", rep.Message)
	// Deactivation revokes by the task type's final segment, not the row name.
	require.Equal(t, []string{"daily_menu"}, run.revoked)
}

func TestSyncCrontab(t *testing.T) {
	t.Parallel()
	run := newFakeRunner()
	d := newTestDispatcher(run, fakeSchedules{crontabs: map[int64]model.CrontabSchedule{
		7: {Minute: "5", Hour: "4", DayOfMonth: "*", MonthOfYear: "*", DayOfWeek: "*"},
	}})

	rep := d.Sync(context.Background(), model.ScheduledTask{
		Name: "morning", TaskType: "jobs.daily_menu", IsActive: true,
		ScheduleType: model.ScheduleCrontab, CrontabID: valid(7),
	})
	assert.True(t, rep.OK)
	assert.Equal(t, "task added", rep.Message)
	assert.Equal(t, "5 4 * * *", run.crons["task-morning"])
}

func TestSyncCrontabMissing(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		task model.ScheduledTask
	}{
		{
			name: "unset id",
			task: model.ScheduledTask{
				Name: "a", TaskType: "jobs.daily_menu", IsActive: true,
				ScheduleType: model.ScheduleCrontab,
			},
		},
		{
			name: "dangling id",
			task: model.ScheduledTask{
				Name: "b", TaskType: "jobs.daily_menu", IsActive: true,
				ScheduleType: model.ScheduleCrontab, CrontabID: valid(99),
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			run := newFakeRunner()
			d := newTestDispatcher(run, fakeSchedules{})
			rep := d.Sync(context.Background(), tt.task)
			assert.False(t, rep.OK)
			assert.Equal(t, "crontab not found", rep.Message)
		})
	}
}

func TestSyncIntervalConversions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		every   int64
		period  string
		seconds int64
	}{
		{name: "seconds", every: 45, period: "seconds", seconds: 45},
		{name: "minutes", every: 3, period: "minutes", seconds: 180},
		{name: "two hours", every: 2, period: "hours", seconds: 7200},
		{name: "one day", every: 1, period: "days", seconds: 86400},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			run := newFakeRunner()
			d := newTestDispatcher(run, fakeSchedules{intervals: map[int64]model.IntervalSchedule{
				1: {Every: tt.every, Period: tt.period},
			}})
			rep := d.Sync(context.Background(), model.ScheduledTask{
				Name: "tick", TaskType: "jobs.daily_menu", IsActive: true,
				ScheduleType: model.ScheduleInterval, IntervalID: valid(1),
			})
			require.True(t, rep.OK)
			assert.Equal(t, tt.seconds, run.intervals["task-tick"])
		})
	}
}

func TestSyncIntervalBadPeriod(t *testing.T) {
	t.Parallel()
	run := newFakeRunner()
	d := newTestDispatcher(run, fakeSchedules{intervals: map[int64]model.IntervalSchedule{
		1: {Every: 5, Period: "fortnights"},
	}})

	rep := d.Sync(context.Background(), model.ScheduledTask{
		Name: "bad", TaskType: "jobs.daily_menu", IsActive: true,
		ScheduleType: model.ScheduleInterval, IntervalID: valid(1),
	})
	assert.False(t, rep.OK)
	assert.Equal(t, "invalid period parameter", rep.Message)
	assert.Empty(t, run.intervals)
}

func TestSyncIntervalMissing(t *testing.T) {
	t.Parallel()
	run := newFakeRunner()
	d := newTestDispatcher(run, fakeSchedules{})

	rep := d.Sync(context.Background(), model.ScheduledTask{
		Name: "gone", TaskType: "jobs.daily_menu", IsActive: true,
		ScheduleType: model.ScheduleInterval, IntervalID: valid(3),
	})
	assert.False(t, rep.OK)
	assert.Equal(t, "interval not found", rep.Message)
}

func TestSyncUnknownScheduleType(t *testing.T) {
	t.Parallel()
	run := newFakeRunner()
	d := newTestDispatcher(run, fakeSchedules{})

	rep := d.Sync(context.Background(), model.ScheduledTask{
		Name: "odd", TaskType: "jobs.daily_menu", IsActive: true, ScheduleType: "monthly",
	})
	assert.False(t, rep.OK)
	assert.Equal(t, "invalid schedule_type parameter", rep.Message)
}

func TestSyncRegistrationFailure(t *testing.T) {
	t.Parallel()
	run := newFakeRunner()
	run.failNext = assert.AnError
	d := newTestDispatcher(run, fakeSchedules{crontabs: map[int64]model.CrontabSchedule{
		1: {Minute: "*", Hour: "*", DayOfMonth: "*", MonthOfYear: "*", DayOfWeek: "*"},
	}})

	rep := d.Sync(context.Background(), model.ScheduledTask{
		Name: "boom", TaskType: "jobs.daily_menu", IsActive: true,
		ScheduleType: model.ScheduleCrontab, CrontabID: valid(1),
	})
	assert.False(t, rep.OK)
	assert.Equal(t, "task scheduling failed", rep.Message)
}

func TestResyncContinuesPastFailures(t *testing.T) {
	t.Parallel()
	run := newFakeRunner()
	d := newTestDispatcher(run, fakeSchedules{intervals: map[int64]model.IntervalSchedule{
		1: {Every: 1, Period: "hours"},
	}})

	d.Resync(context.Background(), []model.ScheduledTask{
		{Name: "broken", TaskType: "jobs.missing", IsActive: true, ScheduleType: model.ScheduleInterval, IntervalID: valid(1)},
		{Name: "fine", TaskType: "jobs.daily_menu", IsActive: true, ScheduleType: model.ScheduleInterval, IntervalID: valid(1)},
	})
	assert.Equal(t, int64(3600), run.intervals["task-fine"])
	assert.NotContains(t, run.intervals, "task-broken")
}

func TestRegistrationName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "task-menu", RegistrationName("menu"))
	assert.Equal(t, "daily_menu", shortName("jobs.daily_menu"))
	assert.Equal(t, "plain", shortName("plain"))
}
