package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homehub/internal/model"
	"homehub/internal/store"
)

func TestTaskSaveCreateAndConflict(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	tasks := store.NewTaskStore(db)
	intervals := store.NewIntervalStore(db)
	ctx := context.Background()

	ivID, err := intervals.Save(ctx, 0, 2, "hours")
	require.NoError(t, err)

	task, err := tasks.Save(ctx, store.TaskInput{
		Name:         "menu",
		TaskType:     "jobs.daily_menu",
		ScheduleType: model.ScheduleInterval,
		IsActive:     true,
		IntervalID:   ivID,
	})
	require.NoError(t, err)
	assert.Positive(t, task.ID)
	assert.True(t, task.IsActive)
	require.True(t, task.IntervalID.Valid)
	assert.Equal(t, ivID, task.IntervalID.Int64)
	assert.False(t, task.CrontabID.Valid)

	// A second create under the same name is rejected.
	_, err = tasks.Save(ctx, store.TaskInput{
		Name:         "menu",
		TaskType:     "jobs.daily_menu",
		ScheduleType: model.ScheduleInterval,
		IntervalID:   ivID,
	})
	require.ErrorIs(t, err, store.ErrConflict)
}

func TestTaskSaveUpdateMissing(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	tasks := store.NewTaskStore(db)

	_, err := tasks.Save(context.Background(), store.TaskInput{
		ID:           42,
		Name:         "ghost",
		TaskType:     "jobs.heartbeat",
		ScheduleType: model.ScheduleInterval,
	})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTaskListFrequency(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	tasks := store.NewTaskStore(db)
	crontabs := store.NewCrontabStore(db)
	intervals := store.NewIntervalStore(db)
	ctx := context.Background()

	cronID, err := crontabs.Save(ctx, 0, "5 4 * * *")
	require.NoError(t, err)
	everyTwo, err := intervals.Save(ctx, 0, 2, "hours")
	require.NoError(t, err)
	everyOne, err := intervals.Save(ctx, 0, 1, "hours")
	require.NoError(t, err)

	for _, in := range []store.TaskInput{
		{Name: "cron task", TaskType: "jobs.heartbeat", ScheduleType: model.ScheduleCrontab, CrontabID: cronID},
		{Name: "two hourly", TaskType: "jobs.heartbeat", ScheduleType: model.ScheduleInterval, IntervalID: everyTwo},
		{Name: "hourly", TaskType: "jobs.heartbeat", ScheduleType: model.ScheduleInterval, IntervalID: everyOne},
		{Name: "dangling", TaskType: "jobs.heartbeat", ScheduleType: model.ScheduleCrontab},
	} {
		_, err := tasks.Save(ctx, in)
		require.NoError(t, err)
	}

	views, total, err := tasks.List(ctx, 1, 10, "")
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, views, 4)

	byName := map[string]string{}
	for _, v := range views {
		byName[v.Name] = v.Frequency
	}
	assert.Equal(t, "5 4 * * *", byName["cron task"])
	assert.Equal(t, "every 2 hours", byName["two hourly"])
	assert.Equal(t, "every hour", byName["hourly"])
	assert.Equal(t, "", byName["dangling"])
}

func TestTaskListFilter(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	tasks := store.NewTaskStore(db)
	ctx := context.Background()

	for _, name := range []string{"Morning Push", "evening push", "cleanup"} {
		_, err := tasks.Save(ctx, store.TaskInput{
			Name:         name,
			TaskType:     "jobs.heartbeat",
			ScheduleType: model.ScheduleInterval,
		})
		require.NoError(t, err)
	}

	views, total, err := tasks.List(ctx, 1, 10, "PUSH")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, views, 2)
}

func TestTaskDeleteLeavesSchedules(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	tasks := store.NewTaskStore(db)
	intervals := store.NewIntervalStore(db)
	ctx := context.Background()

	ivID, err := intervals.Save(ctx, 0, 1, "days")
	require.NoError(t, err)
	task, err := tasks.Save(ctx, store.TaskInput{
		Name:         "nightly",
		TaskType:     "jobs.heartbeat",
		ScheduleType: model.ScheduleInterval,
		IntervalID:   ivID,
	})
	require.NoError(t, err)

	require.NoError(t, tasks.Delete(ctx, task.ID))
	require.ErrorIs(t, tasks.Delete(ctx, task.ID), store.ErrNotFound)

	// The referenced schedule definition is untouched.
	_, err = intervals.Get(ctx, ivID)
	require.NoError(t, err)
}

func TestTaskActive(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	tasks := store.NewTaskStore(db)
	ctx := context.Background()

	_, err := tasks.Save(ctx, store.TaskInput{
		Name: "on", TaskType: "jobs.heartbeat", ScheduleType: model.ScheduleInterval, IsActive: true,
	})
	require.NoError(t, err)
	_, err = tasks.Save(ctx, store.TaskInput{
		Name: "off", TaskType: "jobs.heartbeat", ScheduleType: model.ScheduleInterval,
	})
	require.NoError(t, err)

	active, err := tasks.Active(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "on", active[0].Name)
}
