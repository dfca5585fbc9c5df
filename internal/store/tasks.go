package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"homehub/internal/model"
)

// TaskStore persists scheduled-task rows: the named binding between a runner
// task identifier and one schedule definition.
type TaskStore struct {
	db *sqlx.DB
}

func NewTaskStore(db *sqlx.DB) *TaskStore { return &TaskStore{db: db} }

// TaskInput is a save request. CrontabID/IntervalID of 0 mean "unset" and
// are stored as NULL.
type TaskInput struct {
	ID           int64
	Name         string
	TaskType     string
	ScheduleType string
	IsActive     bool
	CrontabID    int64
	IntervalID   int64
}

// Save creates (ID == 0) or updates the row and returns it.
// Create fails with ErrConflict when a task with the same name exists;
// update fails with ErrNotFound when the id is unknown.
func (s *TaskStore) Save(ctx context.Context, in TaskInput) (model.ScheduledTask, error) {
	crontabID := nullID(in.CrontabID)
	intervalID := nullID(in.IntervalID)

	if in.ID > 0 {
		res, err := s.db.ExecContext(ctx,
			`UPDATE scheduled_tasks
			 SET name=?, task_type=?, is_active=?, schedule_type=?, crontab_id=?, interval_id=?
			 WHERE id=?`,
			in.Name, in.TaskType, in.IsActive, in.ScheduleType, crontabID, intervalID, in.ID)
		if err != nil {
			return model.ScheduledTask{}, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return model.ScheduledTask{}, fmt.Errorf("task %d: %w", in.ID, ErrNotFound)
		}
		return s.Get(ctx, in.ID)
	}

	var count int
	if err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM scheduled_tasks WHERE name=?`, in.Name); err != nil {
		return model.ScheduledTask{}, err
	}
	if count > 0 {
		return model.ScheduledTask{}, fmt.Errorf("task %q: %w", in.Name, ErrConflict)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO scheduled_tasks(name, task_type, is_active, schedule_type, crontab_id, interval_id)
		 VALUES(?,?,?,?,?,?)`,
		in.Name, in.TaskType, in.IsActive, in.ScheduleType, crontabID, intervalID)
	if err != nil {
		return model.ScheduledTask{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ScheduledTask{}, err
	}
	return s.Get(ctx, id)
}

func (s *TaskStore) Get(ctx context.Context, id int64) (model.ScheduledTask, error) {
	var row model.ScheduledTask
	err := s.db.GetContext(ctx, &row, `SELECT * FROM scheduled_tasks WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ScheduledTask{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return row, err
}

// TaskView is a list row with the display frequency resolved from the
// linked schedule.
type TaskView struct {
	model.ScheduledTask
	Frequency string
}

// List pages over tasks, optionally filtering by a case-insensitive
// substring match on name, and resolves each row's display frequency.
func (s *TaskStore) List(ctx context.Context, page, pageSize int, nameFilter string) ([]TaskView, int, error) {
	where := ""
	args := []any{}
	if nameFilter != "" {
		where = ` WHERE LOWER(name) LIKE LOWER(?)`
		args = append(args, "%"+nameFilter+"%")
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM scheduled_tasks`+where, args...); err != nil {
		return nil, 0, err
	}

	offset, limit := Page(page, pageSize)
	var rows []model.ScheduledTask
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM scheduled_tasks`+where+` ORDER BY id LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}

	views := make([]TaskView, 0, len(rows))
	for _, row := range rows {
		views = append(views, TaskView{ScheduledTask: row, Frequency: s.frequency(ctx, row)})
	}
	return views, total, nil
}

// frequency renders the linked schedule for display; a dangling or unset
// link renders as empty.
func (s *TaskStore) frequency(ctx context.Context, t model.ScheduledTask) string {
	switch t.ScheduleType {
	case model.ScheduleCrontab:
		if !t.CrontabID.Valid {
			return ""
		}
		var c model.CrontabSchedule
		if err := s.db.GetContext(ctx, &c, `SELECT * FROM crontab_schedules WHERE id=?`, t.CrontabID.Int64); err != nil {
			return ""
		}
		return CronString(c)
	case model.ScheduleInterval:
		if !t.IntervalID.Valid {
			return ""
		}
		var iv model.IntervalSchedule
		if err := s.db.GetContext(ctx, &iv, `SELECT * FROM interval_schedules WHERE id=?`, t.IntervalID.Int64); err != nil {
			return ""
		}
		if iv.Every == 1 {
			// singular form, e.g. "every hour"
			return "every " + iv.Period[:len(iv.Period)-1]
		}
		return fmt.Sprintf("every %d %s", iv.Every, iv.Period)
	default:
		return ""
	}
}

// Delete removes the row. It does not revoke any live runner registration;
// the registration stays until the task is next saved inactive or the
// process restarts.
func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_tasks WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return nil
}

// Active returns every active task row, used to resync runner registrations
// at boot.
func (s *TaskStore) Active(ctx context.Context) ([]model.ScheduledTask, error) {
	var rows []model.ScheduledTask
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM scheduled_tasks WHERE is_active=1 ORDER BY id`)
	return rows, err
}

func nullID(id int64) sql.NullInt64 {
	if id <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}
