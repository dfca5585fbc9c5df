package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"homehub/internal/model"
)

// CrontabStore persists five-field cron schedule definitions.
type CrontabStore struct {
	db *sqlx.DB
}

func NewCrontabStore(db *sqlx.DB) *CrontabStore { return &CrontabStore{db: db} }

// ParseCronFields splits a schedule string into its five fields
// (minute, hour, day-of-month, month, day-of-week). Any other token count
// fails validation.
func ParseCronFields(schedule string) (model.CrontabSchedule, error) {
	parts := strings.Fields(schedule)
	if len(parts) != 5 {
		return model.CrontabSchedule{}, fmt.Errorf("%w: crontab expression must have 5 fields", ErrValidation)
	}
	return model.CrontabSchedule{
		Minute:      parts[0],
		Hour:        parts[1],
		DayOfMonth:  parts[2],
		MonthOfYear: parts[3],
		DayOfWeek:   parts[4],
	}, nil
}

// Save validates the schedule string and creates (id <= 0) or updates the row.
// Nothing is written when validation fails.
func (s *CrontabStore) Save(ctx context.Context, id int64, schedule string) (int64, error) {
	fields, err := ParseCronFields(schedule)
	if err != nil {
		return 0, err
	}

	if id > 0 {
		res, err := s.db.ExecContext(ctx,
			`UPDATE crontab_schedules
			 SET minute=?, hour=?, day_of_week=?, day_of_month=?, month_of_year=?
			 WHERE id=?`,
			fields.Minute, fields.Hour, fields.DayOfWeek, fields.DayOfMonth, fields.MonthOfYear, id)
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return 0, fmt.Errorf("crontab %d: %w", id, ErrNotFound)
		}
		return id, nil
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO crontab_schedules(minute, hour, day_of_week, day_of_month, month_of_year)
		 VALUES(?,?,?,?,?)`,
		fields.Minute, fields.Hour, fields.DayOfWeek, fields.DayOfMonth, fields.MonthOfYear)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *CrontabStore) Get(ctx context.Context, id int64) (model.CrontabSchedule, error) {
	var row model.CrontabSchedule
	err := s.db.GetContext(ctx, &row, `SELECT * FROM crontab_schedules WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CrontabSchedule{}, fmt.Errorf("crontab %d: %w", id, ErrNotFound)
	}
	return row, err
}

// List pages over insertion order and returns the rows plus total count.
func (s *CrontabStore) List(ctx context.Context, page, pageSize int) ([]model.CrontabSchedule, int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM crontab_schedules`); err != nil {
		return nil, 0, err
	}
	offset, limit := Page(page, pageSize)
	var rows []model.CrontabSchedule
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM crontab_schedules ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	return rows, total, err
}

func (s *CrontabStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM crontab_schedules WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("crontab %d: %w", id, ErrNotFound)
	}
	return nil
}

// CronString reconstructs the display form "minute hour dow dom moy".
func CronString(c model.CrontabSchedule) string {
	return strings.Join([]string{c.Minute, c.Hour, c.DayOfWeek, c.DayOfMonth, c.MonthOfYear}, " ")
}

// IntervalStore persists "every N units" schedule definitions.
type IntervalStore struct {
	db *sqlx.DB
}

func NewIntervalStore(db *sqlx.DB) *IntervalStore { return &IntervalStore{db: db} }

func (s *IntervalStore) Save(ctx context.Context, id, every int64, period string) (int64, error) {
	if every <= 0 {
		return 0, fmt.Errorf("%w: interval duration must be positive", ErrValidation)
	}
	if _, ok := model.IntervalSeconds(1, period); !ok {
		return 0, fmt.Errorf("%w: unknown interval unit %q", ErrValidation, period)
	}

	if id > 0 {
		res, err := s.db.ExecContext(ctx,
			`UPDATE interval_schedules SET every=?, period=? WHERE id=?`, every, period, id)
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return 0, fmt.Errorf("interval %d: %w", id, ErrNotFound)
		}
		return id, nil
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO interval_schedules(every, period) VALUES(?,?)`, every, period)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *IntervalStore) Get(ctx context.Context, id int64) (model.IntervalSchedule, error) {
	var row model.IntervalSchedule
	err := s.db.GetContext(ctx, &row, `SELECT * FROM interval_schedules WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.IntervalSchedule{}, fmt.Errorf("interval %d: %w", id, ErrNotFound)
	}
	return row, err
}

func (s *IntervalStore) List(ctx context.Context, page, pageSize int) ([]model.IntervalSchedule, int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM interval_schedules`); err != nil {
		return nil, 0, err
	}
	offset, limit := Page(page, pageSize)
	var rows []model.IntervalSchedule
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM interval_schedules ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	return rows, total, err
}

func (s *IntervalStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM interval_schedules WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("interval %d: %w", id, ErrNotFound)
	}
	return nil
}
