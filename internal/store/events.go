package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"homehub/internal/model"
)

const dateLayout = "2006-01-02"

type EventStore struct {
	db *sqlx.DB
}

func NewEventStore(db *sqlx.DB) *EventStore { return &EventStore{db: db} }

type EventInput struct {
	ID         int64
	Name       string
	TargetDate string // YYYY-MM-DD
	Status     string
	UserID     int64 // creator; ignored on update
}

// Save creates or updates an event. The target date must be YYYY-MM-DD.
func (s *EventStore) Save(ctx context.Context, in EventInput) (int64, error) {
	if _, err := time.Parse(dateLayout, in.TargetDate); err != nil {
		return 0, fmt.Errorf("%w: target_date must be YYYY-MM-DD", ErrValidation)
	}

	if in.ID > 0 {
		res, err := s.db.ExecContext(ctx,
			`UPDATE events SET name=?, target_date=?, status=? WHERE id=?`,
			in.Name, in.TargetDate, in.Status, in.ID)
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return 0, fmt.Errorf("event %d: %w", in.ID, ErrNotFound)
		}
		return in.ID, nil
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events(name, target_date, user_id, status) VALUES(?,?,?,?)`,
		in.Name, in.TargetDate, in.UserID, in.Status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *EventStore) Get(ctx context.Context, id int64) (model.Event, error) {
	var e model.Event
	err := s.db.GetContext(ctx, &e, `SELECT * FROM events WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	return e, err
}

// List pages over events. Non-admin callers only see their own rows.
func (s *EventStore) List(ctx context.Context, page, pageSize int, titleFilter string, userID int64, isAdmin bool) ([]model.Event, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if !isAdmin {
		where += ` AND user_id=?`
		args = append(args, userID)
	}
	if titleFilter != "" {
		where += ` AND LOWER(name) LIKE LOWER(?)`
		args = append(args, "%"+titleFilter+"%")
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM events`+where, args...); err != nil {
		return nil, 0, err
	}
	offset, limit := Page(page, pageSize)
	var rows []model.Event
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM events`+where+` ORDER BY id LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	return rows, total, err
}

func (s *EventStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	return nil
}

// ByUser returns a user's events in insertion order.
func (s *EventStore) ByUser(ctx context.Context, userID int64) ([]model.Event, error) {
	var rows []model.Event
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM events WHERE user_id=? ORDER BY id`, userID)
	return rows, err
}
