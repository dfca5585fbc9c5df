package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"homehub/internal/model"
)

type CateStore struct {
	db *sqlx.DB
}

func NewCateStore(db *sqlx.DB) *CateStore { return &CateStore{db: db} }

func (s *CateStore) Save(ctx context.Context, id int64, name string, userID int64) (int64, error) {
	if id > 0 {
		res, err := s.db.ExecContext(ctx, `UPDATE cates SET name=? WHERE id=?`, name, id)
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return 0, fmt.Errorf("cate %d: %w", id, ErrNotFound)
		}
		return id, nil
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO cates(name, user_id) VALUES(?,?)`, name, userID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *CateStore) Get(ctx context.Context, id int64) (model.Cate, error) {
	var c model.Cate
	err := s.db.GetContext(ctx, &c, `SELECT * FROM cates WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Cate{}, fmt.Errorf("cate %d: %w", id, ErrNotFound)
	}
	return c, err
}

func (s *CateStore) List(ctx context.Context, page, pageSize int, nameFilter string) ([]model.Cate, int, error) {
	where := ""
	args := []any{}
	if nameFilter != "" {
		where = ` WHERE LOWER(name) LIKE LOWER(?)`
		args = append(args, "%"+nameFilter+"%")
	}
	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM cates`+where, args...); err != nil {
		return nil, 0, err
	}
	offset, limit := Page(page, pageSize)
	var rows []model.Cate
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM cates`+where+` ORDER BY id LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	return rows, total, err
}

func (s *CateStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cates WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("cate %d: %w", id, ErrNotFound)
	}
	return nil
}
