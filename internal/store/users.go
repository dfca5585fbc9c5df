package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"homehub/internal/model"
)

type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore { return &UserStore{db: db} }

// HashPassword returns the sha256 hex digest used for stored passwords.
func HashPassword(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

type UserInput struct {
	ID       int64
	Username string
	Password string // plain; empty on update means "keep"
	IsAdmin  bool

	// DeviceKey is stored as given; empty clears it.
	DeviceKey string
}

// Save creates (ID == 0) or updates a user. Username uniqueness is checked
// on create and on rename.
func (s *UserStore) Save(ctx context.Context, in UserInput) (int64, error) {
	if in.ID > 0 {
		cur, err := s.Get(ctx, in.ID)
		if err != nil {
			return 0, err
		}
		if in.Username != "" && in.Username != cur.Username {
			if taken, err := s.usernameTaken(ctx, in.Username); err != nil {
				return 0, err
			} else if taken {
				return 0, fmt.Errorf("username %q: %w", in.Username, ErrConflict)
			}
			cur.Username = in.Username
		}
		if in.Password != "" {
			cur.Password = HashPassword(in.Password)
		}
		cur.IsAdmin = in.IsAdmin
		cur.DeviceKey = in.DeviceKey
		_, err = s.db.ExecContext(ctx,
			`UPDATE users SET username=?, password=?, is_admin=?, device_key=? WHERE id=?`,
			cur.Username, cur.Password, cur.IsAdmin, cur.DeviceKey, cur.ID)
		return cur.ID, err
	}

	if taken, err := s.usernameTaken(ctx, in.Username); err != nil {
		return 0, err
	} else if taken {
		return 0, fmt.Errorf("username %q: %w", in.Username, ErrConflict)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users(username, password, is_admin, device_key) VALUES(?,?,?,?)`,
		in.Username, HashPassword(in.Password), in.IsAdmin, in.DeviceKey)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *UserStore) usernameTaken(ctx context.Context, username string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE username=?`, username)
	return n > 0, err
}

func (s *UserStore) Get(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return u, err
}

// GetByCredentials resolves a user by username + plain password.
func (s *UserStore) GetByCredentials(ctx context.Context, username, password string) (model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u,
		`SELECT * FROM users WHERE username=? AND password=?`, username, HashPassword(password))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	return u, err
}

func (s *UserStore) List(ctx context.Context, page, pageSize int, usernameFilter string) ([]model.User, int, error) {
	where := ""
	args := []any{}
	if usernameFilter != "" {
		where = ` WHERE LOWER(username) LIKE LOWER(?)`
		args = append(args, "%"+usernameFilter+"%")
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`+where, args...); err != nil {
		return nil, 0, err
	}
	offset, limit := Page(page, pageSize)
	var rows []model.User
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM users`+where+` ORDER BY id LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	return rows, total, err
}

func (s *UserStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}

// All returns every user; the reminder job walks this.
func (s *UserStore) All(ctx context.Context) ([]model.User, error) {
	var rows []model.User
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM users ORDER BY id`)
	return rows, err
}

// WithDeviceKey returns users able to receive pushes.
func (s *UserStore) WithDeviceKey(ctx context.Context) ([]model.User, error) {
	var rows []model.User
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM users WHERE device_key != '' ORDER BY id`)
	return rows, err
}
