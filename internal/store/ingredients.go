package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"homehub/internal/model"
)

type IngredientStore struct {
	db *sqlx.DB
}

func NewIngredientStore(db *sqlx.DB) *IngredientStore { return &IngredientStore{db: db} }

func (s *IngredientStore) Save(ctx context.Context, id int64, name string, userID int64) (int64, error) {
	if id > 0 {
		res, err := s.db.ExecContext(ctx, `UPDATE ingredients SET name=? WHERE id=?`, name, id)
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return 0, fmt.Errorf("ingredient %d: %w", id, ErrNotFound)
		}
		return id, nil
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO ingredients(name, user_id) VALUES(?,?)`, name, userID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *IngredientStore) Get(ctx context.Context, id int64) (model.Ingredient, error) {
	var i model.Ingredient
	err := s.db.GetContext(ctx, &i, `SELECT * FROM ingredients WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ingredient{}, fmt.Errorf("ingredient %d: %w", id, ErrNotFound)
	}
	return i, err
}

// GetByName resolves an ingredient by exact name; the scraper uses this to
// avoid duplicates.
func (s *IngredientStore) GetByName(ctx context.Context, name string) (model.Ingredient, error) {
	var i model.Ingredient
	err := s.db.GetContext(ctx, &i, `SELECT * FROM ingredients WHERE name=?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ingredient{}, fmt.Errorf("ingredient %q: %w", name, ErrNotFound)
	}
	return i, err
}

func (s *IngredientStore) List(ctx context.Context, page, pageSize int, nameFilter string) ([]model.Ingredient, int, error) {
	where := ""
	args := []any{}
	if nameFilter != "" {
		where = ` WHERE LOWER(name) LIKE LOWER(?)`
		args = append(args, "%"+nameFilter+"%")
	}
	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM ingredients`+where, args...); err != nil {
		return nil, 0, err
	}
	offset, limit := Page(page, pageSize)
	var rows []model.Ingredient
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM ingredients`+where+` ORDER BY id LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	return rows, total, err
}

func (s *IngredientStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ingredients WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("ingredient %d: %w", id, ErrNotFound)
	}
	return nil
}

// Link attaches an ingredient to a food.
func (s *IngredientStore) Link(ctx context.Context, foodID, ingredientID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO food_ingredients(food_id, ingredient_id) VALUES(?,?)`, foodID, ingredientID)
	return err
}
