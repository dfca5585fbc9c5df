package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"homehub/internal/model"
)

type FoodStore struct {
	db *sqlx.DB
}

func NewFoodStore(db *sqlx.DB) *FoodStore { return &FoodStore{db: db} }

type FoodInput struct {
	ID            int64
	Name          string
	Procedure     string
	UserID        int64 // creator; ignored on update
	ImageURLs     []string
	CateIDs       []int64
	IngredientIDs []int64
}

// FoodView is a list row with its joined relations resolved.
type FoodView struct {
	model.Food
	CateIDs         []int64
	IngredientIDs   []int64
	IngredientNames []string
	ImageURLs       []string
}

// Save creates or updates a food row, then rewrites its image, category and
// ingredient links wholesale.
func (s *FoodStore) Save(ctx context.Context, in FoodInput) (int64, error) {
	id := in.ID
	if id > 0 {
		res, err := s.db.ExecContext(ctx,
			`UPDATE foods SET name=?, procedure=? WHERE id=?`, in.Name, in.Procedure, id)
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return 0, fmt.Errorf("food %d: %w", id, ErrNotFound)
		}
	} else {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO foods(name, procedure, user_id) VALUES(?,?,?)`,
			in.Name, in.Procedure, in.UserID)
		if err != nil {
			return 0, err
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, err
		}
	}

	if err := s.rewriteLinks(ctx, id, in); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *FoodStore) rewriteLinks(ctx context.Context, foodID int64, in FoodInput) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE food_id=?`, foodID); err != nil {
		return err
	}
	for _, url := range in.ImageURLs {
		if url == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO images(url, food_id) VALUES(?,?)`, url, foodID); err != nil {
			return err
		}
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM food_cates WHERE food_id=?`, foodID); err != nil {
		return err
	}
	for _, cateID := range in.CateIDs {
		if cateID <= 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO food_cates(food_id, cate_id) VALUES(?,?)`, foodID, cateID); err != nil {
			return err
		}
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM food_ingredients WHERE food_id=?`, foodID); err != nil {
		return err
	}
	for _, ingID := range in.IngredientIDs {
		if ingID <= 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO food_ingredients(food_id, ingredient_id) VALUES(?,?)`, foodID, ingID); err != nil {
			return err
		}
	}
	return nil
}

func (s *FoodStore) Get(ctx context.Context, id int64) (model.Food, error) {
	var f model.Food
	err := s.db.GetContext(ctx, &f, `SELECT * FROM foods WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Food{}, fmt.Errorf("food %d: %w", id, ErrNotFound)
	}
	return f, err
}

func (s *FoodStore) GetByName(ctx context.Context, name string) (model.Food, error) {
	var f model.Food
	err := s.db.GetContext(ctx, &f, `SELECT * FROM foods WHERE name=?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Food{}, fmt.Errorf("food %q: %w", name, ErrNotFound)
	}
	return f, err
}

func (s *FoodStore) List(ctx context.Context, page, pageSize int, nameFilter string) ([]FoodView, int, error) {
	where := ""
	args := []any{}
	if nameFilter != "" {
		where = ` WHERE LOWER(name) LIKE LOWER(?)`
		args = append(args, "%"+nameFilter+"%")
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM foods`+where, args...); err != nil {
		return nil, 0, err
	}
	offset, limit := Page(page, pageSize)
	var rows []model.Food
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM foods`+where+` ORDER BY id LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}

	views := make([]FoodView, 0, len(rows))
	for _, f := range rows {
		v := FoodView{Food: f}
		if err := s.db.SelectContext(ctx, &v.CateIDs,
			`SELECT cate_id FROM food_cates WHERE food_id=? ORDER BY id`, f.ID); err != nil {
			return nil, 0, err
		}
		if err := s.db.SelectContext(ctx, &v.IngredientIDs,
			`SELECT ingredient_id FROM food_ingredients WHERE food_id=? ORDER BY id`, f.ID); err != nil {
			return nil, 0, err
		}
		names, err := s.IngredientNames(ctx, f.ID)
		if err != nil {
			return nil, 0, err
		}
		v.IngredientNames = names
		if err := s.db.SelectContext(ctx, &v.ImageURLs,
			`SELECT url FROM images WHERE food_id=? ORDER BY id`, f.ID); err != nil {
			return nil, 0, err
		}
		views = append(views, v)
	}
	return views, total, nil
}

func (s *FoodStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM foods WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("food %d: %w", id, ErrNotFound)
	}
	return nil
}

// IngredientNames resolves the linked ingredient names for one food.
func (s *FoodStore) IngredientNames(ctx context.Context, foodID int64) ([]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names,
		`SELECT i.name FROM food_ingredients fi
		 JOIN ingredients i ON i.id = fi.ingredient_id
		 WHERE fi.food_id=? ORDER BY fi.id`, foodID)
	return names, err
}

// RandomWithIngredients samples up to limit foods that have at least one
// linked ingredient; the daily menu draws from this.
func (s *FoodStore) RandomWithIngredients(ctx context.Context, limit int) ([]model.Food, error) {
	if limit <= 0 {
		limit = 2
	}
	var rows []model.Food
	err := s.db.SelectContext(ctx, &rows,
		`SELECT f.* FROM foods f
		 WHERE EXISTS (SELECT 1 FROM food_ingredients fi WHERE fi.food_id = f.id)
		 ORDER BY RANDOM() LIMIT ?`, limit)
	return rows, err
}
