package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	pq "github.com/lib/pq"

	"github.com/julianstephens/menuboard/internal/models"
	"github.com/julianstephens/menuboard/internal/storage"
)

const menuColumns = `id, category_id, name, ingredients, price, image, out_of_stock`

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []models.Category
	for rows.Next() {
		var id int64
		var c models.Category
		if err := rows.Scan(&id, &c.Name); err != nil {
			return nil, err
		}
		c.ID = storage.FormatID(id)
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (s *Store) GetCategory(ctx context.Context, id string) (models.Category, error) {
	key, err := storage.ParseID(id)
	if err != nil {
		return models.Category{}, err
	}
	c := models.Category{ID: storage.FormatID(key)}
	err = s.db.QueryRowContext(ctx, "SELECT name FROM categories WHERE id = $1", key).Scan(&c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Category{}, fmt.Errorf("category %s: %w", id, storage.ErrNotFound)
	}
	return c, err
}

func (s *Store) CreateCategory(ctx context.Context, c models.Category) (models.Category, error) {
	var id int64
	if err := s.db.QueryRowContext(ctx, "INSERT INTO categories (name) VALUES ($1) RETURNING id", c.Name).Scan(&id); err != nil {
		return models.Category{}, err
	}
	c.ID = storage.FormatID(id)
	return c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c models.Category) (models.Category, error) {
	key, err := storage.ParseID(c.ID)
	if err != nil {
		return models.Category{}, err
	}
	res, err := s.db.ExecContext(ctx, "UPDATE categories SET name = $1, updated_at = now() WHERE id = $2", c.Name, key)
	if err != nil {
		return models.Category{}, err
	}
	if err := requireRow(res, "category", c.ID); err != nil {
		return models.Category{}, err
	}
	return c, nil
}

// DeleteCategory relies on ON DELETE CASCADE for menus and ratings.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	key, err := storage.ParseID(id)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", key)
	if err != nil {
		return err
	}
	return requireRow(res, "category", id)
}

func (s *Store) ListMenusByCategory(ctx context.Context, categoryID string) ([]models.MenuItem, error) {
	key, err := storage.ParseID(categoryID)
	if err != nil {
		return nil, err
	}
	return s.queryMenus(ctx, "WHERE category_id = $1 ORDER BY id", key)
}

func (s *Store) ListOutOfStock(ctx context.Context) ([]models.MenuItem, error) {
	return s.queryMenus(ctx, "WHERE out_of_stock ORDER BY id")
}

func (s *Store) GetMenu(ctx context.Context, id string) (models.MenuItem, error) {
	key, err := storage.ParseID(id)
	if err != nil {
		return models.MenuItem{}, err
	}
	items, err := s.queryMenus(ctx, "WHERE id = $1", key)
	if err != nil {
		return models.MenuItem{}, err
	}
	if len(items) == 0 {
		return models.MenuItem{}, fmt.Errorf("menu %s: %w", id, storage.ErrNotFound)
	}
	return items[0], nil
}

func (s *Store) CreateMenu(ctx context.Context, m models.MenuItem) (models.MenuItem, error) {
	catKey, err := storage.ParseID(m.CategoryID)
	if err != nil {
		return models.MenuItem{}, err
	}
	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO menus (category_id, name, ingredients, price, image, out_of_stock)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		catKey, m.Name, m.Ingredients, m.Price, m.Image, m.OutOfStock).Scan(&id)
	if err != nil {
		return models.MenuItem{}, err
	}
	m.ID = storage.FormatID(id)
	m.Ratings = nil
	return m, nil
}

func (s *Store) UpdateMenu(ctx context.Context, m models.MenuItem) (models.MenuItem, error) {
	key, err := storage.ParseID(m.ID)
	if err != nil {
		return models.MenuItem{}, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE menus
		SET name = $1, ingredients = $2, price = $3, image = $4, out_of_stock = $5, updated_at = now()
		WHERE id = $6`,
		m.Name, m.Ingredients, m.Price, m.Image, m.OutOfStock, key)
	if err != nil {
		return models.MenuItem{}, err
	}
	if err := requireRow(res, "menu", m.ID); err != nil {
		return models.MenuItem{}, err
	}
	return s.GetMenu(ctx, m.ID)
}

func (s *Store) DeleteMenu(ctx context.Context, id string) error {
	key, err := storage.ParseID(id)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM menus WHERE id = $1", key)
	if err != nil {
		return err
	}
	return requireRow(res, "menu", id)
}

func (s *Store) ListRatings(ctx context.Context, menuID string) ([]models.Rating, error) {
	key, err := storage.ParseID(menuID)
	if err != nil {
		return nil, err
	}
	byMenu, err := s.ratingsFor(ctx, []int64{key})
	if err != nil {
		return nil, err
	}
	return byMenu[key], nil
}

func (s *Store) CreateRating(ctx context.Context, r models.Rating) (models.Rating, error) {
	key, err := storage.ParseID(r.MenuItemID)
	if err != nil {
		return models.Rating{}, err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	var id int64
	err = s.db.QueryRowContext(ctx,
		"INSERT INTO ratings (menu_id, stars, created_at) VALUES ($1, $2, $3) RETURNING id",
		key, r.Stars, r.CreatedAt).Scan(&id)
	if err != nil {
		return models.Rating{}, err
	}
	r.ID = storage.FormatID(id)
	return r, nil
}

func (s *Store) queryMenus(ctx context.Context, where string, args ...any) ([]models.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+menuColumns+" FROM menus "+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.MenuItem
	var keys []int64
	for rows.Next() {
		var id, catID int64
		var m models.MenuItem
		if err := rows.Scan(&id, &catID, &m.Name, &m.Ingredients, &m.Price, &m.Image, &m.OutOfStock); err != nil {
			return nil, err
		}
		m.ID = storage.FormatID(id)
		m.CategoryID = storage.FormatID(catID)
		items = append(items, m)
		keys = append(keys, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}

	byMenu, err := s.ratingsFor(ctx, keys)
	if err != nil {
		return nil, err
	}
	for i, key := range keys {
		items[i].Ratings = byMenu[key]
	}
	return items, nil
}

func (s *Store) ratingsFor(ctx context.Context, menuKeys []int64) (map[int64][]models.Rating, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, menu_id, stars, created_at FROM ratings WHERE menu_id = ANY($1) ORDER BY created_at, id",
		pq.Array(menuKeys))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]models.Rating)
	for rows.Next() {
		var id, menuID int64
		var r models.Rating
		if err := rows.Scan(&id, &menuID, &r.Stars, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.ID = storage.FormatID(id)
		r.MenuItemID = storage.FormatID(menuID)
		r.CreatedAt = r.CreatedAt.UTC()
		out[menuID] = append(out[menuID], r)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}
