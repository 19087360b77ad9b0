package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/menuboard/internal/models"
	"github.com/julianstephens/menuboard/internal/storage"
)

var (
	_ storage.Provider   = (*Store)(nil)
	_ storage.StateStore = (*Store)(nil)
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "menuboard.db"))
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadRequiresInit(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := s.Load(); err == nil {
		t.Error("expected error loading uninitialized store")
	}
}

func TestInitIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menuboard.db")
	for i := 0; i < 2; i++ {
		s := NewStore(path)
		if err := s.Init(); err != nil {
			t.Fatalf("Init #%d failed: %v", i+1, err)
		}
		s.Close()
	}
	s := NewStore(path)
	if err := s.Load(); err != nil {
		t.Fatalf("Load after init failed: %v", err)
	}
	s.Close()
}

func TestKV(t *testing.T) {
	s := setupStore(t)
	if _, ok, err := s.Read("rating_quota"); err != nil || ok {
		t.Fatalf("Read on empty store = ok %v, err %v", ok, err)
	}
	if err := s.Write("rating_quota", `{"a":1}`); err != nil {
		t.Fatal(err)
	}
	if err := s.Write("rating_quota", `{"a":2}`); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.Read("rating_quota")
	if err != nil || !ok || v != `{"a":2}` {
		t.Errorf("Read = %q, %v, %v", v, ok, err)
	}
}

func TestCatalogRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	cat, err := s.CreateCategory(ctx, models.Category{Name: "Drinks"})
	if err != nil {
		t.Fatal(err)
	}
	latte, err := s.CreateMenu(ctx, models.MenuItem{
		CategoryID:  cat.ID,
		Name:        "Latte",
		Ingredients: "espresso, milk",
		Price:       decimal.RequireFromString("4.50"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateMenu(ctx, models.MenuItem{CategoryID: cat.ID, Name: "Tea", Price: decimal.NewFromInt(3), OutOfStock: true}); err != nil {
		t.Fatal(err)
	}

	base := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	for i, stars := range []int{5, 4, 5} {
		if _, err := s.CreateRating(ctx, models.Rating{MenuItemID: latte.ID, Stars: stars, CreatedAt: base.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatal(err)
		}
	}

	items, err := s.ListMenusByCategory(ctx, cat.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	got := items[0]
	if got.Name != "Latte" || !got.Price.Equal(decimal.RequireFromString("4.5")) || got.CategoryID != cat.ID {
		t.Errorf("unexpected latte %+v", got)
	}
	if len(got.Ratings) != 3 || got.Ratings[0].Stars != 5 || got.Ratings[1].Stars != 4 {
		t.Errorf("ratings not returned in creation order: %+v", got.Ratings)
	}
	if !got.Ratings[0].CreatedAt.Equal(base) {
		t.Errorf("created_at = %v, want %v", got.Ratings[0].CreatedAt, base)
	}

	oos, err := s.ListOutOfStock(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(oos) != 1 || oos[0].Name != "Tea" {
		t.Errorf("ListOutOfStock = %+v", oos)
	}

	latte.Name = "Oat Latte"
	latte.OutOfStock = true
	updated, err := s.UpdateMenu(ctx, latte)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Oat Latte" || !updated.OutOfStock || len(updated.Ratings) != 3 {
		t.Errorf("UpdateMenu = %+v", updated)
	}
}

func TestDeleteCategoryCascades(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	cat, _ := s.CreateCategory(ctx, models.Category{Name: "Desserts"})
	m, _ := s.CreateMenu(ctx, models.MenuItem{CategoryID: cat.ID, Name: "Cake"})
	if _, err := s.CreateRating(ctx, models.Rating{MenuItemID: m.ID, Stars: 4}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetMenu(ctx, m.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("menu survived category delete: %v", err)
	}
	var n int
	if err := s.db.QueryRow("SELECT count(*) FROM ratings").Scan(&n); err != nil || n != 0 {
		t.Errorf("ratings left after cascade: %d (%v)", n, err)
	}
	if err := s.DeleteCategory(ctx, cat.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestNotFound(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		fn   func() error
	}{
		{"get category", func() error { _, err := s.GetCategory(ctx, "42"); return err }},
		{"malformed id", func() error { _, err := s.GetCategory(ctx, "abc"); return err }},
		{"update category", func() error { _, err := s.UpdateCategory(ctx, models.Category{ID: "42", Name: "x"}); return err }},
		{"get menu", func() error { _, err := s.GetMenu(ctx, "42"); return err }},
		{"update menu", func() error { _, err := s.UpdateMenu(ctx, models.MenuItem{ID: "42", Name: "x"}); return err }},
		{"delete menu", func() error { return s.DeleteMenu(ctx, "42") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
		})
	}
}
