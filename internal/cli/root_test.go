package cli

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/menuboard/internal/config"
	"github.com/julianstephens/menuboard/internal/constants"
	"github.com/julianstephens/menuboard/internal/keyring"
	"github.com/julianstephens/menuboard/internal/models"
	"github.com/julianstephens/menuboard/internal/storage"
	"github.com/julianstephens/menuboard/internal/storage/postgres"
	"github.com/julianstephens/menuboard/internal/storage/sqlite"
)

func TestServerTarget(t *testing.T) {
	noKeyring := func() (string, error) { return "", keyring.ErrNotFound }
	fromKeyring := func() (string, error) { return "postgres://menu@db:5432/menu", nil }
	unused := func() (string, error) {
		t.Error("keyring consulted")
		return "", nil
	}
	sqlitePath := filepath.Join(t.TempDir(), "menu.db")

	tests := []struct {
		name    string
		cfg     config.Config
		keyring func() (string, error)
		want    string
		wantErr error
	}{
		{"env connection wins", config.Config{DBConnection: "postgres://a@h/db", ServerDB: sqlitePath}, unused, "postgres://a@h/db", nil},
		{"connection string in db", config.Config{ServerDB: "postgres://a@h/db"}, unused, "postgres://a@h/db", nil},
		{"embedded password refused", config.Config{ServerDB: "postgres://a:secret@h/db"}, unused, "", postgres.ErrEmbeddedCredentials},
		{"keyring with default db", config.Config{ServerDB: constants.DefaultServerDB}, fromKeyring, "postgres://menu@db:5432/menu", nil},
		{"explicit path skips keyring", config.Config{ServerDB: sqlitePath}, unused, sqlitePath, nil},
		{"default path without keyring", config.Config{ServerDB: constants.DefaultServerDB}, noKeyring, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ServerTarget(tt.cfg, tt.keyring)
			if tt.wantErr != nil {
				if !stderrors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if tt.want == "" {
				if !strings.HasSuffix(got, filepath.Join(".config", "menuboard", "menu.db")) {
					t.Errorf("target = %q, want expanded default path", got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("target = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpenStateStore(t *testing.T) {
	dir := t.TempDir()
	if _, ok := OpenStateStore("").(*storage.MemoryStore); !ok {
		t.Error("empty path should keep state in memory")
	}
	if _, ok := OpenStateStore(filepath.Join(dir, "state.json")).(*storage.JSONStore); !ok {
		t.Error(".json path should use the JSON store")
	}
	if _, ok := OpenStateStore(filepath.Join(dir, "state.db")).(*sqlite.Store); !ok {
		t.Error("other paths should use SQLite")
	}
}

func TestContextStateIsShared(t *testing.T) {
	ctx := NewContext(context.Background(), config.Config{StatePath: filepath.Join(t.TempDir(), "state.json")})
	defer ctx.Close()

	a, err := ctx.State()
	if err != nil {
		t.Fatal(err)
	}
	b, err := ctx.State()
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("State opened twice")
	}

	q, err := ctx.Quota()
	if err != nil {
		t.Fatal(err)
	}
	if err := q.RecordRating("1"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := a.Read(constants.QuotaLedgerKey); !ok {
		t.Error("quota ledger not written to the state store")
	}

	// No session opened: nothing to invalidate, must not panic.
	ctx.Invalidate("1")
}

type fakeCategories []models.Category

func (f fakeCategories) ListCategories(context.Context) ([]models.Category, error) {
	return f, nil
}

func TestFindCategory(t *testing.T) {
	cats := fakeCategories{{ID: "1", Name: "Drinks"}, {ID: "2", Name: "1"}}
	tests := []struct {
		ref    string
		wantID string
	}{
		{"1", "1"},
		{"drinks", "1"},
		{" Drinks ", "1"},
		{"2", "2"},
	}
	for _, tt := range tests {
		got, err := FindCategory(context.Background(), cats, tt.ref)
		if err != nil || got.ID != tt.wantID {
			t.Errorf("FindCategory(%q) = %+v, %v; want ID %s", tt.ref, got, err, tt.wantID)
		}
	}
	if _, err := FindCategory(context.Background(), cats, "Desserts"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestFindMenuItem(t *testing.T) {
	items := []models.MenuItem{{ID: "3", Name: "Latte"}, {ID: "4", Name: "Mocha"}}
	if got, err := FindMenuItem(items, "mocha"); err != nil || got.ID != "4" {
		t.Errorf("by name = %+v, %v", got, err)
	}
	if got, err := FindMenuItem(items, "3"); err != nil || got.Name != "Latte" {
		t.Errorf("by id = %+v, %v", got, err)
	}
	if _, err := FindMenuItem(items, "Tea"); err == nil {
		t.Error("expected error for unknown item")
	}
}

func TestFormatItem(t *testing.T) {
	it := models.MenuItem{
		ID:            "7",
		Name:          "Cake",
		Price:         decimal.RequireFromString("6"),
		Ratings:       []models.Rating{{Stars: 5}, {Stars: 5}, {Stars: 4}},
		AverageRating: 14.0 / 3,
		Badge:         models.BadgeTopRated,
		OutOfStock:    true,
	}
	want := "[7] Cake  $6.00  avg 4.67 (3)  ★ Top Rated  [OUT OF STOCK]"
	if got := FormatItem(it); got != want {
		t.Errorf("FormatItem = %q, want %q", got, want)
	}

	if got := FormatItem(models.MenuItem{ID: "8", Name: "Tea", Price: decimal.Zero}); got != "[8] Tea  $0.00  avg N/A (0)" {
		t.Errorf("FormatItem unrated = %q", got)
	}
}
