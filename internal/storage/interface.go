package storage

import (
	"context"
	"errors"

	"github.com/julianstephens/menuboard/internal/models"
)

// ErrNotFound is returned when a category, menu or rating does not exist.
var ErrNotFound = errors.New("record not found")

// KV is the durable per-client key-value capability used for session state
// such as the rating quota ledger.
type KV interface {
	// Read returns the stored value and whether the key exists.
	Read(key string) (string, bool, error)
	Write(key, value string) error
}

// StateStore is a KV with a lifecycle, as opened by the CLI.
type StateStore interface {
	KV
	Init() error
	Load() error
	Close() error
	GetConfigPath() string
}

// Provider is the backend's catalog persistence.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Categories
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id string) (models.Category, error)
	CreateCategory(ctx context.Context, c models.Category) (models.Category, error)
	UpdateCategory(ctx context.Context, c models.Category) (models.Category, error)
	// DeleteCategory removes the category together with its menus and their ratings.
	DeleteCategory(ctx context.Context, id string) error

	// Menus. Returned items carry their ratings ordered by creation time;
	// aggregate fields are left for the caller to compute.
	ListMenusByCategory(ctx context.Context, categoryID string) ([]models.MenuItem, error)
	ListOutOfStock(ctx context.Context) ([]models.MenuItem, error)
	GetMenu(ctx context.Context, id string) (models.MenuItem, error)
	CreateMenu(ctx context.Context, m models.MenuItem) (models.MenuItem, error)
	UpdateMenu(ctx context.Context, m models.MenuItem) (models.MenuItem, error)
	// DeleteMenu removes the menu and its ratings.
	DeleteMenu(ctx context.Context, id string) error

	// Ratings
	ListRatings(ctx context.Context, menuID string) ([]models.Rating, error)
	CreateRating(ctx context.Context, r models.Rating) (models.Rating, error)

	// Utils
	GetConfigPath() string
}
