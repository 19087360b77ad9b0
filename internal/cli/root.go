package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/julianstephens/menuboard/internal/backend"
	"github.com/julianstephens/menuboard/internal/catalog"
	"github.com/julianstephens/menuboard/internal/config"
	"github.com/julianstephens/menuboard/internal/constants"
	"github.com/julianstephens/menuboard/internal/keyring"
	"github.com/julianstephens/menuboard/internal/logger"
	"github.com/julianstephens/menuboard/internal/models"
	"github.com/julianstephens/menuboard/internal/quota"
	"github.com/julianstephens/menuboard/internal/rating"
	"github.com/julianstephens/menuboard/internal/session"
	"github.com/julianstephens/menuboard/internal/storage"
	"github.com/julianstephens/menuboard/internal/storage/postgres"
	"github.com/julianstephens/menuboard/internal/storage/sqlite"
)

// Context is handed to every command's Run method. Resources are opened on
// first use and released by Close.
type Context struct {
	Config config.Config
	Ctx    context.Context
	Out    io.Writer

	backend *backend.Client
	state   storage.StateStore
	quota   *quota.Enforcer
	session *session.Controller
	server  storage.Provider
}

func NewContext(ctx context.Context, cfg config.Config) *Context {
	return &Context{Config: cfg, Ctx: ctx, Out: os.Stdout}
}

// Backend returns the HTTP client for the configured API.
func (c *Context) Backend() *backend.Client {
	if c.backend == nil {
		c.backend = backend.New(c.Config.APIURL, backend.WithTimeout(c.Config.HTTPTimeout))
	}
	return c.backend
}

// State opens the per-client state store, creating it if needed.
func (c *Context) State() (storage.StateStore, error) {
	if c.state != nil {
		return c.state, nil
	}
	path, err := config.ExpandHome(c.Config.StatePath)
	if err != nil {
		return nil, err
	}
	store := OpenStateStore(path)
	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	c.state = store
	return store, nil
}

// OpenStateStore picks the state backend from path: empty keeps state in
// memory, a .json suffix selects the JSON file store, anything else SQLite.
func OpenStateStore(path string) storage.StateStore {
	switch {
	case path == "":
		return storage.NewMemoryStore()
	case strings.HasSuffix(path, ".json"):
		return storage.NewJSONStore(path)
	default:
		return sqlite.NewStore(path)
	}
}

func (c *Context) Quota() (*quota.Enforcer, error) {
	if c.quota != nil {
		return c.quota, nil
	}
	state, err := c.State()
	if err != nil {
		return nil, err
	}
	c.quota = quota.New(state)
	return c.quota, nil
}

// Session starts the storefront session: a catalog cache over the backend
// and the quota enforcer over the state store, with its sweeper running.
func (c *Context) Session() (*session.Controller, error) {
	if c.session != nil {
		return c.session, nil
	}
	q, err := c.Quota()
	if err != nil {
		return nil, err
	}
	api := c.Backend()
	c.session = session.New(c.Ctx, session.Config{
		Cache:         catalog.New(api, catalog.WithTTL(c.Config.CacheTTL)),
		Quota:         q,
		Ratings:       api,
		SweepInterval: c.Config.QuotaSweep,
	})
	return c.session, nil
}

// Invalidate drops a category from the session cache after an admin change.
// Without an open session there is nothing cached in this process.
func (c *Context) Invalidate(categoryID string) {
	if c.session != nil {
		c.session.Invalidate(categoryID)
	}
}

// ServerStore returns the catalog store used by the API server. The store is
// not opened; callers run Init or Load.
func (c *Context) ServerStore() (storage.Provider, error) {
	if c.server != nil {
		return c.server, nil
	}
	target, err := ServerTarget(c.Config, keyring.ConnectionString)
	if err != nil {
		return nil, err
	}
	if postgres.IsConnString(target) {
		c.server = postgres.New(target)
	} else {
		c.server = sqlite.NewStore(target)
	}
	return c.server, nil
}

// ServerTarget resolves the server database in precedence order: the
// MENUBOARD_DB_CONNECTION variable, a connection string in MENUBOARD_DB, the
// keyring entry when MENUBOARD_DB is left at its default, and finally
// MENUBOARD_DB as a SQLite path.
func ServerTarget(cfg config.Config, fromKeyring func() (string, error)) (string, error) {
	if cfg.DBConnection != "" {
		logger.Debug("Using server database from environment")
		return cfg.DBConnection, nil
	}
	if postgres.IsConnString(cfg.ServerDB) {
		if err := postgres.ValidateConnString(cfg.ServerDB); err != nil {
			if stderrors.Is(err, postgres.ErrEmbeddedCredentials) {
				return "", fmt.Errorf("%w: use MENUBOARD_DB_CONNECTION, the OS keyring or .pgpass instead", err)
			}
			return "", err
		}
		return cfg.ServerDB, nil
	}
	if cfg.ServerDB == "" || cfg.ServerDB == constants.DefaultServerDB {
		if connStr, err := fromKeyring(); err == nil && connStr != "" {
			logger.Debug("Using server database from keyring")
			return connStr, nil
		} else if err != nil && !stderrors.Is(err, keyring.ErrNotFound) {
			logger.Debug("Keyring lookup failed", "error", err)
		}
	}
	path := cfg.ServerDB
	if path == "" {
		path = constants.DefaultServerDB
	}
	return config.ExpandHome(path)
}

// Close releases every resource opened through the context.
func (c *Context) Close() error {
	var errs []error
	if c.session != nil {
		c.session.Close()
	}
	if c.state != nil {
		errs = append(errs, c.state.Close())
	}
	if c.server != nil {
		errs = append(errs, c.server.Close())
	}
	return stderrors.Join(errs...)
}

// CategoryLister lists categories for reference resolution.
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// FindCategory resolves ref as a category ID or, case-insensitively, a name.
func FindCategory(ctx context.Context, l CategoryLister, ref string) (models.Category, error) {
	cats, err := l.ListCategories(ctx)
	if err != nil {
		return models.Category{}, err
	}
	for _, cat := range cats {
		if cat.ID == ref {
			return cat, nil
		}
	}
	for _, cat := range cats {
		if strings.EqualFold(cat.Name, strings.TrimSpace(ref)) {
			return cat, nil
		}
	}
	return models.Category{}, fmt.Errorf("category %q not found", ref)
}

// FindMenuItem resolves ref within items as an ID or a name.
func FindMenuItem(items []models.MenuItem, ref string) (models.MenuItem, error) {
	for _, it := range items {
		if it.ID == ref {
			return it, nil
		}
	}
	for _, it := range items {
		if strings.EqualFold(it.Name, strings.TrimSpace(ref)) {
			return it, nil
		}
	}
	return models.MenuItem{}, fmt.Errorf("menu item %q not found", ref)
}

// FormatItem renders one listing line.
func FormatItem(it models.MenuItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s  $%s", it.ID, it.Name, it.Price.StringFixed(2))
	s := rating.Aggregate(it.Ratings)
	fmt.Fprintf(&b, "  avg %s (%d)", s.DisplayAverage(), s.Count)
	if it.Badge != models.BadgeNone {
		fmt.Fprintf(&b, "  ★ %s", it.Badge)
	}
	if it.OutOfStock {
		b.WriteString("  [OUT OF STOCK]")
	}
	return b.String()
}
