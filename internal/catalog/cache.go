// Package catalog keeps a per-category cache of menu listings with
// time-based expiry and explicit invalidation.
package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/julianstephens/menuboard/internal/constants"
	"github.com/julianstephens/menuboard/internal/errors"
	"github.com/julianstephens/menuboard/internal/logger"
	"github.com/julianstephens/menuboard/internal/models"
)

// Lister is the backend operation the cache refreshes from.
type Lister interface {
	ListMenuItems(ctx context.Context, categoryID string) ([]models.MenuItem, error)
}

// Entry is one category's listing snapshot. It is replaced wholesale on
// refresh and never patched in place.
type Entry struct {
	Items     []models.MenuItem
	FetchedAt time.Time
}

type Cache struct {
	lister Lister
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]Entry
}

type Option func(*Cache)

// WithTTL overrides the freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(lister Lister, opts ...Option) *Cache {
	c := &Cache{
		lister:  lister,
		ttl:     constants.CatalogTTL,
		now:     time.Now,
		entries: make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetListing returns the listing for categoryID and whether it was served
// from cache. A missing, stale or invalidated entry is refetched. When the
// refetch fails the previous entry is left untouched and the error is
// returned as a network failure, or as-is when the category is unknown.
func (c *Cache) GetListing(ctx context.Context, categoryID string) ([]models.MenuItem, bool, error) {
	c.mu.Lock()
	entry, ok := c.entries[categoryID]
	if ok && c.fresh(entry) {
		c.mu.Unlock()
		return entry.Items, true, nil
	}
	c.mu.Unlock()

	fetchedAt := c.now()
	items, err := c.lister.ListMenuItems(ctx, categoryID)
	if err != nil {
		logger.Warn("Catalog refresh failed", "category", categoryID, "error", err)
		return nil, false, errors.Backend("list menu items", err)
	}

	c.mu.Lock()
	// Concurrent refreshes of one key race; keep the most recent fetch.
	if cur, exists := c.entries[categoryID]; !exists || !cur.FetchedAt.After(fetchedAt) {
		c.entries[categoryID] = Entry{Items: items, FetchedAt: fetchedAt}
	} else {
		items = cur.Items
	}
	c.mu.Unlock()

	logger.Debug("Catalog refreshed", "category", categoryID, "items", len(items))
	return items, false, nil
}

// Invalidate forces the next GetListing for categoryID to refetch. The
// snapshot is kept so callers can still fall back to it via Peek.
func (c *Cache) Invalidate(categoryID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[categoryID]; ok {
		entry.FetchedAt = time.Time{}
		c.entries[categoryID] = entry
	}
}

// InvalidateAll expires every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, entry := range c.entries {
		entry.FetchedAt = time.Time{}
		c.entries[id] = entry
	}
}

// Peek returns the last known snapshot for categoryID regardless of freshness.
func (c *Cache) Peek(categoryID string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[categoryID]
	return entry, ok
}

// fresh must be called with mu held.
func (c *Cache) fresh(entry Entry) bool {
	if entry.FetchedAt.IsZero() {
		return false
	}
	return c.now().Sub(entry.FetchedAt) < c.ttl
}
