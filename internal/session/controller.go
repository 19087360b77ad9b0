// Package session orchestrates one storefront session: category selection
// through the catalog cache and rating submission guarded by the quota
// enforcer.
package session

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/julianstephens/menuboard/internal/catalog"
	"github.com/julianstephens/menuboard/internal/constants"
	"github.com/julianstephens/menuboard/internal/errors"
	"github.com/julianstephens/menuboard/internal/logger"
	"github.com/julianstephens/menuboard/internal/models"
	"github.com/julianstephens/menuboard/internal/quota"
)

// ErrSelectionChanged is returned by SelectCategory when another category
// was selected while the listing was loading. The cache still holds the
// result; the session view does not.
var ErrSelectionChanged = stderrors.New("category selection changed while loading")

// RatingSubmitter is the backend operation used to store a rating.
type RatingSubmitter interface {
	CreateRating(ctx context.Context, menuItemID string, stars int) (models.Rating, error)
}

// View is the state surfaced to the UI for the selected category.
type View struct {
	CategoryID string
	Items      []models.MenuItem
	FromCache  bool
	Loading    bool
	// Stale is set when Items is the last known listing shown after a failed refresh.
	Stale bool
	Err   error
}

// Notice is a transient, non-blocking message.
type Notice struct {
	Message   string
	Reason    quota.Reason
	ExpiresAt time.Time
}

type SubmitResult struct {
	Reason quota.Reason
	Rating *models.Rating
	// Items is the refreshed listing of the rated item's category.
	Items []models.MenuItem
	// RefreshErr is set when the rating was stored but the listing refresh failed.
	RefreshErr error
}

type Config struct {
	Cache   *catalog.Cache
	Quota   *quota.Enforcer
	Ratings RatingSubmitter

	// SweepInterval is the quota sweep cadence. Negative disables the sweeper.
	SweepInterval  time.Duration
	NoticeDuration time.Duration
	Now            func() time.Time
}

type Controller struct {
	cache     *catalog.Cache
	quota     *quota.Enforcer
	ratings   RatingSubmitter
	noticeTTL time.Duration
	now       func() time.Time
	stopSweep func()

	mu     sync.Mutex
	seq    uint64
	view   View
	notice *Notice
}

// New builds a controller and starts the quota sweeper. Close must be
// called when the session ends.
func New(ctx context.Context, cfg Config) *Controller {
	c := &Controller{
		cache:     cfg.Cache,
		quota:     cfg.Quota,
		ratings:   cfg.Ratings,
		noticeTTL: cfg.NoticeDuration,
		now:       cfg.Now,
		stopSweep: func() {},
	}
	if c.noticeTTL <= 0 {
		c.noticeTTL = constants.NoticeDuration
	}
	if c.now == nil {
		c.now = time.Now
	}
	if cfg.SweepInterval >= 0 {
		c.stopSweep = c.quota.StartSweeper(ctx, cfg.SweepInterval)
	}
	return c
}

// Close releases the session's background sweeper.
func (c *Controller) Close() {
	c.stopSweep()
}

// SelectCategory makes categoryID the active selection and loads its listing.
func (c *Controller) SelectCategory(ctx context.Context, categoryID string) (View, error) {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.view = View{CategoryID: categoryID, Loading: true}
	c.mu.Unlock()

	items, fromCache, err := c.cache.GetListing(ctx, categoryID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		logger.Debug("Dropping listing for deselected category", "category", categoryID)
		return View{CategoryID: categoryID, Items: items, FromCache: fromCache, Err: err}, ErrSelectionChanged
	}

	c.view.Loading = false
	if err != nil {
		c.view.Err = err
		if entry, ok := c.cache.Peek(categoryID); ok {
			c.view.Items = entry.Items
			c.view.Stale = true
		}
		return c.view, err
	}
	c.view.Items = items
	c.view.FromCache = fromCache
	return c.view, nil
}

// GetListing reads a category listing through the cache without changing
// the selection.
func (c *Controller) GetListing(ctx context.Context, categoryID string) ([]models.MenuItem, bool, error) {
	return c.cache.GetListing(ctx, categoryID)
}

// Invalidate forces the next read of categoryID to refetch, e.g. after a menu
// item in it was created, edited or deleted.
func (c *Controller) Invalidate(categoryID string) {
	c.cache.Invalidate(categoryID)
}

// View returns the current selection state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// ClearError drops any surfaced error from the view.
func (c *Controller) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Err = nil
}

func (c *Controller) CanRate(menuItemID string) (quota.Reason, error) {
	return c.quota.CanRate(menuItemID)
}

// SubmitRating validates stars, reserves a quota slot, and submits the
// rating. Only after the backend accepts it is the quota charged and the
// category's cache entry invalidated and refreshed; a failed submission gives
// the slot back. A quota refusal is returned as a Reason with a nil error.
func (c *Controller) SubmitRating(ctx context.Context, categoryID, menuItemID string, stars int) (SubmitResult, error) {
	if !models.ValidStars(stars) {
		return SubmitResult{}, errors.Invalid("stars", "must be between 1 and 5")
	}

	reason, slot, err := c.quota.Reserve(menuItemID)
	if err != nil {
		return SubmitResult{}, err
	}
	if !reason.Allowed() {
		c.setNotice(reason.Message(), reason)
		return SubmitResult{Reason: reason}, nil
	}
	defer slot.Release()

	created, err := c.ratings.CreateRating(ctx, menuItemID, stars)
	if err != nil {
		err = errors.Backend("create rating", err)
		c.surfaceError(categoryID, err)
		return SubmitResult{}, err
	}

	if err := slot.Commit(); err != nil {
		logger.Error("Failed to record rating in quota ledger", "menu_id", menuItemID, "error", err)
	}

	c.cache.Invalidate(categoryID)
	result := SubmitResult{Reason: quota.ReasonOK, Rating: &created}
	items, _, err := c.cache.GetListing(ctx, categoryID)
	if err != nil {
		result.RefreshErr = err
		c.surfaceError(categoryID, err)
	} else {
		result.Items = items
		c.mu.Lock()
		if c.view.CategoryID == categoryID && !c.view.Loading {
			c.view.Items = items
			c.view.FromCache = false
			c.view.Stale = false
			c.view.Err = nil
		}
		c.mu.Unlock()
	}

	c.setNotice("Thanks for your rating!", quota.ReasonOK)
	return result, nil
}

// Notice returns the current transient notice if it has not expired.
func (c *Controller) Notice() (Notice, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.notice == nil || !c.now().Before(c.notice.ExpiresAt) {
		c.notice = nil
		return Notice{}, false
	}
	return *c.notice, true
}

// NoticeDuration is how long notices stay visible.
func (c *Controller) NoticeDuration() time.Duration {
	return c.noticeTTL
}

func (c *Controller) setNotice(msg string, reason quota.Reason) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notice = &Notice{Message: msg, Reason: reason, ExpiresAt: c.now().Add(c.noticeTTL)}
}

func (c *Controller) surfaceError(categoryID string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view.CategoryID == categoryID {
		c.view.Err = err
	}
}
