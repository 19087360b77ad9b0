// Package quota limits how many menu items a client may rate per calendar day.
//
// The ledger maps a local calendar date (YYYY-MM-DD) to the ratings recorded
// that day. It lives in a storage.KV so it survives restarts, and it is read
// back from the store on every operation so separate CLI invocations share it.
package quota

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/menuboard/internal/constants"
	"github.com/julianstephens/menuboard/internal/logger"
	"github.com/julianstephens/menuboard/internal/storage"
)

type Reason string

const (
	ReasonOK                Reason = "ok"
	ReasonAlreadyRatedToday Reason = "already_rated_today"
	ReasonDailyLimitReached Reason = "daily_limit_reached"
)

// Allowed reports whether the reason permits a rating.
func (r Reason) Allowed() bool {
	return r == ReasonOK
}

// Message is the user-facing text for a refusal.
func (r Reason) Message() string {
	switch r {
	case ReasonAlreadyRatedToday:
		return "You have already rated this item today."
	case ReasonDailyLimitReached:
		return fmt.Sprintf("You can rate up to %d items per day. Come back tomorrow!", constants.QuotaDailyLimit)
	default:
		return ""
	}
}

// Record is one successful rating submission.
type Record struct {
	MenuItemID string `json:"menuItemId"`
	Timestamp  int64  `json:"timestamp"` // unix milliseconds
}

func (r Record) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Ledger is keyed by calendar day. Within a day no MenuItemID repeats and
// there are at most QuotaDailyLimit records.
type Ledger map[string][]Record

// Usage summarizes today's ledger entry.
type Usage struct {
	Day       string
	Rated     []Record
	Remaining int
}

type Enforcer struct {
	store     storage.KV
	key       string
	limit     int
	retention time.Duration
	now       func() time.Time
	loc       *time.Location

	mu sync.Mutex
	// pending maps a menu item with a submission in flight to its day key.
	pending map[string]string
}

type Option func(*Enforcer)

func WithClock(now func() time.Time) Option {
	return func(e *Enforcer) { e.now = now }
}

// WithLocation sets the timezone that defines "today". Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(e *Enforcer) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func WithKey(key string) Option {
	return func(e *Enforcer) { e.key = key }
}

func New(store storage.KV, opts ...Option) *Enforcer {
	e := &Enforcer{
		store:     store,
		key:       constants.QuotaLedgerKey,
		limit:     constants.QuotaDailyLimit,
		retention: constants.QuotaRetention,
		now:       time.Now,
		loc:       time.Local,
		pending:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Today returns the current ledger day key.
func (e *Enforcer) Today() string {
	return e.now().In(e.loc).Format(constants.DateFormat)
}

// CanRate checks menuItemID against today's records and reservations. A
// repeat of an item already rated today takes precedence over the daily limit.
func (e *Enforcer) CanRate(menuItemID string) (Reason, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ledger, err := e.loadPruned()
	if err != nil {
		return "", err
	}
	today := e.Today()
	return e.check(today, ledger[today], menuItemID), nil
}

// Reservation holds a quota slot for a rating while it is being submitted.
// Exactly one of Commit or Release takes effect; later calls are no-ops.
type Reservation struct {
	e          *Enforcer
	menuItemID string
	done       bool
}

// Reserve checks menuItemID like CanRate and, when allowed, holds its slot
// until the returned reservation is committed or released. Concurrent
// submissions in one process therefore cannot exceed the daily limit.
func (e *Enforcer) Reserve(menuItemID string) (Reason, *Reservation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ledger, err := e.loadPruned()
	if err != nil {
		return "", nil, err
	}
	today := e.Today()
	if reason := e.check(today, ledger[today], menuItemID); !reason.Allowed() {
		return reason, nil, nil
	}
	e.pending[menuItemID] = today
	return ReasonOK, &Reservation{e: e, menuItemID: menuItemID}, nil
}

// Commit records the reserved rating in the ledger.
func (r *Reservation) Commit() error {
	r.e.mu.Lock()
	defer r.e.mu.Unlock()
	if r.done {
		return nil
	}
	r.done = true
	delete(r.e.pending, r.menuItemID)
	return r.e.record(r.menuItemID)
}

// Release gives the slot back without charging the quota.
func (r *Reservation) Release() {
	r.e.mu.Lock()
	defer r.e.mu.Unlock()
	if r.done {
		return
	}
	r.done = true
	delete(r.e.pending, r.menuItemID)
}

// RecordRating charges today's quota for menuItemID. Call it only after the
// backend accepted the rating. Recording an item already present today is a
// no-op, and the daily limit is never exceeded.
func (e *Enforcer) RecordRating(menuItemID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.record(menuItemID)
}

// record must be called with mu held.
func (e *Enforcer) record(menuItemID string) error {
	ledger, err := e.loadPruned()
	if err != nil {
		return err
	}
	today := e.Today()
	if reason := e.check(today, ledger[today], menuItemID); !reason.Allowed() {
		logger.Warn("Rating recorded without quota", "menu_id", menuItemID, "reason", string(reason))
		return nil
	}
	ledger[today] = append(ledger[today], Record{
		MenuItemID: menuItemID,
		Timestamp:  e.now().UnixMilli(),
	})
	return e.save(ledger)
}

// Usage returns today's records and the remaining allowance.
func (e *Enforcer) Usage() (Usage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ledger, err := e.loadPruned()
	if err != nil {
		return Usage{}, err
	}
	today := e.Today()
	rated := ledger[today]
	return Usage{
		Day:       today,
		Rated:     append([]Record(nil), rated...),
		Remaining: max(e.limit-len(rated), 0),
	}, nil
}

// Prune drops stale records and persists the result if anything changed.
func (e *Enforcer) Prune() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.loadPruned()
	return err
}

// StartSweeper prunes the ledger every interval until ctx is done or the
// returned stop function is called. stop waits for the sweeper to exit and
// is safe to call more than once.
func (e *Enforcer) StartSweeper(ctx context.Context, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = constants.QuotaSweepInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := e.Prune(); err != nil {
					logger.Warn("Quota sweep failed", "error", err)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

// check must be called with mu held.
func (e *Enforcer) check(day string, records []Record, menuItemID string) Reason {
	for _, r := range records {
		if r.MenuItemID == menuItemID {
			return ReasonAlreadyRatedToday
		}
	}
	held := 0
	for id, d := range e.pending {
		if d != day {
			continue
		}
		if id == menuItemID {
			return ReasonAlreadyRatedToday
		}
		held++
	}
	if len(records)+held >= e.limit {
		return ReasonDailyLimitReached
	}
	return ReasonOK
}

// loadPruned must be called with mu held.
func (e *Enforcer) loadPruned() (Ledger, error) {
	ledger, err := e.load()
	if err != nil {
		return nil, err
	}
	if e.prune(ledger) {
		if err := e.save(ledger); err != nil {
			return nil, err
		}
	}
	return ledger, nil
}

// prune removes records older than the retention window from every day but
// today, dropping days left empty. It reports whether anything was removed.
func (e *Enforcer) prune(ledger Ledger) bool {
	today := e.Today()
	cutoff := e.now().Add(-e.retention).UnixMilli()
	changed := false
	for day, records := range ledger {
		if day == today {
			continue
		}
		kept := records[:0]
		for _, r := range records {
			if r.Timestamp >= cutoff {
				kept = append(kept, r)
			}
		}
		if len(kept) != len(records) {
			changed = true
		}
		if len(kept) == 0 {
			delete(ledger, day)
			continue
		}
		ledger[day] = kept
	}
	return changed
}

func (e *Enforcer) load() (Ledger, error) {
	raw, ok, err := e.store.Read(e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read rating ledger: %w", err)
	}
	ledger := Ledger{}
	if !ok || raw == "" {
		return ledger, nil
	}
	if err := json.Unmarshal([]byte(raw), &ledger); err != nil {
		logger.Warn("Discarding unreadable rating ledger", "error", err)
		return Ledger{}, nil
	}
	if ledger == nil {
		ledger = Ledger{}
	}
	return ledger, nil
}

func (e *Enforcer) save(ledger Ledger) error {
	data, err := json.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("failed to encode rating ledger: %w", err)
	}
	if err := e.store.Write(e.key, string(data)); err != nil {
		return fmt.Errorf("failed to write rating ledger: %w", err)
	}
	return nil
}
