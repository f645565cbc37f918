// Package sync orchestrates reconciliation between the optimistic local board
// state and the remote store: pushing the queue, pulling the remote snapshot,
// detecting conflicts, and applying resolutions.
package sync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/a7medmo7amady/trello/internal/board"
	"github.com/a7medmo7amady/trello/internal/models"
	"github.com/a7medmo7amady/trello/internal/remote"
)

// ErrCycleSkipped is returned when a sync trigger is dropped because a cycle
// is already in flight or the device is offline. Overlapping triggers are
// never queued; the next tick tries again.
var ErrCycleSkipped = errors.New("sync cycle skipped")

// Options tune the engine. Zero values fall back to defaults.
type Options struct {
	Interval   time.Duration // periodic sync interval (default 5m)
	MaxRetries int           // bounded retry count per trigger (default 3)
	RetryDelay time.Duration // initial backoff, doubled per attempt (default 2s)
	AutoMerge  bool          // attempt three-way merge before raising conflicts
}

func (o *Options) fill() {
	if o.Interval <= 0 {
		o.Interval = 5 * time.Minute
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 2 * time.Second
	}
}

// Status is the user-visible sync state.
type Status struct {
	Pending      int
	Conflicts    int
	LastSyncedAt time.Time
	LastError    string
	InFlight     bool
	Online       bool
}

// Engine runs sync cycles against the remote store. At most one cycle is in
// flight at a time; state is always re-read from the board store at the point
// of use, never trusted across a network round trip.
type Engine struct {
	store  *board.Store
	remote remote.Store
	opts   Options

	now   func() time.Time
	newID func() string

	mu        sync.Mutex
	busy      bool
	online    bool
	lastError string

	// base holds the entities of the last fully accepted remote snapshot,
	// serving as the common ancestor for three-way merges.
	baseLists map[string]models.List
	baseCards map[string]models.Card
}

// NewEngine creates an engine. The device starts online.
func NewEngine(store *board.Store, rs remote.Store, opts Options) *Engine {
	opts.fill()
	return &Engine{
		store:     store,
		remote:    rs,
		opts:      opts,
		now:       time.Now,
		newID:     uuid.NewString,
		online:    true,
		baseLists: make(map[string]models.List),
		baseCards: make(map[string]models.Card),
	}
}

// SetOnline flips connectivity. Regaining connectivity triggers a sync.
func (e *Engine) SetOnline(ctx context.Context, online bool) {
	e.mu.Lock()
	was := e.online
	e.online = online
	e.mu.Unlock()
	if online && !was {
		if err := e.SyncNow(ctx); err != nil && !errors.Is(err, ErrCycleSkipped) {
			slog.Debug("sync on reconnect", "err", err)
		}
	}
}

// Status returns the current sync status.
func (e *Engine) Status() Status {
	state := e.store.Current()
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		Pending:      len(state.SyncQueue),
		Conflicts:    len(state.Conflicts),
		LastSyncedAt: state.LastSyncedAt,
		LastError:    e.lastError,
		InFlight:     e.busy,
		Online:       e.online,
	}
}

// begin claims the busy flag. Returns false when the trigger must be dropped.
func (e *Engine) begin() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy || !e.online {
		return false
	}
	e.busy = true
	return true
}

func (e *Engine) end() {
	e.mu.Lock()
	e.busy = false
	e.mu.Unlock()
}

func (e *Engine) setError(msg string) {
	e.mu.Lock()
	e.lastError = msg
	e.mu.Unlock()
}

// SyncNow runs one sync cycle, retrying transient failures with doubling
// backoff up to MaxRetries. Returns ErrCycleSkipped if a cycle is already in
// flight or the device is offline.
func (e *Engine) SyncNow(ctx context.Context) error {
	if !e.begin() {
		return ErrCycleSkipped
	}
	defer e.end()

	delay := e.opts.RetryDelay
	var err error
	for attempt := 0; attempt <= e.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Debug("sync retry", "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				e.setError(ctx.Err().Error())
				return ctx.Err()
			}
			delay *= 2
		}
		err = e.cycle(ctx)
		if err == nil {
			e.setError("")
			return nil
		}
		e.setError(err.Error())
		if ctx.Err() != nil {
			break
		}
	}
	// Retries exhausted; the queue survives verbatim and the next periodic
	// tick or manual trigger tries again.
	slog.Debug("sync failed", "err", err)
	return err
}

// Run performs periodic sync until ctx is cancelled. The first cycle runs
// immediately.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.opts.Interval)
	defer ticker.Stop()

	if err := e.SyncNow(ctx); err != nil && !errors.Is(err, ErrCycleSkipped) {
		slog.Debug("initial sync", "err", err)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.SyncNow(ctx); err != nil && !errors.Is(err, ErrCycleSkipped) {
				slog.Debug("periodic sync", "err", err)
			}
		}
	}
}

// rememberBase records the entity map of an accepted remote snapshot as the
// common ancestor for future merges.
func (e *Engine) rememberBase(snap models.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.baseLists = make(map[string]models.List, len(snap.Lists))
	for _, l := range snap.Lists {
		e.baseLists[l.ID] = l
	}
	e.baseCards = make(map[string]models.Card, len(snap.Cards))
	for _, c := range snap.Cards {
		e.baseCards[c.ID] = c.Clone()
	}
}

func (e *Engine) baseList(id string) (models.List, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.baseLists[id]
	return l, ok
}

func (e *Engine) baseCard(id string) (models.Card, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.baseCards[id]
	return c.Clone(), ok
}
