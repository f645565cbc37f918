package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/a7medmo7amady/trello/internal/board"
	"github.com/a7medmo7amady/trello/internal/models"
	"github.com/a7medmo7amady/trello/internal/remote"
)

// fakeRemote is an in-memory remote.Store with scripted failures.
type fakeRemote struct {
	mu        sync.Mutex
	snapshot  models.Snapshot
	failPush  int             // remaining pushes to fail
	failPull  int             // remaining pulls to fail
	rejectIDs map[string]bool // change IDs to reject with a per-item error
	pushed    [][]models.SyncQueueEntry
	pullCalls int
	onPush    func() // runs during PushChanges, before returning
}

var _ remote.Store = (*fakeRemote)(nil)

var errNetwork = errors.New("network down")

func (f *fakeRemote) PushChanges(ctx context.Context, batch []models.SyncQueueEntry) (remote.PushResult, error) {
	f.mu.Lock()
	if f.failPush > 0 {
		f.failPush--
		f.mu.Unlock()
		return remote.PushResult{}, errNetwork
	}
	f.pushed = append(f.pushed, batch)
	var res remote.PushResult
	for _, e := range batch {
		r := remote.ChangeResult{ChangeID: e.ID, Success: true}
		if f.rejectIDs[e.ID] {
			r.Success = false
			r.Error = "rejected"
		}
		res.Results = append(res.Results, r)
	}
	hook := f.onPush
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return res, nil
}

func (f *fakeRemote) PullSnapshot(ctx context.Context) (models.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pullCalls++
	if f.failPull > 0 {
		f.failPull--
		return models.Snapshot{}, errNetwork
	}
	return f.snapshot.Clone(), nil
}

func (f *fakeRemote) PushSnapshot(ctx context.Context, snap models.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = snap.Clone()
	return nil
}

func (f *fakeRemote) setSnapshot(snap models.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = snap.Clone()
}

// newTestEngine wires a store, fake remote, and engine with a pinned clock and
// near-zero retry delay.
func newTestEngine(t *testing.T, opts Options) (*Engine, *board.Store, *fakeRemote) {
	t.Helper()
	n := 0
	reducer := &board.Reducer{
		Now: func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%03d", n)
		},
	}
	store := board.NewStore(reducer, nil)
	rem := &fakeRemote{}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = time.Millisecond
	}
	eng := NewEngine(store, rem, opts)
	m := 0
	eng.newID = func() string {
		m++
		return fmt.Sprintf("sync-%03d", m)
	}
	return eng, store, rem
}

func TestSyncPushesQueueAndAcceptsSnapshot(t *testing.T) {
	eng, store, rem := newTestEngine(t, Options{})

	store.Dispatch(board.CreateList{Title: "Todo"})
	local := store.Current()

	// The remote applied the change and now serves the same entities.
	rem.setSnapshot(models.Snapshot{Lists: local.Lists})

	if err := eng.SyncNow(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	state := store.Current()
	if len(state.SyncQueue) != 0 {
		t.Errorf("queue: got %d entries, want 0", len(state.SyncQueue))
	}
	if len(state.Lists) != 1 || state.Lists[0].Title != "Todo" {
		t.Errorf("lists: got %+v", state.Lists)
	}
	if state.LastSyncedAt.IsZero() {
		t.Error("last synced should be recorded")
	}
	if len(rem.pushed) != 1 || len(rem.pushed[0]) != 1 {
		t.Errorf("pushed batches: got %+v", rem.pushed)
	}

	st := eng.Status()
	if st.Pending != 0 || st.LastError != "" {
		t.Errorf("status: got %+v", st)
	}
}

func TestRejectedChangesStayQueued(t *testing.T) {
	eng, store, rem := newTestEngine(t, Options{})

	store.Dispatch(board.CreateList{Title: "a"})
	store.Dispatch(board.CreateList{Title: "b"})
	queue := store.QueueSnapshot()
	rem.rejectIDs = map[string]bool{queue[1].ID: true}

	if err := eng.SyncNow(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	remaining := store.QueueSnapshot()
	if len(remaining) != 1 {
		t.Fatalf("remaining: got %d, want 1", len(remaining))
	}
	if remaining[0].ID != queue[1].ID {
		t.Errorf("survivor: got %q, want the rejected entry %q", remaining[0].ID, queue[1].ID)
	}

	// With work still queued the remote snapshot must not be accepted.
	if got := len(store.Current().Lists); got != 2 {
		t.Errorf("lists: got %d, want 2 (local state untouched)", got)
	}
}

func TestStaleRemoteLocalWins(t *testing.T) {
	eng, store, rem := newTestEngine(t, Options{})

	// Local already carries a newer version than what the remote serves.
	store.AcceptSnapshot(models.Snapshot{
		Lists: []models.List{{ID: "l1", Title: "Todo", Version: 1}},
		Cards: []models.Card{{ID: "c1", ListID: "l1", Title: "local edit", Version: 3}},
	}, time.Now())

	rem.setSnapshot(models.Snapshot{
		Lists: []models.List{{ID: "l1", Title: "Todo", Version: 1}},
		Cards: []models.Card{{ID: "c1", ListID: "l1", Title: "stale remote", Version: 2}},
	})

	if err := eng.SyncNow(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	state := store.Current()
	if len(state.Conflicts) != 0 {
		t.Fatalf("conflicts: got %d, want 0", len(state.Conflicts))
	}
	c := state.Cards[state.FindCard("c1")]
	if c.Title != "local edit" || c.Version != 3 {
		t.Errorf("card: got %+v, want the local copy to win silently", c)
	}
}

func TestBookkeepingOnlyDifferenceAcceptsRemote(t *testing.T) {
	eng, store, rem := newTestEngine(t, Options{})

	store.AcceptSnapshot(models.Snapshot{
		Cards: []models.Card{{ID: "c1", ListID: "l1", Title: "same", Version: 3}},
		Lists: []models.List{{ID: "l1", Title: "Todo", Version: 1}},
	}, time.Now())

	rem.setSnapshot(models.Snapshot{
		Cards: []models.Card{{ID: "c1", ListID: "l1", Title: "same", Version: 5}},
		Lists: []models.List{{ID: "l1", Title: "Todo", Version: 1}},
	})

	if err := eng.SyncNow(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	state := store.Current()
	if len(state.Conflicts) != 0 {
		t.Fatalf("conflicts: got %d, want 0", len(state.Conflicts))
	}
	c := state.Cards[state.FindCard("c1")]
	if c.Version != 5 {
		t.Errorf("version: got %d, want the remote bookkeeping (5)", c.Version)
	}
}

func TestConflictDetectionAndDedup(t *testing.T) {
	eng, store, rem := newTestEngine(t, Options{})

	store.AcceptSnapshot(models.Snapshot{
		Lists: []models.List{{ID: "l1", Title: "Todo", Version: 1}},
		Cards: []models.Card{{ID: "c1", ListID: "l1", Title: "local title", Version: 3}},
	}, time.Now())

	rem.setSnapshot(models.Snapshot{
		Lists: []models.List{{ID: "l1", Title: "Todo", Version: 1}},
		Cards: []models.Card{{ID: "c1", ListID: "l1", Title: "remote title", Version: 5}},
	})

	if err := eng.SyncNow(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	state := store.Current()
	if len(state.Conflicts) != 1 {
		t.Fatalf("conflicts: got %d, want 1", len(state.Conflicts))
	}
	cf := state.Conflicts[0]
	if cf.ItemID != "c1" || cf.Type != models.EntityCard {
		t.Errorf("conflict: got %+v", cf)
	}
	if cf.RemoteVersion != 5 {
		t.Errorf("remote version at detection: got %d, want 5", cf.RemoteVersion)
	}
	if cf.LocalCard.Title != "local title" || cf.RemoteCard.Title != "remote title" {
		t.Errorf("conflict copies: local=%q remote=%q", cf.LocalCard.Title, cf.RemoteCard.Title)
	}

	// The local entity stays untouched while the conflict is open.
	c := state.Cards[state.FindCard("c1")]
	if c.Title != "local title" || c.Version != 3 {
		t.Errorf("card: got %+v, want local copy preserved", c)
	}

	// A second cycle re-detects but must not duplicate the open conflict.
	if err := eng.SyncNow(context.Background()); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if got := len(store.Current().Conflicts); got != 1 {
		t.Errorf("conflicts after re-detection: got %d, want 1", got)
	}
}

func TestAutoMergeDisjointEdits(t *testing.T) {
	eng, store, rem := newTestEngine(t, Options{AutoMerge: true})

	base := models.Snapshot{
		Lists: []models.List{{ID: "l1", Title: "Todo", Version: 1}},
		Cards: []models.Card{{ID: "c1", ListID: "l1", Title: "title", Description: "desc", Version: 1}},
	}
	rem.setSnapshot(base)

	// First cycle records the common ancestor.
	if err := eng.SyncNow(context.Background()); err != nil {
		t.Fatalf("baseline sync: %v", err)
	}

	// Local edits the title; remote edits the description.
	store.Dispatch(board.UpdateCard{CardID: "c1", Title: strPtr("local title")})
	remoteSnap := base.Clone()
	remoteSnap.Cards[0].Description = "remote desc"
	remoteSnap.Cards[0].Version = 3
	rem.setSnapshot(remoteSnap)

	if err := eng.SyncNow(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	state := store.Current()
	if len(state.Conflicts) != 0 {
		t.Fatalf("conflicts: got %d, want 0 (auto-merge should settle this)", len(state.Conflicts))
	}
	c := state.Cards[state.FindCard("c1")]
	if c.Title != "local title" || c.Description != "remote desc" {
		t.Errorf("merged card: got %+v", c)
	}
	if c.Version != 4 {
		t.Errorf("merged version: got %d, want max(2,3)+1=4", c.Version)
	}

	// The merge result is queued as an override so it propagates.
	queue := store.QueueSnapshot()
	if len(queue) != 1 || queue[0].Type != models.ChangeOverride {
		t.Fatalf("queue: got %+v, want one override entry", queue)
	}
	var data models.OverrideData
	if err := json.Unmarshal(queue[0].Data, &data); err != nil {
		t.Fatalf("decode override: %v", err)
	}
	if data.Card == nil || data.Card.Version != 4 {
		t.Errorf("override payload: got %+v", data)
	}
}

func TestAutoMergeFailureFallsBackToConflict(t *testing.T) {
	eng, store, rem := newTestEngine(t, Options{AutoMerge: true})

	base := models.Snapshot{
		Lists: []models.List{{ID: "l1", Title: "Todo", Version: 1}},
		Cards: []models.Card{{ID: "c1", ListID: "l1", Title: "title", Version: 1}},
	}
	rem.setSnapshot(base)
	if err := eng.SyncNow(context.Background()); err != nil {
		t.Fatalf("baseline sync: %v", err)
	}

	// Both sides edit the same field.
	store.Dispatch(board.UpdateCard{CardID: "c1", Title: strPtr("local title")})
	remoteSnap := base.Clone()
	remoteSnap.Cards[0].Title = "remote title"
	remoteSnap.Cards[0].Version = 3
	rem.setSnapshot(remoteSnap)

	if err := eng.SyncNow(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if got := len(store.Current().Conflicts); got != 1 {
		t.Errorf("conflicts: got %d, want 1", got)
	}
}

func TestDeferredAcceptanceOnConcurrentEdit(t *testing.T) {
	eng, store, rem := newTestEngine(t, Options{})

	store.Dispatch(board.CreateList{Title: "Todo"})
	local := store.Current()
	rem.setSnapshot(models.Snapshot{Lists: local.Lists})

	// A user edit lands while the push round trip is in flight.
	rem.onPush = func() {
		store.Dispatch(board.CreateList{Title: "typed during sync"})
	}

	if err := eng.SyncNow(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	state := store.Current()
	// The concurrent edit must survive: the remote snapshot (which does not
	// contain it) is not accepted while its queue entry is pending.
	found := false
	for _, l := range state.Lists {
		if l.Title == "typed during sync" {
			found = true
		}
	}
	if !found {
		t.Fatal("concurrent edit was reverted by snapshot acceptance")
	}
	if len(state.SyncQueue) != 1 {
		t.Errorf("queue: got %d, want 1 (the concurrent edit)", len(state.SyncQueue))
	}
	if state.LastSyncedAt.IsZero() {
		t.Error("cycle bookkeeping should still be recorded")
	}
}

func TestRetryRecoversFromTransientFailure(t *testing.T) {
	eng, store, rem := newTestEngine(t, Options{MaxRetries: 3})

	store.Dispatch(board.CreateList{Title: "Todo"})
	rem.failPush = 2
	rem.setSnapshot(models.Snapshot{Lists: store.Current().Lists})

	if err := eng.SyncNow(context.Background()); err != nil {
		t.Fatalf("sync should recover after retries: %v", err)
	}
	if got := eng.Status().LastError; got != "" {
		t.Errorf("last error should clear on success, got %q", got)
	}
}

func TestRetriesExhaustedPreservesQueue(t *testing.T) {
	eng, store, rem := newTestEngine(t, Options{MaxRetries: 2})

	store.Dispatch(board.CreateList{Title: "Todo"})
	rem.failPush = 100

	err := eng.SyncNow(context.Background())
	if !errors.Is(err, errNetwork) {
		t.Fatalf("want network error, got %v", err)
	}
	if got := len(store.QueueSnapshot()); got != 1 {
		t.Errorf("queue after failure: got %d, want 1 (survives verbatim)", got)
	}
	if eng.Status().LastError == "" {
		t.Error("last error should be recorded")
	}

	// 1 initial attempt + 2 retries.
	rem.mu.Lock()
	failsLeft := rem.failPush
	rem.mu.Unlock()
	if used := 100 - failsLeft; used != 3 {
		t.Errorf("attempts: got %d, want 3", used)
	}
}

func TestSyncSkippedWhileBusyOrOffline(t *testing.T) {
	eng, _, _ := newTestEngine(t, Options{})

	eng.mu.Lock()
	eng.busy = true
	eng.mu.Unlock()
	if err := eng.SyncNow(context.Background()); !errors.Is(err, ErrCycleSkipped) {
		t.Errorf("busy engine: got %v, want ErrCycleSkipped", err)
	}
	eng.mu.Lock()
	eng.busy = false
	eng.online = false
	eng.mu.Unlock()
	if err := eng.SyncNow(context.Background()); !errors.Is(err, ErrCycleSkipped) {
		t.Errorf("offline engine: got %v, want ErrCycleSkipped", err)
	}
}

func TestReconnectTriggersSync(t *testing.T) {
	eng, store, rem := newTestEngine(t, Options{})

	eng.SetOnline(context.Background(), false)
	store.Dispatch(board.CreateList{Title: "offline edit"})
	rem.setSnapshot(models.Snapshot{Lists: store.Current().Lists})

	eng.SetOnline(context.Background(), true)
	if got := len(store.QueueSnapshot()); got != 0 {
		t.Errorf("queue after reconnect: got %d, want 0", got)
	}
}

func TestResolveKeepLocal(t *testing.T) {
	eng, store, _ := newTestEngine(t, Options{})

	localCard := models.Card{ID: "c1", ListID: "l1", Title: "local", Version: 3}
	remoteCard := models.Card{ID: "c1", ListID: "l1", Title: "remote", Version: 5}
	store.AcceptSnapshot(models.Snapshot{
		Lists: []models.List{{ID: "l1", Title: "Todo", Version: 1}},
		Cards: []models.Card{localCard},
	}, time.Now())
	store.AddConflicts([]models.Conflict{{
		ID:            "cf1",
		ItemID:        "c1",
		Type:          models.EntityCard,
		LocalCard:     &localCard,
		RemoteCard:    &remoteCard,
		RemoteVersion: 5,
	}})

	if err := eng.Resolve("cf1", models.ResolutionLocal); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	state := store.Current()
	if len(state.Conflicts) != 0 {
		t.Error("conflict should be consumed")
	}
	c := state.Cards[state.FindCard("c1")]
	if c.Title != "local" {
		t.Errorf("card: got %q, want local content kept", c.Title)
	}

	queue := store.QueueSnapshot()
	if len(queue) != 1 || queue[0].Type != models.ChangeOverride {
		t.Fatalf("queue: got %+v, want one override", queue)
	}
	var data models.OverrideData
	if err := json.Unmarshal(queue[0].Data, &data); err != nil {
		t.Fatalf("decode override: %v", err)
	}
	if data.Card == nil || data.Card.Version != 6 {
		t.Errorf("override version: got %+v, want remote version at detection + 1 = 6", data.Card)
	}
	if data.Card.Title != "local" {
		t.Errorf("override content: got %q, want %q", data.Card.Title, "local")
	}
}

func TestResolveUseRemote(t *testing.T) {
	eng, store, _ := newTestEngine(t, Options{})

	localCard := models.Card{ID: "c1", ListID: "l1", Title: "local", Version: 3}
	remoteCard := models.Card{ID: "c1", ListID: "l1", Title: "remote", Version: 5}
	store.AcceptSnapshot(models.Snapshot{
		Lists: []models.List{{ID: "l1", Title: "Todo", Version: 1}},
		Cards: []models.Card{localCard},
	}, time.Now())
	store.AddConflicts([]models.Conflict{{
		ID:         "cf1",
		ItemID:     "c1",
		Type:       models.EntityCard,
		LocalCard:  &localCard,
		RemoteCard: &remoteCard,
	}})

	if err := eng.Resolve("cf1", models.ResolutionRemote); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	state := store.Current()
	c := state.Cards[state.FindCard("c1")]
	if c.Title != "remote" || c.Version != 5 {
		t.Errorf("card: got %+v, want the remote copy", c)
	}
	if got := len(store.QueueSnapshot()); got != 0 {
		t.Errorf("queue: got %d entries, want 0 (use-remote queues nothing)", got)
	}
}

func TestResolveUnknownConflict(t *testing.T) {
	eng, _, _ := newTestEngine(t, Options{})
	if err := eng.Resolve("ghost", models.ResolutionLocal); !errors.Is(err, ErrConflictNotFound) {
		t.Errorf("got %v, want ErrConflictNotFound", err)
	}
	if err := eng.Resolve("cf1", models.Resolution("maybe")); err == nil {
		t.Error("invalid resolution choice should error")
	}
}

func strPtr(s string) *string { return &s }
