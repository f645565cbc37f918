package board

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/a7medmo7amady/trello/internal/history"
	"github.com/a7medmo7amady/trello/internal/models"
	"github.com/a7medmo7amady/trello/internal/storage"
)

// StateKey is the blob-store key the board state persists under.
const StateKey = "board.json"

// Store is the composition root for client state: it owns the current State,
// the undo history, and best-effort persistence. All mutation funnels through
// it under one mutex, so writers are serialized and readers always see a
// consistent copy. The sync engine never holds state across a network round
// trip; it re-reads through these accessors at the point of use.
type Store struct {
	mu      sync.Mutex
	state   State
	reducer *Reducer
	hist    *history.Stack
	blob    storage.Blob
}

// NewStore builds a store, loading any persisted state from blob (which may
// be nil for ephemeral use). The loaded (or empty) state seeds the history so
// the first user action is undoable back to it.
func NewStore(reducer *Reducer, blob storage.Blob) *Store {
	st := &Store{
		reducer: reducer,
		hist:    history.New(history.DefaultCapacity),
		blob:    blob,
	}
	if blob != nil {
		data, err := blob.Get(StateKey)
		switch {
		case err != nil:
			slog.Warn("load persisted state", "err", err)
		case data != nil:
			var loaded State
			if err := json.Unmarshal(data, &loaded); err != nil {
				slog.Warn("decode persisted state", "err", err)
			} else {
				st.state = loaded
			}
		}
	}
	st.hist.Push(history.Capture(st.state.Lists, st.state.Cards))
	return st
}

// persist writes the current state out. Storage trouble degrades to a log
// line; board mutation never blocks on persistence succeeding.
func (st *Store) persist() {
	if st.blob == nil {
		return
	}
	data, err := json.Marshal(st.state)
	if err != nil {
		slog.Warn("encode state", "err", err)
		return
	}
	if err := st.blob.Set(StateKey, data); err != nil {
		slog.Warn("persist state", "err", err)
	}
}

// Dispatch applies a user action through the reducer. Each applied action
// yields exactly one undoable step; refused actions yield none.
func (st *Store) Dispatch(action Action) State {
	st.mu.Lock()
	defer st.mu.Unlock()
	next := st.reducer.Apply(st.state, action)
	// Every applied user action queues a delta, so an unchanged queue length
	// means the reducer refused the action. Recording a history snapshot for
	// it would burn an undo step on a visible no-op.
	if len(next.SyncQueue) == len(st.state.SyncQueue) {
		return st.state.Clone()
	}
	st.state = next
	st.hist.Push(history.Capture(st.state.Lists, st.state.Cards))
	st.persist()
	return st.state.Clone()
}

// Current returns a deep copy of the latest state.
func (st *Store) Current() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state.Clone()
}

// Undo restores the previous history snapshot. The sync queue and conflicts
// are left alone. Returns false when there is nothing to undo.
func (st *Store) Undo() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	snap, ok := st.hist.Undo()
	if !ok {
		return false
	}
	st.state.Lists = snap.Lists
	st.state.Cards = snap.Cards
	st.persist()
	return true
}

// Redo restores the next history snapshot, if any.
func (st *Store) Redo() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	snap, ok := st.hist.Redo()
	if !ok {
		return false
	}
	st.state.Lists = snap.Lists
	st.state.Cards = snap.Cards
	st.persist()
	return true
}

// CanUndo reports whether an undo step exists.
func (st *Store) CanUndo() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.hist.CanUndo()
}

// CanRedo reports whether a redo step exists.
func (st *Store) CanRedo() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.hist.CanRedo()
}

// QueueSnapshot returns a copy of the live sync queue.
func (st *Store) QueueSnapshot() []models.SyncQueueEntry {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]models.SyncQueueEntry, len(st.state.SyncQueue))
	for i, e := range st.state.SyncQueue {
		out[i] = e
		out[i].Data = append([]byte(nil), e.Data...)
	}
	return out
}

// RemoveQueueEntries drops acknowledged entries from the live queue by their
// own IDs, never by position: the queue may have grown while a push was in
// flight.
func (st *Store) RemoveQueueEntries(ids []string) {
	if len(ids) == 0 {
		return
	}
	acked := make(map[string]bool, len(ids))
	for _, id := range ids {
		acked[id] = true
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	kept := st.state.SyncQueue[:0]
	for _, e := range st.state.SyncQueue {
		if !acked[e.ID] {
			kept = append(kept, e)
		}
	}
	st.state.SyncQueue = kept
	st.persist()
}

// Enqueue appends a queue entry directly (used for forced overrides).
func (st *Store) Enqueue(entry models.SyncQueueEntry) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.state.SyncQueue = append(st.state.SyncQueue, entry)
	st.persist()
}

// AcceptSnapshot bulk-replaces lists and cards with the remote snapshot and
// records the sync time. Queue and conflicts are untouched.
func (st *Store) AcceptSnapshot(snap models.Snapshot, at time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.state = st.reducer.Apply(st.state, BulkReplace{Snapshot: snap})
	st.state.LastSyncedAt = at
	st.persist()
}

// SetLastSynced records cycle bookkeeping without touching entity state.
func (st *Store) SetLastSynced(at time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.state.LastSyncedAt = at
	st.persist()
}

// AddConflicts appends detected conflicts, deduplicated by ItemID: a second
// open conflict for the same entity is dropped. Returns how many were added.
func (st *Store) AddConflicts(conflicts []models.Conflict) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	added := 0
	for _, c := range conflicts {
		if st.state.FindConflict(c.ItemID) >= 0 {
			continue
		}
		st.state.Conflicts = append(st.state.Conflicts, c)
		added++
	}
	if added > 0 {
		st.persist()
	}
	return added
}

// TakeConflict removes and returns the conflict with the given ID.
func (st *Store) TakeConflict(id string) (models.Conflict, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i, c := range st.state.Conflicts {
		if c.ID == id || c.ItemID == id {
			st.state.Conflicts = append(st.state.Conflicts[:i], st.state.Conflicts[i+1:]...)
			st.persist()
			return c, true
		}
	}
	return models.Conflict{}, false
}

// ReplaceList swaps a list wholesale by ID without touching versions or the
// queue (used by use-remote conflict resolution).
func (st *Store) ReplaceList(list models.List) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if i := st.state.FindList(list.ID); i >= 0 {
		st.state.Lists[i] = list
		st.persist()
	}
}

// ReplaceCard swaps a card wholesale by ID, same contract as ReplaceList.
func (st *Store) ReplaceCard(card models.Card) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if i := st.state.FindCard(card.ID); i >= 0 {
		st.state.Cards[i] = card.Clone()
		st.persist()
	}
}
