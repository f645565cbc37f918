// Package history implements snapshot-based linear undo/redo over the
// mutable slice of board state (lists and cards). It knows nothing about the
// sync queue or conflict set: those reflect a causally-ordered negotiation
// with the remote and must not be time-traveled.
package history

import "github.com/a7medmo7amady/trello/internal/models"

// DefaultCapacity bounds the snapshot ring.
const DefaultCapacity = 50

// Snapshot is a deep copy of the undoable slice of board state.
type Snapshot struct {
	Lists []models.List
	Cards []models.Card
}

// Capture deep-copies lists and cards into a snapshot.
func Capture(lists []models.List, cards []models.Card) Snapshot {
	snap := Snapshot{
		Lists: append([]models.List(nil), lists...),
		Cards: make([]models.Card, len(cards)),
	}
	for i, c := range cards {
		snap.Cards[i] = c.Clone()
	}
	return snap
}

// clone returns an independent copy so callers cannot alias ring storage.
func (s Snapshot) clone() Snapshot {
	return Capture(s.Lists, s.Cards)
}

// Stack is a bounded snapshot ring with a cursor. The snapshot at the cursor
// is the current state; entries before it are undo targets, entries after it
// redo targets.
type Stack struct {
	snaps    []Snapshot
	index    int
	capacity int
}

// New creates a stack holding at most capacity snapshots. Non-positive
// capacities fall back to DefaultCapacity.
func New(capacity int) *Stack {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Stack{index: -1, capacity: capacity}
}

// Push records a new snapshot, truncating any redo branch. When the ring is
// full the oldest snapshot is evicted.
func (s *Stack) Push(snap Snapshot) {
	if s.index < len(s.snaps)-1 {
		s.snaps = s.snaps[:s.index+1]
	}
	s.snaps = append(s.snaps, snap.clone())
	if len(s.snaps) > s.capacity {
		s.snaps = s.snaps[1:]
	}
	s.index = len(s.snaps) - 1
}

// CanUndo reports whether an older snapshot exists.
func (s *Stack) CanUndo() bool {
	return s.index > 0
}

// CanRedo reports whether a newer snapshot exists.
func (s *Stack) CanRedo() bool {
	return s.index >= 0 && s.index < len(s.snaps)-1
}

// Undo moves the cursor back one step and returns that snapshot.
func (s *Stack) Undo() (Snapshot, bool) {
	if !s.CanUndo() {
		return Snapshot{}, false
	}
	s.index--
	return s.snaps[s.index].clone(), true
}

// Redo moves the cursor forward one step and returns that snapshot.
func (s *Stack) Redo() (Snapshot, bool) {
	if !s.CanRedo() {
		return Snapshot{}, false
	}
	s.index++
	return s.snaps[s.index].clone(), true
}

// Len returns the number of stored snapshots.
func (s *Stack) Len() int {
	return len(s.snaps)
}

// Index returns the cursor position.
func (s *Stack) Index() int {
	return s.index
}
