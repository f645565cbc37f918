// Package board holds the local board state and the pure reducer that applies
// user intents to it. Every mutating action bumps the touched entity's version
// and appends a replayable delta to the sync queue.
package board

import (
	"sort"
	"time"

	"github.com/a7medmo7amady/trello/internal/models"
)

// State is the full client-side picture: the board itself, the queue of
// unacknowledged local mutations, and any open conflicts. Values of State are
// treated as immutable; the reducer returns fresh copies.
type State struct {
	Lists        []models.List           `json:"lists"`
	Cards        []models.Card           `json:"cards"`
	SyncQueue    []models.SyncQueueEntry `json:"sync_queue"`
	Conflicts    []models.Conflict       `json:"conflicts"`
	LastSyncedAt time.Time               `json:"last_synced_at"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := State{LastSyncedAt: s.LastSyncedAt}
	out.Lists = append([]models.List(nil), s.Lists...)
	out.Cards = make([]models.Card, len(s.Cards))
	for i, c := range s.Cards {
		out.Cards[i] = c.Clone()
	}
	out.SyncQueue = make([]models.SyncQueueEntry, len(s.SyncQueue))
	for i, e := range s.SyncQueue {
		out.SyncQueue[i] = e
		out.SyncQueue[i].Data = append([]byte(nil), e.Data...)
	}
	out.Conflicts = append([]models.Conflict(nil), s.Conflicts...)
	return out
}

// FindList returns the index of a list by ID, or -1.
func (s State) FindList(id string) int {
	for i := range s.Lists {
		if s.Lists[i].ID == id {
			return i
		}
	}
	return -1
}

// FindCard returns the index of a card by ID, or -1.
func (s State) FindCard(id string) int {
	for i := range s.Cards {
		if s.Cards[i].ID == id {
			return i
		}
	}
	return -1
}

// FindConflict returns the index of an open conflict for the given entity, or -1.
func (s State) FindConflict(itemID string) int {
	for i := range s.Conflicts {
		if s.Conflicts[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

// CardsInList returns indexes into s.Cards for cards in the given list,
// ordered by Order with ties broken by original array position.
func (s State) CardsInList(listID string) []int {
	var idx []int
	for i := range s.Cards {
		if s.Cards[i].ListID == listID {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return s.Cards[idx[a]].Order < s.Cards[idx[b]].Order
	})
	return idx
}

// nextListOrder returns max existing list order + 1, or 0 for an empty board.
func (s State) nextListOrder() int {
	if len(s.Lists) == 0 {
		return 0
	}
	max := s.Lists[0].Order
	for _, l := range s.Lists[1:] {
		if l.Order > max {
			max = l.Order
		}
	}
	return max + 1
}

// nextCardOrder returns max existing card order + 1 within a list, or 0.
func (s State) nextCardOrder(listID string) int {
	found := false
	max := 0
	for _, c := range s.Cards {
		if c.ListID != listID {
			continue
		}
		if !found || c.Order > max {
			max = c.Order
			found = true
		}
	}
	if !found {
		return 0
	}
	return max + 1
}

// SortedLists returns the lists ordered for display, archived ones excluded
// unless includeArchived is set.
func (s State) SortedLists(includeArchived bool) []models.List {
	out := make([]models.List, 0, len(s.Lists))
	for _, l := range s.Lists {
		if l.Archived && !includeArchived {
			continue
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Order < out[b].Order })
	return out
}
