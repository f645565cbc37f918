package board

import (
	"time"

	"github.com/google/uuid"

	"github.com/a7medmo7amady/trello/internal/models"
)

// Reducer applies actions to board state. It is pure: no I/O, no hidden
// inputs. Time and ID generation are injected so tests can pin them.
type Reducer struct {
	Now   func() time.Time
	NewID func() string
}

// NewReducer returns a reducer backed by the wall clock and random UUIDs.
func NewReducer() *Reducer {
	return &Reducer{Now: time.Now, NewID: uuid.NewString}
}

// Apply computes the next state for an action. The input state is never
// mutated. Actions referencing nonexistent entities return the input state
// unchanged.
func (r *Reducer) Apply(s State, action Action) State {
	switch a := action.(type) {
	case CreateList:
		return r.createList(s, a)
	case RenameList:
		return r.renameList(s, a)
	case ArchiveList:
		return r.setArchived(s, a.ListID, true)
	case RestoreList:
		return r.setArchived(s, a.ListID, false)
	case DeleteList:
		return r.deleteList(s, a)
	case CreateCard:
		return r.createCard(s, a)
	case UpdateCard:
		return r.updateCard(s, a)
	case DeleteCard:
		return r.deleteCard(s, a)
	case MoveCard:
		return r.moveCard(s, a)
	case BulkReplace:
		return r.bulkReplace(s, a)
	default:
		return s
	}
}

func (r *Reducer) enqueue(s *State, t models.ChangeType, payload any) {
	s.SyncQueue = append(s.SyncQueue, models.SyncQueueEntry{
		ID:        r.NewID(),
		Type:      t,
		Data:      models.MustMarshal(payload),
		Timestamp: r.Now(),
	})
}

func (r *Reducer) createList(s State, a CreateList) State {
	next := s.Clone()
	list := models.List{
		ID:             r.NewID(),
		Title:          a.Title,
		Order:          next.nextListOrder(),
		Version:        1,
		LastModifiedAt: r.Now(),
	}
	next.Lists = append(next.Lists, list)
	r.enqueue(&next, models.ChangeListCreate, models.ListCreateData{List: list})
	return next
}

func (r *Reducer) renameList(s State, a RenameList) State {
	i := s.FindList(a.ListID)
	if i < 0 {
		return s
	}
	next := s.Clone()
	list := &next.Lists[i]
	list.Title = a.Title
	list.Touch(r.Now())
	r.enqueue(&next, models.ChangeListRename, models.ListRenameData{
		ListID:  list.ID,
		Title:   list.Title,
		Version: list.Version,
	})
	return next
}

func (r *Reducer) setArchived(s State, listID string, archived bool) State {
	i := s.FindList(listID)
	if i < 0 || s.Lists[i].Archived == archived {
		return s
	}
	next := s.Clone()
	list := &next.Lists[i]
	list.Archived = archived
	list.Touch(r.Now())
	t := models.ChangeListArchive
	if !archived {
		t = models.ChangeListRestore
	}
	r.enqueue(&next, t, models.ListArchiveData{
		ListID:   list.ID,
		Archived: archived,
		Version:  list.Version,
	})
	return next
}

func (r *Reducer) deleteList(s State, a DeleteList) State {
	i := s.FindList(a.ListID)
	if i < 0 {
		return s
	}
	next := s.Clone()
	next.Lists = append(next.Lists[:i], next.Lists[i+1:]...)
	// Cascade: never leave cards pointing at a missing list.
	kept := next.Cards[:0]
	for _, c := range next.Cards {
		if c.ListID != a.ListID {
			kept = append(kept, c)
		}
	}
	next.Cards = kept
	r.enqueue(&next, models.ChangeListDelete, models.ListDeleteData{ListID: a.ListID})
	return next
}

func (r *Reducer) createCard(s State, a CreateCard) State {
	if s.FindList(a.ListID) < 0 {
		return s
	}
	next := s.Clone()
	card := models.Card{
		ID:             r.NewID(),
		ListID:         a.ListID,
		Title:          a.Title,
		Description:    a.Description,
		Tags:           models.NormalizeTags(a.Tags),
		Order:          next.nextCardOrder(a.ListID),
		Version:        1,
		LastModifiedAt: r.Now(),
	}
	next.Cards = append(next.Cards, card)
	r.enqueue(&next, models.ChangeCardCreate, models.CardCreateData{Card: card.Clone()})
	return next
}

func (r *Reducer) updateCard(s State, a UpdateCard) State {
	i := s.FindCard(a.CardID)
	if i < 0 {
		return s
	}
	next := s.Clone()
	card := &next.Cards[i]
	delta := models.CardUpdateData{CardID: card.ID}
	if a.Title != nil {
		card.Title = *a.Title
		delta.Title = a.Title
	}
	if a.Description != nil {
		card.Description = *a.Description
		delta.Description = a.Description
	}
	if a.Tags != nil {
		tags := models.NormalizeTags(*a.Tags)
		card.Tags = tags
		if tags == nil {
			// A cleared tag set must stay distinguishable from an untouched
			// field on the wire: nil marshals as "tags": null, which the
			// remote decodes back into no pointer at all.
			tags = []string{}
		}
		delta.Tags = &tags
	}
	card.Touch(r.Now())
	delta.Version = card.Version
	r.enqueue(&next, models.ChangeCardUpdate, delta)
	return next
}

func (r *Reducer) deleteCard(s State, a DeleteCard) State {
	i := s.FindCard(a.CardID)
	if i < 0 {
		return s
	}
	next := s.Clone()
	next.Cards = append(next.Cards[:i], next.Cards[i+1:]...)
	r.enqueue(&next, models.ChangeCardDelete, models.CardDeleteData{CardID: a.CardID})
	return next
}

func (r *Reducer) moveCard(s State, a MoveCard) State {
	ci := s.FindCard(a.CardID)
	if ci < 0 || s.FindList(a.TargetListID) < 0 {
		return s
	}
	next := s.Clone()
	card := &next.Cards[ci]
	source := card.ListID
	card.ListID = a.TargetListID

	// Destination siblings in display order, moved card excluded.
	var siblings []int
	for _, si := range next.CardsInList(a.TargetListID) {
		if si != ci {
			siblings = append(siblings, si)
		}
	}
	idx := len(siblings)
	if a.TargetIndex != nil {
		idx = *a.TargetIndex
		if idx < 0 {
			idx = 0
		}
		if idx > len(siblings) {
			idx = len(siblings)
		}
	}

	// Renumber the destination list stably with the card at idx. Orders are
	// reassigned contiguously; sibling versions stay put because the same
	// deterministic renumbering replays on the remote.
	o := 0
	for pos := 0; pos <= len(siblings); pos++ {
		if pos == idx {
			card.Order = o
			o++
		}
		if pos < len(siblings) {
			next.Cards[siblings[pos]].Order = o
			o++
		}
	}

	card.Touch(r.Now())
	r.enqueue(&next, models.ChangeCardMove, models.CardMoveData{
		CardID:       card.ID,
		SourceListID: source,
		TargetListID: a.TargetListID,
		TargetIndex:  a.TargetIndex,
		Order:        card.Order,
		Version:      card.Version,
	})
	return next
}

func (r *Reducer) bulkReplace(s State, a BulkReplace) State {
	next := s.Clone()
	snap := a.Snapshot.Clone()
	next.Lists = snap.Lists
	next.Cards = snap.Cards
	return next
}
