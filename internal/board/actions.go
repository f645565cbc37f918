package board

import "github.com/a7medmo7amady/trello/internal/models"

// Action is a user intent applied by the reducer. The set of implementations
// is closed; the reducer switches exhaustively over it.
type Action interface {
	isAction()
}

// CreateList adds a new list at the end of the board.
type CreateList struct {
	Title string
}

// RenameList replaces a list's title.
type RenameList struct {
	ListID string
	Title  string
}

// ArchiveList soft-deletes a list. Its cards are retained.
type ArchiveList struct {
	ListID string
}

// RestoreList reverses an archive.
type RestoreList struct {
	ListID string
}

// DeleteList removes a list and cascades removal of its cards.
type DeleteList struct {
	ListID string
}

// CreateCard adds a new card at the end of a list.
type CreateCard struct {
	ListID      string
	Title       string
	Description string
	Tags        []string
}

// UpdateCard replaces only the provided card fields; nil means untouched.
type UpdateCard struct {
	CardID      string
	Title       *string
	Description *string
	Tags        *[]string
}

// DeleteCard removes a card.
type DeleteCard struct {
	CardID string
}

// MoveCard moves a card to TargetIndex within TargetListID. A nil index
// appends to the end of the destination list; out-of-range indexes are
// clamped.
type MoveCard struct {
	CardID       string
	TargetListID string
	TargetIndex  *int
}

// BulkReplace accepts an authoritative remote snapshot wholesale: no queue
// entries, no version stamping.
type BulkReplace struct {
	Snapshot models.Snapshot
}

func (CreateList) isAction()  {}
func (RenameList) isAction()  {}
func (ArchiveList) isAction() {}
func (RestoreList) isAction() {}
func (DeleteList) isAction()  {}
func (CreateCard) isAction()  {}
func (UpdateCard) isAction()  {}
func (DeleteCard) isAction()  {}
func (MoveCard) isAction()    {}
func (BulkReplace) isAction() {}
