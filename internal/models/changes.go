package models

import (
	"encoding/json"
	"time"
)

// ChangeType identifies the kind of mutation a sync queue entry replays on
// the remote store.
type ChangeType string

const (
	ChangeListCreate  ChangeType = "list_create"
	ChangeListRename  ChangeType = "list_rename"
	ChangeListArchive ChangeType = "list_archive"
	ChangeListRestore ChangeType = "list_restore"
	ChangeListDelete  ChangeType = "list_delete"
	ChangeCardCreate  ChangeType = "card_create"
	ChangeCardUpdate  ChangeType = "card_update"
	ChangeCardDelete  ChangeType = "card_delete"
	ChangeCardMove    ChangeType = "card_move"
	// ChangeOverride is a forced overwrite queued by a keep-local conflict
	// resolution. Its payload carries the full entity at a version that
	// out-ranks the remote copy seen at detection time.
	ChangeOverride ChangeType = "override"
)

// IsValidChangeType checks if a change type is known.
func IsValidChangeType(t ChangeType) bool {
	switch t {
	case ChangeListCreate, ChangeListRename, ChangeListArchive, ChangeListRestore,
		ChangeListDelete, ChangeCardCreate, ChangeCardUpdate, ChangeCardDelete,
		ChangeCardMove, ChangeOverride:
		return true
	}
	return false
}

// SyncQueueEntry is one not-yet-acknowledged local mutation. Entries are
// appended in program order, never reordered, and removed only when the
// remote confirms acceptance.
type SyncQueueEntry struct {
	ID        string          `json:"id"`
	Type      ChangeType      `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// ListCreateData is the delta payload for a list creation.
type ListCreateData struct {
	List List `json:"list"`
}

// ListRenameData carries only the changed field plus the list ID.
type ListRenameData struct {
	ListID  string `json:"list_id"`
	Title   string `json:"title"`
	Version int    `json:"version"`
}

// ListArchiveData is shared by archive and restore deltas so the remote can
// apply domain-specific side effects rather than a generic field update.
type ListArchiveData struct {
	ListID   string `json:"list_id"`
	Archived bool   `json:"archived"`
	Version  int    `json:"version"`
}

// ListDeleteData is the delta payload for a list deletion (cards cascade).
type ListDeleteData struct {
	ListID string `json:"list_id"`
}

// CardCreateData is the delta payload for a card creation.
type CardCreateData struct {
	Card Card `json:"card"`
}

// CardUpdateData carries the changed card fields plus the card ID. Nil
// pointers mean "field untouched".
type CardUpdateData struct {
	CardID      string    `json:"card_id"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Version     int       `json:"version"`
}

// CardDeleteData is the delta payload for a card deletion.
type CardDeleteData struct {
	CardID string `json:"card_id"`
}

// CardMoveData replays a cross-list move or same-list reorder. A nil
// TargetIndex means append to the end of the destination list.
type CardMoveData struct {
	CardID       string `json:"card_id"`
	SourceListID string `json:"source_list_id"`
	TargetListID string `json:"target_list_id"`
	TargetIndex  *int   `json:"target_index,omitempty"`
	Order        int    `json:"order"`
	Version      int    `json:"version"`
}

// OverrideData carries a full entity for a forced overwrite. Exactly one of
// List or Card is set, matching EntityType.
type OverrideData struct {
	EntityType EntityType `json:"entity_type"`
	List       *List      `json:"list,omitempty"`
	Card       *Card      `json:"card,omitempty"`
}

// MustMarshal marshals a delta payload, panicking on failure. Delta types are
// plain structs so marshaling cannot fail at runtime.
func MustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
