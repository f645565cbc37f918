package models

import "time"

// EntityType distinguishes lists from cards in conflicts and overrides.
type EntityType string

const (
	EntityList EntityType = "list"
	EntityCard EntityType = "card"
)

// Conflict is a detected divergence between the local and remote copies of
// one entity, pending a user decision. At most one open conflict exists per
// ItemID.
type Conflict struct {
	ID     string     `json:"id"`
	ItemID string     `json:"item_id"`
	Type   EntityType `json:"type"`

	LocalList  *List `json:"local_list,omitempty"`
	RemoteList *List `json:"remote_list,omitempty"`
	LocalCard  *Card `json:"local_card,omitempty"`
	RemoteCard *Card `json:"remote_card,omitempty"`

	// RemoteVersion is the remote entity's version at detection time; a
	// keep-local resolution queues an override at RemoteVersion+1.
	RemoteVersion int       `json:"remote_version"`
	DetectedAt    time.Time `json:"detected_at"`
}

// Resolution is a user's choice for settling a conflict.
type Resolution string

const (
	ResolutionLocal  Resolution = "local"
	ResolutionRemote Resolution = "remote"
)

// IsValidResolution checks if a resolution choice is valid.
func IsValidResolution(r Resolution) bool {
	return r == ResolutionLocal || r == ResolutionRemote
}
