// Package remote defines the contract the sync engine consumes to reach the
// remote board store, plus the HTTP client implementation of it. The remote
// is a black box reached through request/response calls; every call may fail
// transiently and callers treat failure as retryable.
package remote

import (
	"context"

	"github.com/a7medmo7amady/trello/internal/models"
)

// ChangeResult is the remote's verdict on a single pushed queue entry.
// Partial success within a batch is expected and normal.
type ChangeResult struct {
	ChangeID string `json:"change_id"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// PushResult pairs the per-entry verdicts with the remote snapshot after the
// batch was applied.
type PushResult struct {
	Results  []ChangeResult  `json:"results"`
	Snapshot models.Snapshot `json:"snapshot"`
}

// Store is the remote board store.
type Store interface {
	// PullSnapshot fetches the remote's current copy of the whole board.
	PullSnapshot(ctx context.Context) (models.Snapshot, error)
	// PushChanges replays a batch of queue entries. Each entry succeeds or
	// fails independently.
	PushChanges(ctx context.Context, batch []models.SyncQueueEntry) (PushResult, error)
	// PushSnapshot unconditionally overwrites the remote board. Used only
	// for bootstrap/seed.
	PushSnapshot(ctx context.Context, snap models.Snapshot) error
}
