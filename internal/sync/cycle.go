package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/a7medmo7amady/trello/internal/board"
	"github.com/a7medmo7amady/trello/internal/models"
)

// reconcileResult is the outcome of diffing a pulled remote snapshot against
// the local board.
type reconcileResult struct {
	// accepted is the remote snapshot adjusted for entities where local wins
	// silently (stale remote) or where an auto-merge succeeded. It is only
	// applied when the cycle found zero conflicts.
	accepted models.Snapshot
	// conflicts require a user decision.
	conflicts []models.Conflict
	// overrides are queue entries synthesized by successful auto-merges.
	overrides []models.SyncQueueEntry
	// mergedLists/mergedCards must replace their local copies even when the
	// snapshot acceptance is skipped.
	mergedLists []models.List
	mergedCards []models.Card
}

// cycle runs one push-pull-reconcile round. Any network error aborts the
// remainder of the cycle; the queue entries that failed remain queued
// verbatim, so a failed cycle is idempotent-safe.
func (e *Engine) cycle(ctx context.Context) error {
	// Snapshot the queue: the live queue may grow while the push is in
	// flight and must not be mutated behind the network call's back.
	batch := e.store.QueueSnapshot()

	if len(batch) > 0 {
		res, err := e.remote.PushChanges(ctx, batch)
		if err != nil {
			return fmt.Errorf("push changes: %w", err)
		}
		var acked []string
		for _, r := range res.Results {
			if r.Success {
				acked = append(acked, r.ChangeID)
			} else {
				slog.Debug("change rejected", "id", r.ChangeID, "reason", r.Error)
			}
		}
		// Removal is by entry ID, never by position.
		e.store.RemoveQueueEntries(acked)
	}

	snap, err := e.remote.PullSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("pull snapshot: %w", err)
	}

	// Re-read local state after the round trips, not before.
	local := e.store.Current()
	res := e.reconcile(local, snap)
	now := e.now()

	for _, l := range res.mergedLists {
		e.store.ReplaceList(l)
	}
	for _, c := range res.mergedCards {
		e.store.ReplaceCard(c)
	}
	for _, entry := range res.overrides {
		e.store.Enqueue(entry)
	}

	if len(res.conflicts) > 0 {
		added := e.store.AddConflicts(res.conflicts)
		// The open conflicts block convergence of those entities, not the
		// cycle's bookkeeping.
		e.store.SetLastSynced(now)
		slog.Debug("sync cycle found conflicts", "detected", len(res.conflicts), "added", added)
		return nil
	}

	// Accept the remote snapshot wholesale only if no unacknowledged local
	// work exists at this moment: edits dispatched during the round trip are
	// still queued and a blanket overwrite would silently revert them.
	if pending := e.store.QueueSnapshot(); len(pending) > 0 {
		e.store.SetLastSynced(now)
		slog.Debug("sync cycle deferred acceptance", "pending", len(pending))
		return nil
	}

	e.store.AcceptSnapshot(res.accepted, now)
	e.rememberBase(snap)
	slog.Debug("sync cycle accepted snapshot", "lists", len(res.accepted.Lists), "cards", len(res.accepted.Cards))
	return nil
}

// reconcile diffs the remote snapshot against local state entity by entity.
// Only entities present on both sides can conflict; one-sided entities
// converge through the bulk-replace policy.
func (e *Engine) reconcile(local board.State, snap models.Snapshot) reconcileResult {
	res := reconcileResult{accepted: snap.Clone()}
	now := e.now()

	for i := range res.accepted.Lists {
		rl := res.accepted.Lists[i]
		li := local.FindList(rl.ID)
		if li < 0 {
			continue
		}
		ll := local.Lists[li]
		if rl.Version <= ll.Version {
			// Stale remote: local wins silently.
			res.accepted.Lists[i] = ll
			continue
		}
		if ll.ContentEqual(rl) {
			// Only bookkeeping moved; accept the remote copy, no conflict.
			continue
		}
		if e.opts.AutoMerge {
			if base, ok := e.baseList(rl.ID); ok {
				if merged, ok := mergeLists(base, ll, rl, now); ok {
					res.accepted.Lists[i] = merged
					res.mergedLists = append(res.mergedLists, merged)
					res.overrides = append(res.overrides, e.overrideEntry(models.OverrideData{
						EntityType: models.EntityList,
						List:       &merged,
					}))
					continue
				}
			}
		}
		localCopy, remoteCopy := ll, rl
		res.conflicts = append(res.conflicts, models.Conflict{
			ID:            e.newID(),
			ItemID:        rl.ID,
			Type:          models.EntityList,
			LocalList:     &localCopy,
			RemoteList:    &remoteCopy,
			RemoteVersion: rl.Version,
			DetectedAt:    now,
		})
	}

	for i := range res.accepted.Cards {
		rc := res.accepted.Cards[i]
		ci := local.FindCard(rc.ID)
		if ci < 0 {
			continue
		}
		lc := local.Cards[ci]
		if rc.Version <= lc.Version {
			res.accepted.Cards[i] = lc.Clone()
			continue
		}
		if lc.ContentEqual(rc) {
			continue
		}
		if e.opts.AutoMerge {
			if base, ok := e.baseCard(rc.ID); ok {
				if merged, ok := mergeCards(base, lc, rc, now); ok {
					res.accepted.Cards[i] = merged.Clone()
					res.mergedCards = append(res.mergedCards, merged)
					mergedCopy := merged.Clone()
					res.overrides = append(res.overrides, e.overrideEntry(models.OverrideData{
						EntityType: models.EntityCard,
						Card:       &mergedCopy,
					}))
					continue
				}
			}
		}
		localCopy, remoteCopy := lc.Clone(), rc.Clone()
		res.conflicts = append(res.conflicts, models.Conflict{
			ID:            e.newID(),
			ItemID:        rc.ID,
			Type:          models.EntityCard,
			LocalCard:     &localCopy,
			RemoteCard:    &remoteCopy,
			RemoteVersion: rc.Version,
			DetectedAt:    now,
		})
	}

	return res
}

func (e *Engine) overrideEntry(data models.OverrideData) models.SyncQueueEntry {
	return models.SyncQueueEntry{
		ID:        e.newID(),
		Type:      models.ChangeOverride,
		Data:      models.MustMarshal(data),
		Timestamp: e.now(),
	}
}
