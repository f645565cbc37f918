package sync

import (
	"time"

	"github.com/a7medmo7amady/trello/internal/models"
)

// Three-way merge: for each content field, a side that still matches the
// common ancestor yields to the other side; agreement wins outright; anything
// else is irreconcilable and fails the whole entity merge. Version and
// LastModifiedAt are excluded from comparison and recomputed on success, so a
// successful merge never drops a legitimate field-level change from either
// side.

func mergeString(base, local, remote string) (string, bool) {
	switch {
	case local == remote:
		return local, true
	case local == base:
		return remote, true
	case remote == base:
		return local, true
	}
	return "", false
}

func mergeInt(base, local, remote int) (int, bool) {
	switch {
	case local == remote:
		return local, true
	case local == base:
		return remote, true
	case remote == base:
		return local, true
	}
	return 0, false
}

func mergeBool(base, local, remote bool) (bool, bool) {
	switch {
	case local == remote:
		return local, true
	case local == base:
		return remote, true
	case remote == base:
		return local, true
	}
	return false, false
}

func tagsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mergeTags(base, local, remote []string) ([]string, bool) {
	switch {
	case tagsEqual(local, remote):
		return local, true
	case tagsEqual(local, base):
		return remote, true
	case tagsEqual(remote, base):
		return local, true
	}
	return nil, false
}

// mergeLists attempts a field-by-field auto-merge of one list. Returns false
// when any field diverged on both sides.
func mergeLists(base, local, remote models.List, now time.Time) (models.List, bool) {
	out := models.List{ID: local.ID}
	var ok bool
	if out.Title, ok = mergeString(base.Title, local.Title, remote.Title); !ok {
		return models.List{}, false
	}
	if out.Order, ok = mergeInt(base.Order, local.Order, remote.Order); !ok {
		return models.List{}, false
	}
	if out.Archived, ok = mergeBool(base.Archived, local.Archived, remote.Archived); !ok {
		return models.List{}, false
	}
	out.Version = max(local.Version, remote.Version) + 1
	out.LastModifiedAt = now
	return out, true
}

// mergeCards attempts a field-by-field auto-merge of one card.
func mergeCards(base, local, remote models.Card, now time.Time) (models.Card, bool) {
	out := models.Card{ID: local.ID}
	var ok bool
	if out.ListID, ok = mergeString(base.ListID, local.ListID, remote.ListID); !ok {
		return models.Card{}, false
	}
	if out.Title, ok = mergeString(base.Title, local.Title, remote.Title); !ok {
		return models.Card{}, false
	}
	if out.Description, ok = mergeString(base.Description, local.Description, remote.Description); !ok {
		return models.Card{}, false
	}
	if out.Order, ok = mergeInt(base.Order, local.Order, remote.Order); !ok {
		return models.Card{}, false
	}
	if out.Tags, ok = mergeTags(base.Tags, local.Tags, remote.Tags); !ok {
		return models.Card{}, false
	}
	out.Tags = append([]string(nil), out.Tags...)
	out.Version = max(local.Version, remote.Version) + 1
	out.LastModifiedAt = now
	return out, true
}
