package sync

import (
	"testing"
	"time"

	"github.com/a7medmo7amady/trello/internal/models"
)

var mergeNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMergeString(t *testing.T) {
	tests := []struct {
		name                string
		base, local, remote string
		want                string
		ok                  bool
	}{
		{"no change", "a", "a", "a", "a", true},
		{"local changed", "a", "b", "a", "b", true},
		{"remote changed", "a", "a", "c", "c", true},
		{"both changed same", "a", "b", "b", "b", true},
		{"both changed differently", "a", "b", "c", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := mergeString(tt.base, tt.local, tt.remote)
			if ok != tt.ok || got != tt.want {
				t.Errorf("got (%q, %t), want (%q, %t)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestMergeCardsDisjointFields(t *testing.T) {
	base := models.Card{ID: "c1", ListID: "l1", Title: "title", Description: "desc", Order: 0, Version: 2}
	local := base.Clone()
	local.Title = "local title"
	local.Version = 3
	remote := base.Clone()
	remote.Description = "remote desc"
	remote.Order = 1
	remote.Version = 5

	merged, ok := mergeCards(base, local, remote, mergeNow)
	if !ok {
		t.Fatal("merge should succeed on disjoint field edits")
	}
	if merged.Title != "local title" {
		t.Errorf("title: got %q, want local edit", merged.Title)
	}
	if merged.Description != "remote desc" {
		t.Errorf("description: got %q, want remote edit", merged.Description)
	}
	if merged.Order != 1 {
		t.Errorf("order: got %d, want 1", merged.Order)
	}
	if merged.Version != 6 {
		t.Errorf("version: got %d, want max(3,5)+1=6", merged.Version)
	}
	if !merged.LastModifiedAt.Equal(mergeNow) {
		t.Errorf("last modified: got %v", merged.LastModifiedAt)
	}
}

func TestMergeCardsSameFieldConflict(t *testing.T) {
	base := models.Card{ID: "c1", ListID: "l1", Title: "title"}
	local := base.Clone()
	local.Title = "local"
	remote := base.Clone()
	remote.Title = "remote"

	if _, ok := mergeCards(base, local, remote, mergeNow); ok {
		t.Error("merge must fail when both sides edited the same field")
	}
}

func TestMergeCardsTags(t *testing.T) {
	base := models.Card{ID: "c1", ListID: "l1", Tags: []string{"bug"}}

	local := base.Clone()
	local.Tags = []string{"bug", "p1"}
	remote := base.Clone()
	remote.Description = "notes"

	merged, ok := mergeCards(base, local, remote, mergeNow)
	if !ok {
		t.Fatal("merge should succeed")
	}
	if len(merged.Tags) != 2 || merged.Tags[1] != "p1" {
		t.Errorf("tags: got %v, want local tags", merged.Tags)
	}

	// The merged tag slice must not alias either input.
	merged.Tags[0] = "scribbled"
	if local.Tags[0] != "bug" {
		t.Error("merged tags alias the local slice")
	}

	remote.Tags = []string{"feature"}
	if _, ok := mergeCards(base, local, remote, mergeNow); ok {
		t.Error("merge must fail when both sides changed tags differently")
	}
}

func TestMergeCardsCrossListMove(t *testing.T) {
	base := models.Card{ID: "c1", ListID: "l1", Title: "t"}
	local := base.Clone()
	local.ListID = "l2"
	remote := base.Clone()
	remote.Title = "renamed"

	merged, ok := mergeCards(base, local, remote, mergeNow)
	if !ok {
		t.Fatal("merge should succeed")
	}
	if merged.ListID != "l2" || merged.Title != "renamed" {
		t.Errorf("merged: got %+v", merged)
	}
}

func TestMergeLists(t *testing.T) {
	base := models.List{ID: "l1", Title: "Todo", Order: 0, Version: 1}
	local := base
	local.Title = "Backlog"
	local.Version = 2
	remote := base
	remote.Archived = true
	remote.Version = 3

	merged, ok := mergeLists(base, local, remote, mergeNow)
	if !ok {
		t.Fatal("merge should succeed")
	}
	if merged.Title != "Backlog" || !merged.Archived {
		t.Errorf("merged: got %+v", merged)
	}
	if merged.Version != 4 {
		t.Errorf("version: got %d, want 4", merged.Version)
	}

	remote.Title = "Remote Title"
	if _, ok := mergeLists(base, local, remote, mergeNow); ok {
		t.Error("merge must fail on a two-sided title edit")
	}
}
