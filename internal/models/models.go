// Package models defines the board entities (lists, cards), the sync queue
// entry and conflict shapes, and the structural-equality helpers the sync
// engine relies on.
package models

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// MaxTags is the maximum number of tags a card may carry.
const MaxTags = 10

var tagPattern = regexp.MustCompile(`^[a-z0-9-]{1,20}$`)

// List is a column on the board. Archived lists are hidden from the primary
// view but retained (with their cards) so they can be restored.
type List struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Order          int       `json:"order"`
	Archived       bool      `json:"archived"`
	Version        int       `json:"version"`
	LastModifiedAt time.Time `json:"last_modified_at"`
}

// Card is a single item within a list.
type Card struct {
	ID             string    `json:"id"`
	ListID         string    `json:"list_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	Order          int       `json:"order"`
	Version        int       `json:"version"`
	LastModifiedAt time.Time `json:"last_modified_at"`
}

// Touch stamps a mutation: bump the version counter and record the time.
func (l *List) Touch(now time.Time) {
	l.Version++
	l.LastModifiedAt = now
}

// Touch stamps a mutation: bump the version counter and record the time.
func (c *Card) Touch(now time.Time) {
	c.Version++
	c.LastModifiedAt = now
}

// Clone returns a deep copy of the card.
func (c Card) Clone() Card {
	out := c
	if c.Tags != nil {
		out.Tags = append([]string(nil), c.Tags...)
	}
	return out
}

// ContentEqual reports whether two lists carry the same content, ignoring the
// bookkeeping fields (Version, LastModifiedAt). The field list is explicit so
// the exclusion stays auditable.
func (l List) ContentEqual(other List) bool {
	return l.ID == other.ID &&
		l.Title == other.Title &&
		l.Order == other.Order &&
		l.Archived == other.Archived
}

// ContentEqual reports whether two cards carry the same content, ignoring the
// bookkeeping fields (Version, LastModifiedAt).
func (c Card) ContentEqual(other Card) bool {
	if c.ID != other.ID ||
		c.ListID != other.ListID ||
		c.Title != other.Title ||
		c.Description != other.Description ||
		c.Order != other.Order {
		return false
	}
	if len(c.Tags) != len(other.Tags) {
		return false
	}
	for i := range c.Tags {
		if c.Tags[i] != other.Tags[i] {
			return false
		}
	}
	return true
}

// NormalizeTags lowercases, trims, deduplicates and sorts tags, dropping
// anything that does not match the tag pattern. Past MaxTags distinct valid
// tags, the later arrivals are dropped, so adding an over-limit tag never
// evicts an existing one.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] || !tagPattern.MatchString(t) {
			continue
		}
		if len(out) == MaxTags {
			break
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

// ValidTag reports whether a single tag is acceptable as-is.
func ValidTag(tag string) bool {
	return tagPattern.MatchString(tag)
}

// Snapshot is the wire shape of the whole board as held by the remote store.
type Snapshot struct {
	Lists        []List    `json:"lists"`
	Cards        []Card    `json:"cards"`
	LastModified time.Time `json:"last_modified"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{LastModified: s.LastModified}
	out.Lists = append([]List(nil), s.Lists...)
	out.Cards = make([]Card, len(s.Cards))
	for i, c := range s.Cards {
		out.Cards[i] = c.Clone()
	}
	return out
}
