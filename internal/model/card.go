// Package model defines the core data structures for leech processing.
package model

import (
	"slices"
	"strings"
	"time"
)

// CardState is the scheduling queue a card belongs to.
type CardState string

// Card states.
const (
	CardStateNew    CardState = "new"
	CardStateReview CardState = "review"
)

// DefaultEase is the ease factor, in permille, given to cards when they graduate.
const DefaultEase = 2500

// Card is a study record owned by the host collection.
type Card struct {
	Due       time.Time `json:"due,omitempty" yaml:"due,omitempty"`
	Deck      string    `json:"deck" yaml:"deck"`
	NoteType  string    `json:"note_type" yaml:"note_type"`
	State     CardState `json:"state" yaml:"state"`
	Tags      []string  `json:"tags" yaml:"tags"`
	ID        int64     `json:"id" yaml:"id"`
	NoteID    int64     `json:"note_id" yaml:"note_id"`
	Interval  int       `json:"interval" yaml:"interval"`
	Ease      int       `json:"ease" yaml:"ease"`
	Lapses    int       `json:"lapses" yaml:"lapses"`
	Suspended bool      `json:"suspended" yaml:"suspended"`
}

// HasTag reports whether the card's note carries tag. Tags compare exactly.
func (c Card) HasTag(tag string) bool {
	return slices.Contains(c.Tags, tag)
}

// ParseTags splits a host tag string ("  a b  c ") into sorted unique tags.
func ParseTags(s string) []string {
	fields := strings.Fields(s)
	slices.Sort(fields)
	return slices.Compact(fields)
}

// JoinTags renders tags in the host's space separated form, padded with a
// leading and trailing space so single tags can be searched with LIKE.
func JoinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	sorted := slices.Clone(tags)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	return " " + strings.Join(sorted, " ") + " "
}
