package models

import (
	"time"
)

// EntryState is the lifecycle state of a journal entry
type EntryState string

const (
	EntryStateActive          EntryState = "active"
	EntryStateRecentlyDeleted EntryState = "recently_deleted"
	EntryStateHidden          EntryState = "hidden"
)

// Valid reports whether the state is one of the three canonical values
func (s EntryState) Valid() bool {
	switch s {
	case EntryStateActive, EntryStateRecentlyDeleted, EntryStateHidden:
		return true
	}
	return false
}

// EntryType classifies an entry; immutable after creation
type EntryType string

const (
	EntryTypeJournal     EntryType = "journal"
	EntryTypeMemory      EntryType = "memory"
	EntryTypeMindfulness EntryType = "mindfulness"
)

// Valid reports whether the type is a known classification
func (t EntryType) Valid() bool {
	switch t {
	case EntryTypeJournal, EntryTypeMemory, EntryTypeMindfulness:
		return true
	}
	return false
}

// AIAnalysis is the cached result of external content analysis.
// The core never produces this itself, it only stores what the
// analysis service hands back.
type AIAnalysis struct {
	Topics        []string `json:"topics"`
	Sentiment     string   `json:"sentiment"`
	Insights      []string `json:"insights"`
	SuggestedTags []string `json:"suggestedTags,omitempty"`
}

// JournalEntry is a single journal entry with its lifecycle metadata
type JournalEntry struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Content    string      `json:"content"`
	Type       EntryType   `json:"type"`
	Mood       string      `json:"mood,omitempty"`
	Tags       []string    `json:"tags"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
	DeletedAt  *time.Time  `json:"deletedAt,omitempty"`
	State      EntryState  `json:"state,omitempty"`
	AIAnalysis *AIAnalysis `json:"aiAnalysis,omitempty"`

	// LegacyHidden is the old boolean flag that predates the three-state
	// lifecycle. It is consumed (and cleared) by Normalize on load.
	LegacyHidden *bool `json:"hidden,omitempty"`
}

// Clone returns a deep copy so callers can never mutate registry state in place
func (e JournalEntry) Clone() JournalEntry {
	out := e
	out.Tags = append([]string(nil), e.Tags...)
	if e.DeletedAt != nil {
		t := *e.DeletedAt
		out.DeletedAt = &t
	}
	if e.LegacyHidden != nil {
		b := *e.LegacyHidden
		out.LegacyHidden = &b
	}
	if e.AIAnalysis != nil {
		a := *e.AIAnalysis
		a.Topics = append([]string(nil), e.AIAnalysis.Topics...)
		a.Insights = append([]string(nil), e.AIAnalysis.Insights...)
		a.SuggestedTags = append([]string(nil), e.AIAnalysis.SuggestedTags...)
		out.AIAnalysis = &a
	}
	return out
}

// Normalize upgrades an entry loaded from disk to the canonical three-state
// model and reports whether anything had to change:
//   - missing or unrecognized state becomes active, unless the legacy
//     boolean hidden flag was set, which maps to hidden
//   - a recently_deleted entry without deletedAt gets deletedAt=updatedAt
//     so the expiry sweep has something to measure against
//   - updatedAt is never allowed to precede createdAt
func (e *JournalEntry) Normalize() bool {
	changed := false

	if !e.State.Valid() {
		if e.LegacyHidden != nil && *e.LegacyHidden {
			e.State = EntryStateHidden
		} else {
			e.State = EntryStateActive
		}
		changed = true
	}

	if e.LegacyHidden != nil {
		e.LegacyHidden = nil
		changed = true
	}

	if !e.Type.Valid() {
		e.Type = EntryTypeJournal
		changed = true
	}

	if e.State == EntryStateRecentlyDeleted && e.DeletedAt == nil {
		t := e.UpdatedAt
		e.DeletedAt = &t
		changed = true
	}

	if e.UpdatedAt.Before(e.CreatedAt) {
		e.UpdatedAt = e.CreatedAt
		changed = true
	}

	return changed
}
