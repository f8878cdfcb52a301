package models

import "time"

// Notification is a toast payload pushed to UI subscribers
type Notification struct {
	ID        string        `json:"id"`
	Message   string        `json:"message"`
	Duration  time.Duration `json:"-"`
	ShowUndo  bool          `json:"showUndo,omitempty"`
	UndoToken string        `json:"undoToken,omitempty"`

	// DurationMS is the wire form of Duration (milliseconds, 0 = sticky)
	DurationMS int64 `json:"duration"`
}

// UndoHandle is returned by a soft delete. Invoking Undo with the token
// before ExpiresAt replays a restore; afterwards it is a silent no-op.
type UndoHandle struct {
	Token     string    `json:"undoToken"`
	EntryID   string    `json:"entryId"`
	ExpiresAt time.Time `json:"expiresAt"`
}
