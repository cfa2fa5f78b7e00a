// Package queue defines message payloads exchanged over the message broker.
package queue

// EntrySavedEvent is published after a journal entry has been saved
// and its streak update recorded. It carries enough information for
// downstream consumers to log or trigger notifications without
// querying the primary database. Entry content is deliberately
// excluded: journal text never leaves the primary store.
type EntrySavedEvent struct {
	EntryID   uint64 `json:"entry_id"`
	UserID    uint64 `json:"user_id"`
	Mood      string `json:"mood"`
	EntryDate string `json:"entry_date"`
	SavedAt   string `json:"saved_at"`
}
