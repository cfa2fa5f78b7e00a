package model

import (
	"database/sql"
	"time"
)

// Moods form the fixed set of labels a journal entry can carry. The
// values are stored verbatim in entries.mood.
const (
	MoodHappy   = "Happy"
	MoodSad     = "Sad"
	MoodAnxious = "Anxious"
	MoodNeutral = "Neutral"
	MoodExcited = "Excited"
)

var moods = map[string]bool{
	MoodHappy:   true,
	MoodSad:     true,
	MoodAnxious: true,
	MoodNeutral: true,
	MoodExcited: true,
}

// ValidMood reports whether s is one of the recognised mood labels.
func ValidMood(s string) bool { return moods[s] }

// Entry represents a journal entry as stored in the `entries` table.
// An entry belongs to exactly one user, is stamped with the calendar
// day it was written on, and is immutable once saved except for
// deletion by id. The reflection column stays NULL until the generated
// companion text has been attached.
//
// Fields:
//  ID         – primary key identifier of the entry.
//  UserID     – owning user.
//  Date       – calendar day the entry was written (DATE column).
//  Content    – free-text body of the entry.
//  Mood       – one of the fixed mood labels.
//  Reflection – generated companion text (nullable).
//  CreatedAt  – timestamp of creation.
type Entry struct {
	ID         uint64         // entries.id
	UserID     uint64         // entries.user_id
	Date       time.Time      // entries.entry_date
	Content    string         // entries.content
	Mood       string         // entries.mood
	Reflection sql.NullString // entries.reflection (nullable)
	CreatedAt  time.Time      // entries.created_at
}
