// Package streak derives the consecutive-day writing counter from
// entry save events. The counting rule itself is a pure function so it
// can be tested without storage; Tracker binds it to the streaks table.
package streak

import "time"

// Record is the in-memory form of a user's streak row. LastEntry is
// the zero time exactly when Count is zero.
type Record struct {
	Count     int
	LastEntry time.Time
}

// Advance returns the streak record that results from saving an entry
// on day, given the previous record (nil when the user has never saved
// one). Rules:
//
//	no previous record        -> count 1
//	same day as last entry    -> unchanged (repeat saves don't count)
//	exactly one day later     -> count + 1
//	gap of two or more days   -> reset to 1
//	day earlier than last     -> reset to 1 (backdating restarts the run)
//
// Days are compared at UTC midnight; time-of-day never matters.
func Advance(prev *Record, day time.Time) Record {
	day = Midnight(day)
	if prev == nil || prev.Count == 0 {
		return Record{Count: 1, LastEntry: day}
	}
	last := Midnight(prev.LastEntry)
	switch gap := int(day.Sub(last) / (24 * time.Hour)); {
	case gap == 0:
		return Record{Count: prev.Count, LastEntry: last}
	case gap == 1:
		return Record{Count: prev.Count + 1, LastEntry: day}
	default:
		return Record{Count: 1, LastEntry: day}
	}
}

// Midnight truncates t to its UTC calendar day.
func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
