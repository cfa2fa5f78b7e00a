package model

import "database/sql"

// StreakRecord mirrors the `streaks` table: one row per user holding
// the current consecutive-day count and the day of the last counted
// entry. LastEntryDate is NULL exactly when StreakCount is zero; the
// row is mutated only by the streak tracker, once per entry save.
type StreakRecord struct {
	UserID        uint64       // streaks.user_id (primary key)
	StreakCount   int          // streaks.streak_count
	LastEntryDate sql.NullTime // streaks.last_entry_date (nullable)
}
