package streak

import (
	"context"
	"time"

	"github.com/mindscribe/journal-api/internal/repository"
)

// Tracker applies Advance to the persisted streak row. It is invoked
// exactly once per successful entry save and never on delete, so the
// counter is write-only with respect to removals.
type Tracker struct {
	Streaks *repository.StreakRepo
}

func NewTracker(s *repository.StreakRepo) *Tracker { return &Tracker{Streaks: s} }

// Record updates the user's streak for an entry saved on day.
func (t *Tracker) Record(ctx context.Context, userID uint64, day time.Time) error {
	row, found, err := t.Streaks.Get(ctx, userID)
	if err != nil {
		return err
	}
	var prev *Record
	if found && row.StreakCount > 0 && row.LastEntryDate.Valid {
		prev = &Record{Count: row.StreakCount, LastEntry: row.LastEntryDate.Time}
	}
	next := Advance(prev, day)
	return t.Streaks.Upsert(ctx, userID, next.Count, next.LastEntry)
}
