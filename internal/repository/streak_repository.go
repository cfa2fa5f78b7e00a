package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mindscribe/journal-api/internal/model"
)

// StreakRepo owns the `streaks` table: one row per user. The row is
// written only by the streak tracker.
type StreakRepo struct{ DB *sql.DB }

func NewStreakRepo(db *sql.DB) *StreakRepo { return &StreakRepo{DB: db} }

// Get returns the streak row for a user. found is false when the user
// has never saved an entry.
func (r *StreakRepo) Get(ctx context.Context, userID uint64) (model.StreakRecord, bool, error) {
	rec := model.StreakRecord{UserID: userID}
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id,streak_count,last_entry_date FROM streaks WHERE user_id=? LIMIT 1",
		userID).Scan(&rec.UserID, &rec.StreakCount, &rec.LastEntryDate)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, err
	}
	return rec, true, nil
}

// Upsert writes the streak row for a user, inserting it on first save.
func (r *StreakRepo) Upsert(ctx context.Context, userID uint64, count int, lastEntry time.Time) error {
	day := lastEntry.Format(time.DateOnly)
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO streaks (user_id, streak_count, last_entry_date) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE streak_count=VALUES(streak_count), last_entry_date=VALUES(last_entry_date)`,
		userID, count, day)
	return err
}
