package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mindscribe/journal-api/internal/model"
)

// EntryRepo owns the `entries` table. Entries are append-only except
// for deletion by id; there is no update path. The streak side effect
// of a save is deliberately NOT triggered here; the session machine
// sequences Create and the streak tracker as two visible steps.
type EntryRepo struct{ DB *sql.DB }

func NewEntryRepo(db *sql.DB) *EntryRepo { return &EntryRepo{DB: db} }

// Create persists a new entry stamped with the given calendar day and
// returns its id. reflection may be empty, in which case the column
// stays NULL until generation succeeds on a later save.
func (r *EntryRepo) Create(ctx context.Context, userID uint64, day time.Time, content, mood, reflection string) (uint64, error) {
	refl := sql.NullString{String: reflection, Valid: reflection != ""}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO entries (user_id, entry_date, content, mood, reflection) VALUES (?,?,?,?,?)",
		userID, day.Format(time.DateOnly), content, mood, refl)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a single entry.
func (r *EntryRepo) GetByID(ctx context.Context, id uint64) (model.Entry, error) {
	var e model.Entry
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,entry_date,content,mood,reflection,created_at FROM entries WHERE id=? LIMIT 1",
		id).Scan(&e.ID, &e.UserID, &e.Date, &e.Content, &e.Mood, &e.Reflection, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrEntryNotFound
	}
	return e, err
}

// Delete removes an entry unconditionally. Ownership is checked by the
// caller; streak rows are never touched on delete.
func (r *EntryRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM entries WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// ListByUser returns all entries for a user, most recent day first.
func (r *EntryRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Entry, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,entry_date,content,mood,reflection,created_at FROM entries WHERE user_id=? ORDER BY entry_date DESC, id DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Entry
	for rows.Next() {
		var e model.Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Date, &e.Content, &e.Mood, &e.Reflection, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountByUser returns the number of entries a user has written.
func (r *EntryRepo) CountByUser(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM entries WHERE user_id=?", userID).Scan(&n)
	return n, err
}

// DatesByUser returns the entry days for a user in ascending order.
func (r *EntryRepo) DatesByUser(ctx context.Context, userID uint64) ([]time.Time, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT entry_date FROM entries WHERE user_id=? ORDER BY entry_date ASC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// LatestWithReflection returns the most recent entry carrying a
// generated reflection, used to redisplay the text after a re-render.
// ok is false when the user has no such entry.
func (r *EntryRepo) LatestWithReflection(ctx context.Context, userID uint64) (model.Entry, bool, error) {
	var e model.Entry
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,entry_date,content,mood,reflection,created_at FROM entries WHERE user_id=? AND reflection IS NOT NULL ORDER BY entry_date DESC, id DESC LIMIT 1",
		userID).Scan(&e.ID, &e.UserID, &e.Date, &e.Content, &e.Mood, &e.Reflection, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return e, false, nil
	}
	if err != nil {
		return e, false, err
	}
	return e, true, nil
}
