package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mindscribe/journal-api/internal/model"
	"github.com/mindscribe/journal-api/internal/utils"
)

// UserRepo is the credential store. It owns the `users` table and is
// the only component that touches password hashes. Passcode format is
// NOT validated here; the session machine is responsible for rejecting
// anything that is not 4 decimal digits before calling SetPasscode.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a new user with a bcrypt-hashed password and returns
// its id. The handle is normalized (trimmed, lower-cased) before the
// uniqueness check applies.
func (r *UserRepo) Create(ctx context.Context, handle, password string, cost int) (uint64, error) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (handle, password_hash) VALUES (?,?)",
		handle, hash)
	if err != nil {
		// 1062 = MySQL duplicate key
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrHandleExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Authenticate verifies a handle/password pair and returns the user id
// on success. Unknown handles and wrong passwords both yield
// ErrInvalidCredentials.
func (r *UserRepo) Authenticate(ctx context.Context, handle, password string) (uint64, error) {
	u, err := r.GetByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrInvalidCredentials
		}
		return 0, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return 0, ErrInvalidCredentials
	}
	return u.ID, nil
}

// GetByHandle fetches a user by normalized handle.
func (r *UserRepo) GetByHandle(ctx context.Context, handle string) (model.User, error) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,handle,password_hash,passcode,created_at,updated_at FROM users WHERE handle=? LIMIT 1",
		handle).Scan(&u.ID, &u.Handle, &u.PasswordHash, &u.Passcode, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,handle,password_hash,passcode,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Handle, &u.PasswordHash, &u.Passcode, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// SetPasscode overwrites the stored security key for a user.
func (r *UserRepo) SetPasscode(ctx context.Context, userID uint64, code string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET passcode=? WHERE id=?", code, userID)
	return err
}

// Passcode returns the stored security key for a user. ok is false
// when the user never set one.
func (r *UserRepo) Passcode(ctx context.Context, userID uint64) (string, bool, error) {
	var code sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT passcode FROM users WHERE id=? LIMIT 1", userID).Scan(&code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, ErrUserNotFound
		}
		return "", false, err
	}
	return code.String, code.Valid, nil
}
