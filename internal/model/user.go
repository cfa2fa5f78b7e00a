package model

import (
	"database/sql"
	"time"
)

// User represents an account record as stored in the `users` table.
// The handle is the login identifier (email or username) and is kept
// lower-cased and trimmed by the repository layer. The passcode is an
// optional secondary 4-digit gate applied after primary authentication;
// it stays NULL until the user chooses to set one.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Handle       – unique login identifier.
//  PasswordHash – bcrypt hashed password.
//  Passcode     – optional 4-digit security key (nullable).
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64         // users.id
	Handle       string         // users.handle
	PasswordHash string         // users.password_hash
	Passcode     sql.NullString // users.passcode (nullable)
	CreatedAt    time.Time      // users.created_at
	UpdatedAt    time.Time      // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user and carries metadata for expiry and
// revocation. The plain token is never stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
