package model

import "time"

// User represents an application user record as stored in the
// `users` table. The balance column is only ever written together with
// a transactions row.
//
// Fields:
//  ID           – UUID primary key.
//  Name         – family name.
//  Forname      – given name.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – USER, ADMIN or SUPERADMIN.
//  Balance      – current wallet balance.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           string    // users.id
	Name         string    // users.name
	Forname      string    // users.forname
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         Role      // users.role
	Balance      Money     // users.balance_cents
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation. The plain token is not stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        string     // refresh_tokens.id
	UserID    string     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
