// Package db defines persistence models and query helpers for stashd.
package db

// Account represents a registered account. PasswordHash is never serialized
// outward; only the db and auth packages ever see it.
type Account struct {
	ID           string
	Email        string
	Display      string
	PasswordHash string
	CreatedAt    int64
	UpdatedAt    int64
}

// Role defines a named capability that can be assigned to accounts.
// Presence of the "directory" role gates all storage access.
type Role struct {
	ID      string
	Name    string
	Display string
}

// PasswordReset is a single-use, time-limited password reset request.
// Expired rows are purged lazily on every table access.
type PasswordReset struct {
	Token     string
	AccountID string
	ExpiresAt int64
}

// Session maps an opaque token to an account for its lifetime.
type Session struct {
	Token     string
	AccountID string
	CreatedAt int64
	ExpiresAt int64
}
