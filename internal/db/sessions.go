package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// CreateSession inserts a new session token with expiration.
func (d *DB) CreateSession(ctx context.Context, token, accountID string, ttl time.Duration) error {
	if token == "" || accountID == "" {
		return errors.New("invalid session")
	}
	now := nowUnix()
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO sessions(token, account_id, created_at, expires_at)
VALUES(?, ?, ?, ?)
`, token, accountID, now, now+int64(ttl.Seconds()))
	return err
}

// GetSession looks up an unexpired session by token.
func (d *DB) GetSession(ctx context.Context, token string) (*Session, bool, error) {
	var s Session
	err := d.sql.QueryRowContext(ctx, `
SELECT token, account_id, created_at, expires_at
FROM sessions WHERE token=? AND expires_at > ?
`, token, nowUnix()).Scan(&s.Token, &s.AccountID, &s.CreatedAt, &s.ExpiresAt)
	if err == nil {
		return &s, true, nil
	}
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	return nil, false, err
}

// DeleteSession removes a session by token.
func (d *DB) DeleteSession(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("token is required")
	}
	_, err := d.sql.ExecContext(ctx, `DELETE FROM sessions WHERE token=?`, token)
	return err
}

// DeleteSessionsForAccount removes every session belonging to an account.
// Called after a password change to force re-authentication.
func (d *DB) DeleteSessionsForAccount(ctx context.Context, accountID string) error {
	if accountID == "" {
		return errors.New("account id is required")
	}
	_, err := d.sql.ExecContext(ctx, `DELETE FROM sessions WHERE account_id=?`, accountID)
	return err
}

// DeleteExpiredSessions deletes sessions that have expired and returns how
// many rows were removed.
func (d *DB) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := d.sql.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, nowUnix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
