package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PurgeExpiredPasswordResets deletes every expired reset row. All reset
// queries call it first so the table never grows unbounded without a
// background sweeper.
func (d *DB) PurgeExpiredPasswordResets(ctx context.Context) error {
	_, err := d.sql.ExecContext(ctx,
		`DELETE FROM password_resets WHERE expires_at < ?`, nowUnix())
	return err
}

// CreatePasswordReset inserts a reset request expiring after ttl.
func (d *DB) CreatePasswordReset(ctx context.Context, token, accountID string, ttl time.Duration) (*PasswordReset, error) {
	if token == "" || accountID == "" {
		return nil, errors.New("token and account id are required")
	}
	if err := d.PurgeExpiredPasswordResets(ctx); err != nil {
		return nil, err
	}
	r := &PasswordReset{
		Token:     token,
		AccountID: accountID,
		ExpiresAt: nowUnix() + int64(ttl.Seconds()),
	}
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO password_resets(token, account_id, expires_at) VALUES(?, ?, ?)
`, r.Token, r.AccountID, r.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetValidPasswordReset returns the unexpired reset request for token.
// Expiry and existence are filtered in the same query so a miss never
// distinguishes "expired" from "never existed".
func (d *DB) GetValidPasswordReset(ctx context.Context, token string) (*PasswordReset, bool, error) {
	if err := d.PurgeExpiredPasswordResets(ctx); err != nil {
		return nil, false, err
	}
	var r PasswordReset
	err := d.sql.QueryRowContext(ctx, `
SELECT token, account_id, expires_at
FROM password_resets WHERE token=? AND expires_at >= ?
`, token, nowUnix()).Scan(&r.Token, &r.AccountID, &r.ExpiresAt)
	if err == nil {
		return &r, true, nil
	}
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	return nil, false, err
}

// DeletePasswordReset consumes a reset request.
func (d *DB) DeletePasswordReset(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("token is required")
	}
	if _, err := d.sql.ExecContext(ctx,
		`DELETE FROM password_resets WHERE token=?`, token); err != nil {
		return err
	}
	return d.PurgeExpiredPasswordResets(ctx)
}

// CountPasswordResets returns the number of stored reset rows.
func (d *DB) CountPasswordResets(ctx context.Context) (int64, error) {
	var n int64
	err := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM password_resets`).Scan(&n)
	return n, err
}
