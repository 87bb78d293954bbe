package db

import (
	"context"
	"database/sql"
	"errors"
)

// CreateAccount inserts a new account row.
func (d *DB) CreateAccount(ctx context.Context, id, email, display, passwordHash string) error {
	if id == "" || email == "" || passwordHash == "" {
		return errors.New("id, email, and password hash are required")
	}
	now := nowUnix()
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO accounts(id, email, display, password_hash, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?)
`, id, email, display, passwordHash, now, now)
	return err
}

// GetAccountByID looks up an account by its id.
// The boolean indicates whether the account exists.
func (d *DB) GetAccountByID(ctx context.Context, id string) (*Account, bool, error) {
	return d.getAccount(ctx, `
SELECT id, email, display, password_hash, created_at, updated_at
FROM accounts WHERE id=?
`, id)
}

// GetAccountByEmail looks up an account by email.
func (d *DB) GetAccountByEmail(ctx context.Context, email string) (*Account, bool, error) {
	return d.getAccount(ctx, `
SELECT id, email, display, password_hash, created_at, updated_at
FROM accounts WHERE email=?
`, email)
}

func (d *DB) getAccount(ctx context.Context, query string, arg any) (*Account, bool, error) {
	var a Account
	err := d.sql.QueryRowContext(ctx, query, arg).
		Scan(&a.ID, &a.Email, &a.Display, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err == nil {
		return &a, true, nil
	}
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	return nil, false, err
}

// ListAccounts returns all accounts sorted by email.
func (d *DB) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := d.sql.QueryContext(ctx, `
SELECT id, email, display, password_hash, created_at, updated_at
FROM accounts ORDER BY email ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Email, &a.Display, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetAccountPasswordHash updates an account's password hash.
func (d *DB) SetAccountPasswordHash(ctx context.Context, id, passwordHash string) error {
	if id == "" {
		return errors.New("invalid account id")
	}
	if passwordHash == "" {
		return errors.New("password hash is required")
	}
	_, err := d.sql.ExecContext(ctx,
		`UPDATE accounts SET password_hash=?, updated_at=? WHERE id=?`,
		passwordHash, nowUnix(), id)
	return err
}

// SetAccountDisplay updates an account's display name.
func (d *DB) SetAccountDisplay(ctx context.Context, id, display string) error {
	if id == "" {
		return errors.New("invalid account id")
	}
	_, err := d.sql.ExecContext(ctx,
		`UPDATE accounts SET display=?, updated_at=? WHERE id=?`,
		display, nowUnix(), id)
	return err
}

// DeleteAccount removes an account. Role assignments, reset requests, and
// nothing else cascade; the home directory tree is the caller's concern.
func (d *DB) DeleteAccount(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("invalid account id")
	}
	_, err := d.sql.ExecContext(ctx, `DELETE FROM accounts WHERE id=?`, id)
	return err
}
