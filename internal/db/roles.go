package db

import (
	"context"
	"database/sql"
	"errors"
)

// CreateRole inserts a new role.
func (d *DB) CreateRole(ctx context.Context, id, name, display string) error {
	if id == "" || name == "" {
		return errors.New("id and name are required")
	}
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO roles(id, name, display) VALUES(?, ?, ?)`, id, name, display)
	return err
}

// GetRoleByName looks up a role by its unique name.
func (d *DB) GetRoleByName(ctx context.Context, name string) (*Role, bool, error) {
	var r Role
	err := d.sql.QueryRowContext(ctx,
		`SELECT id, name, display FROM roles WHERE name=?`, name).
		Scan(&r.ID, &r.Name, &r.Display)
	if err == nil {
		return &r, true, nil
	}
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	return nil, false, err
}

// ListRoles returns all roles sorted by name.
func (d *DB) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT id, name, display FROM roles ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.Name, &r.Display); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AssignRole adds an account to a role. Assigning an already-held role is a
// no-op.
func (d *DB) AssignRole(ctx context.Context, accountID, roleID string) error {
	if accountID == "" || roleID == "" {
		return errors.New("account id and role id are required")
	}
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO account_roles(account_id, role_id) VALUES(?, ?)
ON CONFLICT(account_id, role_id) DO NOTHING
`, accountID, roleID)
	return err
}

// RevokeRole removes an account from a role.
func (d *DB) RevokeRole(ctx context.Context, accountID, roleID string) error {
	if accountID == "" || roleID == "" {
		return errors.New("account id and role id are required")
	}
	_, err := d.sql.ExecContext(ctx,
		`DELETE FROM account_roles WHERE account_id=? AND role_id=?`, accountID, roleID)
	return err
}

// ListRolesForAccount returns the roles assigned to an account.
func (d *DB) ListRolesForAccount(ctx context.Context, accountID string) ([]Role, error) {
	rows, err := d.sql.QueryContext(ctx, `
SELECT r.id, r.name, r.display
FROM roles r
JOIN account_roles ar ON ar.role_id = r.id
WHERE ar.account_id = ?
ORDER BY r.name ASC
`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.Name, &r.Display); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListAccountsWithRole returns all accounts holding the named role.
func (d *DB) ListAccountsWithRole(ctx context.Context, roleName string) ([]Account, error) {
	rows, err := d.sql.QueryContext(ctx, `
SELECT a.id, a.email, a.display, a.password_hash, a.created_at, a.updated_at
FROM accounts a
JOIN account_roles ar ON ar.account_id = a.id
JOIN roles r ON r.id = ar.role_id
WHERE r.name = ?
ORDER BY a.email ASC
`, roleName)
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
