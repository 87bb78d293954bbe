package db

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies pending migrations in lexical filename order, each inside
// its own transaction. Applied migrations are recorded with a checksum; a
// migration file that changed after being applied aborts startup instead of
// letting the schema drift silently.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  name TEXT PRIMARY KEY,
  checksum TEXT NOT NULL,
  applied_at INTEGER NOT NULL
);
`); err != nil {
		return err
	}

	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := migrationsFS.ReadFile(name)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(body)
		checksum := hex.EncodeToString(sum[:])

		var applied string
		err = db.QueryRowContext(ctx,
			`SELECT checksum FROM schema_migrations WHERE name=?`, name).Scan(&applied)
		switch {
		case err == nil:
			if applied != checksum {
				return fmt.Errorf("migration %s changed after being applied", name)
			}
			continue
		case err != sql.ErrNoRows:
			return err
		}

		if err := applyMigration(ctx, db, name, checksum, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, name, checksum, body string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, body); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO schema_migrations(name, checksum, applied_at)
VALUES(?, ?, strftime('%s','now'))
`, name, checksum); err != nil {
		return err
	}
	return tx.Commit()
}
