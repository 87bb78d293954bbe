// Package storage implements the secure storage-access layer: resolving an
// attacker-controlled logical path into an authorized, canonicalized
// physical path for a given principal, and the file operations acting on the
// result.
//
// Every request walks the same terminal state machine:
//
//	role gate -> lexical normalize -> ownership gate -> physical resolve -> depth
//
// The ownership gate runs before any filesystem syscall, so an unauthorized
// probe can never distinguish existing from non-existing resources. A failed
// canonicalization, or a canonical result escaping the root, is reported as
// NotFound, never as a structural hint that the escape was valid.
package storage

import (
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"stashd/internal/httperr"
	"stashd/internal/session"
	"stashd/internal/validate"
)

// PublicRoot is the shared subtree readable and writable by every account
// holding the storage role.
const PublicRoot = ".public"

// Store is the handle to the storage tree. root is canonical and absolute.
type Store struct {
	root   string
	fs     afero.Fs
	logger *slog.Logger
}

// Open binds a Store to an existing storage root. The root is canonicalized
// once here; per-request resolution re-checks containment against it.
func Open(root string, logger *slog.Logger) (*Store, error) {
	clean, err := validate.RootPath(root)
	if err != nil {
		return nil, err
	}
	canonical, err := filepath.EvalSymlinks(clean)
	if err != nil {
		return nil, err
	}
	return &Store{root: canonical, fs: afero.NewOsFs(), logger: logger}, nil
}

// Root returns the canonical storage root.
func (s *Store) Root() string { return s.root }

// EnsureLayout creates the storage root and the public subtree if missing.
// Run at setup and again at server start.
func EnsureLayout(root string) error {
	clean, err := validate.RootPath(root)
	if err != nil {
		return err
	}
	fs := afero.NewOsFs()
	if err := fs.MkdirAll(clean, 0o750); err != nil {
		return err
	}
	return fs.MkdirAll(filepath.Join(clean, PublicRoot), 0o750)
}

// EnsureHome creates the home root for an account if missing.
func (s *Store) EnsureHome(accountID string) error {
	if err := validate.EntryName(accountID); err != nil {
		return err
	}
	return s.fs.MkdirAll(filepath.Join(s.root, accountID), 0o750)
}

// RemoveHome deletes an account's home tree. Used when an account is
// removed.
func (s *Store) RemoveHome(accountID string) error {
	if err := validate.EntryName(accountID); err != nil {
		return err
	}
	return s.fs.RemoveAll(filepath.Join(s.root, accountID))
}

// Resolve maps a logical request path to an authorized physical path for the
// principal. It is the only way to obtain a ResolvedPath.
func (s *Store) Resolve(p *session.Principal, logical string) (*ResolvedPath, error) {
	// Role gate.
	if p == nil || !p.HasRole(session.RoleDirectory) {
		return nil, httperr.Forbidden()
	}

	// Lexical normalize: pure string work, no filesystem contact. Backslashes
	// are treated as separators so they cannot smuggle segments on any
	// platform.
	cleaned := normalizeLogical(logical)
	segments := splitSegments(cleaned)

	// Ownership gate: the first segment names the tree. Runs before any
	// syscall.
	if len(segments) == 0 || (segments[0] != PublicRoot && segments[0] != p.ID) {
		s.logger.Info("forbidden storage path", "principal", p.ID, "path", logical)
		return nil, httperr.Forbidden()
	}

	// Physical resolve: canonicalization both requires the path to exist and
	// flattens symlinks, so the containment check below sees the real target.
	candidate := filepath.Join(s.root, filepath.FromSlash(cleaned))
	canonical, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return nil, httperr.NotFound().WithCause(err)
	}
	if !isWithin(s.root, canonical) {
		return nil, httperr.NotFound()
	}

	return &ResolvedPath{
		store:   s,
		logical: cleaned,
		phys:    canonical,
		depth:   len(segments) - 1,
	}, nil
}

// normalizeLogical cleans a slash-separated logical path, resolving "." and
// ".." segments lexically and stripping leading separators.
func normalizeLogical(logical string) string {
	p := strings.ReplaceAll(logical, `\`, "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

func splitSegments(cleaned string) []string {
	if cleaned == "" {
		return nil
	}
	return strings.Split(cleaned, "/")
}

// isWithin reports whether candidate equals root or is a descendant of it.
// Both arguments must already be clean.
func isWithin(root, candidate string) bool {
	if root == candidate {
		return true
	}
	sep := string(filepath.Separator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(candidate, root)
}

// statIsDir is a small helper tolerating a vanished path.
func (s *Store) statIsDir(phys string) bool {
	info, err := s.fs.Stat(phys)
	return err == nil && info.IsDir()
}
