package storage

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"stashd/internal/httperr"
	"stashd/internal/logging"
	"stashd/internal/session"
)

func newTestStore(t *testing.T) (*Store, *session.Principal) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "storage")
	require.NoError(t, EnsureLayout(root))
	s, err := Open(root, logging.Discard())
	require.NoError(t, err)
	p := &session.Principal{ID: "alice", Roles: []string{session.RoleDirectory}}
	require.NoError(t, s.EnsureHome(p.ID))
	return s, p
}

// TestResolveRequiresRole verifies that a session without the storage role is
// rejected before any path interpretation happens.
func TestResolveRequiresRole(t *testing.T) {
	s, _ := newTestStore(t)
	p := &session.Principal{ID: "alice"}
	_, err := s.Resolve(p, "alice")
	require.Equal(t, http.StatusForbidden, httperr.Status(err))
	_, err = s.Resolve(nil, "alice")
	require.Equal(t, http.StatusForbidden, httperr.Status(err))
}

// TestResolveOwnership checks the ownership gate: only the principal's own
// home and the public tree are reachable, and the answer does not depend on
// whether the probed path exists.
func TestResolveOwnership(t *testing.T) {
	s, p := newTestStore(t)
	require.NoError(t, s.EnsureHome("bob"))

	if _, err := s.Resolve(p, "alice"); err != nil {
		t.Fatalf("own home: %v", err)
	}
	if _, err := s.Resolve(p, PublicRoot); err != nil {
		t.Fatalf("public root: %v", err)
	}

	for _, logical := range []string{
		"bob",
		"bob/secret.txt",
		"",
		"/",
		"..",
		"alice/../bob",
		"alice/../../etc/passwd",
		`alice\..\bob`,
	} {
		_, err := s.Resolve(p, logical)
		require.Equalf(t, http.StatusForbidden, httperr.Status(err), "path %q", logical)
	}
}

// TestResolveTraversalInsideHome confirms that dot segments which stay inside
// the authorized tree are harmless.
func TestResolveTraversalInsideHome(t *testing.T) {
	s, p := newTestStore(t)
	r, err := s.Resolve(p, "alice/./x/../")
	require.NoError(t, err)
	require.Equal(t, "alice", r.Logical())
	require.Equal(t, 0, r.Depth())
}

// TestResolveSymlinkEscape plants a symlink pointing outside the storage
// root and verifies resolution reports NotFound, same as a missing path.
func TestResolveSymlinkEscape(t *testing.T) {
	s, p := newTestStore(t)

	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "loot.txt"), []byte("x"), 0o600))
	require.NoError(t, os.Symlink(outside, filepath.Join(s.Root(), "alice", "exit")))

	_, err := s.Resolve(p, "alice/exit/loot.txt")
	require.Equal(t, http.StatusNotFound, httperr.Status(err))

	_, err = s.Resolve(p, "alice/no-such-entry")
	require.Equal(t, http.StatusNotFound, httperr.Status(err))
}

// TestCreateDirectoryAndList creates a directory and checks the fresh
// directory lists empty and counts as a child of its parent.
func TestCreateDirectoryAndList(t *testing.T) {
	s, p := newTestStore(t)
	home, err := s.Resolve(p, "alice")
	require.NoError(t, err)

	child, err := home.CreateDirectory("docs")
	require.NoError(t, err)
	require.Equal(t, "alice/docs", child.Logical())
	require.Equal(t, 1, child.Depth())

	entries, err := child.ListChildren()
	require.NoError(t, err)
	require.Empty(t, entries)

	meta, err := home.Metadata()
	require.NoError(t, err)
	require.Equal(t, KindDirectory, meta.Kind)
	require.EqualValues(t, 1, meta.Children)

	_, err = home.CreateDirectory("docs")
	require.Equal(t, http.StatusConflict, httperr.Status(err))
}

// TestCreateFile uploads a payload and reads it back, then checks the
// no-clobber guarantee.
func TestCreateFile(t *testing.T) {
	s, p := newTestStore(t)
	home, err := s.Resolve(p, "alice")
	require.NoError(t, err)

	child, err := home.CreateFile("note.txt", strings.NewReader("hi"), nil)
	require.NoError(t, err)
	require.Equal(t, "alice/note.txt", child.Logical())

	f, err := child.Open()
	require.NoError(t, err)
	buf := make([]byte, 8)
	n, _ := f.Read(buf)
	f.Close()
	require.Equal(t, "hi", string(buf[:n]))

	meta, err := child.Metadata()
	require.NoError(t, err)
	require.Equal(t, KindFile, meta.Kind)
	require.EqualValues(t, 2, meta.Size)

	_, err = home.CreateFile("note.txt", strings.NewReader("other"), nil)
	require.Equal(t, http.StatusConflict, httperr.Status(err))

	// The upload's temporary file must not linger after publication.
	infos, err := os.ReadDir(filepath.Join(s.Root(), "alice"))
	require.NoError(t, err)
	for _, info := range infos {
		require.False(t, strings.HasPrefix(info.Name(), ".upload-"), "leftover %s", info.Name())
	}
}

// TestCreateFileTimes applies client-supplied timestamps to the upload.
func TestCreateFileTimes(t *testing.T) {
	s, p := newTestStore(t)
	home, err := s.Resolve(p, "alice")
	require.NoError(t, err)

	times := &Times{LastAccess: 1_500_000_000, LastModified: 1_600_000_000}
	child, err := home.CreateFile("old.txt", strings.NewReader("x"), times)
	require.NoError(t, err)

	meta, err := child.Metadata()
	require.NoError(t, err)
	require.Equal(t, times.LastModified, meta.LastModified)
}

// TestCreateRejectsBadNames covers the single-segment name rule shared by
// file and directory creation.
func TestCreateRejectsBadNames(t *testing.T) {
	s, p := newTestStore(t)
	home, err := s.Resolve(p, "alice")
	require.NoError(t, err)

	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		_, err := home.CreateDirectory(name)
		require.Equalf(t, http.StatusBadRequest, httperr.Status(err), "name %q", name)
		_, err = home.CreateFile(name, strings.NewReader(""), nil)
		require.Equalf(t, http.StatusBadRequest, httperr.Status(err), "name %q", name)
	}
}

// TestCreateUnderFile verifies creating inside a regular file is a Conflict.
func TestCreateUnderFile(t *testing.T) {
	s, p := newTestStore(t)
	home, err := s.Resolve(p, "alice")
	require.NoError(t, err)
	file, err := home.CreateFile("plain.txt", strings.NewReader("x"), nil)
	require.NoError(t, err)

	_, err = file.CreateDirectory("sub")
	require.Equal(t, http.StatusConflict, httperr.Status(err))
	_, err = file.ListChildren()
	require.Equal(t, http.StatusConflict, httperr.Status(err))
}

// TestDelete removes entries recursively but refuses tree roots, and a
// repeated delete resolves to NotFound.
func TestDelete(t *testing.T) {
	s, p := newTestStore(t)
	home, err := s.Resolve(p, "alice")
	require.NoError(t, err)

	require.Equal(t, http.StatusForbidden, httperr.Status(home.Delete()))
	public, err := s.Resolve(p, PublicRoot)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, httperr.Status(public.Delete()))

	dir, err := home.CreateDirectory("bulk")
	require.NoError(t, err)
	_, err = dir.CreateFile("a.txt", strings.NewReader("a"), nil)
	require.NoError(t, err)

	target, err := s.Resolve(p, "alice/bulk")
	require.NoError(t, err)
	require.NoError(t, target.Delete())

	_, err = s.Resolve(p, "alice/bulk")
	require.Equal(t, http.StatusNotFound, httperr.Status(err))
}

// TestEntryJSON pins the wire shape of the three entry kinds.
func TestEntryJSON(t *testing.T) {
	file := Entry{Filename: "a.txt", Kind: KindFile, Size: 12, Created: 1, LastAccess: 2, LastModified: 3}
	b, err := json.Marshal(file)
	require.NoError(t, err)
	require.JSONEq(t, `{"filename":"a.txt","kind":"file","size":12,"created":1,"last_access":2,"last_modified":3}`, string(b))

	dir := Entry{Filename: "d", Kind: KindDirectory, Children: 2, Created: 1, LastAccess: 2, LastModified: 3}
	b, err = json.Marshal(dir)
	require.NoError(t, err)
	require.JSONEq(t, `{"filename":"d","kind":"directory","children":2,"created":1,"last_access":2,"last_modified":3}`, string(b))

	other := Entry{Filename: "s", Kind: KindUnsupported, Created: 1, LastAccess: 2, LastModified: 3}
	b, err = json.Marshal(other)
	require.NoError(t, err)
	require.JSONEq(t, `{"filename":"s","kind":"none","created":1,"last_access":2,"last_modified":3}`, string(b))
}
