package storage

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"stashd/internal/httperr"
	"stashd/internal/validate"
)

// ResolvedPath is an authorized, canonicalized location inside the storage
// tree. Instances only come out of Store.Resolve, so holding one proves the
// request already passed the role and ownership gates.
type ResolvedPath struct {
	store   *Store
	logical string
	phys    string
	depth   int
}

// Logical returns the normalized request path, slash separated, without a
// leading slash.
func (r *ResolvedPath) Logical() string { return r.logical }

// Depth is the number of segments below the owning tree root. The tree roots
// themselves (a home directory, the public root) sit at depth zero and are
// delete-protected.
func (r *ResolvedPath) Depth() int { return r.depth }

// Filename returns the last segment of the logical path.
func (r *ResolvedPath) Filename() string { return path.Base(r.logical) }

// IsDir reports whether the resolved target currently is a directory.
func (r *ResolvedPath) IsDir() bool { return r.store.statIsDir(r.phys) }

// Times carries optional timestamps a client attached to an upload.
type Times struct {
	LastAccess   int64
	LastModified int64
}

// ListChildren returns the metadata entries of a directory's immediate
// children. Listing a regular file is a Conflict; a child that vanishes
// between the directory read and its stat is skipped rather than failing the
// whole listing.
func (r *ResolvedPath) ListChildren() ([]Entry, error) {
	info, err := r.store.fs.Stat(r.phys)
	if err != nil {
		return nil, httperr.FromFS(err)
	}
	if !info.IsDir() {
		return nil, httperr.Conflict().WithText("not a directory")
	}
	names, err := afero.ReadDir(r.store.fs, r.phys)
	if err != nil {
		return nil, httperr.FromFS(err)
	}
	entries := make([]Entry, 0, len(names))
	for _, child := range names {
		e, err := r.store.entryAt(filepath.Join(r.phys, child.Name()))
		if err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Metadata returns the entry describing the resolved target itself.
func (r *ResolvedPath) Metadata() (Entry, error) {
	return r.store.entryAt(r.phys)
}

// Open opens the resolved target for reading. Opening a directory is a
// Conflict.
func (r *ResolvedPath) Open() (afero.File, error) {
	info, err := r.store.fs.Stat(r.phys)
	if err != nil {
		return nil, httperr.FromFS(err)
	}
	if info.IsDir() {
		return nil, httperr.Conflict().WithText("not a regular file")
	}
	f, err := r.store.fs.Open(r.phys)
	if err != nil {
		return nil, httperr.FromFS(err)
	}
	return f, nil
}

// CreateDirectory creates a single child directory under the resolved
// target. An existing child of any kind is a Conflict.
func (r *ResolvedPath) CreateDirectory(name string) (*ResolvedPath, error) {
	if err := validate.EntryName(name); err != nil {
		return nil, httperr.BadRequest().WithText(err.Error())
	}
	if !r.IsDir() {
		return nil, httperr.Conflict().WithText("not a directory")
	}
	if err := r.store.fs.Mkdir(filepath.Join(r.phys, name), 0o750); err != nil {
		return nil, httperr.FromFS(err)
	}
	return r.child(name), nil
}

// CreateFile streams src into a new child file under the resolved target.
// The payload lands in a temporary file first and is published with a hard
// link, which fails atomically if the name was taken in the meantime, so a
// concurrent create can never clobber data. When times is non-nil the
// client-supplied timestamps are applied after publication.
func (r *ResolvedPath) CreateFile(name string, src io.Reader, times *Times) (*ResolvedPath, error) {
	if err := validate.EntryName(name); err != nil {
		return nil, httperr.BadRequest().WithText(err.Error())
	}
	if !r.IsDir() {
		return nil, httperr.Conflict().WithText("not a directory")
	}
	dst := filepath.Join(r.phys, name)
	if exists, _ := afero.Exists(r.store.fs, dst); exists {
		return nil, httperr.Conflict().WithText("an entry with this name already exists")
	}

	tmp, err := afero.TempFile(r.store.fs, r.phys, ".upload-*")
	if err != nil {
		return nil, httperr.FromFS(err)
	}
	tmpName := tmp.Name()
	defer r.store.fs.Remove(tmpName)

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return nil, httperr.Internal(err)
	}
	if err := tmp.Close(); err != nil {
		return nil, httperr.Internal(err)
	}

	if err := os.Link(tmpName, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, httperr.Conflict().WithText("an entry with this name already exists")
		}
		return nil, httperr.FromFS(err)
	}

	if times != nil {
		atime := time.Unix(times.LastAccess, 0)
		mtime := time.Unix(times.LastModified, 0)
		if err := r.store.fs.Chtimes(dst, atime, mtime); err != nil {
			return nil, httperr.Internal(err)
		}
	}
	return r.child(name), nil
}

// Delete removes the resolved target, recursively for directories. Tree
// roots cannot be deleted. A target that vanished after resolution is
// NotFound, matching what a retry of the same request would see.
func (r *ResolvedPath) Delete() error {
	if r.depth == 0 {
		return httperr.Forbidden().WithText("tree roots cannot be deleted")
	}
	info, err := r.store.fs.Stat(r.phys)
	if err != nil {
		return httperr.FromFS(err)
	}
	if info.IsDir() {
		err = r.store.fs.RemoveAll(r.phys)
	} else {
		err = r.store.fs.Remove(r.phys)
	}
	if err != nil {
		return httperr.FromFS(err)
	}
	return nil
}

// child derives the ResolvedPath of a direct child the caller just created.
// No re-canonicalization is needed: the parent is canonical and the name is
// a validated single segment.
func (r *ResolvedPath) child(name string) *ResolvedPath {
	return &ResolvedPath{
		store:   r.store,
		logical: r.logical + "/" + name,
		phys:    filepath.Join(r.phys, name),
		depth:   r.depth + 1,
	}
}
