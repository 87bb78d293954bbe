package storage

import (
	"encoding/json"
	"path/filepath"

	"github.com/spf13/afero"

	"stashd/internal/httperr"
)

// EntryKind classifies a directory entry for clients.
type EntryKind int

const (
	// KindUnsupported covers anything that is neither a regular file nor a
	// directory, such as sockets or device nodes.
	KindUnsupported EntryKind = iota
	KindFile
	KindDirectory
)

// Entry is the client-facing metadata of one stored object. Timestamps are
// epoch seconds and read zero when the platform cannot supply them.
type Entry struct {
	Filename     string
	Kind         EntryKind
	Size         int64 // regular files only
	Children     int64 // directories only: count of immediate subdirectories
	Created      int64
	LastAccess   int64
	LastModified int64
}

type entryJSON struct {
	Filename     string `json:"filename"`
	Kind         string `json:"kind"`
	Size         *int64 `json:"size,omitempty"`
	Children     *int64 `json:"children,omitempty"`
	Created      int64  `json:"created"`
	LastAccess   int64  `json:"last_access"`
	LastModified int64  `json:"last_modified"`
}

// MarshalJSON emits the kind as a string tag and only the payload field that
// matches it.
func (e Entry) MarshalJSON() ([]byte, error) {
	out := entryJSON{
		Filename:     e.Filename,
		Created:      e.Created,
		LastAccess:   e.LastAccess,
		LastModified: e.LastModified,
	}
	switch e.Kind {
	case KindFile:
		out.Kind = "file"
		out.Size = &e.Size
	case KindDirectory:
		out.Kind = "directory"
		out.Children = &e.Children
	default:
		out.Kind = "none"
	}
	return json.Marshal(out)
}

// entryAt builds the Entry for a physical path.
func (s *Store) entryAt(phys string) (Entry, error) {
	info, err := s.fs.Stat(phys)
	if err != nil {
		return Entry{}, httperr.FromFS(err)
	}
	e := Entry{Filename: filepath.Base(phys)}
	e.Created, e.LastAccess, e.LastModified = fileTimes(info)
	switch {
	case info.IsDir():
		e.Kind = KindDirectory
		e.Children = countSubdirectories(s.fs, phys)
	case info.Mode().IsRegular():
		e.Kind = KindFile
		e.Size = info.Size()
	default:
		e.Kind = KindUnsupported
	}
	return e, nil
}

// countSubdirectories counts the immediate child directories of phys. Files
// do not count; a read failure reads as zero rather than failing the parent
// listing.
func countSubdirectories(afs afero.Fs, phys string) int64 {
	infos, err := afero.ReadDir(afs, phys)
	if err != nil {
		return 0
	}
	var n int64
	for _, info := range infos {
		if info.IsDir() {
			n++
		}
	}
	return n
}
