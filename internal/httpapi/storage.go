package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"stashd/internal/httperr"
	"stashd/internal/storage"
)

// handleStorageGet serves a directory listing as a JSON array or a file's
// bytes, depending on what the path resolves to.
func (s *Server) handleStorageGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.principal(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resolved, err := s.Store.Resolve(p, chi.URLParam(r, "*"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if resolved.IsDir() {
		entries, err := resolved.ListChildren()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, entries)
		return
	}

	f, err := resolved.Open()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		s.writeError(w, r, httperr.Internal(err))
		return
	}
	http.ServeContent(w, r, resolved.Filename(), info.ModTime(), f)
}

// uploadMetadata is the JSON "metadata" part of a storage POST.
type uploadMetadata struct {
	Kind         string `json:"kind"`
	Name         string `json:"name"`
	Created      *int64 `json:"created"`
	LastAccess   *int64 `json:"last_access"`
	LastModified *int64 `json:"last_modified"`
}

// times converts the optional client timestamps. Created cannot be set on a
// POSIX filesystem and is accepted but ignored.
func (m *uploadMetadata) times() *storage.Times {
	if m.LastAccess == nil && m.LastModified == nil {
		return nil
	}
	now := time.Now().Unix()
	t := &storage.Times{LastAccess: now, LastModified: now}
	if m.LastAccess != nil {
		t.LastAccess = *m.LastAccess
	}
	if m.LastModified != nil {
		t.LastModified = *m.LastModified
	}
	return t
}

// handleStoragePost creates a child entry under the resolved path. The body
// is multipart: a "metadata" JSON part first, then a "payload" part when a
// file is being created. The payload streams straight to disk; it is never
// buffered whole in memory.
func (s *Server) handleStoragePost(w http.ResponseWriter, r *http.Request) {
	p, err := s.principal(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	parent, err := s.Store.Resolve(p, chi.URLParam(r, "*"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)
	mr, err := r.MultipartReader()
	if err != nil {
		s.writeError(w, r, httperr.BadRequest().WithText("multipart body required"))
		return
	}

	part, err := mr.NextPart()
	if err != nil || part.FormName() != "metadata" {
		s.writeError(w, r, httperr.BadRequest().WithText("metadata part must come first"))
		return
	}
	var meta uploadMetadata
	if err := json.NewDecoder(part).Decode(&meta); err != nil {
		s.writeError(w, r, httperr.BadRequest().WithText("invalid metadata"))
		return
	}

	var child *storage.ResolvedPath
	switch meta.Kind {
	case "directory":
		child, err = parent.CreateDirectory(meta.Name)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Location", "/storage/"+child.Logical()+"/")

	case "file":
		payload, perr := mr.NextPart()
		if perr != nil || payload.FormName() != "payload" {
			s.writeError(w, r, httperr.BadRequest().WithText("payload part required"))
			return
		}
		child, err = parent.CreateFile(meta.Name, payload, meta.times())
		if err != nil {
			var maxErr *http.MaxBytesError
			switch {
			case errors.As(err, &maxErr):
				s.writeError(w, r, httperr.ContentTooLarge())
			case errors.Is(err, io.ErrUnexpectedEOF):
				s.writeError(w, r, httperr.BadRequest())
			default:
				s.writeError(w, r, err)
			}
			return
		}
		w.Header().Set("Location", "/storage/"+child.Logical())

	default:
		s.writeError(w, r, httperr.BadRequest().WithText("kind must be file or directory"))
		return
	}

	// The 201 body echoes the created entry as the client would see it in a
	// listing.
	info, err := child.Metadata()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, info)
}

// handleStorageDelete removes the resolved entry. Tree roots are protected;
// deleting something already gone is NotFound, same as a retry would see.
func (s *Server) handleStorageDelete(w http.ResponseWriter, r *http.Request) {
	p, err := s.principal(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resolved, err := s.Store.Resolve(p, chi.URLParam(r, "*"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := resolved.Delete(); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
