package httperr

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"testing"
)

func TestFromPassesThrough(t *testing.T) {
	orig := NotFound().WithText("gone")
	wrapped := fmt.Errorf("looking up thing: %w", orig)
	if got := From(wrapped); got.Status() != http.StatusNotFound || got.Text() != "gone" {
		t.Fatalf("got %d %q", got.Status(), got.Text())
	}
}

func TestFromWrapsUnknown(t *testing.T) {
	e := From(errors.New("disk on fire"))
	if e.Status() != http.StatusInternalServerError {
		t.Fatalf("status %d", e.Status())
	}
	// The cause stays server-side; the client text is generic.
	if e.Text() != http.StatusText(http.StatusInternalServerError) {
		t.Fatalf("client text leaks cause: %q", e.Text())
	}
	if e.Unwrap() == nil {
		t.Fatal("cause lost")
	}
}

func TestFromFS(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fs.ErrExist, http.StatusConflict},
		{fs.ErrNotExist, http.StatusNotFound},
		{fs.ErrPermission, http.StatusForbidden},
		{errors.New("io error"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		wrapped := fmt.Errorf("op: %w", c.err)
		if got := FromFS(wrapped).Status(); got != c.want {
			t.Fatalf("%v: status %d, want %d", c.err, got, c.want)
		}
	}
	if FromFS(nil) != nil {
		t.Fatal("nil error classified")
	}
}

func TestFromDB(t *testing.T) {
	if got := FromDB(sql.ErrNoRows).Status(); got != http.StatusNotFound {
		t.Fatalf("ErrNoRows: status %d", got)
	}
	if got := FromDB(errors.New("locked")).Status(); got != http.StatusInternalServerError {
		t.Fatalf("other: status %d", got)
	}
}

func TestIsStatus(t *testing.T) {
	if !IsStatus(Conflict(), http.StatusConflict) {
		t.Fatal("conflict not recognized")
	}
	if IsStatus(Conflict(), http.StatusNotFound) {
		t.Fatal("wrong status matched")
	}
	if !IsStatus(errors.New("x"), http.StatusInternalServerError) {
		t.Fatal("unknown error not internal")
	}
}
