// Package httperr defines the error taxonomy shared by the HTTP handlers and
// the domain packages. An Error carries an HTTP status, a short text that is
// safe to show to clients, and an optional internal cause that is only ever
// logged server-side.
package httperr

import (
	"database/sql"
	"errors"
	"io/fs"
	"net/http"
)

// Error is a classified failure. The zero value is not valid; use the
// constructors below.
type Error struct {
	status int
	text   string
	cause  error
}

// Error implements the error interface. It returns the internal cause when
// present so that server-side logs stay informative.
func (e *Error) Error() string {
	if e.cause != nil {
		return e.text + ": " + e.cause.Error()
	}
	return e.text
}

// Unwrap exposes the internal cause to errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

// Status returns the HTTP status code for this error.
func (e *Error) Status() int { return e.status }

// Text returns the short, client-safe message.
func (e *Error) Text() string { return e.text }

// WithText overrides the client-safe message.
func (e *Error) WithText(text string) *Error {
	e.text = text
	return e
}

// WithCause attaches an internal cause. The cause is never serialized to the
// client.
func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

func newError(status int) *Error {
	return &Error{status: status, text: http.StatusText(status)}
}

// BadRequest reports a malformed request (400).
func BadRequest() *Error { return newError(http.StatusBadRequest) }

// Unauthorized reports a missing or failed authentication (401). The text is
// uniform regardless of the root cause so that account existence never leaks.
func Unauthorized() *Error { return newError(http.StatusUnauthorized) }

// Forbidden reports an authorization failure for a known identity (403).
func Forbidden() *Error { return newError(http.StatusForbidden) }

// NotFound reports a missing resource (404).
func NotFound() *Error { return newError(http.StatusNotFound) }

// Conflict reports a clash with existing state (409).
func Conflict() *Error { return newError(http.StatusConflict) }

// ContentTooLarge reports a request body exceeding a size cap (413).
func ContentTooLarge() *Error { return newError(http.StatusRequestEntityTooLarge) }

// UnprocessableEntity reports a well-formed but unacceptable payload (422).
func UnprocessableEntity() *Error { return newError(http.StatusUnprocessableEntity) }

// Internal reports an unexpected server-side failure (500). The cause is
// retained for logging only.
func Internal(cause error) *Error {
	return newError(http.StatusInternalServerError).WithCause(cause)
}

// From classifies an arbitrary error. Existing *Error values pass through
// unchanged; everything else becomes Internal.
func From(err error) *Error {
	var he *Error
	if errors.As(err, &he) {
		return he
	}
	return Internal(err)
}

// FromFS maps a filesystem error onto the taxonomy: already-exists becomes
// Conflict, a missing path or parent becomes NotFound, a permission failure
// becomes Forbidden, and anything else is Internal.
func FromFS(err error) *Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrExist):
		return Conflict().WithCause(err)
	case errors.Is(err, fs.ErrNotExist):
		return NotFound().WithCause(err)
	case errors.Is(err, fs.ErrPermission):
		return Forbidden().WithCause(err)
	default:
		return Internal(err)
	}
}

// FromDB maps a database error onto the taxonomy. A missing row is NotFound;
// everything else, including pool checkout timeouts, is Internal.
func FromDB(err error) *Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return NotFound().WithCause(err)
	default:
		return Internal(err)
	}
}

// Status returns the HTTP status an arbitrary error maps to.
func Status(err error) int {
	return From(err).Status()
}

// IsStatus reports whether err maps to the given HTTP status.
func IsStatus(err error, status int) bool {
	return From(err).Status() == status
}
