// Package httpapi exposes the REST surface of stashd: session management,
// password changes and recovery, and the storage tree. Routes are assembled
// in one static table at startup; handlers translate domain errors through
// the httperr taxonomy and never leak internals to clients.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"stashd/internal/account"
	"stashd/internal/db"
	"stashd/internal/session"
	"stashd/internal/storage"
)

// Server holds the collaborators shared by all handlers.
type Server struct {
	DB       *db.DB
	Sessions *session.Manager
	Accounts *account.Service
	Store    *storage.Store
	Logger   *slog.Logger

	// MaxUploadBytes caps a single storage upload request body.
	MaxUploadBytes int64
}

// Router builds the HTTP handler tree. The route table is static; nothing is
// registered after startup.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.withRecover)
	r.Use(s.withRequestLog)
	r.Use(withSecurityHeaders)

	// Credential endpoints take the brunt of brute forcing; everything else
	// already requires an authenticated session.
	loginLimiter := newFixedWindowLimiter(10, time.Minute)
	passwordLimiter := newFixedWindowLimiter(10, time.Minute)

	r.Route("/session", func(r chi.Router) {
		r.With(loginLimiter.wrap).Post("/", s.handleLogin)
		r.Get("/", s.handleSessionGet)
		r.Delete("/", s.handleLogout)
	})
	r.With(passwordLimiter.wrap).Put("/account/password", s.handlePasswordPut)
	r.Route("/storage", func(r chi.Router) {
		r.Get("/*", s.handleStorageGet)
		r.Post("/*", s.handleStoragePost)
		r.Delete("/*", s.handleStorageDelete)
	})
	return r
}

// principal resolves the request's session cookie. A missing or stale cookie
// is Unauthorized.
func (s *Server) principal(r *http.Request) (*session.Principal, error) {
	return s.Sessions.Resolve(r.Context(), sessionToken(r))
}
