package httpapi

import (
	"encoding/json"
	"net/http"

	"stashd/internal/httperr"
)

type errorBody struct {
	Error string `json:"error"`
}

// writeJSON serializes v with the given status. Serialization failures are
// logged; by then the status line is already on the wire.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encoding failed", "error", err)
	}
}

// writeError maps err through the taxonomy and emits the client-safe part.
// Internal causes are logged here and nowhere near the response body. A 404
// is routine (optional lookups miss all the time) and is not logged at all.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	he := httperr.From(err)
	switch {
	case he.Status() >= http.StatusInternalServerError:
		s.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", he)
	case he.Status() == http.StatusUnauthorized || he.Status() == http.StatusForbidden:
		s.Logger.Warn("request denied", "method", r.Method, "path", r.URL.Path, "status", he.Status())
	}
	s.writeJSON(w, he.Status(), errorBody{Error: he.Text()})
}
