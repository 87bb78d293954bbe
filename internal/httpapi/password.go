package httpapi

import (
	"encoding/json"
	"net/http"

	"stashd/internal/httperr"
)

type passwordRequest struct {
	Email     string  `json:"email"`
	Password  *string `json:"password"`
	Proof     *string `json:"proof"`
	ProofType string  `json:"proof_type"`
}

// handlePasswordPut is the single entry point for every password mutation.
// The proof_type field selects the flow:
//
//	none      no session, no password, no proof -> request a recovery mail, 202
//	token     no session, proof is a reset token -> consume it, set password, 204
//	password  session required, proof is the old password -> change, 204
//
// Any other field combination is a 400; that includes an authenticated
// caller on the recovery and token branches, which only exist for callers
// who cannot log in. The recovery branch answers 202 whether or not the
// email exists.
func (s *Server) handlePasswordPut(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, httperr.BadRequest())
		return
	}
	if req.Email == "" {
		s.writeError(w, r, httperr.BadRequest().WithText("email is required"))
		return
	}

	switch req.ProofType {
	case "", "none":
		if req.Password != nil || req.Proof != nil || s.hasInitiator(r) {
			s.writeError(w, r, httperr.BadRequest())
			return
		}
		if err := s.Accounts.RequestReset(r.Context(), req.Email); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)

	case "token":
		if req.Password == nil || req.Proof == nil || s.hasInitiator(r) {
			s.writeError(w, r, httperr.BadRequest())
			return
		}
		if err := s.Accounts.ResetPassword(r.Context(), req.Email, *req.Proof, *req.Password); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case "password":
		if req.Password == nil || req.Proof == nil {
			s.writeError(w, r, httperr.BadRequest())
			return
		}
		p, err := s.principal(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		// Identity is established at this point, so targeting another
		// account is an authorization failure, not an authentication one.
		if p.Email != req.Email {
			s.writeError(w, r, httperr.Forbidden())
			return
		}
		a, ok, err := s.DB.GetAccountByID(r.Context(), p.ID)
		if err != nil {
			s.writeError(w, r, httperr.Internal(err))
			return
		}
		if !ok {
			s.writeError(w, r, httperr.Unauthorized())
			return
		}
		if err := s.Accounts.ChangePassword(r.Context(), a, *req.Proof, *req.Password); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		s.writeError(w, r, httperr.BadRequest().WithText("unknown proof_type"))
	}
}

// hasInitiator reports whether the request carries a live session. A stale
// or invalid cookie counts as no initiator.
func (s *Server) hasInitiator(r *http.Request) bool {
	_, err := s.principal(r)
	return err == nil
}
