// Package account implements the credential side of stashd: authentication,
// password recovery, password change, and account creation. It owns the
// anti-enumeration behavior: no operation here may reveal, through status,
// body, or timing, whether an email or reset token exists.
package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stashd/internal/auth"
	"stashd/internal/db"
	"stashd/internal/httperr"
	"stashd/internal/mail"
	"stashd/internal/session"
	"stashd/internal/validate"
)

// ProductName is fed to the password strength estimator as a disallowed
// substring and used in outbound mail.
const ProductName = "Stashd"

// ResetTTL is the lifetime of a password reset token.
const ResetTTL = 24 * time.Hour

// Service bundles the collaborators of the credential flows.
type Service struct {
	DB       *db.DB
	Sessions *session.Manager
	Mailer   mail.Sender
	Logger   *slog.Logger

	// NoReply and Support are the envelope addresses for outbound mail;
	// Domain is the public host used to build reset links.
	NoReply string
	Support string
	Domain  string
}

// Credential is the tagged choice made at account creation time: either the
// caller supplies the initial password, or the account is created locked and
// the owner sets a password through an emailed reset token.
type Credential interface {
	isCredential()
}

// WithPassword creates the account with a caller-supplied password.
type WithPassword struct {
	Password string
}

// WithInvite creates the account with an unusable random password and mails
// a reset link to the new owner.
type WithInvite struct{}

func (WithPassword) isCredential() {}
func (WithInvite) isCredential()   {}

// Create inserts a new account. With WithPassword the password is strength-
// checked against the account's own identifiers; with WithInvite a reset
// token is issued and mailed so the owner picks the first password.
func (s *Service) Create(ctx context.Context, email, display string, cred Credential) (*db.Account, error) {
	if err := validate.Email(email); err != nil {
		return nil, httperr.BadRequest().WithText(err.Error())
	}
	if err := validate.DisplayName(display); err != nil {
		return nil, httperr.BadRequest().WithText(err.Error())
	}
	if _, ok, err := s.DB.GetAccountByEmail(ctx, email); err != nil {
		return nil, httperr.Internal(err)
	} else if ok {
		return nil, httperr.Conflict().WithText("an account with this email already exists")
	}

	var password string
	switch c := cred.(type) {
	case WithPassword:
		if err := auth.CheckPasswordStrength(c.Password, []string{email, display, ProductName}); err != nil {
			return nil, err
		}
		password = c.Password
	case WithInvite:
		// Unguessable placeholder; the only way in is the reset token.
		password = uuid.NewString() + uuid.NewString()
	default:
		return nil, httperr.Internal(fmt.Errorf("unknown credential variant %T", cred))
	}

	hash, err := auth.HashPassword(password, auth.DefaultArgon2Params())
	if err != nil {
		return nil, httperr.Internal(err)
	}

	id := uuid.NewString()
	if err := s.DB.CreateAccount(ctx, id, email, display, hash); err != nil {
		return nil, httperr.Internal(err)
	}
	a, _, err := s.DB.GetAccountByID(ctx, id)
	if err != nil {
		return nil, httperr.Internal(err)
	}

	if _, ok := cred.(WithInvite); ok {
		req, err := s.DB.CreatePasswordReset(ctx, uuid.NewString(), id, ResetTTL)
		if err != nil {
			return nil, httperr.Internal(err)
		}
		s.send(inviteMessage(s.NoReply, a, s.Domain, req.Token))
	}

	return a, nil
}

// Authenticate validates an email/password pair. Both the unknown-email and
// wrong-password paths burn the same hashing cost and return the same error,
// so a caller cannot distinguish them. The password value is never logged
// and never retained past the hash comparison.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*db.Account, error) {
	a, ok, err := s.DB.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, httperr.Internal(err)
	}
	if !ok {
		auth.FakePasswordCheck()
		s.Logger.Warn("failed login attempt", "email", email)
		return nil, httperr.Unauthorized()
	}
	match, err := auth.VerifyPassword(password, a.PasswordHash)
	if err != nil {
		return nil, httperr.Internal(err)
	}
	if !match {
		s.Logger.Warn("failed login attempt", "email", email)
		return nil, httperr.Unauthorized()
	}
	return a, nil
}

// RequestReset handles a "forgot password" request. It always succeeds from
// the caller's point of view. The miss path performs the same visible work
// as the hit path minus the row insert and the mail, which is sent
// asynchronously on the hit path precisely so response timing stays flat.
func (s *Service) RequestReset(ctx context.Context, email string) error {
	a, ok, err := s.DB.GetAccountByEmail(ctx, email)
	if err != nil {
		return httperr.Internal(err)
	}
	if !ok {
		// Same token generation and table sweep as the hit path.
		_ = uuid.NewString()
		if err := s.DB.PurgeExpiredPasswordResets(ctx); err != nil {
			return httperr.Internal(err)
		}
		return nil
	}

	req, err := s.DB.CreatePasswordReset(ctx, uuid.NewString(), a.ID, ResetTTL)
	if err != nil {
		return httperr.Internal(err)
	}
	s.send(resetRequestMessage(s.NoReply, a, s.Domain, req.Token))
	return nil
}

// VerifyReset resolves a reset token to its request. Expired and nonexistent
// tokens produce the same Unauthorized error.
func (s *Service) VerifyReset(ctx context.Context, token string) (*db.PasswordReset, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, httperr.BadRequest()
	}
	req, ok, err := s.DB.GetValidPasswordReset(ctx, token)
	if err != nil {
		return nil, httperr.Internal(err)
	}
	if !ok {
		return nil, httperr.Unauthorized()
	}
	return req, nil
}

// ResetPassword consumes a reset token and installs a new password. The
// token must belong to the account named by email; a mismatch is the same
// Unauthorized as an unknown token. All the account's sessions are destroyed
// and a confirmation is mailed.
func (s *Service) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	req, err := s.VerifyReset(ctx, token)
	if err != nil {
		return err
	}
	a, ok, err := s.DB.GetAccountByID(ctx, req.AccountID)
	if err != nil {
		return httperr.Internal(err)
	}
	if !ok || a.Email != email {
		return httperr.Unauthorized()
	}

	if err := s.setPassword(ctx, a, newPassword); err != nil {
		return err
	}
	if err := s.DB.DeletePasswordReset(ctx, token); err != nil {
		return httperr.Internal(err)
	}
	return nil
}

// ChangePassword is the authenticated variant: the old password is the
// proof. Strength rules, forced re-authentication, and the confirmation
// mail are identical to ResetPassword.
func (s *Service) ChangePassword(ctx context.Context, a *db.Account, oldPassword, newPassword string) error {
	match, err := auth.VerifyPassword(oldPassword, a.PasswordHash)
	if err != nil {
		return httperr.Internal(err)
	}
	if !match {
		s.Logger.Warn("password change with wrong proof", "email", a.Email)
		return httperr.Unauthorized()
	}
	return s.setPassword(ctx, a, newPassword)
}

// SetPassword installs a new password without any proof. Administrative use
// only; it never runs on a request path.
func (s *Service) SetPassword(ctx context.Context, email, newPassword string) error {
	a, ok, err := s.DB.GetAccountByEmail(ctx, email)
	if err != nil {
		return httperr.Internal(err)
	}
	if !ok {
		return httperr.NotFound().WithText("no account with this email")
	}
	return s.setPassword(ctx, a, newPassword)
}

// SetDisplay updates an account's display name.
func (s *Service) SetDisplay(ctx context.Context, email, display string) (*db.Account, error) {
	if err := validate.DisplayName(display); err != nil {
		return nil, httperr.BadRequest().WithText(err.Error())
	}
	a, ok, err := s.DB.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, httperr.Internal(err)
	}
	if !ok {
		return nil, httperr.NotFound().WithText("no account with this email")
	}
	if err := s.DB.SetAccountDisplay(ctx, a.ID, display); err != nil {
		return nil, httperr.Internal(err)
	}
	a.Display = display
	return a, nil
}

// Remove deletes an account along with its sessions and reset requests.
func (s *Service) Remove(ctx context.Context, email string) (*db.Account, error) {
	a, ok, err := s.DB.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, httperr.Internal(err)
	}
	if !ok {
		return nil, httperr.NotFound().WithText("no account with this email")
	}
	if err := s.Sessions.DestroyAccount(ctx, a.ID); err != nil {
		return nil, err
	}
	if err := s.DB.DeleteAccount(ctx, a.ID); err != nil {
		return nil, httperr.Internal(err)
	}
	return a, nil
}

// setPassword runs the shared tail of both password mutation flows.
func (s *Service) setPassword(ctx context.Context, a *db.Account, newPassword string) error {
	if err := auth.CheckPasswordStrength(newPassword, []string{a.Email, a.Display, ProductName}); err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPassword, auth.DefaultArgon2Params())
	if err != nil {
		return httperr.Internal(err)
	}
	if err := s.DB.SetAccountPasswordHash(ctx, a.ID, hash); err != nil {
		return httperr.Internal(err)
	}
	if err := s.Sessions.DestroyAccount(ctx, a.ID); err != nil {
		return err
	}
	s.send(changeConfirmationMessage(s.NoReply, s.Support, a))
	return nil
}

// send delivers a message in the background. Mail failures are logged, never
// surfaced to the client: the credential mutation already happened.
func (s *Service) send(msg mail.Message) {
	go func() {
		if err := s.Mailer.Send(msg); err != nil {
			s.Logger.Error("mail delivery failed", "to", msg.To, "subject", msg.Subject, "error", err)
		}
	}()
}
