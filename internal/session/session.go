// Package session issues and resolves authenticated sessions. A session is
// an opaque random token mapped server-side to an account id; the Principal
// derived from it is re-fetched from the database on every use so that a
// deleted account or revoked role takes effect immediately.
package session

import (
	"context"
	"time"

	"stashd/internal/auth"
	"stashd/internal/db"
	"stashd/internal/httperr"
)

// RoleDirectory is the role gating all storage access.
const RoleDirectory = "directory"

// Principal is the authenticated identity attached to a session.
type Principal struct {
	ID      string   `json:"id"`
	Email   string   `json:"email"`
	Display string   `json:"display"`
	Roles   []string `json:"roles"`
}

// HasRole reports whether the principal holds the named role. It is a pure
// check over the already-fetched role list.
func (p *Principal) HasRole(name string) bool {
	for _, r := range p.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// Manager mediates between handlers and the session store.
type Manager struct {
	db  *db.DB
	ttl time.Duration
}

func NewManager(d *db.DB, ttl time.Duration) *Manager {
	return &Manager{db: d, ttl: ttl}
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue mints a fresh session token for the account. Any token presented
// with the login request is destroyed first so a pre-set identifier can
// never survive authentication (session fixation).
func (m *Manager) Issue(ctx context.Context, accountID, presented string) (string, error) {
	if presented != "" {
		if err := m.db.DeleteSession(ctx, presented); err != nil {
			return "", httperr.Internal(err)
		}
	}
	token, err := auth.NewToken(32)
	if err != nil {
		return "", httperr.Internal(err)
	}
	if err := m.db.CreateSession(ctx, token, accountID, m.ttl); err != nil {
		return "", httperr.Internal(err)
	}
	return token, nil
}

// Destroy invalidates a session server-side. Unknown tokens are a no-op.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.db.DeleteSession(ctx, token); err != nil {
		return httperr.Internal(err)
	}
	return nil
}

// DestroyAccount invalidates every session of an account. Called after a
// password change so all devices must re-authenticate.
func (m *Manager) DestroyAccount(ctx context.Context, accountID string) error {
	if err := m.db.DeleteSessionsForAccount(ctx, accountID); err != nil {
		return httperr.Internal(err)
	}
	return nil
}

// Resolve turns a session token into a Principal. The account is re-fetched
// on every call; a session whose account has disappeared is destroyed and
// treated as unauthenticated. Expired rows are swept opportunistically.
func (m *Manager) Resolve(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, httperr.Unauthorized()
	}
	if _, err := m.db.DeleteExpiredSessions(ctx); err != nil {
		return nil, httperr.Internal(err)
	}
	s, ok, err := m.db.GetSession(ctx, token)
	if err != nil {
		return nil, httperr.Internal(err)
	}
	if !ok {
		return nil, httperr.Unauthorized()
	}

	account, ok, err := m.db.GetAccountByID(ctx, s.AccountID)
	if err != nil {
		return nil, httperr.Internal(err)
	}
	if !ok {
		_ = m.db.DeleteSession(ctx, token)
		return nil, httperr.Unauthorized()
	}

	roles, err := m.db.ListRolesForAccount(ctx, account.ID)
	if err != nil {
		return nil, httperr.Internal(err)
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}

	return &Principal{
		ID:      account.ID,
		Email:   account.Email,
		Display: account.Display,
		Roles:   names,
	}, nil
}
