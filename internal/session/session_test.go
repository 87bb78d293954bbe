package session

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"stashd/internal/db"
	"stashd/internal/httperr"
)

func newTestManager(t *testing.T, ttl time.Duration) (*Manager, *db.DB) {
	t.Helper()
	ctx := context.Background()
	d, err := db.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	if err := d.CreateAccount(ctx, "acc-1", "a@example.com", "Alice", "hash"); err != nil {
		t.Fatal(err)
	}
	if err := d.CreateRole(ctx, "role-1", RoleDirectory, "Storage access"); err != nil {
		t.Fatal(err)
	}
	if err := d.AssignRole(ctx, "acc-1", "role-1"); err != nil {
		t.Fatal(err)
	}
	return NewManager(d, ttl), d
}

func TestIssueAndResolve(t *testing.T) {
	m, _ := newTestManager(t, time.Hour)
	ctx := context.Background()

	token, err := m.Issue(ctx, "acc-1", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	p, err := m.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.ID != "acc-1" || p.Email != "a@example.com" {
		t.Fatalf("unexpected principal: %+v", p)
	}
	if !p.HasRole(RoleDirectory) {
		t.Fatal("principal lost its role")
	}
	if p.HasRole("admin") {
		t.Fatal("principal invented a role")
	}
}

// TestIssueDestroysPresentedToken verifies a pre-set session identifier does
// not survive authentication.
func TestIssueDestroysPresentedToken(t *testing.T) {
	m, _ := newTestManager(t, time.Hour)
	ctx := context.Background()

	old, err := m.Issue(ctx, "acc-1", "")
	if err != nil {
		t.Fatal(err)
	}
	fresh, err := m.Issue(ctx, "acc-1", old)
	if err != nil {
		t.Fatal(err)
	}
	if fresh == old {
		t.Fatal("token was reused")
	}
	if _, err := m.Resolve(ctx, old); !httperr.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("old token still resolves: %v", err)
	}
}

func TestResolveUnknownToken(t *testing.T) {
	m, _ := newTestManager(t, time.Hour)
	ctx := context.Background()

	for _, token := range []string{"", "nope"} {
		if _, err := m.Resolve(ctx, token); !httperr.IsStatus(err, http.StatusUnauthorized) {
			t.Fatalf("token %q: %v", token, err)
		}
	}
}

func TestResolveExpiredSession(t *testing.T) {
	m, _ := newTestManager(t, -time.Hour)
	ctx := context.Background()

	token, err := m.Issue(ctx, "acc-1", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Resolve(ctx, token); !httperr.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expired session resolved: %v", err)
	}
}

// TestResolveDeletedAccount checks that a session whose account vanished is
// invalidated on the spot.
func TestResolveDeletedAccount(t *testing.T) {
	m, d := newTestManager(t, time.Hour)
	ctx := context.Background()

	token, err := m.Issue(ctx, "acc-1", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := d.DeleteAccount(ctx, "acc-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Resolve(ctx, token); !httperr.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("orphaned session resolved: %v", err)
	}
	if _, ok, _ := d.GetSession(ctx, token); ok {
		t.Fatal("orphaned session row not cleaned up")
	}
}

func TestDestroyAccountSessions(t *testing.T) {
	m, _ := newTestManager(t, time.Hour)
	ctx := context.Background()

	first, err := m.Issue(ctx, "acc-1", "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.Issue(ctx, "acc-1", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.DestroyAccount(ctx, "acc-1"); err != nil {
		t.Fatal(err)
	}
	for _, token := range []string{first, second} {
		if _, err := m.Resolve(ctx, token); !httperr.IsStatus(err, http.StatusUnauthorized) {
			t.Fatalf("session %q survived: %v", token, err)
		}
	}
}
