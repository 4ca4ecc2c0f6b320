package auth

import (
	"errors"
	"testing"
	"time"

	"casino-lite/apps/server/internal/sqldb"
)

func newSQLiteManager(t *testing.T) *SQLManager {
	t.Helper()
	db, err := sqldb.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite err: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	m, err := NewSQLManager(db, time.Hour)
	if err != nil {
		t.Fatalf("NewSQLManager err: %v", err)
	}
	return m
}

func TestSQLManager_RegisterLoginLogout(t *testing.T) {
	m := newSQLiteManager(t)

	id, token, err := m.Register("carol_01", "secret12")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	gotID, username, ok := m.ResolveSession(token)
	if !ok || gotID != id || username != "carol_01" {
		t.Fatalf("resolve: ok=%v id=%d username=%q", ok, gotID, username)
	}

	if _, _, err := m.Register("CAROL_01", "secret12"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if _, _, err := m.Login("carol_01", "bad-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	loginID, loginToken, err := m.Login("carol_01", "secret12")
	if err != nil || loginID != id {
		t.Fatalf("login: id=%d err=%v", loginID, err)
	}

	m.Logout(loginToken)
	if _, _, ok := m.ResolveSession(loginToken); ok {
		t.Fatalf("expected revoked token to be rejected")
	}
	if _, _, ok := m.ResolveSession(token); !ok {
		t.Fatalf("other tokens must survive logout")
	}
}
