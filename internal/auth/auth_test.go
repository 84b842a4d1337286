package auth

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func hashB64(t *testing.T, token string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(hash)
}

func newManager(t *testing.T, hash string) *Manager {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewManager(ctx, hash)
}

func TestDisabledAcceptsEverything(t *testing.T) {
	m := newManager(t, "")
	if m.Enabled() {
		t.Fatal("empty hash should disable auth")
	}
	if !m.Check("127.0.0.1", "") {
		t.Error("disabled auth must accept an empty token")
	}
}

func TestValidateToken(t *testing.T) {
	m := newManager(t, hashB64(t, "s3cret"))

	tests := []struct {
		token string
		want  bool
	}{
		{"s3cret", true},
		{"wrong", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := m.ValidateToken(tt.token); got != tt.want {
			t.Errorf("ValidateToken(%q) = %v; want %v", tt.token, got, tt.want)
		}
	}
}

func TestBrokenHashFailsClosed(t *testing.T) {
	m := newManager(t, "%%%not-base64")
	if !m.Enabled() {
		t.Fatal("a configured but broken hash must keep auth enabled")
	}
	if m.ValidateToken("anything") {
		t.Error("broken hash must reject tokens")
	}
}

func TestLockoutAfterFailures(t *testing.T) {
	m := newManager(t, hashB64(t, "s3cret"))
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	for i := 0; i < MaxFailedAttempts; i++ {
		if m.Check("10.0.0.5", "bad") {
			t.Fatal("bad token accepted")
		}
	}
	if !m.IsLockedOut("10.0.0.5") {
		t.Fatal("client should be locked out")
	}
	if m.Check("10.0.0.5", "s3cret") {
		t.Error("valid token must be rejected during lockout")
	}
	if !m.Check("10.0.0.6", "s3cret") {
		t.Error("other clients are not affected")
	}

	now = now.Add(LockoutDuration + time.Second)
	if m.IsLockedOut("10.0.0.5") {
		t.Error("lockout should expire")
	}
	m.purgeExpired()
	if !m.Check("10.0.0.5", "s3cret") {
		t.Error("valid token should pass after lockout")
	}
}

func TestSuccessClearsFailures(t *testing.T) {
	m := newManager(t, hashB64(t, "s3cret"))

	for i := 0; i < MaxFailedAttempts-1; i++ {
		m.Check("c", "bad")
	}
	m.Check("c", "s3cret")
	m.Check("c", "bad")
	if m.IsLockedOut("c") {
		t.Error("counter should reset after a valid token")
	}
}
