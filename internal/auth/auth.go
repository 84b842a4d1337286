// Package auth validates the shared client token and throttles clients that
// keep presenting a wrong one.
package auth

import (
	"context"
	"encoding/base64"
	"log"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	MaxFailedAttempts = 5
	LockoutDuration   = 5 * time.Minute
	CleanupInterval   = 5 * time.Minute
)

type failInfo struct {
	count       int
	lockedUntil time.Time
}

// Manager checks tokens against a bcrypt hash and tracks failures per client.
type Manager struct {
	hash     []byte
	failures map[string]failInfo
	mu       sync.RWMutex
	now      func() time.Time
}

// NewManager creates an auth manager for a base64-encoded bcrypt hash. An
// empty hash disables authentication. The cleanup goroutine is bound to ctx.
func NewManager(ctx context.Context, hashB64 string) *Manager {
	m := &Manager{
		failures: make(map[string]failInfo),
		now:      time.Now,
	}
	if hashB64 != "" {
		hash, err := base64.StdEncoding.DecodeString(hashB64)
		if err != nil {
			// Fail closed: a broken hash rejects every token
			log.Printf("[X] Failed to decode token hash from base64: %v", err)
			hash = []byte{0}
		}
		m.hash = hash
	}
	go m.cleanupLoop(ctx)
	log.Printf("[i] Auth manager initialized (enabled=%v)", m.Enabled())
	return m
}

// Enabled returns true if a token hash was configured.
func (m *Manager) Enabled() bool {
	return len(m.hash) > 0
}

// ValidateToken compares the token with the configured hash.
func (m *Manager) ValidateToken(token string) bool {
	if !m.Enabled() {
		return true
	}
	if token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(m.hash, []byte(token)) == nil
}

// Check validates a token for a client, enforcing the lockout. It returns
// false without comparing while the client is locked out.
func (m *Manager) Check(client, token string) bool {
	if !m.Enabled() {
		return true
	}
	if m.IsLockedOut(client) {
		return false
	}
	if m.ValidateToken(token) {
		m.ClearFailures(client)
		return true
	}
	m.RecordFailure(client)
	return false
}

// IsLockedOut returns true if the client has exceeded MaxFailedAttempts.
func (m *Manager) IsLockedOut(client string) bool {
	m.mu.RLock()
	info, exists := m.failures[client]
	m.mu.RUnlock()
	if !exists {
		return false
	}
	return info.count >= MaxFailedAttempts && m.now().Before(info.lockedUntil)
}

// RecordFailure increments the failure counter for a client.
func (m *Manager) RecordFailure(client string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info := m.failures[client]
	info.count++
	if info.count >= MaxFailedAttempts {
		info.lockedUntil = m.now().Add(LockoutDuration)
		log.Printf("[AUDIT] Client %s locked out for %v after %d invalid tokens",
			client, LockoutDuration, info.count)
	}
	m.failures[client] = info
}

// ClearFailures resets the counter after a valid token.
func (m *Manager) ClearFailures(client string) {
	m.mu.Lock()
	delete(m.failures, client)
	m.mu.Unlock()
}

func (m *Manager) purgeExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, v := range m.failures {
		if v.count >= MaxFailedAttempts && now.After(v.lockedUntil) {
			delete(m.failures, k)
		}
	}
}

func (m *Manager) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("[i] Auth cleanup goroutine stopped")
			return
		case <-ticker.C:
			m.purgeExpired()
		}
	}
}
