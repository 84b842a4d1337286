// Package cache provides the time-bounded lookup cache placed in front of
// printer and media enumeration.
package cache

import (
	"sync"
	"time"
)

// Entry is a cached value with the time it was fetched
type Entry[V any] struct {
	Value     V
	FetchedAt time.Time
}

// TTL is a read-through cache whose entries are valid while
// now - FetchedAt <= ttl. Expired entries are never purged; they are treated
// as absent and overwritten by the next Set.
type TTL[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]Entry[V]
	ttl     time.Duration
	now     func() time.Time
}

// New creates a cache with the given lifetime per entry
func New[K comparable, V any](ttl time.Duration) *TTL[K, V] {
	return &TTL[K, V]{
		entries: make(map[K]Entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock replaces the time source; intended for tests.
func (c *TTL[K, V]) WithClock(now func() time.Time) *TTL[K, V] {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
	return c
}

// Get returns the live value for key, if any
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.now().Sub(entry.FetchedAt) > c.ttl {
		var zero V
		return zero, false
	}
	return entry.Value, true
}

// Set stores value for key stamped with the current time
func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	c.entries[key] = Entry[V]{Value: value, FetchedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate drops a single key so the next lookup goes to the OS.
func (c *TTL[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, live or expired.
func (c *TTL[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetOrFetch returns the live value for key or calls fetch and stores its
// result. fetch runs without holding the lock, so two concurrent misses may
// both reach the OS. A failed fetch stores nothing and evicts nothing.
func (c *TTL[K, V]) GetOrFetch(key K, fetch func() (V, error)) (V, bool, error) {
	if value, ok := c.Get(key); ok {
		return value, true, nil
	}

	value, err := fetch()
	if err != nil {
		var zero V
		return zero, false, err
	}

	c.Set(key, value)
	return value, false, nil
}
