package cache

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestTTLBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		hit     bool
	}{
		{"fresh", 0, true},
		{"29 seconds", 29 * time.Second, true},
		{"exactly ttl", 30 * time.Second, true},
		{"31 seconds", 31 * time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
			c := New[string, int](30 * time.Second).WithClock(clock.Now)

			c.Set("printers", 7)
			clock.Advance(tt.elapsed)

			got, ok := c.Get("printers")
			if ok != tt.hit {
				t.Fatalf("Get() hit = %v, want %v", ok, tt.hit)
			}
			if ok && got != 7 {
				t.Errorf("Get() = %d, want 7", got)
			}
		})
	}
}

func TestGetOrFetch(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := New[string, []string](30 * time.Second).WithClock(clock.Now)

	calls := 0
	fetch := func() ([]string, error) {
		calls++
		return []string{"A4", "Letter"}, nil
	}

	if _, cached, err := c.GetOrFetch("Office", fetch); err != nil || cached {
		t.Fatalf("first lookup: cached=%v err=%v", cached, err)
	}
	clock.Advance(29 * time.Second)
	if _, cached, _ := c.GetOrFetch("Office", fetch); !cached {
		t.Error("lookup at +29s should be served from cache")
	}
	clock.Advance(2 * time.Second)
	if _, cached, _ := c.GetOrFetch("Office", fetch); cached {
		t.Error("lookup at +31s should query again")
	}
	if calls != 2 {
		t.Errorf("fetch called %d times, want 2", calls)
	}
}

func TestFailedFetchKeepsOtherKeys(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := New[string, int](30 * time.Second).WithClock(clock.Now)
	c.Set("a", 1)

	_, _, err := c.GetOrFetch("b", func() (int, error) { return 0, errors.New("lpoptions failed") })
	if err == nil {
		t.Fatal("expected fetch error")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("failed fetch must not store a value")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Error("failed fetch must not evict unrelated keys")
	}
}

func TestExpiredEntryIsOverwrittenNotPurged(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := New[string, int](time.Second).WithClock(clock.Now)

	c.Set("a", 1)
	clock.Advance(5 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatal("entry should be expired")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, expired entries are kept until overwritten", c.Len())
	}

	c.Set("a", 2)
	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Errorf("Get() = %d,%v after overwrite", v, ok)
	}

	c.Invalidate("a")
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Invalidate", c.Len())
	}
}
