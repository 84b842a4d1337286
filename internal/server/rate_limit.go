package server

import (
	"sync"
	"time"
)

const rateWindow = time.Minute

// JobRateLimiter caps how many print jobs one client host may submit in a
// sliding one-minute window.
type JobRateLimiter struct {
	mu        sync.Mutex
	attempts  map[string][]time.Time
	maxPerMin int
	now       func() time.Time
}

// NewJobRateLimiter creates a limiter allowing maxPerMinute jobs per client.
func NewJobRateLimiter(maxPerMinute int) *JobRateLimiter {
	return &JobRateLimiter{
		attempts:  make(map[string][]time.Time),
		maxPerMin: maxPerMinute,
		now:       time.Now,
	}
}

// Reserve records a job for client when the window has room. Otherwise it
// reports how long until the oldest job in the window expires.
func (rl *JobRateLimiter) Reserve(client string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	recent := rl.prune(client, now)

	if len(recent) >= rl.maxPerMin {
		rl.attempts[client] = recent
		return false, recent[0].Add(rateWindow).Sub(now)
	}

	rl.attempts[client] = append(recent, now)
	return true, 0
}

// prune drops timestamps outside the window; idle clients leave the map
func (rl *JobRateLimiter) prune(client string, now time.Time) []time.Time {
	cutoff := now.Add(-rateWindow)
	kept := rl.attempts[client][:0]
	for _, t := range rl.attempts[client] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(rl.attempts, client)
	}
	return kept
}
