package chat

import (
	"sync"
	"time"
)

const (
	rateLimitBudget = 30
	rateLimitWindow = 60 * time.Second
)

// rateLimiter enforces a sliding per-user command budget. Entries are
// pruned on every check, so the map stays bounded by active users.
type rateLimiter struct {
	mu      sync.Mutex
	history map[string][]time.Time
	budget  int
	window  time.Duration
	now     func() time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{
		history: make(map[string][]time.Time),
		budget:  rateLimitBudget,
		window:  rateLimitWindow,
		now:     time.Now,
	}
}

func (r *rateLimiter) Allow(userID string) bool {
	now := r.now()
	cutoff := now.Add(-r.window)

	r.mu.Lock()
	defer r.mu.Unlock()

	recent := r.history[userID][:0]
	for _, at := range r.history[userID] {
		if at.After(cutoff) {
			recent = append(recent, at)
		}
	}

	if len(recent) >= r.budget {
		r.history[userID] = recent
		return false
	}

	r.history[userID] = append(recent, now)
	return true
}
