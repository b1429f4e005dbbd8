package chat

import (
	"testing"
	"time"
)

func TestRateLimiter_SlidingWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := newRateLimiter()
	limiter.now = func() time.Time { return now }

	for i := 0; i < rateLimitBudget; i++ {
		if !limiter.Allow("user-1") {
			t.Fatalf("request %d inside budget was rejected", i)
		}
	}
	if limiter.Allow("user-1") {
		t.Fatal("request over budget was allowed")
	}

	// Another user has an independent budget.
	if !limiter.Allow("user-2") {
		t.Fatal("unrelated user was rejected")
	}

	// Just before the window slides, still blocked.
	now = now.Add(rateLimitWindow - time.Second)
	if limiter.Allow("user-1") {
		t.Fatal("request was allowed before the window expired")
	}

	// Once the earliest entries age out, the budget frees up.
	now = now.Add(2 * time.Second)
	if !limiter.Allow("user-1") {
		t.Fatal("request was rejected after the window expired")
	}
}
