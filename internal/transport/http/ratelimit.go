package http

import (
	"sync"
	"time"
)

// rateLimiter is a token bucket refilled continuously at limit tokens per minute.
type rateLimiter struct {
	mu        sync.Mutex
	limit     int
	tokens    float64
	rate      float64
	lastCheck time.Time
	now       func() time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	if limit <= 0 {
		return &rateLimiter{limit: 0}
	}
	return &rateLimiter{
		limit:     limit,
		tokens:    float64(limit),
		rate:      float64(limit) / time.Minute.Seconds(),
		lastCheck: time.Now(),
		now:       time.Now,
	}
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if elapsed := now.Sub(r.lastCheck).Seconds(); elapsed > 0 {
		r.tokens += elapsed * r.rate
		if r.tokens > float64(r.limit) {
			r.tokens = float64(r.limit)
		}
	}
	r.lastCheck = now

	if r.tokens < 1 {
		return false
	}
	r.tokens--
	return true
}
