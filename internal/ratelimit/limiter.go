// Package ratelimit throttles calls per key with token buckets.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key. Buckets are created on first use
// and never evicted, so keys should come from a small fixed set such as
// tool names.
type Limiter struct {
	rate  rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// New creates a Limiter that allows r calls per second per key with the
// given burst size. r <= 0 disables limiting.
func New(r float64, burst int) *Limiter {
	limit := rate.Limit(r)
	if r <= 0 {
		limit = rate.Inf
	}
	return &Limiter{
		rate:    limit,
		burst:   max(burst, 1),
		buckets: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether a call for key should be permitted now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.rate, l.burst)
		l.buckets[key] = b
	}
	l.mu.Unlock()
	return b.Allow()
}
