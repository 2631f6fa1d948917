// Package ratelimit provides sliding-window admission control.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter implements per-key sliding-window rate limiting. It tracks the
// timestamps of grants within the last window and rejects a request when
// granting it would exceed the configured limit.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	grants  map[string][]time.Time
	nowFunc func() time.Time
}

// New creates a limiter allowing limit grants per window for each key.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  window,
		grants:  make(map[string][]time.Time),
		nowFunc: time.Now,
	}
}

// Allow reports whether one permit may be granted for the key.
func (l *Limiter) Allow(key string) bool {
	return l.AllowN(key, 1)
}

// AllowN reports whether n permits may be granted for the key. Either all n
// permits are granted or none are.
func (l *Limiter) AllowN(key string, n int) bool {
	if l.limit <= 0 {
		return true
	}
	if n <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	recent := l.prune(key, now)

	if len(recent)+n > l.limit {
		return false
	}

	for i := 0; i < n; i++ {
		recent = append(recent, now)
	}
	l.grants[key] = recent
	return true
}

// Remaining returns the number of permits still available for a key in the
// current window.
func (l *Limiter) Remaining(key string) int {
	if l.limit <= 0 {
		return int(^uint(0) >> 1)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.prune(key, l.nowFunc())
	l.grants[key] = recent
	return l.limit - len(recent)
}

// Reset clears the rate limit state for a key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.grants, key)
}

// prune drops grant timestamps that fell out of the window. Caller holds the lock.
func (l *Limiter) prune(key string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	timestamps := l.grants[key]

	recent := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}
	return recent
}
