// Package ratelimit implements a fixed-window request throttle keyed by a
// logical request key.
package ratelimit

import (
	"sync"
	"time"
)

const (
	// DefaultWindow is the throttle window.
	DefaultWindow = time.Minute
	// DefaultMaxRequests is the number of requests allowed per key per window.
	DefaultMaxRequests = 10
)

// Limiter tracks recent request timestamps per key. It is safe for
// concurrent use.
type Limiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time

	window time.Duration
	max    int
	now    func() time.Time
}

// New creates a Limiter. Non-positive arguments fall back to the defaults.
func New(window time.Duration, max int) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if max <= 0 {
		max = DefaultMaxRequests
	}
	return &Limiter{
		requests: make(map[string][]time.Time),
		window:   window,
		max:      max,
		now:      time.Now,
	}
}

// Allow prunes timestamps older than the window, then either records the
// request and returns true, or returns false without recording anything.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-l.window)

	recent := l.requests[key][:0]
	for _, ts := range l.requests[key] {
		if ts.After(windowStart) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= l.max {
		l.requests[key] = recent
		return false
	}

	l.requests[key] = append(recent, now)
	return true
}

// Reset clears the history for a single key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.requests, key)
}
