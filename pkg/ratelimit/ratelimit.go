// Package ratelimit implements the per-identity minimum-interval gate in
// front of the agent.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter tracks the last accepted event per identity and enforces a
// minimum interval between accepted events from the same identity.
//
// The map is never evicted: its key space is bounded by the set of users
// seen during the process lifetime, which matches the live user population.
// Access is serialized with a mutex so concurrent checks for the same
// identity cannot both pass inside one interval.
type Limiter struct {
	mu       sync.Mutex
	last     map[string]time.Time
	interval time.Duration
	enabled  bool
}

// New creates a Limiter. A disabled Limiter allows everything.
func New(interval time.Duration, enabled bool) *Limiter {
	return &Limiter{
		last:     make(map[string]time.Time),
		interval: interval,
		enabled:  enabled,
	}
}

// Allow reports whether an event from identity at time now may proceed.
// On denial it returns how long the caller would have to wait; a denial
// does not count as an attempt and does not move the window.
func (l *Limiter) Allow(identity string, now time.Time) (bool, time.Duration) {
	if !l.enabled {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if last, ok := l.last[identity]; ok {
		if elapsed := now.Sub(last); elapsed < l.interval {
			return false, l.interval - elapsed
		}
	}
	l.last[identity] = now
	return true, 0
}
