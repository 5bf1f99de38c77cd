// Package ratelimit implements a per-client sliding-window request limiter.
//
// Unlike a fixed-window counter, the trailing window cannot be gamed by
// bursting just before and after a bucket boundary. The cost is O(limit)
// work per check, which is fine for small per-minute limits.
package ratelimit

import (
	"sync"
	"time"
)

// Window is the trailing interval over which requests are counted.
const Window = 60 * time.Second

// Limiter tracks request timestamps per client and admits at most limit
// requests per client within the trailing window. Stale timestamps are
// pruned lazily when a client is checked, never by a background task.
type Limiter struct {
	mu      sync.Mutex
	history map[string][]time.Time
	limit   int

	now func() time.Time // test hook
}

// New constructs a limiter admitting limit requests per client per minute.
func New(limit int) *Limiter {
	if limit < 1 {
		limit = 1
	}
	return &Limiter{
		history: make(map[string][]time.Time),
		limit:   limit,
		now:     time.Now,
	}
}

// Limit returns the configured requests-per-minute cap.
func (l *Limiter) Limit() int { return l.limit }

// Allow reports whether clientID may make a request now. Admitted requests
// are recorded; denied requests leave the pruned history unchanged.
func (l *Limiter) Allow(clientID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-Window)
	recent := l.history[clientID][:0]
	for _, t := range l.history[clientID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	if len(recent) >= l.limit {
		l.history[clientID] = recent
		return false
	}
	l.history[clientID] = append(recent, now)
	return true
}

// WaitTime estimates how long clientID must wait before a request could be
// admitted. It is computed against the stored history without re-pruning,
// so it is advisory only (a Retry-After hint, not a guarantee).
func (l *Limiter) WaitTime(clientID string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	h := l.history[clientID]
	if len(h) == 0 {
		return 0
	}
	wait := Window - l.now().Sub(h[0])
	if wait < 0 {
		return 0
	}
	return wait
}

// ActiveClients counts clients with at least one request inside the window.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-Window)
	n := 0
	for _, h := range l.history {
		for _, t := range h {
			if t.After(cutoff) {
				n++
				break
			}
		}
	}
	return n
}
