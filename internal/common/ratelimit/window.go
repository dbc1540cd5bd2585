// Package ratelimit implements a sliding-window request limiter for hosts that
// publish a fixed hourly quota (e.g. unauthenticated raw.githubusercontent.com).
package ratelimit

import (
	"sync"
	"time"

	"github.com/project-tktt/community-hub/internal/common/clock"
)

const (
	// DefaultMaxRequests matches GitHub's unauthenticated hourly quota
	DefaultMaxRequests = 60
	// DefaultWindow is the rolling window length
	DefaultWindow = time.Hour
)

// Window tracks request timestamps inside a rolling window
type Window struct {
	mu       sync.Mutex
	max      int
	window   time.Duration
	clock    clock.Clock
	requests []time.Time
}

// NewWindow creates a sliding window limiter. Zero values fall back to defaults.
func NewWindow(max int, window time.Duration, c clock.Clock) *Window {
	if max <= 0 {
		max = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if c == nil {
		c = clock.Real{}
	}
	return &Window{
		max:    max,
		window: window,
		clock:  c,
	}
}

// Allow reports whether another request fits in the window. When it does, the
// request is recorded. When it doesn't, the returned time is when the oldest
// recorded request leaves the window.
func (w *Window) Allow() (bool, time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock.Now()
	w.prune(now)

	if len(w.requests) >= w.max {
		return false, w.requests[0].Add(w.window)
	}

	w.requests = append(w.requests, now)
	return true, time.Time{}
}

// prune drops timestamps older than the window. Caller holds mu.
func (w *Window) prune(now time.Time) {
	keep := 0
	for keep < len(w.requests) && now.Sub(w.requests[keep]) >= w.window {
		keep++
	}
	if keep > 0 {
		w.requests = append(w.requests[:0], w.requests[keep:]...)
	}
}
