// SPDX-License-Identifier: MIT

// Package ratelimit implements the per-session sliding-window limiter
// guarding the ingestion endpoints. Each session gets its own window of
// request timestamps; a request is admitted while fewer than the limit
// fall inside the window.
package ratelimit

import (
	"sync"
	"time"

	"github.com/Ch0c0l4tE/fraud/internal/metrics"
)

const (
	// DefaultLimit is the number of requests admitted per session window.
	DefaultLimit = 100
	// DefaultWindow is the sliding-window length.
	DefaultWindow = time.Minute

	cleanupInterval = time.Minute
)

// Result describes the outcome of one limiter check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type window struct {
	// timestamps of admitted requests, oldest first
	stamps []time.Time
	seen   time.Time
}

// SessionLimiter tracks request windows per session id. Windows are
// created lazily and pruned when idle for longer than the window length.
type SessionLimiter struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	sessions    map[string]*window
	lastCleanup time.Time

	now func() time.Time
}

// NewSessionLimiter returns a limiter admitting limit requests per
// session within the given window. Non-positive arguments fall back to
// the defaults.
func NewSessionLimiter(limit int, win time.Duration) *SessionLimiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if win <= 0 {
		win = DefaultWindow
	}
	return &SessionLimiter{
		limit:    limit,
		window:   win,
		sessions: make(map[string]*window),
		now:      time.Now,
	}
}

// Check records one request attempt for sessionID and reports whether it
// is admitted. Rejected attempts are not recorded against the window.
func (l *SessionLimiter) Check(sessionID string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.maybeCleanup(now)

	w, ok := l.sessions[sessionID]
	if !ok {
		w = &window{}
		l.sessions[sessionID] = w
	}
	w.seen = now

	// Drop timestamps that slid out of the window.
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}

	if len(w.stamps) >= l.limit {
		metrics.RateLimitRejected()
		retry := w.stamps[0].Add(l.window).Sub(now)
		if retry < time.Second {
			retry = time.Second
		}
		return Result{Allowed: false, Limit: l.limit, Remaining: 0, RetryAfter: retry}
	}

	w.stamps = append(w.stamps, now)
	return Result{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - len(w.stamps),
	}
}

// SetLimit replaces the per-window request limit. Existing windows keep
// their recorded timestamps and are judged against the new limit.
func (l *SessionLimiter) SetLimit(limit int) {
	if limit <= 0 {
		return
	}
	l.mu.Lock()
	l.limit = limit
	l.mu.Unlock()
}

// Limit returns the current per-window request limit.
func (l *SessionLimiter) Limit() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limit
}

// maybeCleanup drops windows idle for longer than the window length.
// Called with l.mu held.
func (l *SessionLimiter) maybeCleanup(now time.Time) {
	if now.Sub(l.lastCleanup) < cleanupInterval {
		return
	}
	l.lastCleanup = now
	for id, w := range l.sessions {
		if now.Sub(w.seen) > l.window {
			delete(l.sessions, id)
		}
	}
}
