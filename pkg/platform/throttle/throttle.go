// Package throttle coalesces bursts of refresh triggers into at most one
// execution per key per window.
//
// Semantics are drop, not queue: a trigger landing inside a key's window is
// discarded, on the expectation that the execution that opened the window
// already picked up (or will pick up) the state the dropped trigger was
// reporting. Keys are independent; a hot goal-contribution key never delays
// a membership key.
//
// State per key is a token-bucket limiter (burst 1, refill one per window),
// so a dormant key holds no goroutines and no timers. Callers reclaim idle
// keys with Sweep.
package throttle

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle gates executions per key. Safe for concurrent use.
type Throttle struct {
	window time.Duration

	mu   sync.Mutex
	keys map[string]*entry
}

type entry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New builds a Throttle with the given coalescing window.
func New(window time.Duration) *Throttle {
	return &Throttle{
		window: window,
		keys:   make(map[string]*entry),
	}
}

// Window returns the configured coalescing window.
func (t *Throttle) Window() time.Duration { return t.window }

// Allow reports whether a trigger for key may execute now. A true return
// opens the key's window; triggers inside an open window return false and
// are meant to be dropped.
func (t *Throttle) Allow(key string) bool {
	return t.entry(key).lim.Allow()
}

// Bypass records an out-of-band execution for key, draining its window so
// the next regular trigger is throttled as if the execution had gone
// through Allow. The caller runs regardless of the key's window state.
func (t *Throttle) Bypass(key string) {
	// Consume the token if one is available; if the window is already
	// open this is a no-op.
	t.entry(key).lim.Allow()
}

// Forget drops all state for key. The next Allow starts a fresh window.
func (t *Throttle) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.keys, key)
}

// Sweep removes keys idle for longer than maxIdle and returns how many
// were dropped.
func (t *Throttle) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	t.mu.Lock()
	defer t.mu.Unlock()
	dropped := 0
	for key, e := range t.keys {
		if e.lastSeen.Before(cutoff) {
			delete(t.keys, key)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of tracked keys.
func (t *Throttle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.keys)
}

func (t *Throttle) entry(key string) *entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.keys[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(rate.Every(t.window), 1)}
		t.keys[key] = e
	}
	e.lastSeen = time.Now()
	return e
}
