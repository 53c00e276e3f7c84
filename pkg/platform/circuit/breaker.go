// Package circuit implements a count-based circuit breaker.
//
// A Breaker guards a flaky dependency: consecutive failures trip it open,
// consecutive successes while open close it again. Callers use the returned
// booleans to decide between the primary path and a degraded fallback, and
// the Change value to log or count state transitions exactly once.
package circuit

import "sync"

// State of the breaker.
type State int

const (
	// StateClosed means the primary path is healthy and should be used.
	StateClosed State = iota
	// StateOpen means the primary path is failing; use the fallback.
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// Change reports a state transition caused by a Record call. At most one of
// the fields is true; both false means the call did not change state.
type Change struct {
	Opened bool
	Closed bool
}

const (
	defaultFailureThreshold = 5
	defaultSuccessThreshold = 2
)

// Breaker is safe for concurrent use.
type Breaker struct {
	name             string
	failureThreshold int
	successThreshold int

	mu        sync.RWMutex
	state     State
	failures  int
	successes int
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithFailureThreshold sets how many consecutive failures open the breaker.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets how many consecutive successes close an open breaker.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// New builds a closed Breaker identified by name.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: defaultFailureThreshold,
		successThreshold: defaultSuccessThreshold,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the identifier the breaker was created with.
func (b *Breaker) Name() string { return b.name }

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// IsOpen reports whether the breaker is open.
func (b *Breaker) IsOpen() bool { return b.State() == StateOpen }

// RecordFailure notes a failed attempt. useFallback is true when the caller
// should take the degraded path (the breaker is now, or already was, open).
func (b *Breaker) RecordFailure() (useFallback bool, change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		// Already open; a failure just resets any closing progress.
		b.successes = 0
		return true, Change{}
	default:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.state = StateOpen
			b.failures = 0
			b.successes = 0
			return true, Change{Opened: true}
		}
		return false, Change{}
	}
}

// RecordSuccess notes a successful attempt. usePrimary is true when the
// caller can rely on the primary path (the breaker is closed after this call).
func (b *Breaker) RecordSuccess() (usePrimary bool, change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.state = StateClosed
			b.failures = 0
			b.successes = 0
			return true, Change{Closed: true}
		}
		return false, Change{}
	default:
		b.failures = 0
		return true, Change{}
	}
}

// Reset forces the breaker closed and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}
