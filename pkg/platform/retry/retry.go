// Package retry runs read operations with a bounded, fixed-delay retry loop.
//
// The loop distinguishes two failure classes:
//
//   - terminal: the outcome cannot change by waiting (permission denied,
//     malformed identifier). The first such error is returned immediately.
//   - transient: the outcome may change shortly (backend unavailable, row
//     not yet visible after a change notification). These are retried until
//     the attempt budget runs out; the last error is returned.
//
// Context cancellation always wins: it aborts a pending delay immediately
// and no further attempts are made.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budgetme/pkg/platform/sentinel"
)

const (
	// DefaultAttempts bounds an ordinary read.
	DefaultAttempts = 3
	// JustCreatedAttempts bounds reads chasing a row that a change
	// notification says exists but replication may not have made visible.
	JustCreatedAttempts = 5
	// DefaultDelay is the fixed pause between attempts.
	DefaultDelay = 1 * time.Second
)

// Policy configures one retry loop. The zero value is not usable; start
// from DefaultPolicy or JustCreatedPolicy.
type Policy struct {
	// Attempts is the total number of tries, first call included.
	Attempts int
	// Delay is the fixed pause between consecutive attempts.
	Delay time.Duration
	// Terminal reports whether an error makes further attempts pointless.
	Terminal func(error) bool
	// OnRetry, if set, is invoked before each re-attempt with the attempt
	// number just failed (1-based) and its error.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy returns the standard read policy: 3 attempts, 1s apart.
func DefaultPolicy() Policy {
	return Policy{Attempts: DefaultAttempts, Delay: DefaultDelay, Terminal: IsTerminal}
}

// JustCreatedPolicy stretches the budget to 5 attempts for reads that race
// the visibility of a freshly written row.
func JustCreatedPolicy() Policy {
	return Policy{Attempts: JustCreatedAttempts, Delay: DefaultDelay, Terminal: IsTerminal}
}

// IsTerminal is the default terminal classifier: permission and structural
// errors cannot be fixed by waiting. Everything else, ErrNotFound included,
// counts as transient because engine reads run after a change notification
// claimed the data exists.
func IsTerminal(err error) bool {
	return errors.Is(err, sentinel.ErrPermissionDenied) ||
		errors.Is(err, sentinel.ErrMalformed)
}

// Do runs op under p and returns its first successful result.
//
// Terminal errors and context errors are returned as-is; an exhausted
// budget returns the final attempt's error wrapped with the attempt count.
// There is no delay after the final attempt.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	terminal := p.Terminal
	if terminal == nil {
		terminal = IsTerminal
	}

	var lastErr error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, err
		}
		if terminal(err) {
			return zero, err
		}
		lastErr = err

		if attempt == p.Attempts {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		if err := sleep(ctx, p.Delay); err != nil {
			return zero, err
		}
	}
	return zero, fmt.Errorf("%d attempts exhausted: %w", p.Attempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
