package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetme/pkg/platform/sentinel"
)

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, Delay: 5 * time.Millisecond, Terminal: IsTerminal}
}

func TestDo_SuccessFirstAttempt(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastPolicy(3), func(context.Context) (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, calls)
}

func TestDo_TransientThenSuccess(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastPolicy(3), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", fmt.Errorf("fetch roster: %w", sentinel.ErrUnavailable)
		}
		return "roster", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "roster", got)
	assert.Equal(t, 3, calls)
}

// A terminal failure on the first attempt must not trigger a second call,
// regardless of remaining budget.
func TestDo_TerminalShortCircuits(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(3), func(context.Context) (int, error) {
		calls++
		return 0, fmt.Errorf("read members: %w", sentinel.ErrPermissionDenied)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrPermissionDenied))
	assert.Equal(t, 1, calls)
}

func TestDo_MalformedIsTerminal(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(5), func(context.Context) (int, error) {
		calls++
		return 0, sentinel.ErrMalformed
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsBudgetAndWrapsLastError(t *testing.T) {
	calls := 0
	start := time.Now()
	_, err := Do(context.Background(), fastPolicy(3), func(context.Context) (int, error) {
		calls++
		return 0, fmt.Errorf("attempt %d: %w", calls, sentinel.ErrUnavailable)
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, errors.Is(err, sentinel.ErrUnavailable))
	assert.Contains(t, err.Error(), "3 attempts exhausted")
	assert.Contains(t, err.Error(), "attempt 3")
	// Two delays between three attempts, none after the last.
	assert.Less(t, elapsed, 10*fastPolicy(3).Delay)
}

func TestDo_NotFoundIsTransient(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastPolicy(4), func(context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, sentinel.ErrNotFound
		}
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, 2, calls)
}

func TestDo_CancelDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	p := Policy{Attempts: 5, Delay: 1 * time.Hour, Terminal: IsTerminal}

	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, p, func(context.Context) (int, error) {
			calls++
			return 0, sentinel.ErrUnavailable
		})
		done <- err
	}()

	// Let the first attempt fail and the loop park in its delay.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Equal(t, 1, calls)
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestDo_CancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(ctx, fastPolicy(3), func(context.Context) (int, error) {
		calls++
		return 1, nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, calls)
}

func TestDo_FetchDeadlineStopsLoop(t *testing.T) {
	// Expiry of the fetch's own context is not retryable: every further
	// attempt would fail instantly on the same dead context. Per-query
	// timeouts inside a store surface as ErrUnavailable and stay transient.
	calls := 0
	_, err := Do(context.Background(), fastPolicy(3), func(context.Context) (int, error) {
		calls++
		return 0, fmt.Errorf("query: %w", context.DeadlineExceeded)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 1, calls)
}

func TestDo_OnRetryHook(t *testing.T) {
	var seen []int
	p := fastPolicy(3)
	p.OnRetry = func(attempt int, err error) {
		seen = append(seen, attempt)
		assert.True(t, errors.Is(err, sentinel.ErrUnavailable))
	}

	calls := 0
	_, err := Do(context.Background(), p, func(context.Context) (int, error) {
		calls++
		return 0, sentinel.ErrUnavailable
	})
	require.Error(t, err)
	// Hook fires before re-attempts only: after attempts 1 and 2.
	assert.Equal(t, []int{1, 2}, seen)
}

func TestPolicies(t *testing.T) {
	assert.Equal(t, 3, DefaultPolicy().Attempts)
	assert.Equal(t, 5, JustCreatedPolicy().Attempts)
	assert.Equal(t, DefaultDelay, DefaultPolicy().Delay)
}
