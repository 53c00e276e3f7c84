package throttle

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestThrottle_CoalescesWithinWindow(t *testing.T) {
	thr := New(100 * time.Millisecond)

	assert.True(t, thr.Allow("family:metrics"), "first trigger opens the window")
	assert.False(t, thr.Allow("family:metrics"), "second trigger inside window is dropped")
	assert.False(t, thr.Allow("family:metrics"), "third trigger inside window is dropped")
}

func TestThrottle_ReopensAfterWindow(t *testing.T) {
	thr := New(50 * time.Millisecond)

	assert.True(t, thr.Allow("k"))
	assert.False(t, thr.Allow("k"))

	time.Sleep(60 * time.Millisecond)
	assert.True(t, thr.Allow("k"), "window elapsed, next trigger runs")
}

func TestThrottle_KeysAreIndependent(t *testing.T) {
	thr := New(1 * time.Minute)

	assert.True(t, thr.Allow("family:roster"))
	assert.True(t, thr.Allow("family:metrics"), "other key unaffected by open window")
	assert.False(t, thr.Allow("family:roster"))
	assert.False(t, thr.Allow("family:metrics"))
}

func TestThrottle_BypassDrainsWindow(t *testing.T) {
	thr := New(1 * time.Minute)

	// Manual execution on a cold key: subsequent triggers inside the
	// window coalesce against it.
	thr.Bypass("k")
	assert.False(t, thr.Allow("k"))
}

func TestThrottle_BypassInsideOpenWindowIsNoop(t *testing.T) {
	thr := New(50 * time.Millisecond)

	assert.True(t, thr.Allow("k"))
	thr.Bypass("k")

	// The bypass must not extend the window beyond its original end.
	time.Sleep(60 * time.Millisecond)
	assert.True(t, thr.Allow("k"))
}

func TestThrottle_ForgetResetsKey(t *testing.T) {
	thr := New(1 * time.Minute)

	assert.True(t, thr.Allow("k"))
	assert.False(t, thr.Allow("k"))

	thr.Forget("k")
	assert.True(t, thr.Allow("k"), "forgotten key starts a fresh window")
}

func TestThrottle_SweepDropsIdleKeys(t *testing.T) {
	thr := New(10 * time.Millisecond)

	thr.Allow("old")
	time.Sleep(30 * time.Millisecond)
	thr.Allow("fresh")

	dropped := thr.Sweep(20 * time.Millisecond)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 1, thr.Len())
}

// Concurrent triggers on one key must collapse to a single execution per
// window, with no lost updates on the key map.
func TestThrottle_ConcurrentSingleWinner(t *testing.T) {
	thr := New(1 * time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for range 16 {
		wg.Go(func() {
			if thr.Allow("shared") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 1, allowed)
	assert.Equal(t, 1, thr.Len())
}

func TestThrottle_ConcurrentDistinctKeys(t *testing.T) {
	thr := New(1 * time.Minute)

	keys := []string{"a", "b", "c", "d"}
	var wg sync.WaitGroup
	results := make([]bool, len(keys))
	for i, k := range keys {
		wg.Go(func() {
			results[i] = thr.Allow(k)
		})
	}
	wg.Wait()

	for i, ok := range results {
		assert.True(t, ok, "key %s should win its own window", keys[i])
	}
}
