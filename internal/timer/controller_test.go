package timer

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCountdownTicksAndExpiresOnce(t *testing.T) {
	c := newController(2*time.Millisecond, time.Now)

	var mu sync.Mutex
	var ticks []int64
	var expires int32
	done := make(chan struct{})

	c.Start("r1", 20*time.Millisecond,
		func(remaining int64) {
			mu.Lock()
			ticks = append(ticks, remaining)
			mu.Unlock()
		},
		func() {
			if atomic.AddInt32(&expires, 1) == 1 {
				close(done)
			}
		},
	)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not expire")
	}
	// Leave room for a hypothetical duplicate expiry to fire.
	time.Sleep(20 * time.Millisecond)

	require.Equal(t, int32(1), atomic.LoadInt32(&expires))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, ticks)
	for i := 1; i < len(ticks); i++ {
		require.LessOrEqual(t, ticks[i], ticks[i-1], "remaining must be non-increasing")
	}
	require.Equal(t, int64(0), ticks[len(ticks)-1], "last tick before expiry is exactly 0")
	for _, r := range ticks {
		require.GreaterOrEqual(t, r, int64(0), "remaining is never negative")
	}
}

func TestStopCancelsExpiry(t *testing.T) {
	c := newController(2*time.Millisecond, time.Now)

	var expires int32
	c.Start("r1", 10*time.Millisecond, func(int64) {}, func() {
		atomic.AddInt32(&expires, 1)
	})

	c.Stop("r1")
	time.Sleep(50 * time.Millisecond)

	require.Equal(t, int32(0), atomic.LoadInt32(&expires))
}

func TestStopIsIdempotent(t *testing.T) {
	c := newController(2*time.Millisecond, time.Now)

	c.Start("r1", 10*time.Millisecond, func(int64) {}, func() {})
	c.Stop("r1")
	c.Stop("r1")
	c.Stop("missing")
}

func TestRemainingDerivesFromDeadline(t *testing.T) {
	base := time.Now()
	now := base
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	c := newController(time.Hour, clock) // cadence irrelevant here
	c.Start("r1", 90*time.Second, func(int64) {}, func() {})

	got, ok := c.Remaining("r1")
	require.True(t, ok)
	require.Equal(t, int64(90), got)

	// Jumping the clock forward is reflected immediately: remaining is
	// derived, not decremented.
	mu.Lock()
	now = base.Add(89 * time.Second)
	mu.Unlock()
	got, ok = c.Remaining("r1")
	require.True(t, ok)
	require.Equal(t, int64(1), got)

	// A partially elapsed second still counts: 500ms short of the deadline
	// rounds up to 1, and 0 is reported only once the deadline has passed.
	mu.Lock()
	now = base.Add(89*time.Second + 500*time.Millisecond)
	mu.Unlock()
	got, ok = c.Remaining("r1")
	require.True(t, ok)
	require.Equal(t, int64(1), got)

	mu.Lock()
	now = base.Add(90 * time.Second)
	mu.Unlock()
	got, ok = c.Remaining("r1")
	require.True(t, ok)
	require.Equal(t, int64(0), got)

	mu.Lock()
	now = base.Add(5 * time.Minute)
	mu.Unlock()
	got, ok = c.Remaining("r1")
	require.True(t, ok)
	require.Equal(t, int64(0), got, "remaining clamps at zero")

	c.Stop("r1")
	_, ok = c.Remaining("r1")
	require.False(t, ok)
}

func TestRestartReplacesTimer(t *testing.T) {
	c := newController(2*time.Millisecond, time.Now)

	var firstExpired int32
	c.Start("r1", 5*time.Millisecond, func(int64) {}, func() {
		atomic.AddInt32(&firstExpired, 1)
	})

	done := make(chan struct{})
	c.Start("r1", 15*time.Millisecond, func(int64) {}, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("replacement timer did not expire")
	}
	require.Equal(t, int32(0), atomic.LoadInt32(&firstExpired), "replaced timer must not fire")
}
