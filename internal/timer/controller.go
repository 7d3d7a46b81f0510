package timer

import (
	"sync"
	"time"
)

// Controller runs one countdown per live room. Remaining time is always
// derived from the stored deadline, never from a decremented counter, so it
// stays correct across delayed ticks. Expiry fires exactly once; Stop is
// idempotent because manual end and natural expiry race and whichever fires
// first must win.
type Controller struct {
	mu     sync.Mutex
	timers map[string]*roomTimer

	interval time.Duration
	now      func() time.Time
}

type roomTimer struct {
	deadline time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a controller ticking on a 1-second cadence.
func New() *Controller {
	return newController(time.Second, time.Now)
}

// newController allows tests to compress the cadence and control the clock.
func newController(interval time.Duration, now func() time.Time) *Controller {
	return &Controller{
		timers:   make(map[string]*roomTimer),
		interval: interval,
		now:      now,
	}
}

// Start begins the countdown for a room. onTick receives the clamped
// remaining seconds on every cadence; onExpire runs exactly once when the
// deadline passes, after which the timer stops itself. Starting an already
// running room timer replaces it.
func (c *Controller) Start(roomID string, duration time.Duration, onTick func(remaining int64), onExpire func()) {
	t := &roomTimer{
		deadline: c.now().Add(duration),
		stop:     make(chan struct{}),
	}

	c.mu.Lock()
	if prev, ok := c.timers[roomID]; ok {
		prev.stopOnce.Do(func() { close(prev.stop) })
	}
	c.timers[roomID] = t
	c.mu.Unlock()

	go c.run(roomID, t, onTick, onExpire)
}

// Stop cancels a running timer. Stopping an absent or already stopped timer
// is a no-op.
func (c *Controller) Stop(roomID string) {
	c.mu.Lock()
	t, ok := c.timers[roomID]
	if ok {
		delete(c.timers, roomID)
	}
	c.mu.Unlock()

	if ok {
		t.stopOnce.Do(func() { close(t.stop) })
	}
}

// Remaining reports the clamped seconds left for a room, and whether a timer
// is running for it.
func (c *Controller) Remaining(roomID string) (int64, bool) {
	c.mu.Lock()
	t, ok := c.timers[roomID]
	c.mu.Unlock()

	if !ok {
		return 0, false
	}
	return clampSeconds(t.deadline, c.now()), true
}

func (c *Controller) run(roomID string, t *roomTimer, onTick func(int64), onExpire func()) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			remaining := clampSeconds(t.deadline, c.now())
			onTick(remaining)
			if remaining == 0 {
				// Detach before firing so Stop from inside the
				// callback is a no-op, not a deadlock.
				c.mu.Lock()
				if c.timers[roomID] == t {
					delete(c.timers, roomID)
				}
				c.mu.Unlock()
				t.stopOnce.Do(func() { close(t.stop) })
				onExpire()
				return
			}
		}
	}
}

// clampSeconds rounds partial seconds up, so remaining hits 0 only once the
// deadline has actually passed and expiry never fires early.
func clampSeconds(deadline, now time.Time) int64 {
	left := deadline.Sub(now)
	if left <= 0 {
		return 0
	}
	return int64((left + time.Second - 1) / time.Second)
}
