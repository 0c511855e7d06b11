package scheduler

import (
	"sync"
	"time"
)

// Timer is a pending tick that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules tick callbacks. The scheduler holds at most one Timer
// from it at a time and cancels it before asking for another.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

// SystemClock is the default Clock backed by the standard library timers.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// ManualClock only fires when told to. Each Fire runs the pending callback
// on the caller's goroutine and advances Now by the requested delay.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	pending *manualTimer
}

// NewManualClock creates a ManualClock starting at now.
func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

type manualTimer struct {
	clock   *ManualClock
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	if t.clock.pending == t {
		t.clock.pending = nil
	}
	return true
}

func (c *ManualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, delay: d, fn: f}
	c.pending = t
	return t
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Pending reports whether a callback is waiting to fire.
func (c *ManualClock) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// Fire runs the pending callback, if any, and reports whether one ran.
func (c *ManualClock) Fire() bool {
	c.mu.Lock()
	t := c.pending
	if t == nil {
		c.mu.Unlock()
		return false
	}
	c.pending = nil
	t.stopped = true
	c.now = c.now.Add(t.delay)
	c.mu.Unlock()

	t.fn()
	return true
}

// FireN fires up to n pending callbacks and returns how many ran.
func (c *ManualClock) FireN(n int) int {
	fired := 0
	for fired < n && c.Fire() {
		fired++
	}
	return fired
}
