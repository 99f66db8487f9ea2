// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"sync"
	"time"
)

// epoch is where a FakeClock starts when no time is given.
var epoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

type (
	// Clock is the time source of the limiter, sweeper and session store.
	Clock interface {
		Now() time.Time
		// After delivers the current time once d has elapsed.
		After(d time.Duration) <-chan time.Time
	}

	// RealClock reads the system clock.
	RealClock struct{}

	// FakeClock only moves when Advance is called.
	FakeClock struct {
		mu      sync.Mutex
		now     time.Time
		pending []timer
	}

	timer struct {
		at time.Time
		ch chan time.Time
	}
)

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// NewFakeClock returns a FakeClock set to start, or to a fixed epoch when
// start is zero.
func NewFakeClock(start time.Time) *FakeClock {
	if start.IsZero() {
		start = epoch
	}
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After fires immediately for d <= 0, otherwise on the Advance that reaches
// now+d.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.pending = append(c.pending, timer{at: c.now.Add(d), ch: ch})
	return ch
}

// Advance moves the clock forward and fires every timer that came due.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	kept := c.pending[:0]
	for _, t := range c.pending {
		if c.now.Before(t.at) {
			kept = append(kept, t)
			continue
		}
		t.ch <- c.now
	}
	c.pending = kept
}

// Waiters reports how many After channels have not fired yet. Tests use it
// to know a goroutine is parked on the clock before advancing it.
func (c *FakeClock) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// WaitForWaiters blocks until at least n timers are pending or timeout
// passes, and reports whether they appeared.
func (c *FakeClock) WaitForWaiters(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for c.Waiters() < n {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}
