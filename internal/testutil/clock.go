package testutil

import (
	"sync"
	"time"
)

// DeterministicClock is a thread-safe wall clock for tests that advances by a
// fixed step on every call.
//
// The first call to Now() returns the start time.
type DeterministicClock struct {
	mu    sync.Mutex
	now   time.Time
	start time.Time
	step  time.Duration
}

// NewDeterministicClock creates a clock starting at start, advancing by step.
func NewDeterministicClock(start time.Time, step time.Duration) *DeterministicClock {
	return &DeterministicClock{now: start, start: start, step: step}
}

// Now returns the current time and advances the clock.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Reset rewinds the clock to its start time.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
