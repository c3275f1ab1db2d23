// Package timeutil lets job bookkeeping read time through an interface so
// tests can pin and advance it.
package timeutil

import (
	"sync"
	"time"
)

// Clock is the time source used by stores and workers.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	// After fires once d has elapsed on this clock.
	After(d time.Duration) <-chan time.Time
}

// RealClock reads the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time                         { return time.Now() }
func (RealClock) Since(t time.Time) time.Duration        { return time.Since(t) }
func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// MockClock only moves when told to.
type MockClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []waiter
}

type waiter struct {
	at time.Time
	ch chan time.Time
}

// NewMockClock returns a clock frozen at t.
func NewMockClock(t time.Time) *MockClock { return &MockClock{now: t} }

// Now returns the frozen time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Since measures against the frozen time.
func (c *MockClock) Since(t time.Time) time.Duration { return c.Now().Sub(t) }

// After returns a channel that fires when Advance or Set reaches now+d.
// A non-positive d fires immediately.
func (c *MockClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	at := c.now.Add(d)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.waiters = append(c.waiters, waiter{at: at, ch: ch})
	return ch
}

// Advance moves the clock forward by d.
func (c *MockClock) Advance(d time.Duration) { c.Set(c.Now().Add(d)) }

// Set moves the clock to t and fires any waiters that are now due.
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
	pending := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.at.After(t) {
			w.ch <- t
			continue
		}
		pending = append(pending, w)
	}
	c.waiters = pending
}
