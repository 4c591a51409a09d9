// Package clock defines the source of time of the ledger. Time is expressed in
// whole seconds since the Unix epoch.
package clock

import (
	"sync"
	"time"
)

// Clock is the interface to read the current time.
type Clock interface {
	// Now returns the current time in seconds since the epoch.
	Now() uint64
}

// System is the clock of the operating system.
//
// - implements clock.Clock
type System struct{}

// Now implements clock.Clock.
func (System) Now() uint64 {
	now := time.Now().Unix()
	if now < 0 {
		return 0
	}

	return uint64(now)
}

// offsetClock shifts the time of another clock.
//
// - implements clock.Clock
type offsetClock struct {
	inner  Clock
	offset time.Duration
}

// Offset returns a clock that is shifted by the duration from the inner one. A
// negative shift never goes before the epoch.
func Offset(inner Clock, d time.Duration) Clock {
	return offsetClock{inner: inner, offset: d}
}

// Now implements clock.Clock.
func (c offsetClock) Now() uint64 {
	now := c.inner.Now()
	secs := int64(c.offset / time.Second)

	if secs < 0 {
		shift := uint64(-secs)
		if shift > now {
			return 0
		}

		return now - shift
	}

	return SaturatingAdd(now, uint64(secs))
}

// Fixed is a clock that always returns the same time.
//
// - implements clock.Clock
type Fixed uint64

// Now implements clock.Clock.
func (c Fixed) Now() uint64 {
	return uint64(c)
}

// Manual is a clock that only moves when told to. It is safe for concurrent
// use.
//
// - implements clock.Clock
type Manual struct {
	sync.Mutex
	now uint64
}

// NewManual returns a manual clock starting at the given time.
func NewManual(start uint64) *Manual {
	return &Manual{now: start}
}

// Now implements clock.Clock.
func (c *Manual) Now() uint64 {
	c.Lock()
	defer c.Unlock()

	return c.now
}

// Advance moves the clock forward by the number of seconds.
func (c *Manual) Advance(secs uint64) {
	c.Lock()
	c.now = SaturatingAdd(c.now, secs)
	c.Unlock()
}

// Set moves the clock to the given time.
func (c *Manual) Set(now uint64) {
	c.Lock()
	c.now = now
	c.Unlock()
}

// SaturatingAdd returns a+b, or the largest time when the sum overflows.
func SaturatingAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}

	return sum
}
