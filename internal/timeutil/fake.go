package timeutil

import "time"

// FakeClock is a Clock whose current time is set manually. Calendar
// arithmetic matches SystemClock so tests exercise the same day-boundary
// behavior as production.
type FakeClock struct {
	SystemClock
	current time.Time
}

// NewFakeClock returns a FakeClock frozen at the given instant.
func NewFakeClock(at time.Time) *FakeClock {
	return &FakeClock{current: at}
}

func (c *FakeClock) Now() time.Time {
	return c.current
}

// Set moves the clock to the given instant.
func (c *FakeClock) Set(at time.Time) {
	c.current = at
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
