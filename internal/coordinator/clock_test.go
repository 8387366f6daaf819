package coordinator

import "time"

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// At sets the clock to start+d, where start is the clock's creation time.
func (c *fakeClock) At(start time.Time, d time.Duration) { c.t = start.Add(d) }
