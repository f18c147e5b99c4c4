package spectrogram

import "time"

// ScrollClock estimates how far the view has advanced between producer
// columns so the image can scroll smoothly at display rate.
type ScrollClock struct {
	now      func() time.Time
	last     time.Time
	interval float64 // seconds per column, 0 until known
}

// NewScrollClock returns a clock reading time from now, or time.Now when nil.
func NewScrollClock(now func() time.Time) *ScrollClock {
	if now == nil {
		now = time.Now
	}
	return &ScrollClock{now: now}
}

// Observe records the arrival of n new columns.
func (c *ScrollClock) Observe(n int) {
	if n <= 0 {
		return
	}
	t := c.now()
	if !c.last.IsZero() {
		interval := t.Sub(c.last).Seconds() / float64(n)
		if c.interval > 0 {
			c.interval = c.interval*0.8 + interval*0.2
		} else {
			c.interval = interval
		}
	}
	c.last = t
}

// Interval returns the smoothed time between columns.
func (c *ScrollClock) Interval() time.Duration {
	return time.Duration(c.interval * float64(time.Second))
}

// Phase returns the fraction of a column interval elapsed since the last
// column arrived, or 0 when unknown or overdue.
func (c *ScrollClock) Phase() float64 {
	if c.last.IsZero() || c.interval <= 0 {
		return 0
	}
	phase := c.now().Sub(c.last).Seconds() / c.interval
	if phase >= 1 || phase < 0 {
		return 0
	}
	return phase
}

// Reset forgets all observed columns.
func (c *ScrollClock) Reset() {
	c.last = time.Time{}
	c.interval = 0
}
