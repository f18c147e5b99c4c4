package spectrogram

import (
	"testing"
	"time"
)

func TestZoomDefaultsToFullRange(t *testing.T) {
	z := NewZoom()
	if lo, hi := z.YRange(); lo != 0 || hi != 1 {
		t.Fatalf("default range [%v,%v], want [0,1]", lo, hi)
	}
}

func TestZoomAtCentre(t *testing.T) {
	z := NewZoom()
	z.ZoomAt(0.5, 2)
	lo, hi := z.YRange()
	if !near(lo, 0.25, 1e-9) || !near(hi, 0.75, 1e-9) {
		t.Fatalf("range after 2x = [%v,%v], want [0.25,0.75]", lo, hi)
	}
}

func TestZoomAtKeepsPivotFixed(t *testing.T) {
	z := NewZoom()
	const y = 0.2
	for iterK := 0; iterK < 5; iterK++ {
		lo, hi := z.YRange()
		before := lo + y*(hi-lo)
		z.ZoomAt(y, ZoomStep)
		lo, hi = z.YRange()
		if after := lo + y*(hi-lo); !near(before, after, 1e-9) {
			t.Fatalf("pivot moved from %v to %v at level %v", before, after, z.Level)
		}
	}
}

func TestZoomClamps(t *testing.T) {
	z := NewZoom()
	z.ZoomAt(0.5, 1000)
	if z.Level != MaxZoom {
		t.Fatalf("level %v, want %v", z.Level, MaxZoom)
	}
	z.ZoomAt(0.5, 1e-6)
	if z.Level != MinZoom {
		t.Fatalf("level %v, want %v", z.Level, MinZoom)
	}

	z.ZoomAt(0.5, 4)
	z.Move(-10)
	if lo, _ := z.YRange(); lo != 0 {
		t.Fatalf("pan past top gives lo=%v", lo)
	}
	z.Move(10)
	if _, hi := z.YRange(); hi != 1 {
		t.Fatalf("pan past bottom gives hi=%v", hi)
	}

	z.Reset()
	if z != NewZoom() {
		t.Fatalf("reset left %+v", z)
	}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestScrollClockPhase(t *testing.T) {
	fc := &fakeClock{t: time.Unix(1000, 0)}
	c := NewScrollClock(fc.now)

	if c.Phase() != 0 {
		t.Fatal("phase before any column must be 0")
	}
	c.Observe(1)
	fc.advance(50 * time.Millisecond)
	if c.Phase() != 0 {
		t.Fatal("phase with unknown interval must be 0")
	}

	fc.advance(50 * time.Millisecond)
	c.Observe(1)
	if got := c.Interval(); got != 100*time.Millisecond {
		t.Fatalf("interval %v, want 100ms", got)
	}

	fc.advance(50 * time.Millisecond)
	if got := c.Phase(); !near(got, 0.5, 1e-9) {
		t.Fatalf("phase %v, want 0.5", got)
	}
	fc.advance(100 * time.Millisecond)
	if got := c.Phase(); got != 0 {
		t.Fatalf("overdue phase %v, want 0", got)
	}
}

func TestScrollClockSmoothsInterval(t *testing.T) {
	fc := &fakeClock{t: time.Unix(1000, 0)}
	c := NewScrollClock(fc.now)

	c.Observe(1)
	fc.advance(100 * time.Millisecond)
	c.Observe(1)
	fc.advance(200 * time.Millisecond)
	c.Observe(2)
	if got := c.Interval().Seconds(); !near(got, 0.1, 1e-6) {
		t.Fatalf("interval after batch %v, want 0.1", got)
	}

	fc.advance(200 * time.Millisecond)
	c.Observe(1)
	if got := c.Interval().Seconds(); !near(got, 0.12, 1e-6) {
		t.Fatalf("smoothed interval %v, want 0.12", got)
	}

	c.Reset()
	if c.Phase() != 0 || c.Interval() != 0 {
		t.Fatal("reset kept state")
	}
}
