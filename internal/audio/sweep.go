package audio

import (
	"fmt"
	"io"
	"math"
)

// Sweep is an endless exponential sine sweep, useful as a demo source.
type Sweep struct {
	rate   int
	period int // samples per sweep
	lo, hi float64
	amp    float64
	pos    int64 // output bytes
}

// NewSweep sweeps from lo to hi Hz every seconds, repeating forever.
func NewSweep(rate int, lo, hi, seconds float64) (*Sweep, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", rate)
	}
	if lo <= 0 || hi <= lo || hi > float64(rate)/2 {
		return nil, fmt.Errorf("invalid sweep range %v..%v Hz at %d Hz", lo, hi, rate)
	}
	if seconds <= 0 {
		return nil, fmt.Errorf("sweep period must be positive, got %v", seconds)
	}
	return &Sweep{
		rate:   rate,
		period: max(int(seconds*float64(rate)), 1),
		lo:     lo,
		hi:     hi,
		amp:    0.5,
	}, nil
}

// DemoSweep is the default 20 Hz to 20 kHz sweep at 48 kHz.
func DemoSweep() *Sweep {
	s, _ := NewSweep(48000, 20, 20000, 8)
	return s
}

func (s *Sweep) Length() int64     { return 0 }
func (s *Sweep) SampleRate() int   { return s.rate }
func (s *Sweep) ChannelCount() int { return 1 }

// Frequency returns the instantaneous frequency at sample index n.
func (s *Sweep) Frequency(n int64) float64 {
	t := float64(n%int64(s.period)) / float64(s.period)
	return s.lo * math.Pow(s.hi/s.lo, t)
}

// sample evaluates the sweep at absolute sample n. Phase restarts with
// every period.
func (s *Sweep) sample(n int64) float64 {
	t := float64(n%int64(s.period)) / float64(s.rate)
	dur := float64(s.period) / float64(s.rate)
	k := math.Log(s.hi / s.lo)
	phase := 2 * math.Pi * s.lo * dur / k * (math.Exp(t/dur*k) - 1)
	return s.amp * math.Sin(phase)
}

func (s *Sweep) Read(p []byte) (int, error) {
	n := len(p) / 2
	if n == 0 {
		return 0, nil
	}
	first := s.pos / 2
	for i := 0; i < n; i++ {
		putSample(p[i*2:], int(s.sample(first+int64(i))*32767))
	}
	s.pos += int64(n * 2)
	return n * 2, nil
}

// Seek supports absolute and relative positions; there is no end.
func (s *Sweep) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = s.pos + offset
	default:
		return s.pos, fmt.Errorf("sweep has no end to seek from")
	}
	s.pos = max(pos, 0) &^ 1
	return s.pos, nil
}
