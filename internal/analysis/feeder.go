package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/olivier-w/specview/internal/ring"
)

// SampleSource exposes a mono sample history addressed by absolute position.
type SampleSource interface {
	// Written returns how many samples have been written in total.
	Written() uint64
	// Window fills dst with the samples ending at absolute position end.
	// Positions before the start of the stream read as zero. It reports
	// false when part of the window is no longer retained.
	Window(end uint64, dst []float64) bool
}

// Feeder pushes one column into a ring for every hop of new audio.
type Feeder struct {
	src      SampleSource
	analyzer *Analyzer
	ring     *ring.Ring
	hop      int
	logger   *slog.Logger

	consumed uint64
	samples  []float64
	column   []float32
}

// NewFeeder wires a source to a ring. hop is the column spacing in samples.
func NewFeeder(src SampleSource, a *Analyzer, r *ring.Ring, hop int, logger *slog.Logger) (*Feeder, error) {
	if hop <= 0 {
		return nil, fmt.Errorf("hop size must be positive, got %d", hop)
	}
	if d := r.Descriptor(); d.Height != a.cfg.Bins {
		return nil, fmt.Errorf("ring height %d does not match %d bins", d.Height, a.cfg.Bins)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Feeder{
		src:      src,
		analyzer: a,
		ring:     r,
		hop:      hop,
		logger:   logger,
		samples:  make([]float64, a.cfg.FFTSize),
		column:   make([]float32, a.cfg.Bins),
	}, nil
}

// Interval is the wall time covered by one hop.
func (f *Feeder) Interval() time.Duration {
	return time.Duration(float64(f.hop) / f.analyzer.cfg.SampleRate * float64(time.Second))
}

// Step pushes every complete hop available from the source and returns the
// number of columns pushed.
func (f *Feeder) Step() (int, error) {
	written := f.src.Written()
	pushed := 0
	for f.consumed+uint64(f.hop) <= written {
		end := f.consumed + uint64(f.hop)
		f.consumed = end
		if !f.src.Window(end, f.samples) {
			continue
		}
		if err := f.analyzer.Column(f.samples, f.column); err != nil {
			return pushed, err
		}
		if err := f.ring.Push(f.column); err != nil {
			return pushed, err
		}
		pushed++
	}
	return pushed, nil
}

// Run steps the feeder at hop cadence until ctx is cancelled.
func (f *Feeder) Run(ctx context.Context) error {
	interval := max(f.Interval()/2, time.Millisecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	f.logger.Info("feeder started", "hop", f.hop, "interval", interval)
	defer f.logger.Info("feeder stopped", "consumed", f.consumed)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := f.Step(); err != nil {
				return fmt.Errorf("feed column: %w", err)
			}
		}
	}
}

// RunOffline analyses a whole mono buffer, pushing one column per hop.
// Windows before the start of pcm are zero padded.
func RunOffline(a *Analyzer, r *ring.Ring, pcm []float64, hop int) (int, error) {
	f, err := NewFeeder(sliceSource(pcm), a, r, hop, slog.Default())
	if err != nil {
		return 0, err
	}
	return f.Step()
}

type sliceSource []float64

func (s sliceSource) Written() uint64 { return uint64(len(s)) }

func (s sliceSource) Window(end uint64, dst []float64) bool {
	e := int(end)
	start := e - len(dst)
	for i := range dst {
		j := start + i
		if j < 0 || j >= len(s) {
			dst[i] = 0
			continue
		}
		dst[i] = s[j]
	}
	return true
}
