// Package analysis turns PCM into normalized magnitude columns.
package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// ErrWindowLength is returned when a sample window does not match the FFT size.
var ErrWindowLength = errors.New("sample window does not match fft size")

// Config describes one analysis setup.
type Config struct {
	FFTSize    int
	Bins       int // display rows per column
	SampleRate float64
	FloorDB    float64
	CeilingDB  float64
	Scale      FrequencyScale
}

func (c Config) validate() error {
	if c.FFTSize < 16 {
		return fmt.Errorf("fft size %d too small", c.FFTSize)
	}
	if c.Bins <= 0 {
		return fmt.Errorf("bins must be positive, got %d", c.Bins)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %v", c.SampleRate)
	}
	if c.CeilingDB <= c.FloorDB {
		return fmt.Errorf("ceiling %vdB must be above floor %vdB", c.CeilingDB, c.FloorDB)
	}
	return nil
}

// Analyzer computes one magnitude column per sample window.
// It reuses internal buffers and is not safe for concurrent use.
type Analyzer struct {
	cfg     Config
	fft     *fourier.FFT
	coeffs  []float64 // Hann window
	norm    float64
	mapping BinMapping

	windowed []float64
	spectrum []complex128
	db       []float64
	rows     []float64
}

// NewAnalyzer validates cfg and prepares the transform.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}

	coeffs := make([]float64, cfg.FFTSize)
	for i := range coeffs {
		coeffs[i] = 1
	}
	window.Hann(coeffs)

	var sum float64
	for _, c := range coeffs {
		sum += c
	}

	return &Analyzer{
		cfg:      cfg,
		fft:      fourier.NewFFT(cfg.FFTSize),
		coeffs:   coeffs,
		norm:     2 / sum,
		mapping:  NewBinMapping(cfg.Bins, cfg.FFTSize, cfg.SampleRate, cfg.Scale),
		windowed: make([]float64, cfg.FFTSize),
		spectrum: make([]complex128, cfg.FFTSize/2+1),
		db:       make([]float64, cfg.FFTSize/2+1),
		rows:     make([]float64, cfg.Bins),
	}, nil
}

// Config returns the configuration the analyzer was built with.
func (a *Analyzer) Config() Config { return a.cfg }

// Column windows samples, transforms them and writes Bins normalized
// magnitudes into dst. Row 0 of dst is the highest frequency.
func (a *Analyzer) Column(samples []float64, dst []float32) error {
	if len(samples) != a.cfg.FFTSize {
		return fmt.Errorf("%w: got %d, want %d", ErrWindowLength, len(samples), a.cfg.FFTSize)
	}
	if len(dst) != a.cfg.Bins {
		return fmt.Errorf("column has %d rows, want %d", len(dst), a.cfg.Bins)
	}

	for i, s := range samples {
		a.windowed[i] = s * a.coeffs[i]
	}
	a.fft.Coefficients(a.spectrum, a.windowed)

	for i, c := range a.spectrum {
		mag := math.Hypot(real(c), imag(c)) * a.norm
		a.db[i] = 20 * math.Log10(math.Max(mag, 1e-12))
	}
	a.mapping.Apply(a.db, a.rows)

	floor, ceil := a.cfg.FloorDB, a.cfg.CeilingDB
	inv := 1 / (ceil - floor)
	for i, v := range a.rows {
		v = math.Min(math.Max(v, floor), ceil)
		dst[i] = float32((v - floor) * inv)
	}
	return nil
}
