package spectrogram

import (
	"image/color"
	"math"

	"github.com/olivier-w/specview/internal/ring"
)

// Regime selects how a pixel aggregates the cells it covers.
type Regime uint8

const (
	// RegimeBounded scans at most 64 rows by 16 columns per pixel.
	RegimeBounded Regime = iota
	// RegimeExact max-pools the full cell under each pixel.
	RegimeExact
)

func (r Regime) String() string {
	if r == RegimeExact {
		return "exact"
	}
	return "bounded"
}

// MinContrast is the smallest exponent the palette curve accepts.
const MinContrast = 0.01

// ViewState is the per-frame render configuration. It is not modified while a
// frame is being rendered.
type ViewState struct {
	Ring ring.Descriptor

	YMin, YMax  float64 // vertical zoom window in [0,1], 0 = top
	ScrollPhase float64 // sub-column offset in [0,1)

	Width, Height int // viewport in pixels

	Contrast   float64
	Background color.NRGBA
	Palette    *Palette

	Denoise bool
	Regime  Regime
}

// Sanitize returns a copy of v with the zoom window, scroll phase and
// contrast forced into their valid ranges.
func (v ViewState) Sanitize() ViewState {
	v.YMin = clamp01(v.YMin)
	v.YMax = clamp01(v.YMax)
	if v.YMax < v.YMin {
		v.YMin, v.YMax = v.YMax, v.YMin
	}

	v.ScrollPhase = clamp01(v.ScrollPhase)
	if v.ScrollPhase >= 1 {
		v.ScrollPhase = 0
	}

	if math.IsNaN(v.Contrast) || v.Contrast < MinContrast {
		v.Contrast = MinContrast
	}
	if v.Width < 0 {
		v.Width = 0
	}
	if v.Height < 0 {
		v.Height = 0
	}
	return v
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
