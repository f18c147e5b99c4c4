package spectrogram

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// PaletteMode selects how colours between stops are produced.
type PaletteMode uint8

const (
	// PaletteGradient blends neighbouring stops in CIE-Lab through a
	// 256-entry lookup table.
	PaletteGradient PaletteMode = iota
	// PaletteStops interpolates RGBA linearly between stops.
	PaletteStops
)

func (m PaletteMode) String() string {
	if m == PaletteStops {
		return "stops"
	}
	return "gradient"
}

const lutSize = 256

// DefaultStops is the heat map used when no palette is configured.
var DefaultStops = []color.NRGBA{
	{R: 0, G: 0, B: 0, A: 0},
	{R: 56, G: 27, B: 85, A: 255},
	{R: 155, G: 0, B: 0, A: 255},
	{R: 255, G: 188, B: 90, A: 255},
	{R: 255, G: 255, B: 255, A: 255},
}

// Palette maps normalized magnitudes to premultiplied colours.
// A Palette is immutable and safe for concurrent use.
type Palette struct {
	mode  PaletteMode
	stops []color.NRGBA
	lut   [lutSize]color.RGBA
}

// NewPalette builds a palette over evenly spaced stops.
func NewPalette(stops []color.NRGBA, mode PaletteMode) *Palette {
	p := &Palette{mode: mode, stops: append([]color.NRGBA(nil), stops...)}
	if mode == PaletteGradient && len(p.stops) > 0 {
		p.buildLUT()
	}
	return p
}

// Mode reports how the palette interpolates.
func (p *Palette) Mode() PaletteMode { return p.mode }

// Stops returns a copy of the palette stops.
func (p *Palette) Stops() []color.NRGBA {
	return append([]color.NRGBA(nil), p.stops...)
}

// WithMode returns a palette over the same stops using mode.
func (p *Palette) WithMode(mode PaletteMode) *Palette {
	return NewPalette(p.stops, mode)
}

func (p *Palette) buildLUT() {
	n := len(p.stops)
	for i := 0; i < lutSize; i++ {
		t := float64(i) / (lutSize - 1)
		if n == 1 {
			p.lut[i] = Premultiply(p.stops[0])
			continue
		}
		k, f := segment(t, n)
		a, b := p.stops[k], p.stops[k+1]
		rgb := labColor(a).BlendLab(labColor(b), f).Clamped()
		r, g, bl := rgb.RGB255()
		alpha := lerpByte(a.A, b.A, f)
		p.lut[i] = Premultiply(color.NRGBA{R: r, G: g, B: bl, A: alpha})
	}
	p.lut[0] = Premultiply(p.stops[0])
	p.lut[lutSize-1] = Premultiply(p.stops[n-1])
}

// Map returns the colour for magnitude v under the given contrast exponent.
func (p *Palette) Map(v float32, contrast float64) color.RGBA {
	n := len(p.stops)
	if n == 0 {
		return color.RGBA{}
	}
	if n == 1 {
		return Premultiply(p.stops[0])
	}

	if math.IsNaN(contrast) || contrast < MinContrast {
		contrast = MinContrast
	}
	adjusted := math.Pow(clamp01(float64(v)), contrast)

	if p.mode == PaletteStops {
		k, f := segment(adjusted, n)
		a, b := p.stops[k], p.stops[k+1]
		return Premultiply(color.NRGBA{
			R: lerpByte(a.R, b.R, f),
			G: lerpByte(a.G, b.G, f),
			B: lerpByte(a.B, b.B, f),
			A: lerpByte(a.A, b.A, f),
		})
	}

	x := adjusted * (lutSize - 1)
	i := int(x)
	if i >= lutSize-1 {
		return p.lut[lutSize-1]
	}
	f := x - float64(i)
	if f == 0 {
		return p.lut[i]
	}
	a, b := p.lut[i], p.lut[i+1]
	return color.RGBA{
		R: lerpByte(a.R, b.R, f),
		G: lerpByte(a.G, b.G, f),
		B: lerpByte(a.B, b.B, f),
		A: lerpByte(a.A, b.A, f),
	}
}

// segment locates t in [0,1] between stops k and k+1 of n.
func segment(t float64, n int) (k int, f float64) {
	pos := t * float64(n-1)
	k = min(int(math.Floor(pos)), n-2)
	return k, pos - float64(k)
}

func labColor(c color.NRGBA) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func lerpByte(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

// Premultiply converts a straight-alpha colour to premultiplied form.
func Premultiply(c color.NRGBA) color.RGBA {
	a := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R)*a + 127) / 255),
		G: uint8((uint32(c.G)*a + 127) / 255),
		B: uint8((uint32(c.B)*a + 127) / 255),
		A: c.A,
	}
}

// WithOpacity scales the alpha of c by opacity in [0,1].
func WithOpacity(c color.NRGBA, opacity float64) color.NRGBA {
	c.A = uint8(math.Round(float64(c.A) * clamp01(opacity)))
	return c
}
