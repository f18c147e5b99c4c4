package spectrogram

import (
	"image/color"
	"math"
	"testing"
)

func TestPaletteEndpoints(t *testing.T) {
	for _, mode := range []PaletteMode{PaletteGradient, PaletteStops} {
		p := NewPalette(DefaultStops, mode)
		first := Premultiply(DefaultStops[0])
		last := Premultiply(DefaultStops[len(DefaultStops)-1])

		for _, contrast := range []float64{0.01, 1, 1.4, 4} {
			if got := p.Map(0, contrast); got != first {
				t.Fatalf("%s contrast=%v: Map(0) = %v, want %v", mode, contrast, got, first)
			}
			if got := p.Map(1, contrast); got != last {
				t.Fatalf("%s contrast=%v: Map(1) = %v, want %v", mode, contrast, got, last)
			}
		}

		if got := p.Map(-3, 1); got != first {
			t.Fatalf("%s: negative input %v, want first stop", mode, got)
		}
		if got := p.Map(7, 1); got != last {
			t.Fatalf("%s: input above 1 %v, want last stop", mode, got)
		}
	}
}

func TestPaletteStopsInterpolation(t *testing.T) {
	p := NewPalette(grayStops, PaletteStops)

	if got := p.Map(0.5, 1); got != (color.RGBA{R: 128, G: 128, B: 128, A: 255}) {
		t.Fatalf("Map(0.5) = %v", got)
	}
	if got := p.Map(0.5, 2); got != (color.RGBA{R: 64, G: 64, B: 64, A: 255}) {
		t.Fatalf("Map(0.5) contrast 2 = %v", got)
	}
	if got := p.Map(0.5, 0); got != p.Map(0.5, MinContrast) {
		t.Fatalf("contrast below minimum not floored: %v", got)
	}
}

func TestPaletteGradientIsMonotonicForGray(t *testing.T) {
	p := NewPalette(grayStops, PaletteGradient)
	prev := p.Map(0, 1)
	for i := 1; i <= 1000; i++ {
		c := p.Map(float32(i)/1000, 1)
		if c.R < prev.R {
			t.Fatalf("gradient darkens at %d: %v after %v", i, c, prev)
		}
		prev = c
	}
}

func TestPaletteDegenerateStops(t *testing.T) {
	red := color.NRGBA{R: 255, A: 128}
	p := NewPalette([]color.NRGBA{red}, PaletteGradient)
	for _, v := range []float32{0, 0.3, 1} {
		if got := p.Map(v, 1); got != Premultiply(red) {
			t.Fatalf("single stop Map(%v) = %v", v, got)
		}
	}

	if got := NewPalette(nil, PaletteStops).Map(0.5, 1); got != (color.RGBA{}) {
		t.Fatalf("empty palette = %v, want transparent", got)
	}
}

func TestPremultiplyAndOpacity(t *testing.T) {
	got := Premultiply(color.NRGBA{R: 255, G: 255, B: 255, A: 128})
	if got != (color.RGBA{R: 128, G: 128, B: 128, A: 128}) {
		t.Fatalf("premultiplied white = %v", got)
	}

	c := WithOpacity(color.NRGBA{R: 10, A: 200}, 0.5)
	if c.A != 100 || c.R != 10 {
		t.Fatalf("opacity 0.5 -> %v", c)
	}
	if c := WithOpacity(color.NRGBA{A: 200}, 3); c.A != 200 {
		t.Fatalf("opacity is not clamped: %v", c)
	}
}

func TestPaletteWithModeKeepsStops(t *testing.T) {
	p := NewPalette(DefaultStops, PaletteGradient).WithMode(PaletteStops)
	if p.Mode() != PaletteStops {
		t.Fatalf("mode = %v", p.Mode())
	}
	if len(p.Stops()) != len(DefaultStops) {
		t.Fatalf("stops = %d, want %d", len(p.Stops()), len(DefaultStops))
	}
}

func TestPaletteFloorsInvalidContrast(t *testing.T) {
	for _, mode := range []PaletteMode{PaletteGradient, PaletteStops} {
		p := NewPalette(DefaultStops, mode)
		want := p.Map(0.5, MinContrast)
		for _, contrast := range []float64{math.NaN(), -1, 0} {
			if got := p.Map(0.5, contrast); got != want {
				t.Fatalf("%s contrast=%v: Map(0.5) = %v, want %v", mode, contrast, got, want)
			}
		}
	}
}
