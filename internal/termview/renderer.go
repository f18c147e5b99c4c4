// Package termview draws RGBA frames into terminal cells.
package termview

import (
	"image"
	"image/color"
	"strings"

	"github.com/muesli/termenv"
)

// Renderer converts premultiplied RGBA frames into a terminal string.
// It supports two modes:
//   - Color (half-block): "▀" with fg = top pixel and bg = bottom pixel
//     packs two pixel rows per terminal row.
//   - ASCII (no color): each pixel becomes a brightness character.
type Renderer struct {
	profile termenv.Profile
	seqs    *seqCache
	sb      strings.Builder
}

// NewRenderer creates a renderer using the current terminal's color
// capabilities.
func NewRenderer() *Renderer {
	return NewRendererWithProfile(termenv.EnvColorProfile())
}

// NewRendererWithProfile creates a renderer for an explicit profile.
func NewRendererWithProfile(p termenv.Profile) *Renderer {
	return &Renderer{profile: p, seqs: newSeqCache(p)}
}

// Profile returns the colour profile in use.
func (r *Renderer) Profile() termenv.Profile {
	return r.profile
}

// PixelHeight returns how many pixel rows fill the given number of cell rows.
func (r *Renderer) PixelHeight(rows int) int {
	if r.profile == termenv.Ascii {
		return rows
	}
	return rows * 2
}

// Render composites img over backdrop and returns one line per cell row.
// The image is expected to be sized cols × PixelHeight(rows).
func (r *Renderer) Render(img *image.RGBA, backdrop color.Color) string {
	if img == nil {
		return ""
	}
	b := img.Bounds()
	if b.Empty() {
		return ""
	}
	bd := opaque(backdrop)

	r.sb.Reset()
	// worst case ~40 bytes per cell for two truecolor escapes
	r.sb.Grow(b.Dx() * b.Dy() * 20)

	if r.profile == termenv.Ascii {
		r.renderASCII(img, bd)
	} else {
		r.renderHalfBlock(img, bd)
	}
	return r.sb.String()
}

func (r *Renderer) renderHalfBlock(img *image.RGBA, bd color.RGBA) {
	b := img.Bounds()
	rows := (b.Dy() + 1) / 2

	for row := 0; row < rows; row++ {
		top := b.Min.Y + row*2
		bot := top + 1

		var lastFg, lastBg string
		for x := b.Min.X; x < b.Max.X; x++ {
			t := over(img.RGBAAt(x, top), bd)
			// odd heights leave the last bottom half on the backdrop
			u := bd
			if bot < b.Max.Y {
				u = over(img.RGBAAt(x, bot), bd)
			}

			if fg := r.seqs.sequence(t, false); fg != lastFg {
				r.sb.WriteString(fg)
				lastFg = fg
			}
			if bg := r.seqs.sequence(u, true); bg != lastBg {
				r.sb.WriteString(bg)
				lastBg = bg
			}
			r.sb.WriteString("▀")
		}

		r.sb.WriteString(ansiReset)
		if row < rows-1 {
			r.sb.WriteByte('\n')
		}
	}
}

func (r *Renderer) renderASCII(img *image.RGBA, bd color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r.sb.WriteByte(brightnessChar(luminance(over(img.RGBAAt(x, y), bd))))
		}
		if y < b.Max.Y-1 {
			r.sb.WriteByte('\n')
		}
	}
}

func opaque(c color.Color) color.RGBA {
	if c == nil {
		return color.RGBA{A: 255}
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return color.RGBA{R: n.R, G: n.G, B: n.B, A: 255}
}
