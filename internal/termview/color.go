package termview

import (
	"image/color"

	"github.com/muesli/termenv"
)

// ASCII brightness ramp from darkest to brightest.
const asciiRamp = " .:-=+*#%@"

const ansiReset = termenv.CSI + termenv.ResetSeq + "m"

// seqCache memoizes escape sequences per packed RGB value. Profiles below
// truecolor collapse many colours onto one sequence, so a frame rarely
// needs more than a few hundred entries.
type seqCache struct {
	profile termenv.Profile
	fg, bg  map[uint32]string
}

func newSeqCache(p termenv.Profile) *seqCache {
	return &seqCache{
		profile: p,
		fg:      make(map[uint32]string),
		bg:      make(map[uint32]string),
	}
}

func (c *seqCache) sequence(rgb color.RGBA, background bool) string {
	if c.profile == termenv.Ascii {
		return ""
	}
	key := uint32(rgb.R)<<16 | uint32(rgb.G)<<8 | uint32(rgb.B)
	m := c.fg
	if background {
		m = c.bg
	}
	if seq, ok := m[key]; ok {
		return seq
	}

	var seq string
	if col := c.profile.FromColor(color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}); col != nil {
		if s := col.Sequence(background); s != "" {
			seq = termenv.CSI + s + "m"
		}
	}
	m[key] = seq
	return seq
}

// over composites a premultiplied pixel onto an opaque backdrop.
func over(p color.RGBA, backdrop color.RGBA) color.RGBA {
	inv := 255 - uint32(p.A)
	return color.RGBA{
		R: uint8(min(uint32(p.R)+(uint32(backdrop.R)*inv+127)/255, 255)),
		G: uint8(min(uint32(p.G)+(uint32(backdrop.G)*inv+127)/255, 255)),
		B: uint8(min(uint32(p.B)+(uint32(backdrop.B)*inv+127)/255, 255)),
		A: 255,
	}
}

// luminance computes perceived brightness (ITU-R BT.601).
func luminance(c color.RGBA) uint8 {
	return uint8((299*int(c.R) + 587*int(c.G) + 114*int(c.B)) / 1000)
}

func brightnessChar(lum uint8) byte {
	return asciiRamp[int(lum)*(len(asciiRamp)-1)/255]
}
