package spectrogram

import "math"

// Coord is the resolved sampling footprint of one pixel.
type Coord struct {
	XPos  float64 // continuous logical column
	XLo   int
	XHi   int
	XFrac float64

	CenterBin    float64
	BinsPerPixel float64
	RowLo        int // inclusive
	RowHi        int // exclusive, always > RowLo
}

// Mapper turns normalized viewport coordinates into ring coordinates.
// All returned indices are clamped to the ring as long as it is not empty.
type Mapper struct {
	count  int
	height int
	phase  float64
	yMin   float64
	ySpan  float64
	bpp    float64

	width, heightPx int
}

// NewMapper captures the parameters of a sanitized view.
func NewMapper(v ViewState) Mapper {
	m := Mapper{
		count:    v.Ring.Count,
		height:   v.Ring.Height,
		phase:    v.ScrollPhase,
		yMin:     v.YMin,
		ySpan:    v.YMax - v.YMin,
		width:    v.Width,
		heightPx: v.Height,
	}
	if v.Height > 0 {
		m.bpp = float64(v.Ring.Height) * m.ySpan / float64(v.Height)
	}
	return m
}

// ColumnsPerPixel is the horizontal data density of the view.
func (m Mapper) ColumnsPerPixel() float64 {
	if m.width <= 0 {
		return 0
	}
	return float64(m.count) / float64(m.width)
}

// Pixel returns the normalized coordinate of pixel (px, py). The first and
// last pixel of each axis land exactly on 0 and 1.
func (m Mapper) Pixel(px, py int) (u, v float64) {
	return pixelPos(px, m.width), pixelPos(py, m.heightPx)
}

func pixelPos(p, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(p) / float64(n-1)
}

// Map resolves (u, v) in [0,1]² to a sampling footprint.
func (m Mapper) Map(u, v float64) Coord {
	u, v = clamp01(u), clamp01(v)
	var c Coord
	if m.count <= 0 || m.height <= 0 {
		return c
	}

	last := m.count - 1
	c.XPos = u*float64(last) + m.phase
	lo := math.Floor(c.XPos)
	switch {
	case lo < 0:
		c.XLo = 0
	case lo > float64(last):
		c.XLo = last
	default:
		c.XLo = int(lo)
		c.XFrac = c.XPos - lo
	}
	if c.XLo == last {
		c.XFrac = 0
	}
	c.XHi = min(c.XLo+1, last)

	zoomed := m.yMin + v*m.ySpan
	c.CenterBin = zoomed * float64(m.height-1)
	c.BinsPerPixel = m.bpp
	half := m.bpp / 2
	c.RowLo = max(int(math.Floor(c.CenterBin-half)), 0)
	c.RowHi = min(int(math.Ceil(c.CenterBin+half)), m.height)
	if c.RowLo > m.height-1 {
		c.RowLo = m.height - 1
	}
	if c.RowHi <= c.RowLo {
		c.RowHi = c.RowLo + 1
	}
	return c
}

// Cell returns the exact half-open cell covered by pixel (px, py), used by
// RegimeExact. Both ranges are non-empty.
func (m Mapper) Cell(px, py int) (colLo, colHi, rowLo, rowHi int) {
	if m.count <= 0 || m.height <= 0 || m.width <= 0 || m.heightPx <= 0 {
		return 0, 0, 0, 0
	}

	cpp := float64(m.count) / float64(m.width)
	x0 := float64(px)*cpp + m.phase
	x1 := float64(px+1)*cpp + m.phase
	colLo = clampInt(int(math.Floor(x0)), 0, m.count-1)
	colHi = clampInt(int(math.Ceil(x1)), colLo+1, m.count)

	rpp := m.ySpan / float64(m.heightPx)
	y0 := (m.yMin + float64(py)*rpp) * float64(m.height)
	y1 := (m.yMin + float64(py+1)*rpp) * float64(m.height)
	rowLo = clampInt(int(math.Floor(y0)), 0, m.height-1)
	rowHi = clampInt(int(math.Ceil(y1)), rowLo+1, m.height)
	return colLo, colHi, rowLo, rowHi
}
