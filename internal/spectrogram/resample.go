package spectrogram

import (
	"math"

	"github.com/olivier-w/specview/internal/ring"
)

const (
	maxPoolRows = 64
	maxPoolCols = 16
)

// Resampler aggregates ring cells into single pixel values. Downsampling is
// done by maximum so isolated peaks survive any zoom level.
type Resampler struct {
	snap *ring.Snapshot
	cpp  float64
}

// NewResampler reads from snap using the horizontal density of m.
func NewResampler(snap *ring.Snapshot, m Mapper) Resampler {
	return Resampler{snap: snap, cpp: m.ColumnsPerPixel()}
}

// pool returns the maximum of column col over [lo, hi), scanning at most
// maxPoolRows rows. Row lo is always scanned.
func (r Resampler) pool(col, lo, hi int) float32 {
	stride := 1
	if span := hi - lo; span > maxPoolRows {
		stride = (span + maxPoolRows - 1) / maxPoolRows
	}
	best := r.snap.Sample(col, lo)
	for row := lo + stride; row < hi; row += stride {
		if v := r.snap.Sample(col, row); v > best {
			best = v
		}
	}
	return best
}

// poolAll is pool without the row cap.
func (r Resampler) poolAll(col, lo, hi int) float32 {
	best := r.snap.Sample(col, lo)
	for row := lo + 1; row < hi; row++ {
		if v := r.snap.Sample(col, row); v > best {
			best = v
		}
	}
	return best
}

// Sample resolves the bounded-cost value for a mapped coordinate.
func (r Resampler) Sample(c Coord) float32 {
	count := r.snap.Desc.Count
	if r.cpp <= 1 {
		a := r.pool(c.XLo, c.RowLo, c.RowHi)
		if c.XHi == c.XLo || c.XFrac == 0 {
			return a
		}
		b := r.pool(c.XHi, c.RowLo, c.RowHi)
		return a + float32(c.XFrac)*(b-a)
	}

	half := r.cpp / 2
	lo := clampInt(int(math.Floor(c.XPos-half)), 0, count-1)
	hi := clampInt(int(math.Ceil(c.XPos+half)), lo+1, count)
	step := max((hi-lo)/maxPoolCols, 1)

	best := r.pool(lo, c.RowLo, c.RowHi)
	for col, n := lo+step, 1; col < hi && n < maxPoolCols; col, n = col+step, n+1 {
		if v := r.pool(col, c.RowLo, c.RowHi); v > best {
			best = v
		}
	}
	return best
}

// SampleExact max-pools the whole cell under pixel (px, py). When the view
// holds fewer columns than pixels it interpolates horizontally like Sample.
func (r Resampler) SampleExact(m Mapper, c Coord, px, py int) float32 {
	colLo, colHi, rowLo, rowHi := m.Cell(px, py)
	if r.cpp <= 1 {
		a := r.poolAll(c.XLo, rowLo, rowHi)
		if c.XHi == c.XLo || c.XFrac == 0 {
			return a
		}
		b := r.poolAll(c.XHi, rowLo, rowHi)
		return a + float32(c.XFrac)*(b-a)
	}

	best := r.poolAll(colLo, rowLo, rowHi)
	for col := colLo + 1; col < colHi; col++ {
		if v := r.poolAll(col, rowLo, rowHi); v > best {
			best = v
		}
	}
	return best
}
