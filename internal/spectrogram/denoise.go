package spectrogram

import (
	"math"

	"github.com/olivier-w/specview/internal/ring"
)

const (
	sigmaHorizontal = 0.12
	sigmaVertical   = 0.08
	sigmaDiagonal   = 0.10
)

// Estimate is the value-weighted neighbourhood average around one cell.
type Estimate struct {
	Mean       float64
	Variance   float64
	Weight     float64
	Neighbours int
}

type neighbour struct {
	dx, dy  int
	sigma   float64
	spatial float64
}

var neighbours = [8]neighbour{
	{-1, 0, sigmaHorizontal, 1},
	{1, 0, sigmaHorizontal, 1},
	{0, -1, sigmaVertical, 1},
	{0, 1, sigmaVertical, 1},
	{-1, -1, sigmaDiagonal, math.Sqrt2 / 2},
	{1, -1, sigmaDiagonal, math.Sqrt2 / 2},
	{-1, 1, sigmaDiagonal, math.Sqrt2 / 2},
	{1, 1, sigmaDiagonal, math.Sqrt2 / 2},
}

// Denoise computes a bilateral-style estimate around the cell nearest to c.
// center is the value already resolved for the pixel. Neighbours outside the
// ring are omitted; no axis wraps.
func Denoise(snap *ring.Snapshot, c Coord, center float32) Estimate {
	count, height := snap.Desc.Count, snap.Desc.Height
	if count <= 0 || height <= 0 {
		return Estimate{Mean: float64(center), Weight: 1}
	}

	x := clampInt(int(math.Round(c.XPos)), 0, count-1)
	y := clampInt(int(math.Round(c.CenterBin)), 0, height-1)
	cv := float64(center)

	sum, sumSq, weight := cv, cv*cv, 1.0
	est := Estimate{}
	for _, n := range neighbours {
		nx, ny := x+n.dx, y+n.dy
		if nx < 0 || nx >= count || ny < 0 || ny >= height {
			continue
		}
		v := float64(snap.Sample(nx, ny))
		d := (cv - v) / n.sigma
		w := n.spatial * math.Exp(-d*d)
		sum += w * v
		sumSq += w * v * v
		weight += w
		est.Neighbours++
	}

	est.Weight = weight
	est.Mean = sum / weight
	est.Variance = max(sumSq/weight-est.Mean*est.Mean, 0)
	return est
}
