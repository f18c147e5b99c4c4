package analysis

import "math"

// minDisplayFreq is the lowest frequency a log scale will show.
const minDisplayFreq = 20.0

// BinMapping interpolates FFT bins onto display rows. Row 0 is the highest
// frequency.
type BinMapping struct {
	lower  []int
	upper  []int
	weight []float64
}

// NewBinMapping builds a mapping of height rows for an fftSize transform.
func NewBinMapping(height, fftSize int, sampleRate float64, scale FrequencyScale) BinMapping {
	if height <= 0 || fftSize <= 0 {
		return BinMapping{}
	}

	maxBin := fftSize / 2
	denom := float64(max(height-1, 1))
	minFreq, nyquist := displayRange(fftSize, sampleRate)

	m := BinMapping{
		lower:  make([]int, height),
		upper:  make([]int, height),
		weight: make([]float64, height),
	}
	for row := 0; row < height; row++ {
		f := scale.FreqAt(1-float64(row)/denom, minFreq, nyquist)
		pos := math.Min(math.Max(f*float64(fftSize)/sampleRate, 0), float64(maxBin))
		lo := int(math.Floor(pos))
		m.lower[row] = lo
		m.upper[row] = min(lo+1, maxBin)
		m.weight[row] = pos - float64(lo)
	}
	return m
}

func displayRange(fftSize int, sampleRate float64) (minFreq, nyquist float64) {
	nyquist = math.Max(sampleRate/2, 1)
	minFreq = math.Max(sampleRate/float64(max(fftSize, 1)), minDisplayFreq)
	return minFreq, nyquist
}

// FrequencyAt returns the frequency displayed at vertical position y of a
// column, 0 = top.
func (c Config) FrequencyAt(y float64) float64 {
	minFreq, nyquist := displayRange(c.FFTSize, c.SampleRate)
	return c.Scale.FreqAt(1-y, minFreq, nyquist)
}

// Rows returns the number of display rows.
func (m BinMapping) Rows() int { return len(m.lower) }

// Row returns the FFT bins and blend weight feeding display row i.
func (m BinMapping) Row(i int) (lo, hi int, weight float64) {
	return m.lower[i], m.upper[i], m.weight[i]
}

// Apply interpolates spectrum values into dst, one value per row.
func (m BinMapping) Apply(spectrum []float64, dst []float64) {
	last := len(spectrum) - 1
	for i := range dst[:min(len(dst), len(m.lower))] {
		lo, hi := min(m.lower[i], last), min(m.upper[i], last)
		dst[i] = spectrum[lo] + m.weight[i]*(spectrum[hi]-spectrum[lo])
	}
}
