package analysis

import (
	"fmt"
	"math"
	"strings"
)

// FrequencyScale controls how display rows are spread over frequency.
type FrequencyScale uint8

const (
	ScaleLog FrequencyScale = iota
	ScaleLinear
)

func (s FrequencyScale) String() string {
	if s == ScaleLinear {
		return "linear"
	}
	return "log"
}

// ParseScale accepts "log", "logarithmic" or "linear".
func ParseScale(s string) (FrequencyScale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "log", "logarithmic":
		return ScaleLog, nil
	case "linear", "lin":
		return ScaleLinear, nil
	default:
		return ScaleLog, fmt.Errorf("unknown frequency scale %q", s)
	}
}

// FreqAt returns the frequency at normalized position t in [0,1], where 0 is
// the lowest displayed frequency and 1 is nyquist.
func (s FrequencyScale) FreqAt(t, minFreq, nyquist float64) float64 {
	t = math.Min(math.Max(t, 0), 1)
	if s == ScaleLinear {
		return t * nyquist
	}
	if minFreq <= 0 || nyquist <= minFreq {
		return t * nyquist
	}
	if t == 1 {
		return nyquist
	}
	return minFreq * math.Pow(nyquist/minFreq, t)
}

// PosOf is the inverse of FreqAt.
func (s FrequencyScale) PosOf(freq, minFreq, nyquist float64) float64 {
	if nyquist <= 0 {
		return 0
	}
	var t float64
	if s == ScaleLinear || minFreq <= 0 || nyquist <= minFreq {
		t = freq / nyquist
	} else {
		t = math.Log(math.Max(freq, minFreq)/minFreq) / math.Log(nyquist/minFreq)
	}
	return math.Min(math.Max(t, 0), 1)
}
