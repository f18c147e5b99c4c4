package spectrogram

import (
	"fmt"
	"testing"
)

// peak renders every pixel through the resampler and returns the maximum.
func peak(v ViewState, r Resampler) float32 {
	m := NewMapper(v)
	var best float32
	for py, iterN := 0, v.Height; py < iterN; py++ {
		for px, iterN := 0, v.Width; px < iterN; px++ {
			u, vv := m.Pixel(px, py)
			c := m.Map(u, vv)
			var val float32
			if v.Regime == RegimeExact {
				val = r.SampleExact(m, c, px, py)
			} else {
				val = r.Sample(c)
			}
			best = max(best, val)
		}
	}
	return best
}

func TestSpikeSurvivesDownsampling(t *testing.T) {
	const capacity, height = 1024, 128
	spikes := [][2]int{{0, 0}, {7, 3}, {511, 64}, {1000, 127}, {1023, 90}}

	for _, spike := range spikes {
		snap := grid(t, capacity, height, capacity, 0.1, map[[2]int]float32{spike: 0.9})
		for _, w := range []int{80, 128, 300, 1000} {
			for _, h := range []int{16, 40, 128, 300} {
				name := fmt.Sprintf("spike=%v/%dx%d", spike, w, h)
				v := view(snap, w, h)
				if got := peak(v, NewResampler(snap, NewMapper(v))); got != 0.9 {
					t.Fatalf("%s: peak %v, want 0.9", name, got)
				}
			}
		}
	}
}

func TestSpikeSurvivesVerticalZoom(t *testing.T) {
	snap := grid(t, 256, 128, 256, 0, map[[2]int]float32{{100, 38}: 1})
	v := view(snap, 64, 32)
	v.YMin, v.YMax = 0.25, 0.5

	if got := peak(v, NewResampler(snap, NewMapper(v))); got != 1 {
		t.Fatalf("peak inside zoom window %v, want 1", got)
	}

	v.YMin, v.YMax = 0.5, 0.75
	if got := peak(v, NewResampler(snap, NewMapper(v))); got != 0 {
		t.Fatalf("peak outside zoom window leaked: %v", got)
	}
}

func TestSpikeSurvivesExactRegime(t *testing.T) {
	snap := grid(t, 1024, 256, 1024, 0.2, map[[2]int]float32{{333, 201}: 0.8})
	for _, size := range [][2]int{{37, 5}, {3, 2}, {1, 1}, {200, 100}} {
		v := view(snap, size[0], size[1])
		v.Regime = RegimeExact
		if got := peak(v, NewResampler(snap, NewMapper(v))); got != 0.8 {
			t.Fatalf("exact %dx%d: peak %v, want 0.8", size[0], size[1], got)
		}
	}
}

func TestInterpolationHitsColumnsExactly(t *testing.T) {
	snap := grid(t, 65, 16, 65, 0, map[[2]int]float32{{40, 8}: 1})
	v := view(snap, 129, 16)
	r := NewResampler(snap, NewMapper(v))
	m := NewMapper(v)

	u, vv := m.Pixel(80, 8)
	c := m.Map(u, vv)
	if c.XLo != 40 || c.XFrac != 0 {
		t.Fatalf("pixel 80 -> col %d frac %v, want 40 and 0", c.XLo, c.XFrac)
	}
	if got := r.Sample(c); got != 1 {
		t.Fatalf("sample at spike %v, want 1", got)
	}

	u, vv = m.Pixel(81, 8)
	c = m.Map(u, vv)
	if got := r.Sample(c); !near(float64(got), 0.5, 1e-6) {
		t.Fatalf("half way past spike %v, want 0.5", got)
	}
}

func TestPoolScansAtMost64Rows(t *testing.T) {
	snap := grid(t, 4, 1024, 4, 0, map[[2]int]float32{{0, 0}: 1, {0, 1000}: 0.5})
	r := Resampler{snap: snap, cpp: 1}

	if got := r.pool(0, 0, 1024); got != 1 {
		t.Fatalf("pool must always scan row_lo, got %v", got)
	}
	if got := r.poolAll(0, 1, 1024); got != 0.5 {
		t.Fatalf("unbounded pool missed row 1000: %v", got)
	}
}
