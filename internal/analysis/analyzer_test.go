package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/olivier-w/specview/internal/ring"
)

func sine(freq, rate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/rate)
	}
	return out
}

func testConfig(scale FrequencyScale) Config {
	return Config{FFTSize: 2048, Bins: 128, SampleRate: 48000, FloorDB: -96, CeilingDB: 0, Scale: scale}
}

func argmax(col []float32) int {
	best := 0
	for i, v := range col {
		if v > col[best] {
			best = i
		}
	}
	return best
}

func TestColumnPeaksAtSineRow(t *testing.T) {
	for _, scale := range []FrequencyScale{ScaleLog, ScaleLinear} {
		cfg := testConfig(scale)
		a, err := NewAnalyzer(cfg)
		if err != nil {
			t.Fatal(err)
		}

		const freq = 3000.0
		col := make([]float32, cfg.Bins)
		if err := a.Column(sine(freq, cfg.SampleRate, cfg.FFTSize), col); err != nil {
			t.Fatal(err)
		}

		minFreq := math.Max(cfg.SampleRate/float64(cfg.FFTSize), minDisplayFreq)
		pos := scale.PosOf(freq, minFreq, cfg.SampleRate/2)
		want := int(math.Round((1 - pos) * float64(cfg.Bins-1)))
		if got := argmax(col); got < want-2 || got > want+2 {
			t.Fatalf("%s: peak at row %d, want near %d", scale, got, want)
		}
		if col[argmax(col)] < 0.5 {
			t.Fatalf("%s: peak level %v too low", scale, col[argmax(col)])
		}
	}
}

func TestColumnSilenceIsFloor(t *testing.T) {
	cfg := testConfig(ScaleLog)
	a, err := NewAnalyzer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	col := make([]float32, cfg.Bins)
	for i := range col {
		col[i] = 1
	}
	if err := a.Column(make([]float64, cfg.FFTSize), col); err != nil {
		t.Fatal(err)
	}
	for i, v := range col {
		if v != 0 {
			t.Fatalf("row %d = %v, want 0", i, v)
		}
	}
}

func TestColumnRejectsWrongWindow(t *testing.T) {
	a, err := NewAnalyzer(testConfig(ScaleLog))
	if err != nil {
		t.Fatal(err)
	}
	err = a.Column(make([]float64, 10), make([]float32, 128))
	if !errors.Is(err, ErrWindowLength) {
		t.Fatalf("expected ErrWindowLength, got %v", err)
	}
}

func TestNewAnalyzerValidates(t *testing.T) {
	bad := []Config{
		{FFTSize: 8, Bins: 10, SampleRate: 44100, FloorDB: -90},
		{FFTSize: 1024, Bins: 0, SampleRate: 44100, FloorDB: -90},
		{FFTSize: 1024, Bins: 10, SampleRate: 0, FloorDB: -90},
		{FFTSize: 1024, Bins: 10, SampleRate: 44100, FloorDB: 0, CeilingDB: -10},
	}
	for i, cfg := range bad {
		if _, err := NewAnalyzer(cfg); err == nil {
			t.Fatalf("config %d: expected error", i)
		}
	}
}

func TestBinMappingRowZeroIsHighest(t *testing.T) {
	m := NewBinMapping(64, 1024, 44100, ScaleLog)
	if m.Rows() != 64 {
		t.Fatalf("rows = %d", m.Rows())
	}
	top, _, _ := m.Row(0)
	bottom, _, _ := m.Row(63)
	if top != 512 {
		t.Fatalf("top row bin %d, want nyquist bin 512", top)
	}
	if bottom >= top {
		t.Fatalf("bottom bin %d not below top %d", bottom, top)
	}
	for i := 1; i < 64; i++ {
		prev, _, _ := m.Row(i - 1)
		cur, _, _ := m.Row(i)
		if cur > prev {
			t.Fatalf("row %d bin %d above row %d bin %d", i, cur, i-1, prev)
		}
	}
}

func TestParseScale(t *testing.T) {
	if s, err := ParseScale("Linear"); err != nil || s != ScaleLinear {
		t.Fatalf("linear -> %v, %v", s, err)
	}
	if s, err := ParseScale(""); err != nil || s != ScaleLog {
		t.Fatalf("empty -> %v, %v", s, err)
	}
	if _, err := ParseScale("mel"); err == nil {
		t.Fatal("expected error for mel")
	}
}

func TestRunOfflinePushesOneColumnPerHop(t *testing.T) {
	cfg := testConfig(ScaleLog)
	a, err := NewAnalyzer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	r := ring.New(64, cfg.Bins)

	pushed, err := RunOffline(a, r, sine(1000, cfg.SampleRate, 10*512+100), 512)
	if err != nil {
		t.Fatal(err)
	}
	if pushed != 10 || r.Descriptor().Count != 10 {
		t.Fatalf("pushed %d, count %d, want 10", pushed, r.Descriptor().Count)
	}
}

type stubSource struct {
	written uint64
	lost    uint64 // windows ending at or before this are gone
}

func (s *stubSource) Written() uint64 { return s.written }

func (s *stubSource) Window(end uint64, dst []float64) bool {
	if end <= s.lost {
		return false
	}
	for i := range dst {
		dst[i] = 0
	}
	return true
}

func TestFeederStepSkipsLostWindows(t *testing.T) {
	cfg := testConfig(ScaleLog)
	a, err := NewAnalyzer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	r := ring.New(16, cfg.Bins)
	src := &stubSource{written: 1000, lost: 500}

	f, err := NewFeeder(src, a, r, 100, nil)
	if err != nil {
		t.Fatal(err)
	}
	n, err := f.Step()
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Fatalf("pushed %d columns, want 5", n)
	}

	src.written = 1250
	if n, _ = f.Step(); n != 2 {
		t.Fatalf("second step pushed %d, want 2", n)
	}
}

func TestNewFeederChecksRingHeight(t *testing.T) {
	a, err := NewAnalyzer(testConfig(ScaleLog))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewFeeder(&stubSource{}, a, ring.New(4, 3), 100, nil); err == nil {
		t.Fatal("expected height mismatch error")
	}
	if _, err := NewFeeder(&stubSource{}, a, ring.New(4, 128), 0, nil); err == nil {
		t.Fatal("expected hop error")
	}
}

func TestFrequencyAtEndpoints(t *testing.T) {
	for _, scale := range []FrequencyScale{ScaleLog, ScaleLinear} {
		cfg := testConfig(scale)
		if f := cfg.FrequencyAt(0); f != 24000 {
			t.Fatalf("%v: top is %v Hz, want nyquist", scale, f)
		}
		lo, hi := cfg.FrequencyAt(0.75), cfg.FrequencyAt(0.25)
		if lo >= hi {
			t.Fatalf("%v: frequency must fall towards the bottom (%v >= %v)", scale, lo, hi)
		}
	}
	if f := testConfig(ScaleLog).FrequencyAt(1); math.Abs(f-23.4375) > 1e-9 {
		t.Fatalf("log bottom is %v Hz, want one bin (23.4375)", f)
	}
	if f := testConfig(ScaleLinear).FrequencyAt(1); f != 0 {
		t.Fatalf("linear bottom is %v Hz, want 0", f)
	}
}
