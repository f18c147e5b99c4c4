package spectrogram

import (
	"image/color"
	"testing"

	"github.com/olivier-w/specview/internal/ring"
)

var grayStops = []color.NRGBA{
	{R: 0, G: 0, B: 0, A: 255},
	{R: 255, G: 255, B: 255, A: 255},
}

// grid fills a ring of the given shape with base and returns its snapshot.
// set may override individual (logical column, row) cells.
func grid(t *testing.T, capacity, height, count int, base float32, set map[[2]int]float32) *ring.Snapshot {
	t.Helper()
	r := ring.New(capacity, height)
	for col := 0; col < count; col++ {
		values := make([]float32, height)
		for row := range values {
			values[row] = base
			if v, ok := set[[2]int{col, row}]; ok {
				values[row] = v
			}
		}
		if err := r.Push(values); err != nil {
			t.Fatalf("push column %d: %v", col, err)
		}
	}
	var s ring.Snapshot
	r.SnapshotInto(&s)
	return &s
}

func view(snap *ring.Snapshot, w, h int) ViewState {
	return ViewState{
		Ring:     snap.Desc,
		YMin:     0,
		YMax:     1,
		Width:    w,
		Height:   h,
		Contrast: 1,
		Palette:  NewPalette(grayStops, PaletteStops),
	}.Sanitize()
}

func near(a, b, eps float64) bool {
	d := a - b
	return d < eps && d > -eps
}
