package spectrogram

import "math"

const (
	MinZoom  = 1.0
	MaxZoom  = 32.0
	ZoomStep = 1.15
)

// Zoom is the vertical zoom and pan state of the view. Pan is the centre of
// the visible window in normalized frequency space, 0 = top.
type Zoom struct {
	Level float64
	Pan   float64
}

// NewZoom returns the fully zoomed out state.
func NewZoom() Zoom {
	return Zoom{Level: MinZoom, Pan: 0.5}
}

func (z Zoom) half() float64 {
	return 0.5 / math.Max(z.Level, MinZoom)
}

// YRange returns the visible [YMin, YMax] window.
func (z Zoom) YRange() (lo, hi float64) {
	h := z.half()
	lo = math.Min(math.Max(z.Pan-h, 0), 1-2*h)
	return lo, math.Min(lo+2*h, 1)
}

// ZoomAt scales the zoom level by factor while keeping the frequency at
// view position y (0 = top, 1 = bottom) under the same position.
func (z *Zoom) ZoomAt(y, factor float64) {
	y = clamp01(y)
	lo, hi := z.YRange()
	pivot := lo + y*(hi-lo)

	z.Level = math.Min(math.Max(z.Level*factor, MinZoom), MaxZoom)
	h := z.half()
	z.Pan = pivot - h*(2*y-1)
	z.clampPan()
}

// Move pans the window by delta view heights.
func (z *Zoom) Move(delta float64) {
	z.Pan += delta * 2 * z.half()
	z.clampPan()
}

// Reset returns to the fully zoomed out state.
func (z *Zoom) Reset() {
	*z = NewZoom()
}

func (z *Zoom) clampPan() {
	h := z.half()
	z.Pan = math.Min(math.Max(z.Pan, h), 1-h)
}
