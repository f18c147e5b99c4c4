package spectrogram

import (
	"context"
	"image"
	"image/color"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/olivier-w/specview/internal/ring"
)

// NewImage allocates a destination raster of w by h pixels.
func NewImage(w, h int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
}

// frame is everything a single pixel evaluation needs. It is shared
// read-only by all bands of one render.
type frame struct {
	snap     *ring.Snapshot
	view     ViewState
	mapper   Mapper
	sampler  Resampler
	palette  *Palette
	contrast float64
}

func (f *frame) pixel(px, py int) color.RGBA {
	u, v := f.mapper.Pixel(px, py)
	c := f.mapper.Map(u, v)

	var val float32
	if f.view.Regime == RegimeExact {
		val = f.sampler.SampleExact(f.mapper, c, px, py)
	} else {
		val = f.sampler.Sample(c)
	}
	if f.view.Denoise {
		val = float32(Denoise(f.snap, c, val).Mean)
	}
	return f.palette.Map(val, f.contrast)
}

// Render draws one frame of snap into dst. The viewport is taken from dst's
// bounds. Degenerate rings fill dst with the premultiplied background. Rows
// are evaluated in parallel bands; the result does not depend on how they
// are scheduled.
func Render(ctx context.Context, snap *ring.Snapshot, view ViewState, dst *image.RGBA) error {
	b := dst.Bounds()
	view.Width, view.Height = b.Dx(), b.Dy()
	if snap != nil {
		view.Ring = snap.Desc
	}
	view = view.Sanitize()

	if snap == nil || view.Ring.Empty() || view.Palette == nil || len(view.Palette.stops) == 0 {
		fillBackground(dst, Premultiply(view.Background))
		return ctx.Err()
	}
	if view.Width == 0 || view.Height == 0 {
		return ctx.Err()
	}

	m := NewMapper(view)
	f := &frame{
		snap:     snap,
		view:     view,
		mapper:   m,
		sampler:  NewResampler(snap, m),
		palette:  view.Palette,
		contrast: view.Contrast,
	}

	workers := runtime.GOMAXPROCS(0)
	bands := min(workers, view.Height)
	rowsPerBand := (view.Height + bands - 1) / bands

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for y0 := 0; y0 < view.Height; y0 += rowsPerBand {
		y0 := y0
		y1 := min(y0+rowsPerBand, view.Height)
		g.Go(func() error {
			return f.renderRows(gctx, dst, y0, y1)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (f *frame) renderRows(ctx context.Context, dst *image.RGBA, y0, y1 int) error {
	b := dst.Bounds()
	for py := y0; py < y1; py++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		i := dst.PixOffset(b.Min.X, b.Min.Y+py)
		for px, iterN := 0, f.view.Width; px < iterN; px++ {
			c := f.pixel(px, py)
			dst.Pix[i+0] = c.R
			dst.Pix[i+1] = c.G
			dst.Pix[i+2] = c.B
			dst.Pix[i+3] = c.A
			i += 4
		}
	}
	return nil
}

func fillBackground(dst *image.RGBA, bg color.RGBA) {
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := dst.PixOffset(b.Min.X, y)
		for iterK, iterN := 0, b.Dx(); iterK < iterN; iterK++ {
			dst.Pix[i+0] = bg.R
			dst.Pix[i+1] = bg.G
			dst.Pix[i+2] = bg.B
			dst.Pix[i+3] = bg.A
			i += 4
		}
	}
}
