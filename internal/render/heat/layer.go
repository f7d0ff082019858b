package heat

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/fogleman/gg"
	"github.com/google/uuid"

	"github.com/samirrijal/densitymap/internal/core/domain"
	"github.com/samirrijal/densitymap/internal/pkg/metrics"
)

const (
	maxRenderSize = 4096
	minOpacity    = 0.05
)

// Layer is an immutable density layer.
type Layer struct {
	id      string
	points  []domain.ValidatedPoint
	opts    domain.LayerOptions
	palette *Palette
}

// ID returns the layer ID.
func (l *Layer) ID() string { return l.id }

// Points returns the layer's points. The slice must not be modified.
func (l *Layer) Points() []domain.ValidatedPoint { return l.points }

// Summary describes the layer.
func (l *Layer) Summary() domain.LayerSummary {
	return domain.LayerSummary{ID: l.id, PointCount: len(l.points), Options: l.opts}
}

// Render draws the layer into a width x height image centered on vp.
//
// Every point is stamped as a radial alpha blob whose opacity is its
// weight, damped by how far vp.Zoom is below the layer's max zoom. The
// accumulated alpha is then colorized through the gradient palette.
func (l *Layer) Render(vp domain.Viewport, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 || width > maxRenderSize || height > maxRenderSize {
		return nil, fmt.Errorf("render size %dx%d outside 1..%d", width, height, maxRenderSize)
	}
	start := time.Now()
	defer func() { metrics.HeatRenderDuration.Observe(time.Since(start).Seconds()) }()

	origin := Project(vp.Center, vp.Zoom)
	originX := origin.X - float64(width)/2
	originY := origin.Y - float64(height)/2

	inner := math.Max(0, l.opts.Radius-l.opts.Blur)
	outer := l.opts.Radius + l.opts.Blur
	if inner >= outer {
		inner = 0
	}
	scale := zoomScale(l.opts.MaxZoom, vp.Zoom)

	dc := gg.NewContext(width, height)
	for _, p := range l.points {
		pt := Project(domain.GeoPoint{Lat: p.Lat, Lon: p.Lon}, vp.Zoom)
		x, y := pt.X-originX, pt.Y-originY
		if x < -outer || y < -outer || x > float64(width)+outer || y > float64(height)+outer {
			continue
		}
		alpha := math.Min(1, math.Max(minOpacity, p.NormalizedWeight*scale))

		grad := gg.NewRadialGradient(x, y, inner, x, y, outer)
		grad.AddColorStop(0, color.NRGBA{A: uint8(alpha * 255)})
		grad.AddColorStop(1, color.NRGBA{})
		dc.SetFillStyle(grad)
		dc.DrawCircle(x, y, outer)
		dc.Fill()
	}

	return colorize(dc.Image(), l.palette), nil
}

// zoomScale halves intensity for every zoom level below maxZoom, down to
// 12 levels.
func zoomScale(maxZoom, zoom int) float64 {
	d := maxZoom - zoom
	if d < 0 {
		d = 0
	}
	if d > 12 {
		d = 12
	}
	return 1 / math.Exp2(float64(d))
}

func colorize(src image.Image, palette *Palette) *image.NRGBA {
	b := src.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, a := src.At(x, y).RGBA()
			a8 := uint8(a >> 8)
			if a8 == 0 {
				continue
			}
			c := palette.At(a8)
			c.A = a8
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}

func newLayer(points []domain.ValidatedPoint, opts domain.LayerOptions, palette *Palette) *Layer {
	own := make([]domain.ValidatedPoint, len(points))
	copy(own, points)
	return &Layer{id: uuid.NewString(), points: own, opts: opts, palette: palette}
}
