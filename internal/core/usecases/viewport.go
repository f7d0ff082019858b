package usecases

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"github.com/samirrijal/densitymap/internal/core/domain"
	"github.com/samirrijal/densitymap/internal/core/ports"
)

// ComputeBounds returns the smallest lat/lon box containing every raw
// record. Records are not validated first, so the box reflects the full
// data extent. ok is false for an empty input, and for a set holding an
// Incomplete record, which has no position to include.
func ComputeBounds(points []domain.PointRecord) (b domain.Bounds, ok bool) {
	if len(points) == 0 {
		return domain.Bounds{}, false
	}
	pts := make([]r2.Point, len(points))
	for i, p := range points {
		if p.Incomplete {
			return domain.Bounds{}, false
		}
		pts[i] = r2.Point{X: p.Longitude, Y: p.Latitude}
	}
	rect := r2.RectFromPoints(pts...)
	return domain.Bounds{
		MinLat: rect.Y.Lo,
		MinLon: rect.X.Lo,
		MaxLat: rect.Y.Hi,
		MaxLon: rect.X.Hi,
	}, true
}

// ViewportFitter recenters a surface on a point set.
type ViewportFitter struct {
	surface  ports.Surface
	opts     domain.FitOptions
	reporter ports.Reporter
}

// NewViewportFitter creates a fitter using opts for every request.
func NewViewportFitter(surface ports.Surface, opts domain.FitOptions, reporter ports.Reporter) *ViewportFitter {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &ViewportFitter{surface: surface, opts: opts, reporter: reporter}
}

// Fit asks the surface to show every point. Failures are reported and the
// viewport is left as it was; the returned bounds are nil in that case.
func (f *ViewportFitter) Fit(points []domain.PointRecord) *domain.Bounds {
	if len(points) == 0 {
		return nil
	}
	for i, p := range points {
		if p.Incomplete {
			f.reporter.Report(fmt.Errorf("%w: absent record or coordinate at index %d", domain.ErrBoundsComputation, i))
			return nil
		}
		if !finite(p.Latitude) || !finite(p.Longitude) {
			f.reporter.Report(fmt.Errorf("%w: non-finite coordinate at index %d", domain.ErrBoundsComputation, i))
			return nil
		}
	}
	b, _ := ComputeBounds(points)
	if err := f.fit(b); err != nil {
		f.reporter.Report(fmt.Errorf("%w: %w", domain.ErrBoundsComputation, err))
		return nil
	}
	return &b
}

func (f *ViewportFitter) fit(b domain.Bounds) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("surface panic: %v", r)
		}
	}()
	return f.surface.FitBounds(b, f.opts)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
