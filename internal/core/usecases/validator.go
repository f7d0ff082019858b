package usecases

import (
	"fmt"
	"math"

	"github.com/samirrijal/densitymap/internal/core/domain"
	"github.com/samirrijal/densitymap/internal/core/ports"
)

const (
	minNormalizedWeight = 0.1
	maxNormalizedWeight = 1.0
	weightScale         = 10.0
)

// IsValidPoint reports whether the record is present, carries both
// coordinates, and both are finite and in range.
func IsValidPoint(p *domain.PointRecord) bool {
	if p == nil || p.Incomplete {
		return false
	}
	return validCoord(p.Latitude, 90) && validCoord(p.Longitude, 180)
}

func validCoord(v, limit float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= -limit && v <= limit
}

// NormalizeWeight maps a raw weight onto the [0.1, 1.0] intensity band.
// A nil or NaN weight counts as 1.
func NormalizeWeight(w *float64) float64 {
	raw := 1.0
	if w != nil && !math.IsNaN(*w) {
		raw = *w
	}
	return math.Max(minNormalizedWeight, math.Min(maxNormalizedWeight, raw/weightScale))
}

// Validate drops invalid records and normalizes the weights of the rest.
// Order is preserved. Rejections go to reporter, which may be nil.
func Validate(points []domain.PointRecord, reporter ports.Reporter) []domain.ValidatedPoint {
	out := make([]domain.ValidatedPoint, 0, len(points))
	for i := range points {
		p := &points[i]
		if !IsValidPoint(p) {
			if reporter != nil {
				reporter.Report(invalidPointError(i, p), "index", i)
			}
			continue
		}
		out = append(out, domain.ValidatedPoint{
			Lat:              p.Latitude,
			Lon:              p.Longitude,
			NormalizedWeight: NormalizeWeight(p.Weight),
		})
	}
	return out
}

func invalidPointError(i int, p *domain.PointRecord) error {
	if p.Incomplete {
		return fmt.Errorf("%w: index %d: record or coordinates absent", domain.ErrInvalidPoint, i)
	}
	return fmt.Errorf("%w: index %d (%v, %v)", domain.ErrInvalidPoint, i, p.Latitude, p.Longitude)
}
