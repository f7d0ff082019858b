package usecases

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/samirrijal/densitymap/internal/core/domain"
)

// Band thresholds and colors for circle markers.
var (
	bandHotColor  = colorful.Color{R: 1, G: 0, B: 0}     // red
	bandWarmColor = colorful.Color{R: 1, G: 0.647, B: 0} // orange
	bandCoolColor = colorful.Color{R: 0, G: 0.502, B: 0} // green
)

const (
	hotThreshold  = 0.7
	warmThreshold = 0.4

	circleMinRadius  = 10.0
	circleBaseRadius = 15.0
	circleRadiusSpan = 25.0
)

// Render returns one pin per raw record when the heatmap is off. With the
// heatmap on, the density layer owns the display and nothing is returned.
// Incomplete records have no position and get no pin.
func Render(points []domain.PointRecord, showHeatmap bool) []domain.Marker {
	if showHeatmap || len(points) == 0 {
		return []domain.Marker{}
	}
	markers := make([]domain.Marker, 0, len(points))
	for _, p := range points {
		if p.Incomplete {
			continue
		}
		m := domain.Marker{
			Location: domain.GeoPoint{Lat: p.Latitude, Lon: p.Longitude},
		}
		if p.Label != nil {
			m.Label = *p.Label
		}
		if p.Weight != nil {
			w := *p.Weight
			m.Weight = &w
		}
		markers = append(markers, m)
	}
	return markers
}

// BandFor buckets a weight already divided by the set maximum.
func BandFor(normalized float64) (domain.Band, string) {
	switch {
	case normalized > hotThreshold:
		return domain.BandHot, bandHotColor.Hex()
	case normalized > warmThreshold:
		return domain.BandWarm, bandWarmColor.Hex()
	default:
		return domain.BandCool, bandCoolColor.Hex()
	}
}

// CircleRadius scales the marker with its normalized weight.
func CircleRadius(normalized float64) float64 {
	return math.Max(circleMinRadius, circleBaseRadius+normalized*circleRadiusSpan)
}

// RenderBanded produces color/size banded circles for every raw record.
// Weights are divided by the largest weight in the set (at least 1).
// Incomplete records are skipped.
func RenderBanded(points []domain.PointRecord) []domain.CircleMarker {
	if len(points) == 0 {
		return []domain.CircleMarker{}
	}

	maxWeight := 1.0
	for _, p := range points {
		if p.Incomplete {
			continue
		}
		if w := rawWeight(p); w > maxWeight {
			maxWeight = w
		}
	}

	circles := make([]domain.CircleMarker, 0, len(points))
	for _, p := range points {
		if p.Incomplete {
			continue
		}
		nw := rawWeight(p) / maxWeight
		band, color := BandFor(nw)
		c := domain.CircleMarker{
			Location:         domain.GeoPoint{Lat: p.Latitude, Lon: p.Longitude},
			NormalizedWeight: nw,
			Band:             band,
			Color:            color,
			Radius:           CircleRadius(nw),
		}
		if p.Label != nil {
			c.Label = *p.Label
		}
		circles = append(circles, c)
	}
	return circles
}

func rawWeight(p domain.PointRecord) float64 {
	if p.Weight == nil || math.IsNaN(*p.Weight) {
		return 1
	}
	return *p.Weight
}
