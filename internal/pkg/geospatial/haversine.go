package geospatial

import (
	"github.com/golang/geo/s2"

	"github.com/samirrijal/densitymap/internal/core/domain"
)

const earthRadiusMeters = 6371008.8

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * earthRadiusMeters
}

// DiagonalMeters is the corner-to-corner length of a bounding box.
func DiagonalMeters(b domain.Bounds) float64 {
	return Haversine(b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
}
