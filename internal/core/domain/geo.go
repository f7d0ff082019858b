package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Center returns the midpoint of the box.
func (b Bounds) Center() GeoPoint {
	return GeoPoint{Lat: (b.MinLat + b.MaxLat) / 2, Lon: (b.MinLon + b.MaxLon) / 2}
}

// IsPoint reports whether the box has collapsed to a single coordinate.
func (b Bounds) IsPoint() bool {
	return b.MinLat == b.MaxLat && b.MinLon == b.MaxLon
}

// Viewport is the camera position a surface settled on after a fit.
type Viewport struct {
	Center GeoPoint `json:"center"`
	Zoom   int      `json:"zoom"`
}

// FitOptions are passed along with every fit-bounds request.
type FitOptions struct {
	PaddingPx int `json:"padding_px"`
	MaxZoom   int `json:"max_zoom"`
}

// DefaultFitOptions keeps tightly clustered points from zooming in to street level.
var DefaultFitOptions = FitOptions{PaddingPx: 20, MaxZoom: 15}
