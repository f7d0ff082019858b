package heat

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/samirrijal/densitymap/internal/core/domain"
)

const (
	// TileSize is the pixel size of a web-mercator tile.
	TileSize = 256
	// MaxLatitude is the web-mercator latitude limit.
	MaxLatitude = 85.0511287798
	// MaxFitZoom bounds zoom levels computed by FitViewport.
	MaxFitZoom = 22
)

// Project converts a coordinate into world pixel space at the given zoom.
func Project(p domain.GeoPoint, zoom int) r2.Point {
	lat := math.Max(-MaxLatitude, math.Min(MaxLatitude, p.Lat))
	scale := TileSize * math.Exp2(float64(zoom))
	sin := math.Sin(lat * math.Pi / 180)
	return r2.Point{
		X: (p.Lon + 180) / 360 * scale,
		Y: (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * scale,
	}
}

// Unproject is the inverse of Project.
func Unproject(pt r2.Point, zoom int) domain.GeoPoint {
	scale := TileSize * math.Exp2(float64(zoom))
	lon := pt.X/scale*360 - 180
	n := math.Pi - 2*math.Pi*pt.Y/scale
	lat := 180 / math.Pi * math.Atan(math.Sinh(n))
	return domain.GeoPoint{Lat: lat, Lon: lon}
}

// FitViewport finds the largest zoom at which b fits into a width x height
// view with padding on every side, capped at maxZoom. A single-point box
// gets maxZoom.
func FitViewport(b domain.Bounds, width, height, padding, maxZoom int) domain.Viewport {
	if maxZoom > MaxFitZoom {
		maxZoom = MaxFitZoom
	}
	if maxZoom < 0 {
		maxZoom = 0
	}
	availW := float64(width - 2*padding)
	availH := float64(height - 2*padding)

	zoom := maxZoom
	if !b.IsPoint() && availW > 0 && availH > 0 {
		for zoom > 0 {
			size := projectRect(b, zoom).Size()
			if size.X <= availW && size.Y <= availH {
				break
			}
			zoom--
		}
	}

	center := Unproject(projectRect(b, zoom).Center(), zoom)
	return domain.Viewport{Center: center, Zoom: zoom}
}

func projectRect(b domain.Bounds, zoom int) r2.Rect {
	return r2.RectFromPoints(
		Project(domain.GeoPoint{Lat: b.MinLat, Lon: b.MinLon}, zoom),
		Project(domain.GeoPoint{Lat: b.MaxLat, Lon: b.MaxLon}, zoom),
	)
}
