package domain

// RenderMode is what a map view shows for a given input.
type RenderMode string

const (
	RenderModeDensity  RenderMode = "density"
	RenderModeDiscrete RenderMode = "discrete"
	RenderModeNone     RenderMode = "none"
)

// ModeFor derives the render mode from the heatmap flag and the raw point count.
func ModeFor(showHeatmap bool, pointCount int) RenderMode {
	switch {
	case !showHeatmap:
		return RenderModeDiscrete
	case pointCount > 0:
		return RenderModeDensity
	default:
		return RenderModeNone
	}
}

// LayerState is the state of a density-layer manager.
type LayerState string

const (
	LayerStateEmpty   LayerState = "empty"
	LayerStateLoading LayerState = "loading"
	LayerStateActive  LayerState = "active"
	LayerStateError   LayerState = "error"
)

// GradientStop maps a normalized intensity to a hex color.
type GradientStop struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
}

// LayerOptions are the fixed visual parameters of a density layer.
type LayerOptions struct {
	Radius   float64        `json:"radius"`
	Blur     float64        `json:"blur"`
	MaxZoom  int            `json:"max_zoom"`
	Gradient []GradientStop `json:"gradient"`
}

// DefaultLayerOptions returns the standard cool-to-hot layer configuration.
func DefaultLayerOptions() LayerOptions {
	return LayerOptions{
		Radius:  25,
		Blur:    15,
		MaxZoom: 17,
		Gradient: []GradientStop{
			{Offset: 0.0, Color: "#0000ff"},
			{Offset: 0.2, Color: "#00ffff"},
			{Offset: 0.4, Color: "#00ff00"},
			{Offset: 0.6, Color: "#ffff00"},
			{Offset: 0.8, Color: "#ff8000"},
			{Offset: 1.0, Color: "#ff0000"},
		},
	}
}

// Marker is a discrete pin for one raw record.
type Marker struct {
	Location GeoPoint `json:"location"`
	Label    string   `json:"label,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
}

// Band is a coarse weight bucket used by circle markers.
type Band string

const (
	BandHot  Band = "hot"
	BandWarm Band = "warm"
	BandCool Band = "cool"
)

// CircleMarker is a weight-banded circle, used when no continuous layer is available.
type CircleMarker struct {
	Location         GeoPoint `json:"location"`
	Label            string   `json:"label,omitempty"`
	NormalizedWeight float64  `json:"normalized_weight"`
	Band             Band     `json:"band"`
	Color            string   `json:"color"`
	Radius           float64  `json:"radius"`
}

// LayerSummary describes an attached density layer.
type LayerSummary struct {
	ID         string       `json:"id"`
	PointCount int          `json:"point_count"`
	Options    LayerOptions `json:"options"`
}

// Scene is a snapshot of everything a map view currently displays.
type Scene struct {
	MapID       string         `json:"map_id"`
	Revision    uint64         `json:"revision"`
	ShowHeatmap bool           `json:"show_heatmap"`
	PointCount  int            `json:"point_count"`
	Mode        RenderMode     `json:"mode"`
	LayerState  LayerState     `json:"layer_state"`
	Layer       *LayerSummary  `json:"layer,omitempty"`
	Markers     []Marker       `json:"markers"`
	Circles     []CircleMarker `json:"circles,omitempty"`
	Bounds      *Bounds        `json:"bounds,omitempty"`
	ExtentM     float64        `json:"extent_m,omitempty"`
	Viewport    *Viewport      `json:"viewport,omitempty"`
}
