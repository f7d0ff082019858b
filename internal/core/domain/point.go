package domain

import (
	"bytes"
	"encoding/json"
)

// PointRecord is a single weighted sample as supplied by the data source.
// Records are read-only once handed to a map view.
type PointRecord struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Weight    *float64 `json:"weight,omitempty"` // nil means 1
	Label     *string  `json:"label,omitempty"`

	// Incomplete marks a record decoded from a JSON null or without both
	// coordinates. Its Latitude and Longitude are meaningless.
	Incomplete bool `json:"-"`
}

// pointWire is the decoding shape of a PointRecord; pointers keep track
// of which fields were sent.
type pointWire struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Weight    *float64 `json:"weight"`
	Label     *string  `json:"label"`
}

// UnmarshalJSON decodes a record, flagging null entries and missing or null
// coordinates as Incomplete instead of reading them as zero.
func (p *PointRecord) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = PointRecord{Incomplete: true}
		return nil
	}
	var w pointWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = PointRecord{Weight: w.Weight, Label: w.Label}
	if w.Latitude == nil || w.Longitude == nil {
		p.Incomplete = true
		return nil
	}
	p.Latitude, p.Longitude = *w.Latitude, *w.Longitude
	return nil
}

// MarshalJSON writes an Incomplete record as null so it stays incomplete
// when decoded again.
func (p PointRecord) MarshalJSON() ([]byte, error) {
	if p.Incomplete {
		return []byte("null"), nil
	}
	type plain PointRecord
	return json.Marshal(plain(p))
}

// ValidatedPoint is a PointRecord that passed coordinate validation,
// with its weight rescaled into the renderer intensity band.
type ValidatedPoint struct {
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
	NormalizedWeight float64 `json:"normalized_weight"`
}

// Float64 returns a pointer to v. Handy for optional record fields.
func Float64(v float64) *float64 { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }

// PointSet is the payload that replaces a map view's inputs.
type PointSet struct {
	Points      []PointRecord `json:"points"`
	ShowHeatmap *bool         `json:"show_heatmap,omitempty"` // nil means true
}

// Heatmap resolves the optional flag to its default.
func (s PointSet) Heatmap() bool {
	return s.ShowHeatmap == nil || *s.ShowHeatmap
}
