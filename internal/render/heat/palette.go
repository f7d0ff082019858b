package heat

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/samirrijal/densitymap/internal/core/domain"
)

// Palette maps an accumulated alpha value (0-255) to a gradient color.
type Palette [256]color.NRGBA

// BuildPalette interpolates the gradient stops in RGB space, the way a
// canvas linear gradient does.
func BuildPalette(stops []domain.GradientStop) (*Palette, error) {
	if len(stops) < 2 {
		return nil, fmt.Errorf("gradient needs at least 2 stops, got %d", len(stops))
	}

	type stop struct {
		offset float64
		color  colorful.Color
	}
	parsed := make([]stop, len(stops))
	for i, s := range stops {
		if s.Offset < 0 || s.Offset > 1 {
			return nil, fmt.Errorf("gradient stop %d: offset %v outside [0,1]", i, s.Offset)
		}
		c, err := colorful.Hex(s.Color)
		if err != nil {
			return nil, fmt.Errorf("gradient stop %d: %w", i, err)
		}
		parsed[i] = stop{offset: s.Offset, color: c}
	}
	sort.SliceStable(parsed, func(i, j int) bool { return parsed[i].offset < parsed[j].offset })

	var p Palette
	for i := range p {
		t := float64(i) / 255
		c := parsed[len(parsed)-1].color
		switch {
		case t <= parsed[0].offset:
			c = parsed[0].color
		default:
			for j := 1; j < len(parsed); j++ {
				lo, hi := parsed[j-1], parsed[j]
				if t > hi.offset {
					continue
				}
				span := hi.offset - lo.offset
				if span <= 0 {
					c = hi.color
				} else {
					c = lo.color.BlendRgb(hi.color, (t-lo.offset)/span)
				}
				break
			}
		}
		r, g, b := c.Clamped().RGB255()
		p[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	return &p, nil
}

// At returns the color for intensity a.
func (p *Palette) At(a uint8) color.NRGBA {
	return p[a]
}
