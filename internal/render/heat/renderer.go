// Package heat implements the density layer: a heat-intensity overlay
// built from weighted points and rasterized on demand.
package heat

import (
	"context"
	"fmt"
	"reflect"

	"github.com/samirrijal/densitymap/internal/core/domain"
	"github.com/samirrijal/densitymap/internal/core/ports"
)

// Renderer builds density layers. It is safe for concurrent use.
type Renderer struct {
	opts    domain.LayerOptions
	palette *Palette
}

// NewRenderer prepares a renderer whose default palette comes from opts.
func NewRenderer(opts domain.LayerOptions) (*Renderer, error) {
	if err := checkOptions(opts); err != nil {
		return nil, err
	}
	p, err := BuildPalette(opts.Gradient)
	if err != nil {
		return nil, err
	}
	return &Renderer{opts: opts, palette: p}, nil
}

// NewLayer builds a layer from validated points. A gradient different
// from the renderer's gets its own palette.
func (r *Renderer) NewLayer(points []domain.ValidatedPoint, opts domain.LayerOptions) (ports.Layer, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("no points")
	}
	if err := checkOptions(opts); err != nil {
		return nil, err
	}
	palette := r.palette
	if !reflect.DeepEqual(opts.Gradient, r.opts.Gradient) {
		p, err := BuildPalette(opts.Gradient)
		if err != nil {
			return nil, err
		}
		palette = p
	}
	return newLayer(points, opts, palette), nil
}

// Loader returns a capability loader producing a Renderer for opts.
func Loader(opts domain.LayerOptions) ports.CapabilityLoader {
	return func(ctx context.Context) (ports.LayerFactory, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := NewRenderer(opts)
		if err != nil {
			return nil, fmt.Errorf("heat renderer: %w", err)
		}
		return r, nil
	}
}

func checkOptions(opts domain.LayerOptions) error {
	if opts.Radius <= 0 {
		return fmt.Errorf("radius must be positive, got %v", opts.Radius)
	}
	if opts.Blur < 0 {
		return fmt.Errorf("blur must not be negative, got %v", opts.Blur)
	}
	if opts.MaxZoom < 0 || opts.MaxZoom > MaxFitZoom {
		return fmt.Errorf("max zoom must be 0-%d, got %d", MaxFitZoom, opts.MaxZoom)
	}
	return nil
}
