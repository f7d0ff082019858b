package ports

import (
	"context"
	"image"

	"github.com/samirrijal/densitymap/internal/core/domain"
)

// Layer is a constructed density layer. Layers are immutable; a new
// point set always produces a new layer.
type Layer interface {
	ID() string
	Summary() domain.LayerSummary
	Render(vp domain.Viewport, width, height int) (image.Image, error)
}

// LayerFactory builds density layers. It is the capability a map view
// has to acquire before it can show a heat layer.
type LayerFactory interface {
	NewLayer(points []domain.ValidatedPoint, opts domain.LayerOptions) (Layer, error)
}

// CapabilityLoader acquires a LayerFactory. It may block.
type CapabilityLoader func(ctx context.Context) (LayerFactory, error)

// Surface is the map a view draws on.
type Surface interface {
	AddLayer(layer Layer) error
	RemoveLayer(layer Layer) error
	FitBounds(b domain.Bounds, opts domain.FitOptions) error
	InvalidateSize()
}

// Reporter receives diagnostics from the map core. Nothing reported here
// is ever returned to the caller.
type Reporter interface {
	Report(err error, attrs ...any)
	StateChanged(state domain.LayerState)
}
