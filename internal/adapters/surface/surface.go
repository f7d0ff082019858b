package surface

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/samirrijal/densitymap/internal/core/domain"
	"github.com/samirrijal/densitymap/internal/core/ports"
	"github.com/samirrijal/densitymap/internal/render/heat"
)

var (
	// ErrLayerAttached is returned when a second density layer is added.
	ErrLayerAttached = errors.New("surface already shows a density layer")
	// ErrLayerNotAttached is returned when removing an unknown layer.
	ErrLayerNotAttached = errors.New("layer is not attached")
)

// Surface is an in-memory map surface with a fixed pixel size. It holds at
// most one density layer and remembers where its camera is.
type Surface struct {
	mapID  string
	width  int
	height int

	mu            sync.Mutex
	layer         ports.Layer
	viewport      *domain.Viewport
	invalidations int
}

// New creates a surface of width x height pixels.
func New(mapID string, width, height int) *Surface {
	return &Surface{mapID: mapID, width: width, height: height}
}

// Factory returns a constructor suitable for usecases.MapService.
func Factory(width, height int) func(mapID string) ports.Surface {
	return func(mapID string) ports.Surface {
		return New(mapID, width, height)
	}
}

// AddLayer attaches layer.
func (s *Surface) AddLayer(layer ports.Layer) error {
	if layer == nil {
		return fmt.Errorf("nil layer")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.layer != nil {
		return fmt.Errorf("%w: %s", ErrLayerAttached, s.layer.ID())
	}
	s.layer = layer
	return nil
}

// RemoveLayer detaches layer.
func (s *Surface) RemoveLayer(layer ports.Layer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.layer == nil || layer == nil || s.layer.ID() != layer.ID() {
		return ErrLayerNotAttached
	}
	s.layer = nil
	return nil
}

// FitBounds moves the camera so b is visible.
func (s *Surface) FitBounds(b domain.Bounds, opts domain.FitOptions) error {
	for _, v := range []float64{b.MinLat, b.MinLon, b.MaxLat, b.MaxLon} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite bounds %+v", b)
		}
	}
	if b.MinLat > b.MaxLat || b.MinLon > b.MaxLon {
		return fmt.Errorf("inverted bounds %+v", b)
	}
	vp := heat.FitViewport(b, s.width, s.height, opts.PaddingPx, opts.MaxZoom)

	s.mu.Lock()
	s.viewport = &vp
	s.mu.Unlock()
	return nil
}

// InvalidateSize records that the container size may have changed.
func (s *Surface) InvalidateSize() {
	s.mu.Lock()
	s.invalidations++
	s.mu.Unlock()
}

// Layer returns the attached layer, or nil.
func (s *Surface) Layer() ports.Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layer
}

// Viewport returns the camera, if a fit has happened.
func (s *Surface) Viewport() (domain.Viewport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.viewport == nil {
		return domain.Viewport{}, false
	}
	return *s.viewport, true
}

// Invalidations counts InvalidateSize calls.
func (s *Surface) Invalidations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalidations
}

// Size returns the pixel size.
func (s *Surface) Size() (int, int) { return s.width, s.height }
