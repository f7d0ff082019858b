package usecases

import (
	"context"
	"sync"

	"github.com/samirrijal/densitymap/internal/core/domain"
	"github.com/samirrijal/densitymap/internal/core/ports"
	"github.com/samirrijal/densitymap/internal/pkg/geospatial"
)

// Inputs are what a map view is rendered from.
type Inputs struct {
	Points      []domain.PointRecord
	ShowHeatmap bool
}

// SamePoints reports whether both inputs hold the same point slice. Slices
// are compared by identity, not content: a caller that wants a rebuild
// passes a new slice.
func (in Inputs) SamePoints(other Inputs) bool {
	a, b := in.Points, other.Points
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}

// Same reports whether a reconcile from in to other would be a no-op.
func (in Inputs) Same(other Inputs) bool {
	return in.ShowHeatmap == other.ShowHeatmap && in.SamePoints(other)
}

// ViewportReader is implemented by surfaces that can report their camera.
type ViewportReader interface {
	Viewport() (domain.Viewport, bool)
}

// MapViewConfig holds the fixed visual parameters of a view.
type MapViewConfig struct {
	Layer domain.LayerOptions
	Fit   domain.FitOptions
}

// DefaultMapViewConfig returns the standard layer and fit options.
func DefaultMapViewConfig() MapViewConfig {
	return MapViewConfig{Layer: domain.DefaultLayerOptions(), Fit: domain.DefaultFitOptions}
}

// MapView composes the density manager, the viewport fitter and the
// fallback renderers over one surface.
type MapView struct {
	id      string
	surface ports.Surface
	manager *DensityManager
	fitter  *ViewportFitter

	mu       sync.Mutex
	inputs   Inputs
	bounds   *domain.Bounds
	revision uint64
	mounted  bool
	closed   bool
}

// NewMapView creates an unmounted view.
func NewMapView(id string, surface ports.Surface, capability *Capability, cfg MapViewConfig, reporter ports.Reporter) *MapView {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &MapView{
		id:      id,
		surface: surface,
		manager: NewDensityManager(surface, capability, cfg.Layer, reporter),
		fitter:  NewViewportFitter(surface, cfg.Fit, reporter),
		inputs:  Inputs{ShowHeatmap: true},
	}
}

// ID returns the view ID.
func (v *MapView) ID() string { return v.id }

// Inputs returns the inputs of the latest reconcile.
func (v *MapView) Inputs() Inputs {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.inputs
}

// Mode returns the render mode for the current inputs.
func (v *MapView) Mode() domain.RenderMode {
	in := v.Inputs()
	return domain.ModeFor(in.ShowHeatmap, len(in.Points))
}

// Manager exposes the density manager.
func (v *MapView) Manager() *DensityManager { return v.manager }

// Mount sizes the surface and renders the first inputs.
func (v *MapView) Mount(ctx context.Context, in Inputs) domain.LayerState {
	v.mu.Lock()
	if v.mounted || v.closed {
		v.mu.Unlock()
		return v.Update(ctx, in)
	}
	v.mounted = true
	v.surface.InvalidateSize()
	t := v.reconcileLocked(nil, in)
	v.mu.Unlock()
	return v.manager.complete(ctx, t)
}

// Update reconciles from the current inputs to in.
func (v *MapView) Update(ctx context.Context, in Inputs) domain.LayerState {
	v.mu.Lock()
	prev := v.inputs
	t := v.reconcileLocked(&prev, in)
	v.mu.Unlock()
	return v.manager.complete(ctx, t)
}

// Reconcile moves the view from prev to next. The density layer is rebuilt
// when the point slice or the heatmap flag changed; the viewport is refit
// when the point slice changed. Otherwise nothing happens.
func (v *MapView) Reconcile(ctx context.Context, prev, next Inputs) domain.LayerState {
	v.mu.Lock()
	t := v.reconcileLocked(&prev, next)
	v.mu.Unlock()
	return v.manager.complete(ctx, t)
}

// reconcileLocked runs the synchronous part of a reconcile. A nil prev
// forces both the fit and the rebuild.
func (v *MapView) reconcileLocked(prev *Inputs, next Inputs) transition {
	if v.closed {
		return transition{done: true}
	}
	v.inputs = next
	if prev != nil && prev.Same(next) {
		return transition{done: true}
	}
	v.revision++
	if prev == nil || !prev.SamePoints(next) {
		v.bounds = v.fitter.Fit(next.Points)
	}
	return v.manager.begin(next.Points, next.ShowHeatmap)
}

// Scene snapshots what the view displays.
func (v *MapView) Scene() domain.Scene {
	v.mu.Lock()
	in := v.inputs
	bounds := v.bounds
	rev := v.revision
	v.mu.Unlock()

	state := v.manager.State()
	scene := domain.Scene{
		MapID:       v.id,
		Revision:    rev,
		ShowHeatmap: in.ShowHeatmap,
		PointCount:  len(in.Points),
		Mode:        domain.ModeFor(in.ShowHeatmap, len(in.Points)),
		LayerState:  state,
		Markers:     Render(in.Points, in.ShowHeatmap),
		Bounds:      bounds,
	}
	if bounds != nil {
		scene.ExtentM = geospatial.DiagonalMeters(*bounds)
	}
	if layer := v.manager.Layer(); layer != nil {
		summary := layer.Summary()
		scene.Layer = &summary
	}
	// a failed density layer still shows the data
	if in.ShowHeatmap && state == domain.LayerStateError {
		scene.Circles = RenderBanded(in.Points)
	}
	if r, ok := v.surface.(ViewportReader); ok {
		if vp, ok := r.Viewport(); ok {
			scene.Viewport = &vp
		}
	}
	return scene
}

// Close tears the view down. It does not wait for in-flight rebuilds.
func (v *MapView) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.mu.Unlock()
	v.manager.Close()
}
