package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samirrijal/densitymap/internal/core/domain"
	"github.com/samirrijal/densitymap/internal/core/ports"
)

// DensityManager owns the single density layer of one map view.
//
// Every Apply tears the current layer down before anything else happens,
// so two layers are never attached at once. Applies are numbered; an Apply
// that comes back from capability acquisition and finds a newer number has
// been superseded and drops its work.
type DensityManager struct {
	surface    ports.Surface
	capability *Capability
	reporter   ports.Reporter
	opts       domain.LayerOptions

	mu        sync.Mutex
	gen       uint64
	state     domain.LayerState
	layer     ports.Layer
	validated int
	closed    bool
}

// NewDensityManager creates a manager in the Empty state.
func NewDensityManager(surface ports.Surface, capability *Capability, opts domain.LayerOptions, reporter ports.Reporter) *DensityManager {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &DensityManager{
		surface:    surface,
		capability: capability,
		reporter:   reporter,
		opts:       opts,
		state:      domain.LayerStateEmpty,
	}
}

// State returns the current layer state.
func (m *DensityManager) State() domain.LayerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Layer returns the attached layer, or nil.
func (m *DensityManager) Layer() ports.Layer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.layer
}

// ValidatedCount is the number of points in the attached layer.
func (m *DensityManager) ValidatedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validated
}

// Apply runs one teardown/validate/rebuild cycle for the given inputs and
// returns the state the manager is in when it finishes. Capability
// acquisition happens without holding the lock; everything else is
// serialized.
func (m *DensityManager) Apply(ctx context.Context, points []domain.PointRecord, showHeatmap bool) domain.LayerState {
	t := m.begin(points, showHeatmap)
	return m.complete(ctx, t)
}

// transition is an Apply split at its only suspension point.
type transition struct {
	gen    uint64
	points []domain.PointRecord
	done   bool
}

// begin tears down the current layer and claims a generation. A transition
// that is already done needs no capability.
func (m *DensityManager) begin(points []domain.PointRecord, showHeatmap bool) transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return transition{done: true}
	}
	m.gen++
	t := transition{gen: m.gen, points: points}
	m.setState(domain.LayerStateLoading)
	m.detachLocked()

	if !showHeatmap || len(points) == 0 {
		m.setState(domain.LayerStateEmpty)
		t.done = true
	}
	return t
}

func (m *DensityManager) complete(ctx context.Context, t transition) domain.LayerState {
	if t.done {
		return m.State()
	}

	factory, err := m.capability.Acquire(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || t.gen != m.gen {
		return m.state
	}
	if err != nil {
		m.reporter.Report(err)
		m.setState(domain.LayerStateError)
		return m.state
	}

	validated := Validate(t.points, m.reporter)
	if len(validated) == 0 {
		m.reporter.Report(fmt.Errorf("%w: none of %d points are valid", domain.ErrInvalidPoint, len(t.points)))
		m.setState(domain.LayerStateEmpty)
		return m.state
	}

	layer, err := m.build(factory, validated)
	if err != nil {
		m.reporter.Report(fmt.Errorf("%w: %w", domain.ErrLayerConstruction, err))
		m.setState(domain.LayerStateError)
		return m.state
	}
	if err := m.surface.AddLayer(layer); err != nil {
		// the surface may have kept part of it
		m.removeQuietly(layer)
		m.reporter.Report(fmt.Errorf("%w: attach: %w", domain.ErrLayerConstruction, err))
		m.setState(domain.LayerStateError)
		return m.state
	}

	m.layer = layer
	m.validated = len(validated)
	m.setState(domain.LayerStateActive)
	return m.state
}

// Close detaches the layer and stops the manager. It does not wait for an
// in-flight Apply; that Apply will find the manager closed and discard its
// result.
func (m *DensityManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.gen++
	m.closed = true
	m.detachLocked()
	m.setState(domain.LayerStateEmpty)
}

func (m *DensityManager) build(factory ports.LayerFactory, points []domain.ValidatedPoint) (layer ports.Layer, err error) {
	defer func() {
		if r := recover(); r != nil {
			layer, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	layer, err = factory.NewLayer(points, m.opts)
	if err == nil && layer == nil {
		err = errors.New("factory returned no layer")
	}
	return layer, err
}

func (m *DensityManager) detachLocked() {
	if m.layer == nil {
		return
	}
	m.removeQuietly(m.layer)
	m.layer = nil
	m.validated = 0
}

func (m *DensityManager) removeQuietly(layer ports.Layer) {
	defer func() {
		if r := recover(); r != nil {
			m.reporter.Report(fmt.Errorf("%w: panic: %v", domain.ErrDetach, r), "layer", layer.ID())
		}
	}()
	if err := m.surface.RemoveLayer(layer); err != nil {
		m.reporter.Report(errors.Join(domain.ErrDetach, err), "layer", layer.ID())
	}
}

func (m *DensityManager) setState(s domain.LayerState) {
	if m.state == s {
		return
	}
	m.state = s
	m.reporter.StateChanged(s)
}
