package usecases_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/samirrijal/densitymap/internal/core/domain"
	"github.com/samirrijal/densitymap/internal/core/ports"
	"github.com/samirrijal/densitymap/internal/core/usecases"
)

func newManager(surface ports.Surface, loader ports.CapabilityLoader, rep ports.Reporter) *usecases.DensityManager {
	return usecases.NewDensityManager(surface, usecases.NewCapability(loader), domain.DefaultLayerOptions(), rep)
}

func TestDensityManager_SinglePointActive(t *testing.T) {
	surface := newMockSurface()
	factory := &mockFactory{}
	rep := &mockReporter{}
	m := newManager(surface, staticLoader(factory), rep)

	state := m.Apply(context.Background(), []domain.PointRecord{weighted(53.5, -113.5, 5)}, true)

	if state != domain.LayerStateActive {
		t.Fatalf("expected active, got %s", state)
	}
	if m.ValidatedCount() != 1 {
		t.Errorf("expected 1 validated point, got %d", m.ValidatedCount())
	}
	want := []domain.ValidatedPoint{{Lat: 53.5, Lon: -113.5, NormalizedWeight: 0.5}}
	if diff := cmp.Diff(want, factory.lastBuilt()); diff != "" {
		t.Errorf("built points mismatch (-want +got):\n%s", diff)
	}
	if surface.attachedCount() != 1 {
		t.Errorf("expected 1 attached layer, got %d", surface.attachedCount())
	}
	if diff := cmp.Diff([]domain.LayerState{domain.LayerStateLoading, domain.LayerStateActive}, rep.stateLog()); diff != "" {
		t.Errorf("state log mismatch (-want +got):\n%s", diff)
	}
}

func TestDensityManager_AllInvalidStaysEmpty(t *testing.T) {
	surface := newMockSurface()
	factory := &mockFactory{}
	rep := &mockReporter{}
	m := newManager(surface, staticLoader(factory), rep)

	state := m.Apply(context.Background(), []domain.PointRecord{point(200, 0)}, true)

	if state != domain.LayerStateEmpty {
		t.Fatalf("expected empty, got %s", state)
	}
	if m.Layer() != nil {
		t.Error("expected no layer")
	}
	if surface.attachedCount() != 0 {
		t.Error("expected nothing attached")
	}
	if len(factory.built) != 0 {
		t.Error("factory must not be called without valid points")
	}
	if rep.count(domain.ErrInvalidPoint) == 0 {
		t.Error("expected invalid point to be reported")
	}
}

func TestDensityManager_EmptyInput(t *testing.T) {
	var loads int
	m := newManager(newMockSurface(), func(ctx context.Context) (ports.LayerFactory, error) {
		loads++
		return &mockFactory{}, nil
	}, nil)

	if state := m.Apply(context.Background(), nil, true); state != domain.LayerStateEmpty {
		t.Fatalf("expected empty, got %s", state)
	}
	if loads != 0 {
		t.Error("empty input must not acquire the capability")
	}
}

func TestDensityManager_HeatmapOffTearsDown(t *testing.T) {
	surface := newMockSurface()
	m := newManager(surface, staticLoader(&mockFactory{}), nil)
	points := []domain.PointRecord{point(1, 1), point(2, 2)}

	if state := m.Apply(context.Background(), points, true); state != domain.LayerStateActive {
		t.Fatalf("expected active, got %s", state)
	}
	if state := m.Apply(context.Background(), points, false); state != domain.LayerStateEmpty {
		t.Fatalf("expected empty, got %s", state)
	}
	if surface.attachedCount() != 0 {
		t.Errorf("expected layer detached, %d attached", surface.attachedCount())
	}
	if surface.removes != 1 {
		t.Errorf("expected one removal, got %d", surface.removes)
	}
}

func TestDensityManager_RebuildReplacesLayer(t *testing.T) {
	surface := newMockSurface()
	m := newManager(surface, staticLoader(&mockFactory{}), nil)

	m.Apply(context.Background(), []domain.PointRecord{point(1, 1)}, true)
	first := m.Layer()
	m.Apply(context.Background(), []domain.PointRecord{point(2, 2), point(3, 3)}, true)
	second := m.Layer()

	if first == nil || second == nil || first.ID() == second.ID() {
		t.Fatalf("expected a new layer, got %v then %v", first, second)
	}
	if surface.maxAttached != 1 {
		t.Errorf("at most one layer may be attached, saw %d", surface.maxAttached)
	}
	if m.ValidatedCount() != 2 {
		t.Errorf("expected 2 validated points, got %d", m.ValidatedCount())
	}
}

func TestDensityManager_LoaderFailure(t *testing.T) {
	surface := newMockSurface()
	rep := &mockReporter{}
	m := newManager(surface, func(ctx context.Context) (ports.LayerFactory, error) {
		return nil, errors.New("module not found")
	}, rep)

	state := m.Apply(context.Background(), []domain.PointRecord{point(1, 1)}, true)

	if state != domain.LayerStateError {
		t.Fatalf("expected error, got %s", state)
	}
	if rep.count(domain.ErrCapabilityLoad) != 1 {
		t.Errorf("expected a capability-load report, got %v", rep.errs)
	}
	if surface.attachedCount() != 0 {
		t.Error("expected nothing attached")
	}
}

func TestDensityManager_ConstructionFailure(t *testing.T) {
	tests := []struct {
		name  string
		build func([]domain.ValidatedPoint) (ports.Layer, error)
	}{
		{"error", func([]domain.ValidatedPoint) (ports.Layer, error) { return nil, errors.New("bad gradient") }},
		{"nil layer", func([]domain.ValidatedPoint) (ports.Layer, error) { return nil, nil }},
		{"panic", func([]domain.ValidatedPoint) (ports.Layer, error) { panic("boom") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			surface := newMockSurface()
			rep := &mockReporter{}
			m := newManager(surface, staticLoader(&mockFactory{buildFn: tt.build}), rep)

			state := m.Apply(context.Background(), []domain.PointRecord{point(1, 1)}, true)
			if state != domain.LayerStateError {
				t.Fatalf("expected error, got %s", state)
			}
			if rep.count(domain.ErrLayerConstruction) != 1 {
				t.Errorf("expected a construction report, got %v", rep.errs)
			}
			if surface.attachedCount() != 0 {
				t.Error("expected nothing attached")
			}
		})
	}
}

func TestDensityManager_AttachFailureLeavesNothingAttached(t *testing.T) {
	surface := newMockSurface()
	surface.addFn = func(ports.Layer) error { return errors.New("surface gone") }
	rep := &mockReporter{}
	m := newManager(surface, staticLoader(&mockFactory{}), rep)

	state := m.Apply(context.Background(), []domain.PointRecord{point(1, 1)}, true)

	if state != domain.LayerStateError {
		t.Fatalf("expected error, got %s", state)
	}
	if m.Layer() != nil || surface.attachedCount() != 0 {
		t.Error("expected no layer after failed attach")
	}
	if rep.count(domain.ErrLayerConstruction) != 1 {
		t.Errorf("expected a construction report, got %v", rep.errs)
	}
}

func TestDensityManager_DetachFailureSwallowed(t *testing.T) {
	surface := newMockSurface()
	rep := &mockReporter{}
	m := newManager(surface, staticLoader(&mockFactory{}), rep)
	m.Apply(context.Background(), []domain.PointRecord{point(1, 1)}, true)

	surface.removeFn = func(ports.Layer) error { return errors.New("already gone") }
	state := m.Apply(context.Background(), []domain.PointRecord{point(2, 2)}, true)

	if state != domain.LayerStateActive {
		t.Fatalf("detach failure must not block the rebuild, got %s", state)
	}
	if rep.count(domain.ErrDetach) != 1 {
		t.Errorf("expected a detach report, got %v", rep.errs)
	}
}

func TestDensityManager_DetachPanicSwallowed(t *testing.T) {
	surface := newMockSurface()
	rep := &mockReporter{}
	m := newManager(surface, staticLoader(&mockFactory{}), rep)
	m.Apply(context.Background(), []domain.PointRecord{point(1, 1)}, true)

	surface.removeFn = func(ports.Layer) error { panic("map destroyed") }
	m.Close()

	if m.State() != domain.LayerStateEmpty {
		t.Errorf("expected empty after close, got %s", m.State())
	}
	if rep.count(domain.ErrDetach) != 1 {
		t.Errorf("expected a detach report, got %v", rep.errs)
	}
}

func TestDensityManager_CloseDuringAcquire(t *testing.T) {
	gate := make(chan struct{})
	surface := newMockSurface()
	factory := &mockFactory{}
	m := newManager(surface, gatedLoader(gate, factory), nil)

	done := make(chan domain.LayerState)
	go func() {
		done <- m.Apply(context.Background(), []domain.PointRecord{point(1, 1)}, true)
	}()

	waitFor(t, func() bool { return m.State() == domain.LayerStateLoading })
	m.Close()
	close(gate)

	if state := <-done; state != domain.LayerStateEmpty {
		t.Errorf("expected empty after close, got %s", state)
	}
	if surface.adds != 0 || len(factory.built) != 0 {
		t.Errorf("closed manager must not build or attach: adds=%d builds=%d", surface.adds, len(factory.built))
	}
}

func TestDensityManager_ApplyAfterCloseIsNoop(t *testing.T) {
	surface := newMockSurface()
	m := newManager(surface, staticLoader(&mockFactory{}), nil)
	m.Close()

	if state := m.Apply(context.Background(), []domain.PointRecord{point(1, 1)}, true); state != domain.LayerStateEmpty {
		t.Errorf("expected empty, got %s", state)
	}
	if surface.adds != 0 {
		t.Error("expected no attach after close")
	}
}

func TestDensityManager_LatestInputWins(t *testing.T) {
	gate := make(chan struct{})
	surface := newMockSurface()
	factory := &mockFactory{}
	m := newManager(surface, gatedLoader(gate, factory), nil)

	first := []domain.PointRecord{point(1, 1)}
	second := []domain.PointRecord{point(2, 2), point(3, 3)}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.Apply(context.Background(), first, true)
	}()
	waitFor(t, func() bool { return m.State() == domain.LayerStateLoading })

	wg.Add(1)
	go func() {
		defer wg.Done()
		m.Apply(context.Background(), second, true)
	}()
	// give the second apply time to park on the same load
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	if m.State() != domain.LayerStateActive {
		t.Fatalf("expected active, got %s", m.State())
	}
	if m.ValidatedCount() != 2 {
		t.Errorf("expected the second input to win, got %d points", m.ValidatedCount())
	}
	if len(factory.built) != 1 {
		t.Errorf("superseded apply must not build, got %d builds", len(factory.built))
	}
	if surface.maxAttached > 1 {
		t.Errorf("at most one layer may be attached, saw %d", surface.maxAttached)
	}
}

func TestDensityManager_RapidToggles(t *testing.T) {
	gate := make(chan struct{})
	surface := newMockSurface()
	m := newManager(surface, gatedLoader(gate, &mockFactory{}), nil)
	points := []domain.PointRecord{point(1, 1), point(2, 2)}

	// Even steps show the heatmap and park on the gated load; odd steps
	// hide it and finish at once. Waiting for Loading after each parked
	// step keeps the issue order deterministic.
	const n = 51
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if i%2 == 1 {
			if state := m.Apply(context.Background(), points, false); state != domain.LayerStateEmpty {
				t.Fatalf("step %d: expected empty, got %s", i, state)
			}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Apply(context.Background(), points, true)
		}()
		waitFor(t, func() bool { return m.State() == domain.LayerStateLoading })
	}
	close(gate)
	wg.Wait()

	if surface.maxAttached > 1 {
		t.Errorf("at most one layer may be attached, saw %d", surface.maxAttached)
	}
	if m.State() != domain.LayerStateActive {
		t.Errorf("expected final state active, got %s", m.State())
	}
	if surface.attachedCount() != 1 {
		t.Errorf("expected exactly one attached layer, got %d", surface.attachedCount())
	}
}

func TestDensityManager_NaNWeightCountsAsAbsent(t *testing.T) {
	factory := &mockFactory{}
	m := newManager(newMockSurface(), staticLoader(factory), nil)

	m.Apply(context.Background(), []domain.PointRecord{weighted(1, 1, math.NaN())}, true)

	built := factory.lastBuilt()
	if len(built) != 1 || built[0].NormalizedWeight != 0.1 {
		t.Errorf("expected NaN weight normalized to 0.1, got %+v", built)
	}
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}
