package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/samirrijal/densitymap/internal/core/domain"
	"github.com/samirrijal/densitymap/internal/core/ports"
)

// --- Mock Layer / LayerFactory ---

type mockLayer struct {
	id     string
	points []domain.ValidatedPoint
}

func (l *mockLayer) ID() string { return l.id }
func (l *mockLayer) Summary() domain.LayerSummary {
	return domain.LayerSummary{ID: l.id, PointCount: len(l.points)}
}
func (l *mockLayer) Render(vp domain.Viewport, w, h int) (image.Image, error) {
	return image.NewNRGBA(image.Rect(0, 0, w, h)), nil
}

type mockFactory struct {
	mu      sync.Mutex
	n       int
	built   [][]domain.ValidatedPoint
	buildFn func(points []domain.ValidatedPoint) (ports.Layer, error)
}

func (f *mockFactory) NewLayer(points []domain.ValidatedPoint, opts domain.LayerOptions) (ports.Layer, error) {
	f.mu.Lock()
	f.n++
	id := fmt.Sprintf("layer-%d", f.n)
	f.built = append(f.built, points)
	f.mu.Unlock()
	if f.buildFn != nil {
		return f.buildFn(points)
	}
	return &mockLayer{id: id, points: points}, nil
}

func (f *mockFactory) lastBuilt() []domain.ValidatedPoint {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.built) == 0 {
		return nil
	}
	return f.built[len(f.built)-1]
}

// staticLoader resolves immediately with f.
func staticLoader(f ports.LayerFactory) ports.CapabilityLoader {
	return func(ctx context.Context) (ports.LayerFactory, error) { return f, nil }
}

// gatedLoader blocks until gate is closed, then resolves with f.
func gatedLoader(gate <-chan struct{}, f ports.LayerFactory) ports.CapabilityLoader {
	return func(ctx context.Context) (ports.LayerFactory, error) {
		<-gate
		return f, nil
	}
}

// --- Mock Surface ---

// mockSurface tracks attached layers and the most ever attached at once.
type mockSurface struct {
	mu            sync.Mutex
	attached      map[string]ports.Layer
	maxAttached   int
	adds          int
	removes       int
	fits          []domain.Bounds
	invalidations int

	addFn    func(ports.Layer) error
	removeFn func(ports.Layer) error
	fitFn    func(domain.Bounds, domain.FitOptions) error
}

func newMockSurface() *mockSurface {
	return &mockSurface{attached: make(map[string]ports.Layer)}
}

func (s *mockSurface) AddLayer(l ports.Layer) error {
	if s.addFn != nil {
		if err := s.addFn(l); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adds++
	s.attached[l.ID()] = l
	if len(s.attached) > s.maxAttached {
		s.maxAttached = len(s.attached)
	}
	return nil
}

func (s *mockSurface) RemoveLayer(l ports.Layer) error {
	if s.removeFn != nil {
		if err := s.removeFn(l); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removes++
	delete(s.attached, l.ID())
	return nil
}

func (s *mockSurface) FitBounds(b domain.Bounds, opts domain.FitOptions) error {
	if s.fitFn != nil {
		if err := s.fitFn(b, opts); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fits = append(s.fits, b)
	return nil
}

func (s *mockSurface) InvalidateSize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidations++
}

func (s *mockSurface) attachedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attached)
}

func (s *mockSurface) fitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fits)
}

// --- Mock Reporter ---

type mockReporter struct {
	mu     sync.Mutex
	errs   []error
	states []domain.LayerState
}

func (r *mockReporter) Report(err error, attrs ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *mockReporter) StateChanged(s domain.LayerState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

// count returns how many reported errors match target.
func (r *mockReporter) count(target error) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, err := range r.errs {
		if errors.Is(err, target) {
			n++
		}
	}
	return n
}

func (r *mockReporter) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

func (r *mockReporter) stateLog() []domain.LayerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.LayerState(nil), r.states...)
}

func point(lat, lon float64) domain.PointRecord {
	return domain.PointRecord{Latitude: lat, Longitude: lon}
}

func weighted(lat, lon, w float64) domain.PointRecord {
	return domain.PointRecord{Latitude: lat, Longitude: lon, Weight: domain.Float64(w)}
}
