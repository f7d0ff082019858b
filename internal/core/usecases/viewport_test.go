package usecases_test

import (
	"errors"
	"math"
	"testing"

	"github.com/samirrijal/densitymap/internal/core/domain"
	"github.com/samirrijal/densitymap/internal/core/usecases"
)

func TestComputeBounds(t *testing.T) {
	tests := []struct {
		name   string
		points []domain.PointRecord
		want   domain.Bounds
		ok     bool
	}{
		{"empty", nil, domain.Bounds{}, false},
		{"single", []domain.PointRecord{point(53.5, -113.5)},
			domain.Bounds{MinLat: 53.5, MinLon: -113.5, MaxLat: 53.5, MaxLon: -113.5}, true},
		{"spread", []domain.PointRecord{point(10, 20), point(-5, 30), point(0, -40)},
			domain.Bounds{MinLat: -5, MinLon: -40, MaxLat: 10, MaxLon: 30}, true},
		{"includes invalid records", []domain.PointRecord{point(10, 20), point(200, 0)},
			domain.Bounds{MinLat: 10, MinLon: 0, MaxLat: 200, MaxLon: 20}, true},
		{"incomplete record", []domain.PointRecord{point(10, 20), {Incomplete: true}},
			domain.Bounds{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := usecases.ComputeBounds(tt.points)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ComputeBounds() = (%+v, %v), want (%+v, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestViewportFitter_Fit(t *testing.T) {
	surface := newMockSurface()
	var gotOpts domain.FitOptions
	surface.fitFn = func(b domain.Bounds, opts domain.FitOptions) error {
		gotOpts = opts
		return nil
	}
	f := usecases.NewViewportFitter(surface, domain.DefaultFitOptions, nil)

	b := f.Fit([]domain.PointRecord{point(1, 2), point(3, 4)})
	if b == nil {
		t.Fatal("expected bounds")
	}
	if *b != (domain.Bounds{MinLat: 1, MinLon: 2, MaxLat: 3, MaxLon: 4}) {
		t.Errorf("unexpected bounds %+v", *b)
	}
	if gotOpts != domain.DefaultFitOptions {
		t.Errorf("expected default fit options, got %+v", gotOpts)
	}
	if surface.fitCount() != 1 {
		t.Errorf("expected one fit, got %d", surface.fitCount())
	}
}

func TestViewportFitter_EmptyDoesNothing(t *testing.T) {
	surface := newMockSurface()
	rep := &mockReporter{}
	f := usecases.NewViewportFitter(surface, domain.DefaultFitOptions, rep)

	if b := f.Fit(nil); b != nil {
		t.Errorf("expected nil bounds, got %+v", b)
	}
	if surface.fitCount() != 0 || rep.total() != 0 {
		t.Error("empty input must neither fit nor report")
	}
}

func TestViewportFitter_NonFiniteReported(t *testing.T) {
	surface := newMockSurface()
	rep := &mockReporter{}
	f := usecases.NewViewportFitter(surface, domain.DefaultFitOptions, rep)

	b := f.Fit([]domain.PointRecord{point(1, 1), point(math.NaN(), 2)})
	if b != nil {
		t.Errorf("expected nil bounds, got %+v", b)
	}
	if surface.fitCount() != 0 {
		t.Error("viewport must be left unchanged")
	}
	if rep.count(domain.ErrBoundsComputation) != 1 {
		t.Errorf("expected a bounds report, got %v", rep.errs)
	}
}

func TestViewportFitter_IncompleteRecordReported(t *testing.T) {
	surface := newMockSurface()
	rep := &mockReporter{}
	f := usecases.NewViewportFitter(surface, domain.DefaultFitOptions, rep)

	b := f.Fit([]domain.PointRecord{point(53.5, -113.5), {Weight: domain.Float64(3), Incomplete: true}})
	if b != nil {
		t.Errorf("expected nil bounds, got %+v", b)
	}
	if surface.fitCount() != 0 {
		t.Error("viewport must be left unchanged")
	}
	if rep.count(domain.ErrBoundsComputation) != 1 {
		t.Errorf("expected a bounds report, got %v", rep.errs)
	}
}

func TestViewportFitter_SurfaceFailureReported(t *testing.T) {
	tests := []struct {
		name string
		fit  func(domain.Bounds, domain.FitOptions) error
	}{
		{"error", func(domain.Bounds, domain.FitOptions) error { return errors.New("not sized") }},
		{"panic", func(domain.Bounds, domain.FitOptions) error { panic("no container") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			surface := newMockSurface()
			surface.fitFn = tt.fit
			rep := &mockReporter{}
			f := usecases.NewViewportFitter(surface, domain.DefaultFitOptions, rep)

			if b := f.Fit([]domain.PointRecord{point(1, 1)}); b != nil {
				t.Errorf("expected nil bounds, got %+v", b)
			}
			if rep.count(domain.ErrBoundsComputation) != 1 {
				t.Errorf("expected a bounds report, got %v", rep.errs)
			}
		})
	}
}
