package usecases

import (
	"errors"
	"log/slog"

	"github.com/samirrijal/densitymap/internal/core/domain"
	"github.com/samirrijal/densitymap/internal/pkg/metrics"
)

// SlogReporter writes map diagnostics to a slog logger and counts them.
type SlogReporter struct {
	logger *slog.Logger
}

// NewSlogReporter returns a reporter bound to logger (slog.Default if nil).
func NewSlogReporter(logger *slog.Logger) *SlogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogReporter{logger: logger}
}

// With returns a reporter that adds attrs to every line.
func (r *SlogReporter) With(attrs ...any) *SlogReporter {
	return &SlogReporter{logger: r.logger.With(attrs...)}
}

func (r *SlogReporter) Report(err error, attrs ...any) {
	kind := errorKind(err)
	metrics.MapDiagnostics.WithLabelValues(kind).Inc()

	attrs = append(attrs, "kind", kind, "error", err)
	if kind == "invalid_point" || kind == "detach" {
		r.logger.Debug("map diagnostic", attrs...)
		return
	}
	r.logger.Warn("map diagnostic", attrs...)
}

func (r *SlogReporter) StateChanged(state domain.LayerState) {
	metrics.LayerTransitions.WithLabelValues(string(state)).Inc()
	r.logger.Debug("density layer state", "state", state)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidPoint):
		return "invalid_point"
	case errors.Is(err, domain.ErrCapabilityLoad):
		return "capability_load"
	case errors.Is(err, domain.ErrLayerConstruction):
		return "layer_construction"
	case errors.Is(err, domain.ErrDetach):
		return "detach"
	case errors.Is(err, domain.ErrBoundsComputation):
		return "bounds"
	default:
		return "other"
	}
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Report(error, ...any)           {}
func (NopReporter) StateChanged(domain.LayerState) {}
