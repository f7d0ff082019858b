package usecases

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/densitymap/internal/core/domain"
	"github.com/samirrijal/densitymap/internal/core/ports"
	"github.com/samirrijal/densitymap/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/samirrijal/densitymap/internal/core/usecases")

// MaxPoints caps the size of a single point set.
const MaxPoints = 50000

// SurfaceFactory creates the surface a new map view draws on.
type SurfaceFactory func(mapID string) ports.Surface

// MapService manages the live map views of the process.
type MapService struct {
	capability *Capability
	surfaces   SurfaceFactory
	points     ports.PointRepository
	cache      ports.CacheService
	events     ports.EventPublisher
	cfg        MapViewConfig

	mu    sync.RWMutex
	views map[string]*MapView
}

// NewMapService creates a MapService. points, cache and events may be nil.
func NewMapService(capability *Capability, surfaces SurfaceFactory, points ports.PointRepository,
	cache ports.CacheService, events ports.EventPublisher, cfg MapViewConfig) *MapService {
	return &MapService{
		capability: capability,
		surfaces:   surfaces,
		points:     points,
		cache:      cache,
		events:     events,
		cfg:        cfg,
		views:      make(map[string]*MapView),
	}
}

// Capability returns the shared density capability.
func (s *MapService) Capability() *Capability { return s.capability }

// Create mounts a new view with the given point set (nil for an empty view).
func (s *MapService) Create(ctx context.Context, set *domain.PointSet) (*domain.Scene, error) {
	in := Inputs{ShowHeatmap: true}
	if set != nil {
		if err := checkPointSet(set); err != nil {
			return nil, err
		}
		in = Inputs{Points: set.Points, ShowHeatmap: set.Heatmap()}
	}

	id := uuid.NewString()
	reporter := NewSlogReporter(slog.Default()).With("map_id", id)
	view := NewMapView(id, s.surfaces(id), s.capability, s.cfg, reporter)

	s.mu.Lock()
	s.views[id] = view
	metrics.MapViews.Set(float64(len(s.views)))
	s.mu.Unlock()

	view.Mount(ctx, in)
	scene := view.Scene()
	s.publish(ctx, &scene)
	return &scene, nil
}

// Get returns the scene of a view.
func (s *MapService) Get(id string) (*domain.Scene, error) {
	view, err := s.view(id)
	if err != nil {
		return nil, err
	}
	scene := view.Scene()
	return &scene, nil
}

// List returns view IDs in sorted order, paginated, with the total count.
func (s *MapService) List(offset, limit int) ([]string, int) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.views))
	for id := range s.views {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)

	total := len(ids)
	if offset >= total {
		return []string{}, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return ids[offset:end], total
}

// Update replaces the inputs of a view and returns the resulting scene.
func (s *MapService) Update(ctx context.Context, id string, set *domain.PointSet) (*domain.Scene, error) {
	if err := checkPointSet(set); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "MapService.Update")
	defer span.End()
	span.SetAttributes(
		attribute.String("map.id", id),
		attribute.Int("map.points", len(set.Points)),
		attribute.Bool("map.show_heatmap", set.Heatmap()),
	)

	view, err := s.view(id)
	if err != nil {
		return nil, err
	}

	state := view.Update(ctx, Inputs{Points: set.Points, ShowHeatmap: set.Heatmap()})
	span.SetAttributes(attribute.String("map.layer_state", string(state)))

	scene := view.Scene()
	s.publish(ctx, &scene)
	return &scene, nil
}

// LoadDataset feeds a stored dataset into a view.
func (s *MapService) LoadDataset(ctx context.Context, id, dataset string, showHeatmap bool) (*domain.Scene, error) {
	if s.points == nil {
		return nil, fmt.Errorf("point repository not configured")
	}
	if _, err := s.view(id); err != nil {
		return nil, err
	}
	records, err := s.points.ListByDataset(ctx, dataset, MaxPoints)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", dataset, err)
	}
	return s.Update(ctx, id, &domain.PointSet{Points: records, ShowHeatmap: &showHeatmap})
}

// Datasets lists the stored datasets that LoadDataset accepts.
func (s *MapService) Datasets(ctx context.Context) ([]string, error) {
	if s.points == nil {
		return []string{}, nil
	}
	names, err := s.points.ListDatasets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	return names, nil
}

// RenderHeat rasterizes the active density layer of a view as PNG, using
// the view's current viewport.
func (s *MapService) RenderHeat(ctx context.Context, id string, width, height int) ([]byte, error) {
	view, err := s.view(id)
	if err != nil {
		return nil, err
	}
	layer := view.Manager().Layer()
	if layer == nil {
		return nil, domain.ErrNoActiveLayer
	}

	scene := view.Scene()
	vp := domain.Viewport{}
	if scene.Viewport != nil {
		vp = *scene.Viewport
	} else if scene.Bounds != nil {
		vp.Center = scene.Bounds.Center()
	}

	cacheKey := fmt.Sprintf("heat:%s:%s:%d:%.5f:%.5f:%dx%d", id, layer.ID(), vp.Zoom, vp.Center.Lat, vp.Center.Lon, width, height)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil && len(data) > 0 {
			metrics.CacheHits.WithLabelValues("heat_png").Inc()
			return data, nil
		}
		metrics.CacheMisses.WithLabelValues("heat_png").Inc()
	}

	img, err := layer.Render(vp, width, height)
	if err != nil {
		return nil, fmt.Errorf("render heat: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	// Layers are immutable, so the key only goes stale when the layer is replaced.
	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, buf.Bytes(), 600)
	}
	return buf.Bytes(), nil
}

// Delete tears a view down and forgets it.
func (s *MapService) Delete(id string) error {
	s.mu.Lock()
	view, ok := s.views[id]
	if ok {
		delete(s.views, id)
	}
	metrics.MapViews.Set(float64(len(s.views)))
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrMapNotFound, id)
	}
	view.Close()
	return nil
}

// Close tears down every view.
func (s *MapService) Close() {
	s.mu.Lock()
	views := s.views
	s.views = make(map[string]*MapView)
	metrics.MapViews.Set(0)
	s.mu.Unlock()
	for _, v := range views {
		v.Close()
	}
}

func (s *MapService) view(id string) (*MapView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view, ok := s.views[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMapNotFound, id)
	}
	return view, nil
}

func (s *MapService) publish(ctx context.Context, scene *domain.Scene) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishScene(ctx, scene); err != nil {
		slog.Warn("publish scene failed", "map_id", scene.MapID, "error", err)
	}
}

func checkPointSet(set *domain.PointSet) error {
	if set == nil {
		return fmt.Errorf("%w: point set is required", domain.ErrInvalidInput)
	}
	if len(set.Points) > MaxPoints {
		return fmt.Errorf("%w: too many points: %d (max %d)", domain.ErrInvalidInput, len(set.Points), MaxPoints)
	}
	return nil
}
