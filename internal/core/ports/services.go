package ports

import (
	"context"

	"github.com/samirrijal/densitymap/internal/core/domain"
)

// EventPublisher publishes map events to a message broker.
type EventPublisher interface {
	PublishScene(ctx context.Context, scene *domain.Scene) error
	PublishPointSet(ctx context.Context, mapID string, set *domain.PointSet) error
}

// EventSubscriber subscribes to point-set updates from a message broker.
type EventSubscriber interface {
	SubscribePointSets(ctx context.Context, handler func(ctx context.Context, mapID string, set *domain.PointSet) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
