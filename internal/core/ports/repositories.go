package ports

import (
	"context"

	"github.com/samirrijal/densitymap/internal/core/domain"
)

// PointRepository supplies stored point datasets.
type PointRepository interface {
	ListByDataset(ctx context.Context, dataset string, limit int) ([]domain.PointRecord, error)
	ListDatasets(ctx context.Context) ([]string, error)
}
