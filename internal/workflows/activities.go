package workflows

import (
	"context"
	"fmt"
	"slices"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/densitymap/internal/core/domain"
	"github.com/samirrijal/densitymap/internal/core/ports"
	"github.com/samirrijal/densitymap/internal/core/usecases"
)

// RefreshActivities holds the activity implementations for the refresh workflow.
type RefreshActivities struct {
	Points ports.PointRepository
	Events ports.EventPublisher
}

// CheckDataset fails without retry when the dataset is not stored.
func (a *RefreshActivities) CheckDataset(ctx context.Context, dataset string) error {
	names, err := a.Points.ListDatasets(ctx)
	if err != nil {
		return fmt.Errorf("list datasets: %w", err)
	}
	if !slices.Contains(names, dataset) {
		return temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("dataset %q not found", dataset), "DatasetNotFound", nil)
	}
	return nil
}

// PublishDataset reads up to usecases.MaxPoints records of the input's
// dataset and publishes them as the map's point set. Points stay inside the
// activity so workflow history only records the count.
func (a *RefreshActivities) PublishDataset(ctx context.Context, input RefreshInput) (int, error) {
	points, err := a.Points.ListByDataset(ctx, input.Dataset, usecases.MaxPoints)
	if err != nil {
		return 0, fmt.Errorf("load dataset %s: %w", input.Dataset, err)
	}

	show := input.ShowHeatmap
	set := &domain.PointSet{Points: points, ShowHeatmap: &show}
	if err := a.Events.PublishPointSet(ctx, input.MapID, set); err != nil {
		return 0, fmt.Errorf("publish point set for %s: %w", input.MapID, err)
	}
	activity.GetLogger(ctx).Info("Published dataset", "dataset", input.Dataset, "mapID", input.MapID, "points", len(points))
	return len(points), nil
}
