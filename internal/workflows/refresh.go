package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// RefreshInput is the input for the dataset refresh workflow.
type RefreshInput struct {
	MapID       string
	Dataset     string
	ShowHeatmap bool
}

// RefreshResult reports what was pushed to the map.
type RefreshResult struct {
	Points int
}

// RefreshDatasetWorkflow loads a stored dataset and publishes it as the new
// point set of a map view. The API process picks the set up from NATS and
// reconciles the view, so the workflow never talks to a view directly.
func RefreshDatasetWorkflow(ctx workflow.Context, input RefreshInput) (RefreshResult, error) {
	logger := workflow.GetLogger(ctx)
	if input.MapID == "" || input.Dataset == "" {
		return RefreshResult{}, temporal.NewNonRetryableApplicationError(
			"map ID and dataset are required", "InvalidInput", errors.New("invalid refresh input"))
	}
	logger.Info("Refreshing dataset", "mapID", input.MapID, "dataset", input.Dataset)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	if err := workflow.ExecuteActivity(ctx, "CheckDataset", input.Dataset).Get(ctx, nil); err != nil {
		return RefreshResult{}, err
	}

	var published int
	if err := workflow.ExecuteActivity(ctx, "PublishDataset", input).Get(ctx, &published); err != nil {
		return RefreshResult{}, err
	}

	logger.Info("Dataset published", "mapID", input.MapID, "points", published)
	return RefreshResult{Points: published}, nil
}
