package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/densitymap/internal/adapters/nats"
	"github.com/samirrijal/densitymap/internal/adapters/postgres"
	"github.com/samirrijal/densitymap/internal/pkg/config"
	"github.com/samirrijal/densitymap/internal/pkg/logging"
	"github.com/samirrijal/densitymap/internal/workflows"
)

func main() {
	cfg, err := config.Load("densitymap-refresher")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, "service", cfg.Telemetry.ServiceName)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()

	c, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
		Logger:   slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	// refresher start <map-id> <dataset> [show_heatmap]
	if len(os.Args) > 1 && os.Args[1] == "start" {
		startRefresh(ctx, c, cfg.Temporal.TaskQueue, os.Args[2:])
		return
	}

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.RefreshDatasetWorkflow)
	w.RegisterActivity(&workflows.RefreshActivities{
		Points: postgres.NewPointRepo(db),
		Events: pub,
	})

	slog.Info("refresher worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func startRefresh(ctx context.Context, c client.Client, queue string, args []string) {
	if len(args) < 2 {
		log.Fatal("usage: refresher start <map-id> <dataset> [show_heatmap]")
	}
	input := workflows.RefreshInput{MapID: args[0], Dataset: args[1], ShowHeatmap: true}
	if len(args) > 2 {
		show, err := strconv.ParseBool(args[2])
		if err != nil {
			log.Fatalf("show_heatmap: %v", err)
		}
		input.ShowHeatmap = show
	}

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "refresh-" + input.MapID + "-" + input.Dataset,
		TaskQueue: queue,
	}, workflows.RefreshDatasetWorkflow, input)
	if err != nil {
		log.Fatalf("start workflow: %v", err)
	}

	var result workflows.RefreshResult
	if err := run.Get(ctx, &result); err != nil {
		log.Fatalf("workflow %s: %v", run.GetID(), err)
	}
	slog.Info("refresh complete", "workflow_id", run.GetID(), "points", result.Points)
}
