package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/densitymap/internal/adapters/http"
	natsadapter "github.com/samirrijal/densitymap/internal/adapters/nats"
	"github.com/samirrijal/densitymap/internal/adapters/postgres"
	"github.com/samirrijal/densitymap/internal/adapters/surface"
	"github.com/samirrijal/densitymap/internal/adapters/valkey"
	"github.com/samirrijal/densitymap/internal/core/domain"
	"github.com/samirrijal/densitymap/internal/core/ports"
	"github.com/samirrijal/densitymap/internal/core/usecases"
	"github.com/samirrijal/densitymap/internal/pkg/config"
	"github.com/samirrijal/densitymap/internal/pkg/logging"
	"github.com/samirrijal/densitymap/internal/pkg/metrics"
	"github.com/samirrijal/densitymap/internal/pkg/telemetry"
	"github.com/samirrijal/densitymap/internal/render/heat"
)

func main() {
	cfg, err := config.Load("densitymap-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, "service", cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &http.Dependencies{AcquireTimeout: cfg.Render.AcquireTimeout()}

	// Database (optional: only dataset loading needs it)
	var points ports.PointRepository
	db, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		slog.Warn("database unavailable, datasets disabled", "error", err)
	} else {
		defer db.Close()
		deps.DB = db
		points = postgres.NewPointRepo(db)
		go reportPoolStats(ctx, db)
	}

	// Cache
	var cache ports.CacheService
	vc, err := valkey.New(cfg.Valkey.Addr, "densitymap")
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		deps.Cache = vc
		cache = vc
	}

	// NATS
	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
		deps.NATS = natsConn
	}

	// One renderer for the whole process, loaded on first use
	capability := usecases.NewCapability(heat.Loader(cfg.Render.LayerOptions()))
	viewCfg := usecases.MapViewConfig{Layer: cfg.Render.LayerOptions(), Fit: cfg.Render.FitOptions()}
	maps := usecases.NewMapService(capability,
		surface.Factory(cfg.Render.SurfaceWidth, cfg.Render.SurfaceHeight),
		points, cache, events, viewCfg)
	defer maps.Close()
	deps.Maps = maps

	// Point sets published by the refresher
	if events != nil {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats subscriber unavailable", "error", err)
		} else {
			defer sub.Close()
			if err := sub.SubscribePointSets(ctx, pointSetHandler(maps, cfg.Render.AcquireTimeout())); err != nil {
				slog.Warn("subscribe point sets failed", "error", err)
			}
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    8 * 1024 * 1024, // room for a full point set
		AppName:      "DensityMap API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// pointSetHandler applies point sets from NATS to their map views. Sets for
// maps this process does not hold are dropped, since redelivery would not
// make them appear.
func pointSetHandler(maps *usecases.MapService, timeout time.Duration) func(context.Context, string, *domain.PointSet) error {
	return func(ctx context.Context, mapID string, set *domain.PointSet) error {
		metrics.PointSetsReceived.WithLabelValues("nats").Inc()
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		scene, err := maps.Update(ctx, mapID, set)
		switch {
		case errors.Is(err, domain.ErrMapNotFound):
			slog.Info("point set for unknown map dropped", "map_id", mapID)
			return nil
		case errors.Is(err, domain.ErrInvalidInput):
			slog.Warn("invalid point set dropped", "map_id", mapID, "error", err)
			return nil
		case err != nil:
			return err
		}
		slog.Debug("point set applied", "map_id", mapID, "points", scene.PointCount, "state", scene.LayerState)
		return nil
	}
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Stat())
		case <-ctx.Done():
			return
		}
	}
}
