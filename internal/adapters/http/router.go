package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	"github.com/samirrijal/densitymap/internal/pkg/metrics"
)

const (
	requestTimeout = 15 * time.Second
	apiVersion     = "1.0.0"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// 120 requests per minute per client IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	app.Use(SecurityHeaders())

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/datasets", timeout.NewWithContext(ListDatasetsHandler(deps), requestTimeout))
	v1.Post("/maps", timeout.NewWithContext(CreateMapHandler(deps), requestTimeout))
	v1.Get("/maps", ListMapsHandler(deps))
	v1.Get("/maps/:id", GetMapHandler(deps))
	v1.Put("/maps/:id/points", timeout.NewWithContext(UpdatePointsHandler(deps), requestTimeout))
	v1.Post("/maps/:id/datasets/:dataset", timeout.NewWithContext(LoadDatasetHandler(deps), requestTimeout))
	v1.Get("/maps/:id/heat.png", timeout.NewWithContext(HeatImageHandler(deps), requestTimeout))
	v1.Delete("/maps/:id", DeleteMapHandler(deps))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))
}

// SecurityHeaders sets the hardening headers and the API version on every response.
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
		c.Set(fiber.HeaderXFrameOptions, "DENY")
		c.Set(fiber.HeaderReferrerPolicy, "no-referrer")
		c.Set("X-API-Version", apiVersion)
		return c.Next()
	}
}
