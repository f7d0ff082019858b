package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readyTimeout = 3 * time.Second

// HealthHandler is the liveness probe. It also reports how many map views
// the process holds.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		views := 0
		if deps.Maps != nil {
			_, views = deps.Maps.List(0, 0)
		}
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"version": apiVersion,
			"maps":    views,
		})
	}
}

// probe reports the state of one backing service. ok=false fails readiness.
type probe struct {
	name  string
	check func(ctx context.Context) (state string, ok bool)
}

func (d *Dependencies) readinessProbes() []probe {
	return []probe{
		{"database", func(ctx context.Context) (string, bool) {
			// optional: only dataset loading needs it
			if d.DB == nil {
				return "not configured", true
			}
			if err := d.DB.Ping(ctx); err != nil {
				return "error: " + err.Error(), false
			}
			return "ok", true
		}},
		{"nats", func(context.Context) (string, bool) {
			if d.NATS == nil {
				return "not configured", true
			}
			if !d.NATS.IsConnected() {
				return "disconnected", false
			}
			return "ok", true
		}},
		{"cache", func(ctx context.Context) (string, bool) {
			if d.Cache == nil {
				return "not configured", true
			}
			if err := d.Cache.Ping(ctx); err != nil {
				return "error: " + err.Error(), false
			}
			return "ok", true
		}},
		{"renderer", func(context.Context) (string, bool) {
			// loaded lazily on first use, so cold is still ready
			if d.Maps != nil && d.Maps.Capability().Resident() {
				return "resident", true
			}
			return "cold", true
		}},
	}
}

// ReadyHandler runs every readiness probe and answers 503 if any failed.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
		defer cancel()

		checks := make(map[string]string)
		ready := true
		for _, p := range deps.readinessProbes() {
			state, ok := p.check(ctx)
			checks[p.name] = state
			ready = ready && ok
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "checks": checks})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": checks})
	}
}
