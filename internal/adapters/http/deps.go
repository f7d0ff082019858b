package http

import (
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/densitymap/internal/adapters/postgres"
	"github.com/samirrijal/densitymap/internal/adapters/valkey"
	"github.com/samirrijal/densitymap/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Maps           *usecases.MapService
	NATS           *nats.Conn
	DB             *postgres.DB
	Cache          *valkey.Cache
	AcquireTimeout time.Duration // upper bound on waiting for the density renderer
}
