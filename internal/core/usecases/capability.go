package usecases

import (
	"context"
	"fmt"

	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"

	"github.com/samirrijal/densitymap/internal/core/domain"
	"github.com/samirrijal/densitymap/internal/core/ports"
	"github.com/samirrijal/densitymap/internal/pkg/metrics"
)

// Capability memoizes acquisition of the density renderer. One instance
// is shared by every map view in the process: the first Acquire triggers
// the load, concurrent callers join it, and once resident the factory is
// returned without blocking. A failed load is not remembered, so the next
// Acquire tries again.
type Capability struct {
	load ports.CapabilityLoader

	group    singleflight.Group
	resident atomic.Bool
	factory  ports.LayerFactory // written once, before resident is set
	loads    atomic.Int64
}

// NewCapability wraps a loader.
func NewCapability(load ports.CapabilityLoader) *Capability {
	return &Capability{load: load}
}

// Resident reports whether the factory is loaded.
func (c *Capability) Resident() bool {
	return c.resident.Load()
}

// Loads is the number of times the underlying loader has run.
func (c *Capability) Loads() int64 {
	return c.loads.Load()
}

// Acquire returns the layer factory, loading it if needed. If ctx ends
// first the load keeps running in the background and its result is kept
// for the next caller.
func (c *Capability) Acquire(ctx context.Context) (ports.LayerFactory, error) {
	if c.resident.Load() {
		return c.factory, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("density", func() (interface{}, error) {
		if c.resident.Load() {
			return c.factory, nil
		}
		c.loads.Inc()
		f, err := c.load(loadCtx)
		if err == nil && f == nil {
			err = fmt.Errorf("loader returned no factory")
		}
		if err != nil {
			metrics.CapabilityLoads.WithLabelValues("error").Inc()
			return nil, err
		}
		metrics.CapabilityLoads.WithLabelValues("ok").Inc()
		c.factory = f
		c.resident.Store(true)
		return f, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", domain.ErrCapabilityLoad, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrCapabilityLoad, res.Err)
		}
		return res.Val.(ports.LayerFactory), nil
	}
}
