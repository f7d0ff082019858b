package usecases_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/atomic"

	"github.com/samirrijal/densitymap/internal/core/domain"
	"github.com/samirrijal/densitymap/internal/core/ports"
	"github.com/samirrijal/densitymap/internal/core/usecases"
)

func TestCapability_ConcurrentAcquireLoadsOnce(t *testing.T) {
	gate := make(chan struct{})
	var calls atomic.Int32
	factory := &mockFactory{}
	capability := usecases.NewCapability(func(ctx context.Context) (ports.LayerFactory, error) {
		calls.Inc()
		<-gate
		return factory, nil
	})

	const n = 20
	var wg sync.WaitGroup
	results := make(chan ports.LayerFactory, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := capability.Acquire(context.Background())
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			results <- f
		}()
	}

	// let the callers pile up on the in-flight load
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()
	close(results)

	for f := range results {
		if f != factory {
			t.Errorf("expected the loaded factory, got %v", f)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected loader to run once, ran %d times", got)
	}
	if !capability.Resident() {
		t.Error("expected capability to be resident")
	}
}

func TestCapability_ResidentSkipsLoader(t *testing.T) {
	capability := usecases.NewCapability(staticLoader(&mockFactory{}))

	for i := 0; i < 3; i++ {
		if _, err := capability.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire: %v", err)
		}
	}
	if got := capability.Loads(); got != 1 {
		t.Errorf("expected 1 load, got %d", got)
	}
}

func TestCapability_FailureIsRetried(t *testing.T) {
	var calls atomic.Int32
	factory := &mockFactory{}
	capability := usecases.NewCapability(func(ctx context.Context) (ports.LayerFactory, error) {
		if calls.Inc() == 1 {
			return nil, errors.New("network down")
		}
		return factory, nil
	})

	_, err := capability.Acquire(context.Background())
	if !errors.Is(err, domain.ErrCapabilityLoad) {
		t.Fatalf("expected ErrCapabilityLoad, got %v", err)
	}
	if capability.Resident() {
		t.Fatal("failed load must not be resident")
	}

	f, err := capability.Acquire(context.Background())
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	if f != factory {
		t.Error("expected factory from the retry")
	}
	if got := capability.Loads(); got != 2 {
		t.Errorf("expected 2 loads, got %d", got)
	}
}

func TestCapability_NilFactoryIsError(t *testing.T) {
	capability := usecases.NewCapability(func(ctx context.Context) (ports.LayerFactory, error) {
		return nil, nil
	})
	if _, err := capability.Acquire(context.Background()); !errors.Is(err, domain.ErrCapabilityLoad) {
		t.Fatalf("expected ErrCapabilityLoad, got %v", err)
	}
}

func TestCapability_ContextCancelLeavesLoadRunning(t *testing.T) {
	gate := make(chan struct{})
	factory := &mockFactory{}
	capability := usecases.NewCapability(gatedLoader(gate, factory))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := capability.Acquire(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if !errors.Is(err, domain.ErrCapabilityLoad) {
		t.Errorf("expected ErrCapabilityLoad wrapper, got %v", err)
	}

	close(gate)
	f, err := capability.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire after cancel: %v", err)
	}
	if f != factory {
		t.Error("expected factory")
	}
	if got := capability.Loads(); got != 1 {
		t.Errorf("abandoned load should have been joined, got %d loads", got)
	}
}
