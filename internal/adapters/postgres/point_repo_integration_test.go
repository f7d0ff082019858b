//go:build integration

package postgres_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/samirrijal/densitymap/internal/adapters/postgres"
	"github.com/samirrijal/densitymap/internal/core/domain"
	"github.com/samirrijal/densitymap/internal/pkg/config"
)

// setupTestDB connects to the database named by the densitymap-test config.
// The density_points migration must already be applied.
func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	cfg, err := config.Load("densitymap-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func cleanupDataset(t *testing.T, db *postgres.DB, dataset string) {
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM density_points WHERE dataset = $1`, dataset)
	})
}

func TestPointRepo_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewPointRepo(db)
	ctx := context.Background()

	dataset := "it-" + uuid.NewString()
	cleanupDataset(t, db, dataset)

	in := []domain.PointRecord{
		{Latitude: 53.5, Longitude: -113.5, Weight: domain.Float64(5), Label: domain.String("a")},
		{Latitude: 53.6, Longitude: -113.4},
		{Latitude: -33.9, Longitude: 151.2, Weight: domain.Float64(0.25)},
	}
	if err := repo.InsertBatch(ctx, dataset, in); err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}

	got, err := repo.ListByDataset(ctx, dataset, 100)
	if err != nil {
		t.Fatalf("ListByDataset: %v", err)
	}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	limited, err := repo.ListByDataset(ctx, dataset, 2)
	if err != nil {
		t.Fatalf("ListByDataset limit: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 points with limit, got %d", len(limited))
	}

	names, err := repo.ListDatasets(ctx)
	if err != nil {
		t.Fatalf("ListDatasets: %v", err)
	}
	if !slices.Contains(names, dataset) {
		t.Errorf("dataset %q not listed in %v", dataset, names)
	}
}

func TestPointRepo_UnknownDatasetIsEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewPointRepo(db)

	got, err := repo.ListByDataset(context.Background(), "missing-"+uuid.NewString(), 10)
	if err != nil {
		t.Fatalf("ListByDataset: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no points, got %d", len(got))
	}
}
