package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/samirrijal/densitymap/internal/adapters/postgres"
	"github.com/samirrijal/densitymap/internal/core/domain"
	"github.com/samirrijal/densitymap/internal/core/usecases"
	"github.com/samirrijal/densitymap/internal/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|seed <dataset> <points.json>>")
	}

	cfg, err := config.Load("densitymap-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		runMigrations(ctx, db)
	case "seed":
		if len(os.Args) != 4 {
			log.Fatal("usage: migrate seed <dataset> <points.json>")
		}
		seed(ctx, db, os.Args[2], os.Args[3])
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func runMigrations(ctx context.Context, db *postgres.DB) {
	files := []string{
		"migrations/001_density_points.sql",
	}

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Pool.Exec(ctx, string(data)); err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}
		fmt.Printf("OK  %s\n", f)
	}

	log.Println("all migrations applied")
}

// seed loads a point set file ({"points":[...]}) into a dataset. Records
// are stored as given, except null entries and records without both
// coordinates, which have no location to store. Range checks happen when a
// map renders them.
func seed(ctx context.Context, db *postgres.DB, dataset, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}
	var set domain.PointSet
	if err := json.Unmarshal(data, &set); err != nil {
		log.Fatalf("parse %s: %v", path, err)
	}
	if len(set.Points) > usecases.MaxPoints {
		log.Fatalf("%s has %d points, max is %d", path, len(set.Points), usecases.MaxPoints)
	}

	points := make([]domain.PointRecord, 0, len(set.Points))
	for _, p := range set.Points {
		if !p.Incomplete {
			points = append(points, p)
		}
	}
	if skipped := len(set.Points) - len(points); skipped > 0 {
		log.Printf("skipping %d records without coordinates", skipped)
	}

	if err := postgres.NewPointRepo(db).InsertBatch(ctx, dataset, points); err != nil {
		log.Fatalf("seed %s: %v", dataset, err)
	}
	fmt.Printf("OK  %d points -> %s\n", len(points), dataset)
}
