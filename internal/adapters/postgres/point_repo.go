package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/densitymap/internal/core/domain"
)

// PointRepo implements ports.PointRepository with pgx.
type PointRepo struct {
	db *DB
}

// NewPointRepo creates a new PointRepo.
func NewPointRepo(db *DB) *PointRepo {
	return &PointRepo{db: db}
}

// ListByDataset returns up to limit points of a dataset in insertion order.
// Weight and label are NULL-able and come back as nil pointers.
func (r *PointRepo) ListByDataset(ctx context.Context, dataset string, limit int) ([]domain.PointRecord, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT ST_Y(location::geometry) AS lat,
		       ST_X(location::geometry) AS lon,
		       weight, label
		FROM density_points
		WHERE dataset = $1
		ORDER BY id
		LIMIT $2
	`, dataset, limit)
	if err != nil {
		return nil, fmt.Errorf("query dataset: %w", err)
	}

	points, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PointRecord, error) {
		var p domain.PointRecord
		err := row.Scan(&p.Latitude, &p.Longitude, &p.Weight, &p.Label)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan dataset: %w", err)
	}
	return points, nil
}

// ListDatasets returns the distinct dataset names.
func (r *PointRepo) ListDatasets(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT DISTINCT dataset FROM density_points ORDER BY dataset`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// InsertBatch appends points to a dataset using pgx.Batch.
func (r *PointRepo) InsertBatch(ctx context.Context, dataset string, points []domain.PointRecord) error {
	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(`
			INSERT INTO density_points (dataset, location, weight, label)
			VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography, $4, $5)
		`, dataset, p.Longitude, p.Latitude, p.Weight, p.Label)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range points {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}
