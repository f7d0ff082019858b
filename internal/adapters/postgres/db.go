package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/densitymap/internal/pkg/config"
)

// DB holds the pool the point dataset repository reads from.
type DB struct {
	Pool *pgxpool.Pool
}

// PoolConfig turns database settings into a pgx pool configuration without
// connecting.
func PoolConfig(c config.DatabaseConfig) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(c.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = c.MaxConns
	cfg.MinConns = c.MinConns
	if c.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = time.Duration(c.MaxConnLifetime) * time.Second
	}
	return cfg, nil
}

// New opens the pool and fails unless the database answers a ping.
func New(ctx context.Context, c config.DatabaseConfig) (*DB, error) {
	cfg, err := PoolConfig(c)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect %s:%d/%s: %w", c.Host, c.Port, c.DBName, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s:%d/%s: %w", c.Host, c.Port, c.DBName, err)
	}

	return &DB{Pool: pool}, nil
}

func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

// Stat feeds the pool gauges.
func (db *DB) Stat() *pgxpool.Stat { return db.Pool.Stat() }

func (db *DB) Close() { db.Pool.Close() }
