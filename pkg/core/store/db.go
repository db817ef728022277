// Package store persists model run records in Postgres, with an in-memory
// fallback for deployments that run without a database.
package store

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool *pgxpool.Pool
	once sync.Once
)

// InitDB opens the shared connection pool from the DATABASE_URL environment
// variable and verifies it with a ping, so a bad DSN fails at startup instead
// of on the first query. Only the first call does any work.
func InitDB(ctx context.Context) error {
	var err error
	once.Do(func() {
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			err = fmt.Errorf("DATABASE_URL environment variable not set")
			return
		}

		cfg, parseErr := pgxpool.ParseConfig(dsn)
		if parseErr != nil {
			err = fmt.Errorf("parse database config: %w", parseErr)
			return
		}

		pool, err = pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return
		}
		if pingErr := pool.Ping(ctx); pingErr != nil {
			pool.Close()
			pool = nil
			err = fmt.Errorf("ping database: %w", pingErr)
		}
	})
	return err
}

// GetPool returns the shared pool, nil until InitDB succeeds.
func GetPool() *pgxpool.Pool {
	return pool
}

// Close shuts down the shared pool.
func Close() {
	if pool != nil {
		pool.Close()
	}
}
