// Package store appends batch results to Postgres.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// EnsureSchema creates the results tables if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS candidate_results (
			id              UUID PRIMARY KEY,
			run_id          UUID NOT NULL,
			candidate_index INT NOT NULL,
			partition       TEXT NOT NULL,
			username        TEXT NOT NULL,
			is_lead         BOOLEAN NOT NULL DEFAULT false,
			lead_score      REAL NOT NULL DEFAULT 0,
			payload         JSONB NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (run_id, candidate_index)
		);
		CREATE TABLE IF NOT EXISTS batch_runs (
			run_id      UUID PRIMARY KEY,
			total       INT NOT NULL,
			leads       INT NOT NULL,
			no_leads    INT NOT NULL,
			errors      INT NOT NULL,
			interrupted BOOLEAN NOT NULL,
			started_at  TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	if err != nil {
		return fmt.Errorf("create results tables: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}
