package results

import (
	"context"

	"github.com/jackc/pgx/v5"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS louvain_runs (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		source TEXT,
		nodes INTEGER NOT NULL,
		edges INTEGER NOT NULL,
		modularity DOUBLE PRECISION NOT NULL,
		levels JSONB NOT NULL,
		membership JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_louvain_runs_created_at ON louvain_runs (created_at DESC, id)`,
}

// migrate applies every schema statement in one transaction
func (s *PGStore) migrate(ctx context.Context) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}
