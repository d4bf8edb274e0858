package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const runColumns = `id, created_at, source, nodes, edges, modularity, levels, membership`

// SaveRun stores a run, replacing any run with the same id
func (s *PGStore) SaveRun(ctx context.Context, run *Run) error {
	levelsJSON, err := json.Marshal(run.Levels)
	if err != nil {
		return fmt.Errorf("failed to marshal levels: %w", err)
	}
	membershipJSON, err := json.Marshal(run.Membership)
	if err != nil {
		return fmt.Errorf("failed to marshal membership: %w", err)
	}

	query := `
		INSERT INTO louvain_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			created_at = EXCLUDED.created_at,
			source = EXCLUDED.source,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			modularity = EXCLUDED.modularity,
			levels = EXCLUDED.levels,
			membership = EXCLUDED.membership
	`

	_, err = s.pool.Exec(ctx, query,
		run.ID,
		run.CreatedAt,
		run.Source,
		run.Nodes,
		run.Edges,
		run.Modularity,
		levelsJSON,
		membershipJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// GetRun retrieves a run by ID
func (s *PGStore) GetRun(ctx context.Context, id string) (*Run, error) {
	query := `SELECT ` + runColumns + ` FROM louvain_runs WHERE id = $1`

	run, err := scanRun(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs newest first
func (s *PGStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM louvain_runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.Row) (*Run, error) {
	run := &Run{}
	var source *string
	var levelsJSON, membershipJSON []byte

	err := row.Scan(
		&run.ID,
		&run.CreatedAt,
		&source,
		&run.Nodes,
		&run.Edges,
		&run.Modularity,
		&levelsJSON,
		&membershipJSON,
	)
	if err != nil {
		return nil, err
	}
	if source != nil {
		run.Source = *source
	}

	if err := json.Unmarshal(levelsJSON, &run.Levels); err != nil {
		return nil, fmt.Errorf("failed to unmarshal levels: %w", err)
	}
	if err := json.Unmarshal(membershipJSON, &run.Membership); err != nil {
		return nil, fmt.Errorf("failed to unmarshal membership: %w", err)
	}
	return run, nil
}
