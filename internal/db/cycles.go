package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/trend-relay/internal/types"
)

// -----------------------------------------------------------------------------
// Scheduler Cycle Methods
// -----------------------------------------------------------------------------

// StartCycle inserts a running cycle row.
func (db *DB) StartCycle(ctx context.Context, id uuid.UUID, region string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO scheduler_cycles (id, region, status) VALUES ($1, $2, $3)`,
		id, region, CycleStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to start cycle: %w", err)
	}
	return nil
}

// FinishCycle marks a cycle completed or failed with its outcome counts.
func (db *DB) FinishCycle(ctx context.Context, id uuid.UUID, candidates int, tally types.Tally, cycleErr error) error {
	status := CycleStatusCompleted
	var errText *string
	if cycleErr != nil {
		status = CycleStatusFailed
		msg := cycleErr.Error()
		errText = &msg
	}

	_, err := db.pool.Exec(ctx,
		`UPDATE scheduler_cycles
		 SET status = $2, candidates = $3, succeeded = $4, skipped = $5, failed = $6,
		     error = $7, completed_at = NOW()
		 WHERE id = $1`,
		id, status, candidates, tally.Succeeded, tally.Skipped, tally.Failed, errText,
	)
	if err != nil {
		return fmt.Errorf("failed to finish cycle: %w", err)
	}
	return nil
}

// GetCycle retrieves a cycle by id, or nil when absent.
func (db *DB) GetCycle(ctx context.Context, id uuid.UUID) (*Cycle, error) {
	var c Cycle
	err := db.pool.QueryRow(ctx,
		`SELECT id, region, status, candidates, succeeded, skipped, failed, error, started_at, completed_at
		 FROM scheduler_cycles WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Region, &c.Status, &c.Candidates, &c.Succeeded, &c.Skipped, &c.Failed,
		&c.Error, &c.StartedAt, &c.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cycle: %w", err)
	}
	return &c, nil
}

// ListCycles returns the most recent cycles first.
func (db *DB) ListCycles(ctx context.Context, limit int) ([]Cycle, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, region, status, candidates, succeeded, skipped, failed, error, started_at, completed_at
		 FROM scheduler_cycles ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cycles: %w", err)
	}
	defer rows.Close()

	var cycles []Cycle
	for rows.Next() {
		var c Cycle
		if err := rows.Scan(&c.ID, &c.Region, &c.Status, &c.Candidates, &c.Succeeded, &c.Skipped, &c.Failed,
			&c.Error, &c.StartedAt, &c.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		cycles = append(cycles, c)
	}
	return cycles, nil
}
