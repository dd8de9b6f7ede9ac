package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/trend-relay/internal/types"
)

// -----------------------------------------------------------------------------
// Pipeline Result Methods
// -----------------------------------------------------------------------------

// SaveResult stores one candidate's outcome for a cycle.
func (db *DB) SaveResult(ctx context.Context, cycleID uuid.UUID, r types.PipelineResult) error {
	var cycle *uuid.UUID
	if cycleID != uuid.Nil {
		cycle = &cycleID
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO pipeline_results (cycle_id, video_id, title, outcome, kind, reason, remote_id, duration_ms)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8)`,
		cycle, r.Candidate.ID, r.Candidate.Title, string(r.Outcome), string(r.Kind), r.Reason, r.RemoteID,
		r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to save result for %s: %w", r.Candidate.ID, err)
	}
	return nil
}

// ListResults returns the results recorded for a cycle in insertion order.
func (db *DB) ListResults(ctx context.Context, cycleID uuid.UUID) ([]Result, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, cycle_id, video_id, title, outcome, COALESCE(kind, ''), COALESCE(reason, ''),
		        COALESCE(remote_id, ''), duration_ms, created_at
		 FROM pipeline_results WHERE cycle_id = $1 ORDER BY id ASC`,
		cycleID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.CycleID, &r.VideoID, &r.Title, &r.Outcome, &r.Kind, &r.Reason,
			&r.RemoteID, &r.DurationMs, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, nil
}
