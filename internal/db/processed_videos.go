package db

import (
	"context"
	"fmt"
)

// -----------------------------------------------------------------------------
// Processed Videos Methods
// -----------------------------------------------------------------------------

// ListProcessedVideoIDs returns every committed video id in commit order.
func (db *DB) ListProcessedVideoIDs(ctx context.Context) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT video_id FROM processed_videos ORDER BY seq ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list processed videos: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan processed video: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list processed videos: %w", err)
	}
	return ids, nil
}

// InsertProcessedVideo records a video id. Inserting an existing id is a no-op.
func (db *DB) InsertProcessedVideo(ctx context.Context, id string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO processed_videos (video_id) VALUES ($1)
		 ON CONFLICT (video_id) DO NOTHING`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to insert processed video %s: %w", id, err)
	}
	return nil
}
