package db

import (
	"time"

	"github.com/google/uuid"
)

// CycleStatus constants
const (
	CycleStatusRunning   = "running"
	CycleStatusCompleted = "completed"
	CycleStatusFailed    = "failed"
)

// Cycle represents one scheduler cycle record
type Cycle struct {
	ID          uuid.UUID  `json:"id"`
	Region      string     `json:"region"`
	Status      string     `json:"status"`
	Candidates  int        `json:"candidates"`
	Succeeded   int        `json:"succeeded"`
	Skipped     int        `json:"skipped"`
	Failed      int        `json:"failed"`
	Error       *string    `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Result represents a persisted per-candidate outcome
type Result struct {
	ID         int64      `json:"id"`
	CycleID    *uuid.UUID `json:"cycle_id,omitempty"`
	VideoID    string     `json:"video_id"`
	Title      string     `json:"title"`
	Outcome    string     `json:"outcome"`
	Kind       string     `json:"kind,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	RemoteID   string     `json:"remote_id,omitempty"`
	DurationMs int64      `json:"duration_ms"`
	CreatedAt  time.Time  `json:"created_at"`
}
