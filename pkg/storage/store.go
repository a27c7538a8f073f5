package storage

import (
	"context"
	"time"
)

// RunRecord summarizes one cleanup pass.
type RunRecord struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Removed    int
	Backfilled int
	Healed     int
	Evaluated  int
	Graced     int
	// Authors is the notification line written for the pass.
	Authors  string
	Removals []RemovalEntry
}

// RemovalEntry is one removal record appended by a pass.
type RemovalEntry struct {
	Repository  string
	RemovalType string
	Reason      string
	Link        string
	Backfilled  bool
}

// RunStore persists pass history.
type RunStore interface {
	RecordRun(ctx context.Context, record RunRecord) error
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
	Removals(ctx context.Context, runID string) ([]RemovalEntry, error)
	Close() error
}
