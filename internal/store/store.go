// Package store persists local tracker state: which inbox messages have
// been processed and the history of sync runs. The ledger itself lives
// elsewhere; this is the bookkeeping around it.
package store

import (
	"context"
	"time"
)

// SyncRun records one execution of a tracking or import operation.
type SyncRun struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`   // "track", "import", or "scan-updates"
	Source     string    `json:"source"` // inbox query or import file path
	New        int       `json:"new"`
	Updated    int       `json:"updated"`
	Noop       int       `json:"noop"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Kind   string `json:"kind,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for tracker state.
type Store interface {
	// Processed messages
	IsProcessed(ctx context.Context, messageID string) (bool, error)
	MarkProcessed(ctx context.Context, messageID string) error
	// FilterUnprocessed returns the subset of ids not yet processed,
	// preserving input order.
	FilterUnprocessed(ctx context.Context, ids []string) ([]string, error)

	// Sync runs
	RecordRun(ctx context.Context, run SyncRun) error
	ListRuns(ctx context.Context, filter RunFilter) ([]SyncRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
