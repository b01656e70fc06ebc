// Package history persists the progress of training runs: one row per run
// and one record per reported iteration or finished epoch.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record kinds.
const (
	KindIteration = "iteration"
	KindEpoch     = "epoch"
)

// Run describes one training run.
type Run struct {
	ID        string
	StartedAt time.Time
	Precision string
	Options   string // YAML-encoded training options
}

// Record is one progress sample of a run.
type Record struct {
	RunID     string
	Kind      string
	Epoch     int
	Iteration int
	Elapsed   time.Duration
	Loss      float64
	Accuracy  float64
	LearnRate float64
}

// Store defines persistence operations for training history.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	AppendRecord(ctx context.Context, rec Record) error
	// Records returns the records of a run in insertion order.
	Records(ctx context.Context, runID string) ([]Record, error)
	Close() error
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// NewStore returns an uninitialized store of the given kind: "memory" (or
// empty) or "sqlite", which persists to sqlitePath.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(sqlitePath), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}
