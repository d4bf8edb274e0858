package results

import (
	"context"
	"errors"
)

// ErrRunNotFound is returned when no run has the requested id
var ErrRunNotFound = errors.New("run not found")

// Store defines the interface for run persistence
type Store interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	// ListRuns returns the newest runs first, at most limit of them (all when limit <= 0)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	Ping(ctx context.Context) error
	Close() error
}
