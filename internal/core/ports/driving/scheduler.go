package driving

import (
	"context"
	"time"
)

// Scheduler repeats incremental syncs on an interval.
type Scheduler interface {
	// Start runs syncs until the context is cancelled or Stop is called.
	// Blocks until the loop exits.
	Start(ctx context.Context) error

	// Stop gracefully stops the loop.
	Stop() error

	// LastRun returns the outcome of the most recent run, or nil.
	LastRun() *RunResult
}

// RunResult is the outcome of one scheduled sync.
type RunResult struct {
	StartedAt time.Time
	EndedAt   time.Time
	Err       error
}
