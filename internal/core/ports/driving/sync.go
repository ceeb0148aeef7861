package driving

import (
	"context"
	"time"
)

// SyncOrchestrator coordinates indexing of channel history.
type SyncOrchestrator interface {
	// Backfill indexes the full history of every member channel.
	Backfill(ctx context.Context) error

	// SyncAll runs one incremental sync over every member channel.
	SyncAll(ctx context.Context) error

	// SyncChannel runs one incremental sync of a single channel.
	SyncChannel(ctx context.Context, channelID string) error

	// Status returns the status of the most recent run for a channel.
	Status(ctx context.Context, channelID string) (*SyncStatus, error)
}

// SyncStatus represents the state of a channel sync.
type SyncStatus struct {
	// ChannelID identifies the channel.
	ChannelID string

	// Running indicates if sync is currently in progress.
	Running bool

	// Mode is "backfill", "initialize" or "delta".
	Mode string

	// MessagesFetched is the number of messages read in the last run.
	MessagesFetched int

	// ThreadChunks is the number of thread chunks produced.
	ThreadChunks int

	// WindowChunks is the number of window chunks produced.
	WindowChunks int

	// ChunksUpserted is the number of chunks written to the store.
	ChunksUpserted int

	// Cursor is the channel cursor after the run.
	Cursor string

	// LastError is the error message of a failed run.
	LastError string

	// FinishedAt is when the last run ended.
	FinishedAt time.Time
}
