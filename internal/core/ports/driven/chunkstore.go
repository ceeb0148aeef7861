package driven

import (
	"context"

	"github.com/custodia-labs/slackrag/internal/core/domain"
)

// ChunkStore persists embedded chunks and answers similarity queries.
type ChunkStore interface {
	// Upsert inserts the chunk or, when a chunk with the same key exists,
	// overwrites its text, embedding, message count, end ts and updated-at.
	// The existing id, key and start ts are preserved.
	Upsert(ctx context.Context, chunk domain.StoredChunk) error

	// GetByKey returns the chunk stored under key, or domain.ErrNotFound.
	GetByKey(ctx context.Context, key string) (*domain.StoredChunk, error)

	// SearchSimilar returns up to TopK chunks of one channel ordered by
	// similarity to the query vector, highest first.
	SearchSimilar(ctx context.Context, query SimilarityQuery) ([]domain.RetrievedContext, error)

	// Count returns the number of chunks stored for a channel.
	Count(ctx context.Context, channelID string) (int, error)

	// Dimensions returns the vector size the store was created with.
	// Zero means the store accepts any size.
	Dimensions() int
}

// SimilarityQuery describes a nearest-neighbour lookup.
type SimilarityQuery struct {
	// TeamID restricts results to a workspace. Empty matches any team.
	TeamID string

	// ChannelID restricts results to one channel. Required.
	ChannelID string

	// Vector is the query embedding.
	Vector []float32

	// TopK is the maximum number of results.
	TopK int
}

// CursorStore persists per-channel sync cursors.
type CursorStore interface {
	// Get returns the latest synced ts for the channel, or
	// domain.ErrNotFound when the channel has never been synced.
	Get(ctx context.Context, teamID, channelID string) (string, error)

	// Set records ts as the latest synced message, creating or
	// replacing the cursor.
	Set(ctx context.Context, teamID, channelID, ts string) error

	// List returns every cursor of a team.
	List(ctx context.Context, teamID string) ([]domain.Cursor, error)
}
