package driven

import (
	"context"

	"github.com/custodia-labs/slackrag/internal/core/domain"
)

// ChunkBuilder turns fetched messages into chunks ready for embedding.
// Messages are ordered oldest to newest.
type ChunkBuilder interface {
	// Partition splits a batch into its distinct thread roots, in first
	// seen order, and the messages that belong to no thread. Messages
	// without text are dropped.
	Partition(messages []domain.Message) (threadRoots []string, nonThread []domain.Message)

	// BuildThread builds a single chunk from a whole thread.
	// It reports false when the thread has no text.
	BuildThread(
		ctx context.Context,
		scope domain.ChunkScope,
		threadTS string,
		replies []domain.Message,
		resolver UserResolver,
	) (domain.Chunk, bool)

	// BuildWindows groups non-thread messages into rolling windows.
	BuildWindows(
		ctx context.Context,
		scope domain.ChunkScope,
		messages []domain.Message,
		resolver UserResolver,
	) []domain.Chunk
}
