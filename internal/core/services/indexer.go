package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/core/ports/driven"
	"github.com/custodia-labs/slackrag/internal/metrics"
)

// IndexStats counts the outcome of one Index call.
type IndexStats struct {
	Upserted int
	Skipped  int
}

// Indexer embeds chunks and upserts them into the chunk store.
type Indexer struct {
	embedder driven.EmbeddingService
	store    driven.ChunkStore
	now      func() time.Time
}

// NewIndexer creates an indexer writing to store.
func NewIndexer(embedder driven.EmbeddingService, store driven.ChunkStore) *Indexer {
	return &Indexer{
		embedder: embedder,
		store:    store,
		now:      time.Now,
	}
}

// Index embeds and upserts each chunk in order. Chunks with blank text
// are skipped. The first failure aborts the batch; chunks already
// upserted stay in the store and are overwritten on the next run.
func (i *Indexer) Index(ctx context.Context, chunks []domain.Chunk) (IndexStats, error) {
	var stats IndexStats
	if i.embedder == nil {
		return stats, domain.ErrEmbeddingUnavailable
	}

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if strings.TrimSpace(chunk.Text) == "" {
			stats.Skipped++
			continue
		}

		vector, err := i.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return stats, fmt.Errorf("embed chunk %s: %w", chunk.Key, err)
		}
		if dims := i.store.Dimensions(); dims > 0 && len(vector) != dims {
			return stats, fmt.Errorf("embed chunk %s: got %d dimensions, store expects %d: %w",
				chunk.Key, len(vector), dims, domain.ErrDimensionMismatch)
		}

		stored := domain.StoredChunk{
			Chunk:     chunk,
			Embedding: vector,
			UpdatedAt: i.now().UTC(),
		}
		if err := i.store.Upsert(ctx, stored); err != nil {
			return stats, fmt.Errorf("upsert chunk %s: %w", chunk.Key, err)
		}

		metrics.ChunksUpserted.WithLabelValues(string(chunk.Kind())).Inc()
		stats.Upserted++
	}

	return stats, nil
}
