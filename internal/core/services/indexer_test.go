package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/slackrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/metrics"
)

func windowChunk(start, end, text string) domain.Chunk {
	return domain.Chunk{
		TeamID:       "T1",
		ChannelID:    "C1",
		StartTS:      start,
		EndTS:        end,
		Text:         text,
		Key:          domain.WindowChunkKey("T1", "C1", start, end),
		MessageCount: 1,
	}
}

func TestIndexer_Index(t *testing.T) {
	store := memory.NewChunkStore(3)
	indexer := NewIndexer(newMockEmbedder(3), store)

	chunks := []domain.Chunk{
		windowChunk("1.0", "2.0", "@alice: hi"),
		windowChunk("3.0", "4.0", "@bob: hello"),
	}

	stats, err := indexer.Index(context.Background(), chunks)

	require.NoError(t, err)
	assert.Equal(t, IndexStats{Upserted: 2}, stats)
	count, err := store.Count(context.Background(), "C1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{chunks[0].Key, chunks[1].Key}, sortedKeys(chunks))
}

func TestIndexer_Index_SkipsBlankText(t *testing.T) {
	embedder := newMockEmbedder(3)
	indexer := NewIndexer(embedder, memory.NewChunkStore(3))

	stats, err := indexer.Index(context.Background(), []domain.Chunk{
		windowChunk("1.0", "1.0", "   "),
		windowChunk("2.0", "2.0", "@alice: hi"),
	})

	require.NoError(t, err)
	assert.Equal(t, IndexStats{Upserted: 1, Skipped: 1}, stats)
	assert.Equal(t, 1, embedder.callCount())
}

func TestIndexer_Index_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewChunkStore(3)
	indexer := NewIndexer(newMockEmbedder(3), store)
	chunk := windowChunk("1.0", "2.0", "@alice: hi")

	_, err := indexer.Index(ctx, []domain.Chunk{chunk})
	require.NoError(t, err)
	first, err := store.GetByKey(ctx, chunk.Key)
	require.NoError(t, err)

	chunk.Text = "@alice: hi again"
	_, err = indexer.Index(ctx, []domain.Chunk{chunk})
	require.NoError(t, err)

	second, err := store.GetByKey(ctx, chunk.Key)
	require.NoError(t, err)
	count, err := store.Count(ctx, "C1")
	require.NoError(t, err)

	assert.Equal(t, 1, count)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "@alice: hi again", second.Text)
}

func TestIndexer_Index_DimensionMismatch(t *testing.T) {
	indexer := NewIndexer(newMockEmbedder(4), memory.NewChunkStore(3))

	stats, err := indexer.Index(context.Background(), []domain.Chunk{windowChunk("1.0", "1.0", "hi")})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Zero(t, stats.Upserted)
}

func TestIndexer_Index_AbortsOnFirstError(t *testing.T) {
	embedder := newMockEmbedder(3)
	embedder.failOn = "second"
	store := memory.NewChunkStore(3)
	indexer := NewIndexer(embedder, store)

	stats, err := indexer.Index(context.Background(), []domain.Chunk{
		windowChunk("1.0", "1.0", "first"),
		windowChunk("2.0", "2.0", "second"),
		windowChunk("3.0", "3.0", "third"),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed chunk")
	assert.Equal(t, 1, stats.Upserted)
	assert.Equal(t, 2, embedder.callCount())
}

func TestIndexer_Index_NoEmbedder(t *testing.T) {
	indexer := NewIndexer(nil, memory.NewChunkStore(3))

	_, err := indexer.Index(context.Background(), []domain.Chunk{windowChunk("1.0", "1.0", "hi")})

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestIndexer_Index_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	indexer := NewIndexer(newMockEmbedder(3), memory.NewChunkStore(3))

	_, err := indexer.Index(ctx, []domain.Chunk{windowChunk("1.0", "1.0", "hi")})

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestIndexer_Index_CountsByKind(t *testing.T) {
	before := testutil.ToFloat64(metrics.ChunksUpserted.WithLabelValues(string(domain.ChunkKindThread)))
	indexer := NewIndexer(newMockEmbedder(3), memory.NewChunkStore(3))
	thread := domain.Chunk{
		TeamID:    "T1",
		ChannelID: "C1",
		IsThread:  true,
		ThreadTS:  "1.0",
		Text:      "@alice: root",
		Key:       domain.ThreadChunkKey("T1", "C1", "1.0"),
	}

	_, err := indexer.Index(context.Background(), []domain.Chunk{thread})

	require.NoError(t, err)
	after := testutil.ToFloat64(metrics.ChunksUpserted.WithLabelValues(string(domain.ChunkKindThread)))
	assert.Equal(t, before+1, after)
}
