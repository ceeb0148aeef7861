package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/slackrag/internal/adapters/driven/storage/vector"
	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu         sync.RWMutex
	chunks     map[string]domain.StoredChunk
	order      []string
	dimensions int
}

// NewChunkStore creates a new in-memory chunk store. A dimensions of zero
// accepts embeddings of any size.
func NewChunkStore(dimensions int) *ChunkStore {
	return &ChunkStore{
		chunks:     make(map[string]domain.StoredChunk),
		dimensions: dimensions,
	}
}

// Upsert inserts a chunk or updates the one stored under the same key.
// Updates keep the original id, start ts and channel name.
func (s *ChunkStore) Upsert(_ context.Context, chunk domain.StoredChunk) error {
	if s.dimensions > 0 && len(chunk.Embedding) != s.dimensions {
		return fmt.Errorf("chunk %s has %d dimensions, store expects %d: %w",
			chunk.Key, len(chunk.Embedding), s.dimensions, domain.ErrDimensionMismatch)
	}
	if chunk.UpdatedAt.IsZero() {
		chunk.UpdatedAt = time.Now().UTC()
	}
	chunk.Embedding = slices.Clone(chunk.Embedding)

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.chunks[chunk.Key]
	if !ok {
		if chunk.ID == "" {
			chunk.ID = uuid.New().String()
		}
		s.chunks[chunk.Key] = chunk
		s.order = append(s.order, chunk.Key)
		return nil
	}

	existing.Text = chunk.Text
	existing.Embedding = chunk.Embedding
	existing.MessageCount = chunk.MessageCount
	existing.EndTS = chunk.EndTS
	existing.UpdatedAt = chunk.UpdatedAt
	s.chunks[chunk.Key] = existing
	return nil
}

// GetByKey retrieves the chunk stored under key.
func (s *ChunkStore) GetByKey(_ context.Context, key string) (*domain.StoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, ok := s.chunks[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	chunk.Embedding = slices.Clone(chunk.Embedding)
	return &chunk, nil
}

// SearchSimilar ranks the chunks of one channel by cosine similarity.
func (s *ChunkStore) SearchSimilar(_ context.Context, query driven.SimilarityQuery) ([]domain.RetrievedContext, error) {
	if query.ChannelID == "" {
		return nil, fmt.Errorf("%w: channel id is required", domain.ErrInvalidInput)
	}
	if s.dimensions > 0 && len(query.Vector) != s.dimensions {
		return nil, fmt.Errorf("query has %d dimensions, store expects %d: %w",
			len(query.Vector), s.dimensions, domain.ErrDimensionMismatch)
	}

	s.mu.RLock()
	candidates := make([]domain.StoredChunk, 0, len(s.order))
	for _, key := range s.order {
		c := s.chunks[key]
		if c.ChannelID != query.ChannelID {
			continue
		}
		if query.TeamID != "" && c.TeamID != query.TeamID {
			continue
		}
		candidates = append(candidates, c)
	}
	s.mu.RUnlock()

	ranked := vector.TopK(query.Vector, candidates,
		func(c domain.StoredChunk) []float32 { return c.Embedding }, query.TopK)

	results := make([]domain.RetrievedContext, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, domain.RetrievedContext{
			StoredChunk: r.Item,
			Similarity:  r.Similarity,
		})
	}
	return results, nil
}

// Count returns the number of chunks stored for a channel.
func (s *ChunkStore) Count(_ context.Context, channelID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.chunks {
		if c.ChannelID == channelID {
			n++
		}
	}
	return n, nil
}

// Dimensions returns the configured embedding size.
func (s *ChunkStore) Dimensions() int {
	return s.dimensions
}
