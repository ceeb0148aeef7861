package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/core/ports/driven"
	"github.com/custodia-labs/slackrag/internal/core/ports/driving"
	"github.com/custodia-labs/slackrag/internal/metrics"
)

// Ensure Retriever implements the interface.
var _ driving.RetrievalService = (*Retriever)(nil)

// Retriever finds the chunks of a channel most similar to a question.
type Retriever struct {
	embedder driven.EmbeddingService
	store    driven.ChunkStore
	settings domain.RetrievalSettings
}

// NewRetriever creates a retriever. Zero settings fall back to the defaults.
func NewRetriever(
	embedder driven.EmbeddingService,
	store driven.ChunkStore,
	settings domain.RetrievalSettings,
) *Retriever {
	defaults := domain.DefaultSettings().Retrieval
	if settings.TopK <= 0 {
		settings.TopK = defaults.TopK
	}
	if settings.MaxContextChars <= 0 {
		settings.MaxContextChars = defaults.MaxContextChars
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		settings: settings,
	}
}

// Retrieve embeds the question, fetches the TopK nearest chunks of the
// channel and keeps the longest most-similar-first prefix whose text fits
// MaxContextChars.
func (r *Retriever) Retrieve(ctx context.Context, channelID, question string) ([]domain.RetrievedContext, error) {
	if channelID == "" {
		return nil, fmt.Errorf("retrieve: %w: empty channel id", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("retrieve: %w: empty question", domain.ErrInvalidInput)
	}
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	rows, err := r.store.SearchSimilar(ctx, driven.SimilarityQuery{
		ChannelID: channelID,
		Vector:    vector,
		TopK:      r.settings.TopK,
	})
	if err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}

	contexts := fitBudget(rows, r.settings.MaxContextChars)
	metrics.RetrievedContexts.Observe(float64(len(contexts)))
	return contexts, nil
}

// fitBudget returns the prefix of rows whose combined text length stays
// within maxChars. It stops at the first row that would overflow, even if
// a later, shorter row would still fit.
func fitBudget(rows []domain.RetrievedContext, maxChars int) []domain.RetrievedContext {
	total := 0
	for i, row := range rows {
		n := utf8.RuneCountInString(row.Text)
		if total+n > maxChars {
			return rows[:i]
		}
		total += n
	}
	return rows
}
