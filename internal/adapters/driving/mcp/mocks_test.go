package mcp

import (
	"context"

	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/core/ports/driving"
)

// mockRetrievalService implements driving.RetrievalService for testing.
type mockRetrievalService struct {
	contexts []domain.RetrievedContext
	err      error

	channelID string
	question  string
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context,
	channelID, question string,
) ([]domain.RetrievedContext, error) {
	m.channelID = channelID
	m.question = question
	return m.contexts, m.err
}

// mockAnswerService implements driving.AnswerService for testing.
type mockAnswerService struct {
	answer *driving.Answer
	err    error
}

func (m *mockAnswerService) Answer(_ context.Context, _, _ string) (*driving.Answer, error) {
	return m.answer, m.err
}

// mockSyncOrchestrator implements driving.SyncOrchestrator for testing.
type mockSyncOrchestrator struct {
	status    *driving.SyncStatus
	err       error
	syncedAll bool
	synced    string
}

func (m *mockSyncOrchestrator) Backfill(_ context.Context) error { return m.err }

func (m *mockSyncOrchestrator) SyncAll(_ context.Context) error {
	m.syncedAll = true
	return m.err
}

func (m *mockSyncOrchestrator) SyncChannel(_ context.Context, channelID string) error {
	m.synced = channelID
	return m.err
}

func (m *mockSyncOrchestrator) Status(_ context.Context, channelID string) (*driving.SyncStatus, error) {
	if m.status != nil {
		return m.status, nil
	}
	return &driving.SyncStatus{ChannelID: channelID}, nil
}

func retrievedContext(key, text string, similarity float64) domain.RetrievedContext {
	return domain.RetrievedContext{
		StoredChunk: domain.StoredChunk{
			Chunk: domain.Chunk{
				Key:          key,
				ChannelID:    "C1",
				ChannelName:  "general",
				StartTS:      "1.0",
				EndTS:        "2.0",
				Text:         text,
				MessageCount: 2,
			},
		},
		Similarity: similarity,
	}
}
