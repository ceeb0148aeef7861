package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/core/ports/driving"
)

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns contexts", func(t *testing.T) {
		retrieval := &mockRetrievalService{
			contexts: []domain.RetrievedContext{
				retrievedContext("T1:C1:window:1.0-2.0", "@alice: deploy friday", 0.91),
			},
		}
		server, err := NewServer(&Ports{Retrieval: retrieval})
		require.NoError(t, err)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{ChannelID: "C1", Question: "deploy?"})

		require.NoError(t, err)
		assert.Equal(t, "C1", retrieval.channelID)
		assert.Equal(t, "deploy?", retrieval.question)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Contexts, 1)
		assert.Equal(t, "T1:C1:window:1.0-2.0", output.Contexts[0].Key)
		assert.Equal(t, "general", output.Contexts[0].ChannelName)
		assert.Equal(t, "1.0", output.Contexts[0].StartTS)
		assert.Equal(t, "2.0", output.Contexts[0].EndTS)
		assert.Equal(t, 0.91, output.Contexts[0].Similarity)
		assert.Equal(t, "@alice: deploy friday", output.Contexts[0].Text)
	})

	t.Run("empty result", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}})
		require.NoError(t, err)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{ChannelID: "C1", Question: "q"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.Empty(t, output.Contexts)
	})

	t.Run("returns error on retrieval failure", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{err: errors.New("store down")}})
		require.NoError(t, err)

		_, _, err = server.handleRetrieve(ctx, nil, RetrieveInput{ChannelID: "C1", Question: "q"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "store down")
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with sources", func(t *testing.T) {
		answer := &mockAnswerService{answer: &driving.Answer{
			Text:     "Friday.",
			Contexts: []domain.RetrievedContext{retrievedContext("k1", "@alice: friday", 0.8)},
		}}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Answer: answer})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{ChannelID: "C1", Question: "when?"})

		require.NoError(t, err)
		assert.Equal(t, "Friday.", output.Answer)
		require.Len(t, output.Sources, 1)
		assert.Equal(t, "k1", output.Sources[0].Key)
	})

	t.Run("returns error on answer failure", func(t *testing.T) {
		answer := &mockAnswerService{err: domain.ErrLLMUnavailable}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Answer: answer})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{ChannelID: "C1", Question: "when?"})

		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})
}

func TestServer_handleSync(t *testing.T) {
	ctx := context.Background()

	t.Run("syncs all channels", func(t *testing.T) {
		sync := &mockSyncOrchestrator{}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Sync: sync})
		require.NoError(t, err)

		_, output, err := server.handleSync(ctx, nil, SyncInput{})

		require.NoError(t, err)
		assert.True(t, sync.syncedAll)
		assert.Equal(t, "all", output.Synced)
	})

	t.Run("syncs one channel", func(t *testing.T) {
		sync := &mockSyncOrchestrator{}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Sync: sync})
		require.NoError(t, err)

		_, output, err := server.handleSync(ctx, nil, SyncInput{ChannelID: "C7"})

		require.NoError(t, err)
		assert.Equal(t, "C7", sync.synced)
		assert.Equal(t, "C7", output.Synced)
	})

	t.Run("reports sync in progress", func(t *testing.T) {
		sync := &mockSyncOrchestrator{err: domain.ErrSyncInProgress}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Sync: sync})
		require.NoError(t, err)

		_, _, err = server.handleSync(ctx, nil, SyncInput{ChannelID: "C7"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "already running")
	})
}
