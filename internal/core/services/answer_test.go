package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/slackrag/internal/core/domain"
)

func TestAnswerService_Answer(t *testing.T) {
	contexts := []domain.RetrievedContext{sourceContext("1.0", "2.0", "@alice: deploy is friday")}
	llm := &mockLLM{response: "  Friday.\n"}
	svc := NewAnswerService(&mockRetriever{contexts: contexts}, llm, nil)

	answer, err := svc.Answer(context.Background(), "C1", "when is the deploy?")

	require.NoError(t, err)
	assert.Equal(t, "Friday.", answer.Text)
	assert.Equal(t, contexts, answer.Contexts)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "when is the deploy?")
	assert.Contains(t, llm.prompts[0], "SOURCE 1 (ts 1.0-2.0):\n@alice: deploy is friday")
}

func TestAnswerService_Answer_EmptyGeneration(t *testing.T) {
	svc := NewAnswerService(&mockRetriever{}, &mockLLM{response: " \n "}, nil)

	answer, err := svc.Answer(context.Background(), "C1", "anything?")

	require.NoError(t, err)
	assert.Equal(t, domain.ReplyEmptyAnswer, answer.Text)
}

func TestAnswerService_Answer_UsesPromptStore(t *testing.T) {
	llm := &mockLLM{response: "ok"}
	prompts := &mockPromptStore{template: "ASK %s FROM %s"}
	svc := NewAnswerService(&mockRetriever{}, llm, prompts)

	_, err := svc.Answer(context.Background(), "C1", "why")

	require.NoError(t, err)
	assert.Equal(t, "ASK why FROM", llm.prompts[0])
}

func TestAnswerService_Answer_PromptStoreErrorFallsBack(t *testing.T) {
	llm := &mockLLM{response: "ok"}
	prompts := &mockPromptStore{err: errors.New("unreadable")}
	svc := NewAnswerService(&mockRetriever{}, llm, prompts)

	_, err := svc.Answer(context.Background(), "C1", "why")

	require.NoError(t, err)
	assert.Contains(t, llm.prompts[0], "You are a helpful Slack assistant.")
}

func TestAnswerService_Answer_RetrieveError(t *testing.T) {
	llm := &mockLLM{response: "unused"}
	svc := NewAnswerService(&mockRetriever{err: domain.ErrEmbeddingUnavailable}, llm, nil)

	_, err := svc.Answer(context.Background(), "C1", "why")

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Empty(t, llm.prompts)
}

func TestAnswerService_Answer_GenerateError(t *testing.T) {
	svc := NewAnswerService(&mockRetriever{}, &mockLLM{err: errors.New("model crashed")}, nil)

	_, err := svc.Answer(context.Background(), "C1", "why")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate answer")
}

func TestAnswerService_Answer_NoLLM(t *testing.T) {
	svc := NewAnswerService(&mockRetriever{}, nil, nil)

	_, err := svc.Answer(context.Background(), "C1", "why")

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}
