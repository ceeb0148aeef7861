package driving

import (
	"context"

	"github.com/custodia-labs/slackrag/internal/core/domain"
)

// RetrievalService finds conversation context relevant to a question.
type RetrievalService interface {
	// Retrieve returns the most similar chunks of a channel that fit the
	// context budget, most similar first.
	Retrieve(ctx context.Context, channelID, question string) ([]domain.RetrievedContext, error)
}

// AnswerService answers questions grounded in channel history.
type AnswerService interface {
	// Answer returns a generated answer and the contexts it was grounded on.
	Answer(ctx context.Context, channelID, question string) (*Answer, error)
}

// Answer is a generated reply with its sources.
type Answer struct {
	Text     string
	Contexts []domain.RetrievedContext
}
