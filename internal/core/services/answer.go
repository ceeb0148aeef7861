package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/core/ports/driven"
	"github.com/custodia-labs/slackrag/internal/core/ports/driving"
	"github.com/custodia-labs/slackrag/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// AnswerService answers questions from retrieved channel history.
type AnswerService struct {
	retriever driving.RetrievalService
	llm       driven.LLMService
	prompts   driven.PromptStore
}

// NewAnswerService creates an answer service. prompts may be nil, in which
// case the built-in template is used.
func NewAnswerService(
	retriever driving.RetrievalService,
	llm driven.LLMService,
	prompts driven.PromptStore,
) *AnswerService {
	return &AnswerService{
		retriever: retriever,
		llm:       llm,
		prompts:   prompts,
	}
}

// Answer retrieves the channel context for question and generates a
// grounded reply. A blank generation yields domain.ReplyEmptyAnswer.
func (s *AnswerService) Answer(ctx context.Context, channelID, question string) (*driving.Answer, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	contexts, err := s.retriever.Retrieve(ctx, channelID, question)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(s.template(), question, contexts)
	logger.Debug("Answering in %s with %d sources (%d chars)", channelID, len(contexts), len(prompt))

	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		text = domain.ReplyEmptyAnswer
	}

	return &driving.Answer{Text: text, Contexts: contexts}, nil
}

func (s *AnswerService) template() string {
	if s.prompts == nil {
		return domain.DefaultAnswerPrompt
	}
	tmpl, err := s.prompts.Load(driven.PromptAnswer)
	if err != nil {
		logger.Warn("Failed to load answer prompt, using default: %v", err)
		return domain.DefaultAnswerPrompt
	}
	return tmpl
}
