package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/slackrag/internal/core/domain"
)

// sourceSeparator separates rendered sources in the answer prompt.
const sourceSeparator = "\n\n---\n\n"

// BuildPrompt renders the answer prompt for a question and its sources.
// An empty template uses domain.DefaultAnswerPrompt.
func BuildPrompt(template, question string, contexts []domain.RetrievedContext) string {
	if template == "" {
		template = domain.DefaultAnswerPrompt
	}
	return strings.TrimSpace(fmt.Sprintf(template, question, RenderSources(contexts)))
}

// RenderSources numbers each context from 1 and joins them with a
// separator line.
func RenderSources(contexts []domain.RetrievedContext) string {
	parts := make([]string, 0, len(contexts))
	for i, c := range contexts {
		parts = append(parts, fmt.Sprintf("SOURCE %d (ts %s-%s):\n%s", i+1, c.StartTS, c.EndTS, c.Text))
	}
	return strings.Join(parts, sourceSeparator)
}
