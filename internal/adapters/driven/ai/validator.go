package ai

import (
	"context"

	"github.com/custodia-labs/slackrag/internal/core/domain"
)

// CheckResult reports whether one configured provider is reachable.
type CheckResult struct {
	Name     string
	Provider domain.AIProvider
	Model    string
	Err      error
}

// OK reports whether the check passed.
func (r CheckResult) OK() bool {
	return r.Err == nil
}

// Check builds and pings the embedding service and, when withLLM is set,
// the generation service.
func Check(ctx context.Context, settings *domain.Settings, withLLM bool) []CheckResult {
	results := []CheckResult{checkEmbedding(ctx, &settings.Embedding)}
	if withLLM {
		results = append(results, checkLLM(ctx, &settings.LLM))
	}
	return results
}

func checkEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) CheckResult {
	res := CheckResult{Name: "embedding", Provider: settings.Provider, Model: settings.Model}
	svc, err := CreateAndValidateEmbeddingService(ctx, settings)
	if err != nil {
		res.Err = err
		return res
	}
	_ = svc.Close()
	return res
}

func checkLLM(ctx context.Context, settings *domain.LLMSettings) CheckResult {
	res := CheckResult{Name: "llm", Provider: settings.Provider, Model: settings.Model}
	svc, err := CreateAndValidateLLMService(ctx, settings)
	if err != nil {
		res.Err = err
		return res
	}
	_ = svc.Close()
	return res
}
