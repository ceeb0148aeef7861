package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/slackrag/internal/core/domain"
)

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantErr  error
		wantDims int
	}{
		{
			name:    "nil settings",
			wantErr: domain.ErrMissingConfig,
		},
		{
			name:     "unknown provider",
			settings: &domain.EmbeddingSettings{Provider: "unknown"},
			wantErr:  domain.ErrUnsupportedType,
		},
		{
			name:     "openai without key",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI},
			wantErr:  domain.ErrMissingConfig,
		},
		{
			name:     "anthropic has no embeddings",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantErr:  domain.ErrUnsupportedType,
		},
		{
			name:     "anthropic without key is still unsupported",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic},
			wantErr:  domain.ErrUnsupportedType,
		},
		{
			name:     "ollama known model",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "all-minilm"},
			wantDims: 384,
		},
		{
			name:     "ollama unknown model falls back",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "custom"},
			wantDims: 768,
		},
		{
			name:     "ollama explicit dimensions",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "custom", Dimensions: 512},
			wantDims: 512,
		},
		{
			name:     "openai",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "text-embedding-3-small"},
			wantDims: 1536,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, svc)
			assert.Equal(t, tt.wantDims, svc.Dimensions())
			assert.Equal(t, tt.settings.Model, svc.ModelName())
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.LLMSettings
		wantErr  error
	}{
		{name: "nil settings", wantErr: domain.ErrMissingConfig},
		{name: "unknown provider", settings: &domain.LLMSettings{Provider: "other"}, wantErr: domain.ErrUnsupportedType},
		{name: "anthropic without key", settings: &domain.LLMSettings{Provider: domain.AIProviderAnthropic}, wantErr: domain.ErrMissingConfig},
		{name: "ollama", settings: &domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.1"}},
		{name: "openai", settings: &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "gpt-4o-mini"}},
		{name: "anthropic", settings: &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k", Model: "claude-3-5-sonnet-latest"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.settings.Model, svc.ModelName())
		})
	}
}

func TestNewServices(t *testing.T) {
	settings := domain.DefaultSettings()

	svc, err := NewServices(&settings, false)
	require.NoError(t, err)
	assert.NotNil(t, svc.Embedding)
	assert.Nil(t, svc.LLM)
	assert.NoError(t, svc.Close())

	svc, err = NewServices(&settings, true)
	require.NoError(t, err)
	assert.NotNil(t, svc.LLM)
	assert.NoError(t, svc.Close())
}

func TestNewServices_LLMError(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.LLM.Provider = domain.AIProviderOpenAI
	settings.LLM.APIKey = ""

	_, err := NewServices(&settings, true)
	assert.ErrorIs(t, err, domain.ErrMissingConfig)
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  server.URL,
		Model:    "nomic-embed-text",
	})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestCreateAndValidateLLMService_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := CreateAndValidateLLMService(context.Background(), &domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  url,
	})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestOpenAIBaseURL(t *testing.T) {
	assert.Equal(t, "", openAIBaseURL(domain.DefaultOllamaBaseURL))
	assert.Equal(t, "https://proxy/v1", openAIBaseURL("https://proxy/v1"))
}
