package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API (or a compatible endpoint).
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API. Generation only.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// StoreDriver identifies the chunk and cursor storage backend.
type StoreDriver string

// Available store drivers.
const (
	// StoreDriverSQLite keeps chunks and cursors in a local SQLite file.
	StoreDriverSQLite StoreDriver = "sqlite"

	// StoreDriverPostgres uses PostgreSQL with the pgvector extension.
	StoreDriverPostgres StoreDriver = "postgres"

	// StoreDriverMemory keeps everything in process memory. Lost on exit.
	StoreDriverMemory StoreDriver = "memory"
)

// IsValid returns true if the driver is recognised.
func (d StoreDriver) IsValid() bool {
	switch d {
	case StoreDriverSQLite, StoreDriverPostgres, StoreDriverMemory:
		return true
	default:
		return false
	}
}

// SlackSettings holds workspace access and fetch configuration.
type SlackSettings struct {
	// BotToken is the bot user OAuth token (xoxb-...).
	BotToken string `mapstructure:"bot_token" toml:"bot_token"`

	// SigningSecret verifies inbound event requests. Only `serve` needs it.
	SigningSecret string `mapstructure:"signing_secret" toml:"signing_secret"`

	// APIURL overrides the Web API base URL. Empty uses the public API.
	APIURL string `mapstructure:"api_url" toml:"api_url,omitempty" validate:"omitempty,url"`

	// HistoryPageLimit is the page size for history requests.
	HistoryPageLimit int `mapstructure:"history_page_limit" toml:"history_page_limit" validate:"gte=1,lte=1000"`

	// RequestsPerSecond throttles outbound Web API calls.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" toml:"requests_per_second" validate:"gt=0"`

	// Burst is the token bucket size for the throttle.
	Burst int `mapstructure:"burst" toml:"burst" validate:"gte=1"`
}

// ChunkingSettings holds rolling-window parameters.
type ChunkingSettings struct {
	// MaxMessages is the maximum number of messages in one window.
	MaxMessages int `mapstructure:"max_messages" toml:"max_messages" validate:"gte=1"`

	// MaxMinutes is the maximum time span of one window.
	MaxMinutes float64 `mapstructure:"max_minutes" toml:"max_minutes" validate:"gt=0"`
}

// RetrievalSettings holds similarity search parameters.
type RetrievalSettings struct {
	// TopK is the number of nearest chunks fetched from the store.
	TopK int `mapstructure:"top_k" toml:"top_k" validate:"gte=1"`

	// MaxContextChars bounds the total characters handed to the generator.
	MaxContextChars int `mapstructure:"max_context_chars" toml:"max_context_chars" validate:"gte=1"`
}

// SyncSettings holds scheduling parameters.
type SyncSettings struct {
	// Interval is the pause between scheduled incremental syncs.
	Interval time.Duration `mapstructure:"interval" toml:"interval" validate:"gte=1s"`

	// Concurrency is the number of channels synced in parallel.
	Concurrency int `mapstructure:"concurrency" toml:"concurrency" validate:"gte=1,lte=16"`
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider `mapstructure:"provider" toml:"provider" validate:"oneof=ollama openai"`

	// Model is the embedding model name.
	Model string `mapstructure:"model" toml:"model" validate:"required"`

	// BaseURL is the API endpoint.
	BaseURL string `mapstructure:"base_url" toml:"base_url,omitempty" validate:"omitempty,url"`

	// APIKey is the API key (for OpenAI).
	APIKey string `mapstructure:"api_key" toml:"api_key,omitempty"`

	// Dimensions is the vector size. Zero uses the known size of Model.
	Dimensions int `mapstructure:"dimensions" toml:"dimensions,omitempty" validate:"gte=0"`
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ResolvedDimensions returns the configured dimensions, falling back to the
// known size of the model. Zero means unknown.
func (e EmbeddingSettings) ResolvedDimensions() int {
	if e.Dimensions > 0 {
		return e.Dimensions
	}
	return EmbeddingDimensions()[e.Model]
}

// LLMSettings holds generation provider configuration.
type LLMSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider `mapstructure:"provider" toml:"provider" validate:"oneof=ollama openai anthropic"`

	// Model is the generation model name.
	Model string `mapstructure:"model" toml:"model" validate:"required"`

	// BaseURL is the API endpoint.
	BaseURL string `mapstructure:"base_url" toml:"base_url,omitempty" validate:"omitempty,url"`

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string `mapstructure:"api_key" toml:"api_key,omitempty"`
}

// IsConfigured returns true if the generation provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// StoreSettings selects and configures the storage backend.
type StoreSettings struct {
	// Driver is the storage backend.
	Driver StoreDriver `mapstructure:"driver" toml:"driver" validate:"oneof=sqlite postgres memory"`

	// DataDir holds the SQLite database. Empty uses ~/.slackrag/data.
	DataDir string `mapstructure:"data_dir" toml:"data_dir,omitempty"`

	// DatabaseURL is the PostgreSQL DSN. Required for the postgres driver.
	DatabaseURL string `mapstructure:"database_url" toml:"database_url,omitempty" validate:"required_if=Driver postgres"`
}

// ServerSettings configures the HTTP front door.
type ServerSettings struct {
	// Port is the listen port for `serve`.
	Port int `mapstructure:"port" toml:"port" validate:"gte=1,lte=65535"`
}

// Settings holds all application settings. It is built once at startup and
// passed to constructors explicitly.
type Settings struct {
	Slack     SlackSettings     `mapstructure:"slack" toml:"slack"`
	Chunking  ChunkingSettings  `mapstructure:"chunking" toml:"chunking"`
	Retrieval RetrievalSettings `mapstructure:"retrieval" toml:"retrieval"`
	Sync      SyncSettings      `mapstructure:"sync" toml:"sync"`
	Embedding EmbeddingSettings `mapstructure:"embedding" toml:"embedding"`
	LLM       LLMSettings       `mapstructure:"llm" toml:"llm"`
	Store     StoreSettings     `mapstructure:"store" toml:"store"`
	Server    ServerSettings    `mapstructure:"server" toml:"server"`
}

// Defaults for Settings.
const (
	DefaultHistoryPageLimit  = 200
	DefaultRequestsPerSecond = 1.0
	DefaultBurst             = 3
	DefaultMaxMessages       = 20
	DefaultMaxMinutes        = 10.0
	DefaultTopK              = 8
	DefaultMaxContextChars   = 12000
	DefaultSyncInterval      = 300 * time.Second
	DefaultSyncConcurrency   = 1
	DefaultPort              = 3000
	DefaultOllamaBaseURL     = "http://localhost:11434"
)

// DefaultSettings returns settings with the documented defaults.
// Secrets are left empty.
func DefaultSettings() Settings {
	return Settings{
		Slack: SlackSettings{
			HistoryPageLimit:  DefaultHistoryPageLimit,
			RequestsPerSecond: DefaultRequestsPerSecond,
			Burst:             DefaultBurst,
		},
		Chunking: ChunkingSettings{
			MaxMessages: DefaultMaxMessages,
			MaxMinutes:  DefaultMaxMinutes,
		},
		Retrieval: RetrievalSettings{
			TopK:            DefaultTopK,
			MaxContextChars: DefaultMaxContextChars,
		},
		Sync: SyncSettings{
			Interval:    DefaultSyncInterval,
			Concurrency: DefaultSyncConcurrency,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
			BaseURL:  DefaultOllamaBaseURL,
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    DefaultLLMModels()[AIProviderOllama],
			BaseURL:  DefaultOllamaBaseURL,
		},
		Store: StoreSettings{
			Driver: StoreDriverSQLite,
		},
		Server: ServerSettings{
			Port: DefaultPort,
		},
	}
}

// Masked returns a copy with secrets replaced, for display.
func (s Settings) Masked() Settings {
	out := s
	out.Slack.BotToken = maskSecret(s.Slack.BotToken)
	out.Slack.SigningSecret = maskSecret(s.Slack.SigningSecret)
	out.Embedding.APIKey = maskSecret(s.Embedding.APIKey)
	out.LLM.APIKey = maskSecret(s.LLM.APIKey)
	out.Store.DatabaseURL = maskSecret(s.Store.DatabaseURL)
	return out
}

func maskSecret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 8 {
		return "****"
	}
	return v[:4] + "****"
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each generation provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.1",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
