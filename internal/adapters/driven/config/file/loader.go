package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/custodia-labs/slackrag/internal/core/domain"
)

// EnvPrefix prefixes environment overrides for every settings key,
// e.g. SLACKRAG_RETRIEVAL_TOP_K.
const EnvPrefix = "SLACKRAG"

// configFileName is the settings file inside the config directory.
const configFileName = "config.toml"

// envAliases binds the plain environment names used by deployments to
// settings keys. One variable may feed several keys.
var envAliases = map[string][]string{
	"slack.bot_token":             {"SLACK_BOT_TOKEN"},
	"slack.signing_secret":        {"SLACK_SIGNING_SECRET"},
	"slack.history_page_limit":    {"HISTORY_PAGE_LIMIT"},
	"chunking.max_messages":       {"MAX_MESSAGES_PER_WINDOW"},
	"chunking.max_minutes":        {"MAX_WINDOW_MINUTES"},
	"retrieval.top_k":             {"TOP_K"},
	"retrieval.max_context_chars": {"MAX_CONTEXT_CHARS"},
	"store.database_url":          {"DATABASE_URL"},
	"embedding.base_url":          {"OLLAMA_BASE_URL"},
	"embedding.model":             {"OLLAMA_EMBED_MODEL"},
	"llm.base_url":                {"OLLAMA_BASE_URL"},
	"llm.model":                   {"OLLAMA_CHAT_MODEL"},
	"server.port":                 {"PORT"},
	intervalSecondsKey:            {"SYNC_INTERVAL_SECONDS"},
}

// providerKeyEnvs maps a provider to the plain variable holding its API
// key. Keys are picked after decoding because the variable depends on the
// configured provider.
var providerKeyEnvs = map[domain.AIProvider]string{
	domain.AIProviderOpenAI:    "OPENAI_API_KEY",
	domain.AIProviderAnthropic: "ANTHROPIC_API_KEY",
}

// intervalSecondsKey carries SYNC_INTERVAL_SECONDS, which is a plain number
// of seconds rather than a duration string.
const intervalSecondsKey = "sync.interval_seconds"

// Loader reads settings from defaults, an optional TOML file and the
// environment, in increasing order of precedence.
type Loader struct {
	path     string
	explicit bool
}

// NewLoader creates a loader for the file at path. An empty path uses
// ~/.slackrag/config.toml and tolerates it being absent; an explicit path
// must exist.
func NewLoader(path string) (*Loader, error) {
	if path != "" {
		return &Loader{path: path, explicit: true}, nil
	}
	p, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return &Loader{path: p}, nil
}

// DefaultPath returns ~/.slackrag/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".slackrag", configFileName), nil
}

// Path returns the settings file path.
func (l *Loader) Path() string {
	return l.path
}

// Load builds the effective settings. It does not validate them.
func (l *Loader) Load() (*domain.Settings, error) {
	v := viper.New()
	setDefaults(v, domain.DefaultSettings())

	v.SetConfigFile(l.path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if !missing || l.explicit {
			return nil, fmt.Errorf("reading config %s: %w", l.path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envAliases {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	var settings domain.Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if v.IsSet(intervalSecondsKey) {
		secs := v.GetInt(intervalSecondsKey)
		settings.Sync.Interval = time.Duration(secs) * time.Second
	}

	settings.Embedding.APIKey = providerKey(settings.Embedding.Provider, "embedding.api_key", settings.Embedding.APIKey)
	settings.LLM.APIKey = providerKey(settings.LLM.Provider, "llm.api_key", settings.LLM.APIKey)

	if settings.Store.Driver == "" {
		settings.Store.Driver = domain.StoreDriverSQLite
		if settings.Store.DatabaseURL != "" {
			settings.Store.Driver = domain.StoreDriverPostgres
		}
	}

	return &settings, nil
}

// providerKey returns the API key for provider. A prefixed override such as
// SLACKRAG_LLM_API_KEY wins, then the provider's own variable, then the
// decoded value.
func providerKey(provider domain.AIProvider, key, current string) string {
	if os.Getenv(envName(key)) != "" {
		return current
	}
	if name, ok := providerKeyEnvs[provider]; ok {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return current
}

// envName returns the prefixed variable for a settings key.
func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// setDefaults registers every settings key so env overrides apply to keys
// absent from the file. store.driver is left unset so a database URL can
// select postgres.
func setDefaults(v *viper.Viper, d domain.Settings) {
	v.SetDefault("slack.bot_token", d.Slack.BotToken)
	v.SetDefault("slack.signing_secret", d.Slack.SigningSecret)
	v.SetDefault("slack.api_url", d.Slack.APIURL)
	v.SetDefault("slack.history_page_limit", d.Slack.HistoryPageLimit)
	v.SetDefault("slack.requests_per_second", d.Slack.RequestsPerSecond)
	v.SetDefault("slack.burst", d.Slack.Burst)

	v.SetDefault("chunking.max_messages", d.Chunking.MaxMessages)
	v.SetDefault("chunking.max_minutes", d.Chunking.MaxMinutes)

	v.SetDefault("retrieval.top_k", d.Retrieval.TopK)
	v.SetDefault("retrieval.max_context_chars", d.Retrieval.MaxContextChars)

	v.SetDefault("sync.interval", d.Sync.Interval)
	v.SetDefault("sync.concurrency", d.Sync.Concurrency)

	v.SetDefault("embedding.provider", string(d.Embedding.Provider))
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.base_url", d.Embedding.BaseURL)
	v.SetDefault("embedding.api_key", d.Embedding.APIKey)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	v.SetDefault("llm.provider", string(d.LLM.Provider))
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.api_key", d.LLM.APIKey)

	v.SetDefault("store.data_dir", d.Store.DataDir)
	v.SetDefault("store.database_url", d.Store.DatabaseURL)

	v.SetDefault("server.port", d.Server.Port)
}
