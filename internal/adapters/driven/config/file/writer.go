package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/slackrag/internal/core/domain"
)

// document is the on-disk layout. It mirrors domain.Settings except that
// the sync interval is written as a duration string.
type document struct {
	Slack     domain.SlackSettings     `toml:"slack"`
	Chunking  domain.ChunkingSettings  `toml:"chunking"`
	Retrieval domain.RetrievalSettings `toml:"retrieval"`
	Sync      syncDocument             `toml:"sync"`
	Embedding domain.EmbeddingSettings `toml:"embedding"`
	LLM       domain.LLMSettings       `toml:"llm"`
	Store     domain.StoreSettings     `toml:"store"`
	Server    domain.ServerSettings    `toml:"server"`
}

type syncDocument struct {
	Interval    string `toml:"interval"`
	Concurrency int    `toml:"concurrency"`
}

// Marshal renders settings as TOML.
func Marshal(s domain.Settings) ([]byte, error) {
	doc := document{
		Slack:     s.Slack,
		Chunking:  s.Chunking,
		Retrieval: s.Retrieval,
		Sync: syncDocument{
			Interval:    s.Sync.Interval.String(),
			Concurrency: s.Sync.Concurrency,
		},
		Embedding: s.Embedding,
		LLM:       s.LLM,
		Store:     s.Store,
		Server:    s.Server,
	}
	return toml.Marshal(doc)
}

// Write saves settings to path with owner-only permissions. An existing
// file is only replaced when force is set.
func Write(path string, s domain.Settings, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s: %w", path, os.ErrExist)
		}
	}

	data, err := Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
