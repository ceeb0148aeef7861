package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/slackrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/slackrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/slackrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/slackrag/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/slackrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/slackrag/internal/adapters/driving/cli"
	slackconn "github.com/custodia-labs/slackrag/internal/connectors/slack"
	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/core/ports/driven"
	"github.com/custodia-labs/slackrag/internal/core/ports/driving"
	"github.com/custodia-labs/slackrag/internal/core/services"
	"github.com/custodia-labs/slackrag/internal/logger"
	"github.com/custodia-labs/slackrag/internal/postprocessors/chunker"
)

// stores bundles the storage ports of the configured driver.
type stores struct {
	chunks  driven.ChunkStore
	cursors driven.CursorStore
	close   func() error
}

// bootstrap loads configuration and builds the services a command needs.
func bootstrap(ctx context.Context, configPath string, needs cli.Needs) (*cli.Runtime, error) {
	loader, err := file.NewLoader(configPath)
	if err != nil {
		return nil, err
	}
	settings, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if err := file.Validate(settings); err != nil {
		return nil, err
	}
	if needs.Slack {
		if err := file.RequireSlack(settings, needs.SigningSecret); err != nil {
			return nil, err
		}
	}
	logger.Debug("Loaded configuration from %s", loader.Path())

	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	aiServices, err := ai.NewServices(settings, needs.LLM)
	if err != nil {
		return nil, err
	}
	closers = append(closers, aiServices.Close)

	st, err := openStores(ctx, settings.Store, aiServices.Embedding.Dimensions())
	if err != nil {
		_ = closeAll()
		return nil, err
	}
	closers = append(closers, st.close)

	retriever := services.NewRetriever(aiServices.Embedding, st.chunks, settings.Retrieval)

	rt := &cli.Runtime{
		Settings:  settings,
		Retrieval: retriever,
		Close:     closeAll,
	}

	if needs.LLM {
		prompts, err := file.NewPromptStore("")
		if err != nil {
			_ = closeAll()
			return nil, fmt.Errorf("prompt store: %w", err)
		}
		rt.Answer = services.NewAnswerService(retriever, aiServices.LLM, prompts)
	}

	// Without a token the read-only commands still work; sync and the bot
	// are left unconfigured.
	if settings.Slack.BotToken == "" {
		return rt, nil
	}

	client, err := slackconn.NewClient(slackconn.Config{
		Token:             settings.Slack.BotToken,
		APIURL:            settings.Slack.APIURL,
		RequestsPerSecond: settings.Slack.RequestsPerSecond,
		Burst:             settings.Slack.Burst,
	})
	if err != nil {
		_ = closeAll()
		return nil, err
	}

	resolvers := func() driven.UserResolver {
		return slackconn.NewUserResolver(client)
	}

	syncOrch := services.NewSyncOrchestrator(
		client,
		chunker.New(
			chunker.WithMaxMessages(settings.Chunking.MaxMessages),
			chunker.WithMaxMinutes(settings.Chunking.MaxMinutes),
		),
		services.NewIndexer(aiServices.Embedding, st.chunks),
		st.cursors,
		resolvers,
		services.SyncOptions{
			PageLimit:   settings.Slack.HistoryPageLimit,
			Concurrency: settings.Sync.Concurrency,
		},
	)

	rt.Sync = syncOrch
	rt.Poster = client
	rt.Resolvers = resolvers
	rt.NewScheduler = func(interval time.Duration) driving.Scheduler {
		return services.NewScheduler(interval, syncOrch)
	}
	return rt, nil
}

// openStores opens the chunk and cursor stores of the configured driver.
func openStores(ctx context.Context, cfg domain.StoreSettings, dimensions int) (*stores, error) {
	switch cfg.Driver {
	case domain.StoreDriverPostgres:
		store, err := postgres.NewStore(ctx, cfg.DatabaseURL, dimensions)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		logger.Debug("Using postgres store")
		return &stores{chunks: store.ChunkStore(), cursors: store.CursorStore(), close: store.Close}, nil

	case domain.StoreDriverMemory:
		logger.Warn("Using in-memory store, the index is lost on exit")
		return &stores{
			chunks:  memory.NewChunkStore(dimensions),
			cursors: memory.NewCursorStore(),
			close:   func() error { return nil },
		}, nil

	default:
		store, err := sqlite.NewStore(cfg.DataDir, dimensions)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Debug("Using sqlite store at %s", store.Path())
		return &stores{chunks: store.ChunkStore(), cursors: store.CursorStore(), close: store.Close}, nil
	}
}
