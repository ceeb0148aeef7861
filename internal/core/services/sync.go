package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/core/ports/driven"
	"github.com/custodia-labs/slackrag/internal/core/ports/driving"
	"github.com/custodia-labs/slackrag/internal/logger"
	"github.com/custodia-labs/slackrag/internal/metrics"
)

// Sync modes reported in SyncStatus.Mode.
const (
	ModeBackfill   = "backfill"
	ModeInitialize = "initialize"
	ModeDelta      = "delta"
)

// initializePageLimit is the number of recent messages read to seed the
// cursor of a channel that has never been synced.
const initializePageLimit = 10

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// ResolverFactory returns a fresh user resolver. Each channel run gets its
// own so the name cache never outlives the run.
type ResolverFactory func() driven.UserResolver

// SyncOptions tunes a SyncOrchestrator.
type SyncOptions struct {
	// PageLimit is the page size for history and reply requests.
	PageLimit int

	// Concurrency is the number of channels synced in parallel.
	Concurrency int
}

// SyncOrchestrator coordinates channel indexing.
type SyncOrchestrator struct {
	source      driven.MessageSource
	chunker     driven.ChunkBuilder
	indexer     *Indexer
	cursors     driven.CursorStore
	newResolver ResolverFactory
	opts        SyncOptions

	// Status tracking
	mu          sync.RWMutex
	activeSyncs map[string]*driving.SyncStatus
}

// NewSyncOrchestrator creates a new sync orchestrator.
// newResolver may be nil, in which case authors are labelled with their ids.
func NewSyncOrchestrator(
	source driven.MessageSource,
	chunker driven.ChunkBuilder,
	indexer *Indexer,
	cursors driven.CursorStore,
	newResolver ResolverFactory,
	opts SyncOptions,
) *SyncOrchestrator {
	if opts.PageLimit <= 0 {
		opts.PageLimit = domain.DefaultSettings().Slack.HistoryPageLimit
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &SyncOrchestrator{
		source:      source,
		chunker:     chunker,
		indexer:     indexer,
		cursors:     cursors,
		newResolver: newResolver,
		opts:        opts,
		activeSyncs: make(map[string]*driving.SyncStatus),
	}
}

// Backfill indexes the full history of every member channel and moves
// each cursor to the newest message seen.
func (o *SyncOrchestrator) Backfill(ctx context.Context) error {
	logger.Section("Backfill")
	return o.runAll(ctx, true)
}

// SyncAll runs one incremental sync over every member channel. Channel
// failures are collected and do not stop the remaining channels.
func (o *SyncOrchestrator) SyncAll(ctx context.Context) error {
	return o.runAll(ctx, false)
}

// SyncChannel runs one incremental sync of a single channel.
func (o *SyncOrchestrator) SyncChannel(ctx context.Context, channelID string) error {
	if channelID == "" {
		return fmt.Errorf("sync channel: %w: empty channel id", domain.ErrInvalidInput)
	}

	teamID, err := o.source.TeamID(ctx)
	if err != nil {
		return fmt.Errorf("resolve team: %w", err)
	}

	channels, err := o.source.ListChannels(ctx)
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}

	channel := domain.Channel{ID: channelID}
	for _, ch := range channels {
		if ch.ID == channelID {
			channel = ch
			break
		}
	}

	return o.syncChannel(ctx, teamID, channel, false)
}

// Status returns the status of the current or most recent run of a channel.
func (o *SyncOrchestrator) Status(_ context.Context, channelID string) (*driving.SyncStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if status, ok := o.activeSyncs[channelID]; ok {
		// Return a copy
		s := *status
		return &s, nil
	}

	return &driving.SyncStatus{ChannelID: channelID}, nil
}

func (o *SyncOrchestrator) runAll(ctx context.Context, backfill bool) error {
	start := time.Now()
	defer func() { metrics.SyncDuration.Observe(time.Since(start).Seconds()) }()

	teamID, err := o.source.TeamID(ctx)
	if err != nil {
		return fmt.Errorf("resolve team: %w", err)
	}

	channels, err := o.source.ListChannels(ctx)
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}
	logger.Info("Syncing %d channels", len(channels))

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(o.opts.Concurrency)

	for _, ch := range channels {
		g.Go(func() error {
			if err := o.syncChannel(ctx, teamID, ch, backfill); err != nil {
				logger.Error("Sync of #%s failed: %v", channelLabel(ch), err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("channel %s: %w", ch.ID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// syncChannel runs one pass over a channel. The cursor is only written
// after every chunk of the pass has been upserted.
func (o *SyncOrchestrator) syncChannel(
	ctx context.Context,
	teamID string,
	ch domain.Channel,
	backfill bool,
) (err error) {
	status := &driving.SyncStatus{ChannelID: ch.ID, Running: true}
	if !o.begin(status) {
		return domain.ErrSyncInProgress
	}
	defer func() {
		o.finish(status, err)
		metrics.ChannelSyncs.WithLabelValues(status.Mode, metrics.Result(err)).Inc()
	}()

	var resolver driven.UserResolver
	if o.newResolver != nil {
		resolver = o.newResolver()
	}
	scope := domain.ChunkScope{TeamID: teamID, ChannelID: ch.ID, ChannelName: ch.Name}

	if backfill {
		o.setMode(status, ModeBackfill)
		msgs, err := o.source.FetchHistory(ctx, ch.ID, driven.HistoryOptions{PageLimit: o.opts.PageLimit})
		if err != nil {
			return fmt.Errorf("fetch history: %w", err)
		}
		logger.Info("Backfilling #%s: %d messages", channelLabel(ch), len(msgs))
		return o.process(ctx, scope, msgs, resolver, status)
	}

	cursor, err := o.cursors.Get(ctx, teamID, ch.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		o.setMode(status, ModeInitialize)
		return o.initialize(ctx, scope, status)
	case err != nil:
		return fmt.Errorf("get cursor: %w", err)
	}

	o.setMode(status, ModeDelta)
	o.update(func() { status.Cursor = cursor })

	msgs, err := o.source.FetchHistory(ctx, ch.ID, driven.HistoryOptions{
		Oldest:    cursor,
		PageLimit: o.opts.PageLimit,
	})
	if err != nil {
		return fmt.Errorf("fetch history since %s: %w", cursor, err)
	}
	if len(msgs) == 0 {
		logger.Debug("No new messages in #%s", channelLabel(ch))
		return nil
	}
	logger.Info("Syncing #%s: %d messages since %s", channelLabel(ch), len(msgs), cursor)

	return o.process(ctx, scope, msgs, resolver, status)
}

// initialize seeds the cursor of a never-synced channel from its most
// recent messages without indexing anything.
func (o *SyncOrchestrator) initialize(ctx context.Context, scope domain.ChunkScope, status *driving.SyncStatus) error {
	msgs, err := o.source.FetchHistory(ctx, scope.ChannelID, driven.HistoryOptions{
		PageLimit:  initializePageLimit,
		SinglePage: true,
	})
	if err != nil {
		return fmt.Errorf("fetch recent history: %w", err)
	}
	o.update(func() { status.MessagesFetched = len(msgs) })

	latest := latestTS(msgs)
	if latest == "" {
		logger.Info("Channel %s has no messages, cursor left unset", scope.ChannelID)
		return nil
	}

	logger.Info("Initialised cursor for %s at %s", scope.ChannelID, latest)
	return o.advanceCursor(ctx, scope, latest, status)
}

// process chunks, embeds and upserts a batch, then advances the cursor.
func (o *SyncOrchestrator) process(
	ctx context.Context,
	scope domain.ChunkScope,
	msgs []domain.Message,
	resolver driven.UserResolver,
	status *driving.SyncStatus,
) error {
	o.update(func() { status.MessagesFetched = len(msgs) })

	roots, nonThread := o.chunker.Partition(msgs)

	chunks := make([]domain.Chunk, 0, len(roots))
	for _, root := range roots {
		replies, err := o.source.FetchThreadReplies(ctx, scope.ChannelID, root, o.opts.PageLimit)
		if err != nil {
			return fmt.Errorf("fetch thread %s: %w", root, err)
		}
		if chunk, ok := o.chunker.BuildThread(ctx, scope, root, replies, resolver); ok {
			chunks = append(chunks, chunk)
		}
	}
	threads := len(chunks)

	windows := o.chunker.BuildWindows(ctx, scope, nonThread, resolver)
	chunks = append(chunks, windows...)
	o.update(func() {
		status.ThreadChunks = threads
		status.WindowChunks = len(windows)
	})

	stats, err := o.indexer.Index(ctx, chunks)
	o.update(func() { status.ChunksUpserted = stats.Upserted })
	if err != nil {
		return err
	}

	logger.Debug("Channel %s: %d thread chunks, %d window chunks, %d upserted",
		scope.ChannelID, threads, len(windows), stats.Upserted)

	latest := latestTS(msgs)
	if latest == "" {
		return nil
	}
	return o.advanceCursor(ctx, scope, latest, status)
}

// advanceCursor moves the channel cursor to ts unless it already points
// at the same or a later message.
func (o *SyncOrchestrator) advanceCursor(
	ctx context.Context,
	scope domain.ChunkScope,
	ts string,
	status *driving.SyncStatus,
) error {
	current, err := o.cursors.Get(ctx, scope.TeamID, scope.ChannelID)
	switch {
	case err == nil && domain.ParseTS(current) >= domain.ParseTS(ts):
		o.update(func() { status.Cursor = current })
		return nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("get cursor: %w", err)
	}

	if err := o.cursors.Set(ctx, scope.TeamID, scope.ChannelID, ts); err != nil {
		return fmt.Errorf("set cursor: %w", err)
	}
	o.update(func() { status.Cursor = ts })
	return nil
}

// begin registers a running status. It reports false when the channel is
// already being synced.
func (o *SyncOrchestrator) begin(status *driving.SyncStatus) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if prev, ok := o.activeSyncs[status.ChannelID]; ok && prev.Running {
		return false
	}
	o.activeSyncs[status.ChannelID] = status
	return true
}

func (o *SyncOrchestrator) finish(status *driving.SyncStatus, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	status.Running = false
	status.FinishedAt = time.Now()
	if err != nil {
		status.LastError = err.Error()
	}
}

func (o *SyncOrchestrator) setMode(status *driving.SyncStatus, mode string) {
	o.update(func() { status.Mode = mode })
}

// update mutates a tracked status under the lock so Status never observes
// a torn write.
func (o *SyncOrchestrator) update(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn()
}

// latestTS returns the ts of the newest message in msgs.
func latestTS(msgs []domain.Message) string {
	var latest string
	for _, m := range msgs {
		if m.TS == "" {
			continue
		}
		if latest == "" || domain.ParseTS(m.TS) > domain.ParseTS(latest) {
			latest = m.TS
		}
	}
	return latest
}

func channelLabel(ch domain.Channel) string {
	if ch.Name != "" {
		return ch.Name
	}
	return ch.ID
}
