package cli

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/core/ports/driving"
)

// mockSyncOrchestrator implements driving.SyncOrchestrator for testing.
type mockSyncOrchestrator struct {
	mu        sync.Mutex
	err       error
	backfills int
	syncAlls  int
	channels  []string
	status    *driving.SyncStatus
}

func (m *mockSyncOrchestrator) Backfill(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backfills++
	return m.err
}

func (m *mockSyncOrchestrator) SyncAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncAlls++
	return m.err
}

func (m *mockSyncOrchestrator) SyncChannel(_ context.Context, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = append(m.channels, channelID)
	return m.err
}

func (m *mockSyncOrchestrator) Status(_ context.Context, channelID string) (*driving.SyncStatus, error) {
	if m.status != nil {
		return m.status, nil
	}
	return &driving.SyncStatus{ChannelID: channelID}, nil
}

// mockAnswerService implements driving.AnswerService for testing.
type mockAnswerService struct {
	answer    *driving.Answer
	err       error
	channelID string
	question  string
}

func (m *mockAnswerService) Answer(_ context.Context, channelID, question string) (*driving.Answer, error) {
	m.channelID = channelID
	m.question = question
	return m.answer, m.err
}

// mockScheduler implements driving.Scheduler; Start blocks until ctx ends
// and fails after a timeout so a lost context cannot hang the package.
type mockScheduler struct {
	interval time.Duration
	started  chan struct{}
}

func (m *mockScheduler) Start(ctx context.Context) error {
	close(m.started)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return errors.New("scheduler context was never cancelled")
	}
}

func (m *mockScheduler) Stop() error                 { return nil }
func (m *mockScheduler) LastRun() *driving.RunResult { return nil }

// withServices swaps the package-level services for the duration of a test.
func withServices(t *testing.T) {
	t.Helper()
	oldSettings := settings
	oldSync := syncOrchestrator
	oldRetrieval := retrievalService
	oldAnswer := answerService
	oldPoster := replyPoster
	oldResolvers := userResolvers
	oldScheduler := newScheduler
	oldBootstrap := bootstrap
	oldRuntime := runtime
	oldConfigPath := configPath

	defaults := domain.DefaultSettings()
	settings = &defaults
	bootstrap = nil
	runtime = nil

	t.Cleanup(func() {
		settings = oldSettings
		syncOrchestrator = oldSync
		retrievalService = oldRetrieval
		answerService = oldAnswer
		replyPoster = oldPoster
		userResolvers = oldResolvers
		newScheduler = oldScheduler
		bootstrap = oldBootstrap
		runtime = oldRuntime
		configPath = oldConfigPath
	})
}

// executeCommand runs the root command with args and returns its output.
// Flags are reset afterwards because cobra keeps their values between runs.
func executeCommand(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	// Cobra keeps a subcommand's context from an earlier run and only
	// inherits the root's when it is unset.
	setContexts(rootCmd, ctx)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

func setContexts(cmd *cobra.Command, ctx context.Context) {
	cmd.SetContext(ctx)
	for _, c := range cmd.Commands() {
		setContexts(c, ctx)
	}
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
