// Package cli provides the slackrag command line interface.
package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/core/ports/driven"
	"github.com/custodia-labs/slackrag/internal/core/ports/driving"
	"github.com/custodia-labs/slackrag/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Global flags.
var (
	verbose    bool
	configPath string
)

// Services used by commands. They are filled from the Runtime returned by
// the bootstrap function, or set directly in tests.
var (
	settings         *domain.Settings
	syncOrchestrator driving.SyncOrchestrator
	retrievalService driving.RetrievalService
	answerService    driving.AnswerService
	replyPoster      driven.ReplyPoster
	userResolvers    func() driven.UserResolver
	newScheduler     func(interval time.Duration) driving.Scheduler
)

var (
	bootstrap Bootstrap
	runtime   *Runtime
)

// Needs lists what a command requires from the runtime. Missing
// requirements fail at startup with domain.ErrMissingConfig.
type Needs struct {
	// Slack requires a bot token.
	Slack bool

	// SigningSecret requires the events signing secret.
	SigningSecret bool

	// LLM requires a generation provider.
	LLM bool
}

// Runtime holds the services built for one command invocation.
type Runtime struct {
	Settings     *domain.Settings
	Sync         driving.SyncOrchestrator
	Retrieval    driving.RetrievalService
	Answer       driving.AnswerService
	Poster       driven.ReplyPoster
	Resolvers    func() driven.UserResolver
	NewScheduler func(interval time.Duration) driving.Scheduler

	// Close releases stores and clients. May be nil.
	Close func() error
}

// Bootstrap builds the runtime for a command from the config file at
// configPath (empty for the default location).
type Bootstrap func(ctx context.Context, configPath string, needs Needs) (*Runtime, error)

var rootCmd = &cobra.Command{
	Use:   "slackrag",
	Short: "Answer questions from your Slack history",
	Long: `slackrag indexes the history of the Slack channels its bot is a member of
and answers questions grounded in that history.

Index once with 'slackrag backfill', keep the index fresh with
'slackrag sync --watch', then ask with 'slackrag ask', by mentioning the
bot in Slack ('slackrag serve') or from an MCP client ('slackrag mcp serve').`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ~/.slackrag/config.toml)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetBootstrap installs the function that builds services for commands.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// Execute runs the root command and releases the runtime afterwards.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if closeErr := closeRuntime(); closeErr != nil {
		logger.Warn("Failed to release resources: %v", closeErr)
	}
	return err
}

// setup builds the runtime for a command. Without a bootstrap function the
// package-level services are used as they are.
func setup(cmd *cobra.Command, needs Needs) error {
	if bootstrap == nil || runtime != nil {
		return nil
	}

	rt, err := bootstrap(cmd.Context(), configPath, needs)
	if err != nil {
		return err
	}
	runtime = rt

	settings = rt.Settings
	syncOrchestrator = rt.Sync
	retrievalService = rt.Retrieval
	answerService = rt.Answer
	replyPoster = rt.Poster
	userResolvers = rt.Resolvers
	newScheduler = rt.NewScheduler
	return nil
}

func closeRuntime() error {
	if runtime == nil || runtime.Close == nil {
		return nil
	}
	err := runtime.Close()
	runtime = nil
	return err
}

// errNotConfigured builds the error returned when a service is missing.
func errNotConfigured(name string) error {
	return errors.New(name + " not configured")
}
