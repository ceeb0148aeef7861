package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/slackrag/internal/adapters/driving/slackbot"
	"github.com/custodia-labs/slackrag/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Slack events bot",
	Long: `Starts an HTTP server for the Slack Events API. Point the app's Event
Subscriptions request URL at http://<host>:<port>/slack/events and mention
the bot in a channel to ask a question; the answer is posted in thread.

The server also exposes /healthz and Prometheus metrics at /metrics.
With --sync an incremental sync runs in the background on the configured
interval.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "listen port (default from config, 3000)")
	serveCmd.Flags().Bool("sync", false, "run incremental syncs in the background")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := setup(cmd, Needs{Slack: true, SigningSecret: true, LLM: true}); err != nil {
		return err
	}
	if settings == nil {
		return errNotConfigured("settings")
	}
	if answerService == nil || replyPoster == nil {
		return errNotConfigured("answer service")
	}

	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	if port <= 0 {
		port = settings.Server.Port
	}

	withSync, err := cmd.Flags().GetBool("sync")
	if err != nil {
		return fmt.Errorf("getting sync flag: %w", err)
	}

	server, err := slackbot.NewServer(
		slackbot.Config{SigningSecret: settings.Slack.SigningSecret},
		answerService,
		replyPoster,
		userResolvers,
	)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if withSync {
		if newScheduler == nil {
			return errNotConfigured("scheduler")
		}
		scheduler := newScheduler(settings.Sync.Interval)
		go func() {
			if err := scheduler.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error("Background sync stopped: %v", err)
			}
		}()
		defer scheduler.Stop() //nolint:errcheck
	}

	addr := fmt.Sprintf(":%d", port)
	cmd.Printf("Slack RAG bot running on port %d\n", port)
	return server.Run(ctx, addr)
}
