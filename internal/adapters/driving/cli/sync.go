package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/core/ports/driving"
)

var syncCmd = &cobra.Command{
	Use:   "sync [channel-id]",
	Short: "Index new messages since the last sync",
	Long: `Runs an incremental sync. A channel that has never been synced only
records its newest message as the starting point; later syncs index every
message since then.

If a channel ID is provided, only that channel is synchronised.
Otherwise, all member channels are synchronised.

With --watch the sync repeats every --interval until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().Bool("watch", false, "repeat the sync on an interval")
	syncCmd.Flags().Duration("interval", 0, "pause between watched syncs (default from config)")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if err := setup(cmd, Needs{Slack: true}); err != nil {
		return err
	}
	if syncOrchestrator == nil {
		return errNotConfigured("sync service")
	}

	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("getting watch flag: %w", err)
	}
	if watch {
		if len(args) > 0 {
			return errors.New("--watch syncs every channel, drop the channel argument")
		}
		interval, err := cmd.Flags().GetDuration("interval")
		if err != nil {
			return fmt.Errorf("getting interval flag: %w", err)
		}
		return runWatch(cmd, interval)
	}

	ctx := cmd.Context()

	if len(args) > 0 {
		// Sync specific channel
		channelID := args[0]
		cmd.Printf("Synchronising channel: %s...\n", channelID)

		if err := syncOrchestrator.SyncChannel(ctx, channelID); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		printStatus(ctx, cmd, syncOrchestrator, channelID)
		cmd.Printf("Channel %s synchronised successfully.\n", channelID)
	} else {
		// Sync all channels
		cmd.Println("Synchronising all channels...")

		if err := syncOrchestrator.SyncAll(ctx); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		cmd.Println("All channels synchronised successfully.")
	}

	return nil
}

// runWatch runs the scheduler until the command context is cancelled.
func runWatch(cmd *cobra.Command, interval time.Duration) error {
	if newScheduler == nil {
		return errNotConfigured("scheduler")
	}
	if interval <= 0 && settings != nil {
		interval = settings.Sync.Interval
	}
	if interval <= 0 {
		interval = domain.DefaultSyncInterval
	}

	scheduler := newScheduler(interval)
	cmd.Printf("Watching channels, syncing every %s. Press Ctrl+C to stop.\n", interval)

	err := scheduler.Start(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// printStatus prints the counts of the last run of a channel (best effort).
func printStatus(ctx context.Context, cmd *cobra.Command, syncOrch driving.SyncOrchestrator, channelID string) {
	status, err := syncOrch.Status(ctx, channelID)
	if err != nil || status == nil || status.Mode == "" {
		return
	}
	cmd.Printf("Mode %s: %d messages, %d thread chunks, %d window chunks, %d upserted (cursor %s)\n",
		status.Mode, status.MessagesFetched, status.ThreadChunks, status.WindowChunks,
		status.ChunksUpserted, status.Cursor)
}
