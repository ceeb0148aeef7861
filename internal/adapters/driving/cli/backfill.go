package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Index the full history of every member channel",
	Long: `Fetches the complete history of every public channel the bot is a member
of, chunks threads and rolling windows of messages, embeds them and upserts
them into the store. Each channel cursor moves to the newest message seen.

Backfill is idempotent: re-running it overwrites existing chunks.`,
	Args: cobra.NoArgs,
	RunE: runBackfill,
}

func init() {
	rootCmd.AddCommand(backfillCmd)
}

func runBackfill(cmd *cobra.Command, _ []string) error {
	if err := setup(cmd, Needs{Slack: true}); err != nil {
		return err
	}
	if syncOrchestrator == nil {
		return errNotConfigured("sync service")
	}

	cmd.Println("Backfilling all member channels...")

	if err := syncOrchestrator.Backfill(cmd.Context()); err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}

	cmd.Println("Backfill complete.")
	return nil
}
