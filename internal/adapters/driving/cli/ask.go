package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/metrics"
)

var askCmd = &cobra.Command{
	Use:   "ask <channel-id> <question>",
	Short: "Answer a question from a channel's history",
	Long: `Retrieves the indexed history of the channel most similar to the question
and asks the configured LLM to answer using only that history.

Example:
  slackrag ask C0123ABCD "when is the next release?"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolP("sources", "s", false, "print the retrieved sources after the answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := setup(cmd, Needs{LLM: true}); err != nil {
		return err
	}
	if answerService == nil {
		return errNotConfigured("answer service")
	}

	showSources, err := cmd.Flags().GetBool("sources")
	if err != nil {
		return fmt.Errorf("getting sources flag: %w", err)
	}

	channelID := args[0]
	question := strings.TrimSpace(strings.Join(args[1:], " "))
	if question == "" {
		return errors.New(domain.ReplyEmptyQuestion)
	}

	answer, err := answerService.Answer(cmd.Context(), channelID, question)
	metrics.Answers.WithLabelValues("cli", metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	cmd.Println(answer.Text)

	if showSources {
		cmd.Println()
		if len(answer.Contexts) == 0 {
			cmd.Println("No sources found.")
			return nil
		}
		cmd.Printf("Sources (%d):\n", len(answer.Contexts))
		for i, c := range answer.Contexts {
			kind := "window"
			if c.IsThread {
				kind = "thread"
			}
			cmd.Printf("\n[%d] %s %s-%s (similarity %.3f)\n", i+1, kind, c.StartTS, c.EndTS, c.Similarity)
			cmd.Println(c.Text)
		}
	}

	return nil
}
