package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/slackrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/slackrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/slackrag/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View, create and check the slackrag configuration.

Settings are read from the config file, then overridden by environment
variables (SLACK_BOT_TOKEN, DATABASE_URL, OLLAMA_BASE_URL, TOP_K, ...).`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration with secrets masked",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE:  runConfigInit,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and ping the AI providers",
	RunE:  runConfigCheck,
}

// checkProviders pings the configured AI providers. Replaced in tests.
var checkProviders = ai.Check

func init() {
	configInitCmd.Flags().BoolP("force", "f", false, "overwrite an existing config file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

// currentSettings returns the injected settings or loads them from disk.
func currentSettings() (*domain.Settings, error) {
	if settings != nil {
		return settings, nil
	}
	loader, err := file.NewLoader(configPath)
	if err != nil {
		return nil, err
	}
	return loader.Load()
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	s, err := currentSettings()
	if err != nil {
		return err
	}

	data, err := file.Marshal(s.Masked())
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}

	cmd.Print(string(data))
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("getting force flag: %w", err)
	}

	path := configPath
	if path == "" {
		if path, err = file.DefaultPath(); err != nil {
			return err
		}
	}

	if err := file.Write(path, domain.DefaultSettings(), force); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
		return err
	}

	cmd.Printf("Wrote default configuration to %s\n", path)
	cmd.Println("Set SLACK_BOT_TOKEN (and SLACK_SIGNING_SECRET for 'serve') in the environment or the file.")
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	s, err := currentSettings()
	if err != nil {
		return err
	}

	if err := file.Validate(s); err != nil {
		return err
	}
	cmd.Println("Configuration is valid.")

	if err := file.RequireSlack(s, false); err != nil {
		cmd.Printf("Warning: %v\n", err)
	}

	failed := 0
	for _, r := range checkProviders(cmd.Context(), s, true) {
		if r.OK() {
			cmd.Printf("  ok    %s (%s/%s)\n", r.Name, r.Provider, r.Model)
			continue
		}
		failed++
		cmd.Printf("  FAIL  %s (%s/%s): %v\n", r.Name, r.Provider, r.Model, r.Err)
	}

	if failed > 0 {
		return fmt.Errorf("%d provider check(s) failed", failed)
	}
	return nil
}
