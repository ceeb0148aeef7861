// Command slackrag indexes Slack channel history and answers questions
// grounded in it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/slackrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/slackrag/internal/logger"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if os.Getenv("SLACKRAG_LOG_FORMAT") == string(logger.FormatJSON) {
		logger.SetFormat(logger.FormatJSON)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	err := cli.Execute(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
