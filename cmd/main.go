package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"riverwatch/internal/config"
	"riverwatch/internal/logging"
)

const appName = "riverwatch"

// Set with -ldflags "-X main.version=...".
var version = "dev"

// cli holds what every subcommand needs once the root has loaded it.
type cli struct {
	cfg    config.Config
	logger *slog.Logger
	// loadConfig is swapped in tests to skip the .env lookup.
	loadConfig func() (config.Config, error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(&cli{loadConfig: config.Load})
	if err := root.ExecuteContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "River level and weather conditions for one USGS gage",
		Long: `riverwatch fetches the current river gage reading and local weather,
shows them on a dashboard and stores snapshots in SQLite on request.

Without a subcommand it runs the HTTP server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			c.cfg = cfg
			c.logger = newLogger(cmd, cfg)
			slog.SetDefault(c.logger)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), c)
		},
	}

	root.AddCommand(
		newServeCmd(c),
		newCurrentCmd(c),
		newSnapshotCmd(c),
		newHistoryCmd(c),
		newInitCmd(c),
	)
	return root
}

// newLogger logs to stdout for the server and to stderr for one-shot
// commands, whose stdout is their result.
func newLogger(cmd *cobra.Command, cfg config.Config) *slog.Logger {
	if isServe(cmd) {
		return logging.New(cfg, version, appName)
	}
	var w io.Writer = cmd.ErrOrStderr()
	return logging.NewWriter(w, cfg, version, appName)
}

func isServe(cmd *cobra.Command) bool {
	return !cmd.HasParent() || cmd.Name() == "serve"
}
