package main

import (
	"context"

	"github.com/spf13/cobra"

	"riverwatch/internal/app"
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), c)
		},
	}
}

func runServe(ctx context.Context, c *cli) error {
	c.logger.Info("starting",
		"version", version,
		"env", c.cfg.AppEnv,
		"log_level", c.cfg.LogLevel.String(),
	)
	err := app.Run(ctx, c.cfg, c.logger)
	c.logger.Info("shutting down")
	return err
}
