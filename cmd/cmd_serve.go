package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"climate-server/internal/app"
)

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  `Open the store read-only, verify its schema and serve the API until interrupted.`,
		Args:  cobra.NoArgs,
		RunE:  c.runServe,
	}
}

func (c *cli) runServe(cmd *cobra.Command, _ []string) error {
	if err := app.Run(cmd.Context(), c.cfg, version); err != nil {
		return err
	}
	slog.Info("shutting down")
	return nil
}
