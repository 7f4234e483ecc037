package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"climate-server/internal/app"
	"climate-server/internal/db"
)

func (c *cli) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Verify the store schema",
		Long:  `Open the store read-only and check it carries every table and column the API reads.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := app.CheckSchema(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d ok (%s %s)\n", v, c.cfg.DBDriver, db.Describe(c.cfg))
			return err
		},
	}
}

func (c *cli) initDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the station and measurement tables",
		Long:  `Apply the embedded migrations to a writable development store. Already applied versions are skipped.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			applied, err := app.InitDB(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "applied %v\n", applied)
			return err
		},
	}
}
