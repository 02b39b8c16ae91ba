package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBackupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Fetch taste.io feeds and write the Simkl backup files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, closeStore, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			ctrl, err := newBackupController(cfg, store, logger)
			if err != nil {
				return err
			}

			report, runErr := ctrl.Run(cmd.Context())
			out := cmd.OutOrStdout()
			if report != nil {
				fmt.Fprintf(out, "Result:   %s\n", report.Result)
				fmt.Fprintf(out, "Movies:   %d\n", report.Movies)
				fmt.Fprintf(out, "Shows:    %d\n", report.Shows)
				fmt.Fprintf(out, "Episodes: %d shows\n", report.LedgerShows)
				fmt.Fprintf(out, "Backup:   %s\n", cfg.OutputFile)
			}

			lookups, err := store.FailedLookups()
			if err != nil {
				logger.WithError(err).Warn("Failed to read failed lookups")
			} else if len(lookups) > 0 {
				fmt.Fprintf(out, "\nTitles needing manual follow-up (%d):\n", len(lookups))
				fmt.Fprintln(out, renderFailedLookups(lookups))
			}

			return runErr
		},
	}
}
