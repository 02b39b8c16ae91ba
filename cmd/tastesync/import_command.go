package main

import (
	"fmt"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/controllers"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/services/simkl"
	"github.com/spf13/cobra"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var skipHistory bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Upload the backup files to Simkl",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateImport(); err != nil {
				return err
			}

			client, err := simkl.NewClient(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize Simkl client: %w", err)
			}

			ledger := cfg.WatchedEpisodesFile
			if skipHistory {
				ledger = ""
			}

			report, err := controllers.NewImportController(client, logger).Import(cmd.Context(), cfg.OutputFile, ledger)
			if report != nil {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Rated:    %d\n", report.Rated)
				fmt.Fprintf(out, "Listed:   %d\n", report.Listed)
				fmt.Fprintf(out, "History:  %d shows\n", report.HistoryShows)
				fmt.Fprintf(out, "Skipped:  %d without ids\n", report.SkippedNoIDs)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&skipHistory, "skip-history", false, "Do not upload watched episodes")
	return cmd
}
