package main

import (
	"fmt"
	"sort"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/models"
	"github.com/spf13/cobra"
)

func newFailedCommand(ctx *commandContext) *cobra.Command {
	failedCmd := &cobra.Command{
		Use:   "failed",
		Short: "Inspect and clear titles that could not be resolved",
	}

	failedCmd.AddCommand(newFailedListCommand(ctx))
	failedCmd.AddCommand(newFailedClearCommand(ctx))

	return failedCmd
}

func newFailedListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List failed lookups",
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

			lookups, err := store.FailedLookups()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(lookups) == 0 {
				fmt.Fprintln(out, "Failed lookups: none")
				return nil
			}
			fmt.Fprintln(out, renderFailedLookups(lookups))
			return nil
		},
	}
}

func newFailedClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget failed lookups so they are retried on the next backup",
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

			if err := store.ClearFailedLookups(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Failed lookups cleared")
			return nil
		},
	}
}

// renderFailedLookups shows one row per distinct lookup with the most recent error
func renderFailedLookups(lookups []models.FailedLookup) string {
	type row struct {
		lookup   models.FailedLookup
		attempts int
	}
	var rows []*row
	index := map[string]*row{}
	for _, lookup := range lookups {
		if r, ok := index[lookup.Key()]; ok {
			r.attempts++
			r.lookup = lookup
			continue
		}
		r := &row{lookup: lookup, attempts: 1}
		index[lookup.Key()] = r
		rows = append(rows, r)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].lookup.Title < rows[j].lookup.Title })

	const stampLayout = "2006-01-02 15:04"
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{
			r.lookup.Title,
			r.lookup.Year,
			string(r.lookup.Category),
			fmt.Sprintf("%d", r.attempts),
			r.lookup.Timestamp.Local().Format(stampLayout),
			r.lookup.Error,
		})
	}
	return renderTable(
		[]string{"Title", "Year", "Category", "Attempts", "Last Attempt", "Error"},
		cells,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignLeft},
	)
}
