package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/macropanel/internal/models"
)

var runsLimit int

// runsCmd lists recorded fetch runs
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent fetch runs",
	Long: `List the most recent fetch runs recorded in storage, newest first, with
their success counts and the series that failed.

Examples:
  macropanel runs
  macropanel runs --limit 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runsLimit <= 0 {
			return fmt.Errorf("--limit must be positive, got %d", runsLimit)
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(store)

		runs, err := store.RecentRuns(runsLimit)
		if err != nil {
			return fmt.Errorf("failed to load runs: %w", err)
		}
		return writeRuns(cmd.OutOrStdout(), runs)
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().IntVar(&runsLimit, "limit", 10, "Number of runs to show")
}

func writeRuns(w io.Writer, runs []models.FetchReport) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No fetch runs recorded")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tDURATION\tFETCHED\tFAILED")
	for _, r := range runs {
		ids := make([]string, len(r.Failures))
		for i, f := range r.Failures {
			ids[i] = f.SeriesID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\n",
			r.RunID,
			r.StartedAt.UTC().Format(time.RFC3339),
			r.Duration().Round(time.Millisecond),
			r.Succeeded, r.Requested,
			strings.Join(ids, ","))
	}
	return tw.Flush()
}
