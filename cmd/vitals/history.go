package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/vitals/internal/config"
	"github.com/nao1215/vitals/internal/model"
	"github.com/nao1215/vitals/internal/pipeline"
	"github.com/nao1215/vitals/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Write the daily measurement history of every page to a CSV file",
		Long: `History retrieves the timeline of every page of every configured website
for the last --days days and writes it to
lighthouse_history_<YYYYMMDD_HHMMSS>.csv, one row per page and day.

Columns: Website, Page ID, Alias, URL, Device, Date, followed by the
timeline metrics (LCP, FCP, Speed Index, TBT, CLS, TTFB, TTI, DOM
statistics and network timings). Missing values are written as N/A.

If any request fails, no file is written. If there are no entries in the
range, no file is written and the command still succeeds.

Examples:
  # Last 90 days
  vitals history

  # Last 30 days into the csv directory
  vitals history --days 30 -o csv`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}
	addOutputFlags(cmd)
	cmd.Flags().IntP("days", "d", config.DefaultHistoryDays,
		"Number of days of history to retrieve")
	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	collections, err := s.collect(ctx, func() []pipeline.Step {
		return []pipeline.Step{
			pipeline.NewPagesStep(s.client, s.logger),
			pipeline.NewTimelineStep(s.client, s.cfg.HistoryDays, pipeline.WithTimelineLogger(s.logger)),
		}
	})
	if err != nil {
		return err
	}

	var rows []model.HistoryRow
	out := cmd.OutOrStdout()
	for _, c := range collections {
		fmt.Fprintf(out, "Retrieved %d entries for %d pages of %s\n", len(c.History), len(c.Pages), c.Website.Name)
		rows = append(rows, c.History...)
	}

	_, err = writeCSV(cmd, s, report.HistoryFilePrefix, report.HistoryTable(rows), "Historical data")
	return err
}
