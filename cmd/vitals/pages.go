package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/vitals/internal/model"
	"github.com/nao1215/vitals/internal/pipeline"
	"github.com/nao1215/vitals/internal/report"
)

// NewPagesCmd creates the pages command.
func NewPagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "Write the pages of every configured website to a CSV file",
		Long: `Pages retrieves the pages of every website configured as
PAGEVITALS_WEBSITE_<NAME>=<id> and writes them to
pages_list_<YYYYMMDD_HHMMSS>.csv with the header "website,url".

If any request fails, no file is written. If the websites have no pages,
no file is written either and the command still succeeds.

Examples:
  # Write pages_list_<timestamp>.csv into the current directory
  vitals pages

  # Write into the csv directory
  vitals pages -o csv`,
		Args: cobra.NoArgs,
		RunE: runPagesCmd,
	}
	addOutputFlags(cmd)
	return cmd
}

// runPagesCmd executes the pages command.
func runPagesCmd(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	collections, err := s.collect(ctx, func() []pipeline.Step {
		return []pipeline.Step{pipeline.NewPagesStep(s.client, s.logger)}
	})
	if err != nil {
		return err
	}

	var rows []model.PageRow
	out := cmd.OutOrStdout()
	for _, c := range collections {
		fmt.Fprintf(out, "Retrieved %d pages for %s\n", len(c.Pages), c.Website.Name)
		rows = append(rows, c.PageRows()...)
	}

	_, err = writeCSV(cmd, s, report.PagesFilePrefix, report.PagesTable(rows), "Page list")
	return err
}

// writeCSV writes t into the output directory and reports the result.
// An empty table writes nothing and is not an error; written is false then.
func writeCSV(cmd *cobra.Command, s *session, prefix string, t report.Table, what string) (written bool, err error) {
	out := cmd.OutOrStdout()
	if t.Len() == 0 {
		fmt.Fprintln(out, "\nNo data was retrieved. CSV file was not created.")
		return false, nil
	}

	path, err := report.WriteCSVFile(s.cfg.OutputDir, prefix, time.Now(), t)
	if err != nil {
		return false, err
	}
	fmt.Fprintf(out, "\n%s has been saved to %s (%d rows)\n", what, path, t.Len())
	return true, nil
}
