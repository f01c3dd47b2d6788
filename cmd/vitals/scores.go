package main

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/vitals/internal/database"
	"github.com/nao1215/vitals/internal/model"
	"github.com/nao1215/vitals/internal/pipeline"
	"github.com/nao1215/vitals/internal/report"
)

// NewScoresCmd creates the scores command.
func NewScoresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Write the latest Lighthouse scores of every page to a CSV file",
		Long: `Scores retrieves the pages of every configured website with their latest
Lighthouse scores and writes them to lighthouse_scores_<YYYYMMDD_HHMMSS>.csv.

Columns: Website, Page ID, Alias, URL, Device, Performance Score,
Accessibility Score, Best Practices Score, SEO Score. Scores a page has not
been measured for are written as N/A.

Each run is also saved as a snapshot in the score database so that
'vitals compare' can show what changed. A run identical to the previous
snapshot is not saved again. Use --no-db to skip this.

If any request fails, no file is written. If the websites have no pages,
no file is written and no snapshot is saved.

Examples:
  # Write lighthouse_scores_<timestamp>.csv
  vitals scores

  # Also write a Markdown summary
  vitals scores --markdown scores.md

  # Do not touch the score database
  vitals scores --no-db`,
		Args: cobra.NoArgs,
		RunE: runScoresCmd,
	}
	addOutputFlags(cmd)
	cmd.Flags().StringP("markdown", "m", "",
		"Also write a Markdown summary to this path")
	cmd.Flags().Bool("no-db", false,
		"Do not save a snapshot to the score database")
	cmd.Flags().String("db-dir", "",
		"Score database directory (default: XDG data directory)")
	return cmd
}

// runScoresCmd executes the scores command.
func runScoresCmd(cmd *cobra.Command, _ []string) error {
	markdownPath, err := cmd.Flags().GetString("markdown")
	if err != nil {
		return err
	}

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

	var rows []model.ScoreRow
	out := cmd.OutOrStdout()
	for _, c := range collections {
		fmt.Fprintf(out, "Retrieved scores of %d pages for %s\n", len(c.Pages), c.Website.Name)
		rows = append(rows, c.ScoreRows()...)
	}

	written, err := writeCSV(cmd, s, report.ScoresFilePrefix, report.ScoresTable(rows), "Lighthouse scores")
	if err != nil || !written {
		return err
	}
	takenAt := time.Now()

	if markdownPath != "" {
		var buf bytes.Buffer
		if err := report.NewMarkdownWriter(&buf).WriteScoresSummary(rows, takenAt); err != nil {
			return fmt.Errorf("failed to render Markdown summary: %w", err)
		}
		if err := report.WriteFile(markdownPath, buf.Bytes()); err != nil {
			return err
		}
		fmt.Fprintf(out, "Markdown summary has been saved to %s\n", markdownPath)
	}

	if !s.cfg.SaveToDB {
		return nil
	}
	return saveSnapshot(ctx, cmd, s, rows, takenAt)
}

// saveSnapshot stores rows in the score database.
func saveSnapshot(ctx context.Context, cmd *cobra.Command, s *session, rows []model.ScoreRow, takenAt time.Time) error {
	db, err := database.Open(s.cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open score database: %w", err)
	}
	defer db.Close()

	snapshot, saved, err := db.SaveSnapshot(ctx, rows, takenAt)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	out := cmd.OutOrStdout()
	if !saved {
		fmt.Fprintln(out, "Scores are unchanged since the last snapshot; no snapshot saved.")
		return nil
	}
	s.logger.Debug("snapshot saved", "id", snapshot.ID, "path", db.Path())
	fmt.Fprintf(out, "Saved snapshot #%d (use 'vitals compare' to see changes)\n", snapshot.ID)
	return nil
}
