package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/vitals/internal/database"
	"github.com/nao1215/vitals/internal/model"
	"github.com/nao1215/vitals/internal/report"
)

// NewCompareCmd creates the compare command.
// It compares score snapshots stored by 'vitals scores'.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare Lighthouse scores with a previous run",
		Long: `Compare shows how Lighthouse scores changed between two runs of
'vitals scores'.

By default the latest snapshot is compared with the one before it. Each page
is reported as improved, regressed, unchanged, added or removed, with the
previous score, the current score and the difference per category.

The comparison reads only the local score database; it does not call the
PageVitals API.

Examples:
  # Compare the two latest snapshots
  vitals compare

  # List stored snapshots
  vitals compare --list

  # Compare the latest snapshot with snapshot #3
  vitals compare --with-snapshot-id 3

  # Markdown output for a pull request or wiki
  vitals compare --markdown > scores-diff.md`,
		Args: cobra.NoArgs,
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List stored snapshots")
	cmd.Flags().Int64P("with-snapshot-id", "i", 0,
		"Compare the latest snapshot with this snapshot ID (see --list)")
	cmd.Flags().BoolP("json", "j", false,
		"Output the comparison in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the comparison in Markdown format")
	cmd.Flags().String("db-dir", "",
		"Score database directory (default: XDG data directory)")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, _ []string) error {
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	withID, err := cmd.Flags().GetInt64("with-snapshot-id")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	// No API key is needed; only the database location matters.
	cfg, _, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no score history: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if list {
		metas, err := db.ListSnapshots(ctx)
		if err != nil {
			return err
		}
		if len(metas) == 0 {
			fmt.Fprintln(out, "No snapshots stored yet. Run 'vitals scores' first.")
			return nil
		}
		if jsonOutput {
			return report.NewJSONWriter(out, report.WithPrettyPrint()).Encode(metas)
		}
		if markdownOutput {
			return report.NewMarkdownWriter(out).WriteTable(report.SnapshotsTable(metas))
		}
		return report.NewSimpleWriter(out).WriteTable(report.SnapshotsTable(metas))
	}

	previous, current, err := snapshotsToCompare(ctx, db, withID)
	if err != nil {
		return err
	}
	comparison := model.CompareSnapshots(*previous, *current)

	switch {
	case jsonOutput:
		return report.NewJSONWriter(out, report.WithPrettyPrint()).Encode(comparison)
	case markdownOutput:
		return report.NewMarkdownWriter(out).WriteComparison(comparison)
	default:
		return report.NewSimpleWriter(out).WriteComparison(comparison)
	}
}

// snapshotsToCompare returns the previous and current snapshots. The current
// one is always the latest; the previous one is withID when set, otherwise
// the snapshot before the latest.
func snapshotsToCompare(ctx context.Context, db *database.ScoreDB, withID int64) (previous, current *model.Snapshot, err error) {
	latest, err := db.LatestSnapshots(ctx, 2)
	if err != nil {
		return nil, nil, err
	}
	if len(latest) == 0 {
		return nil, nil, errors.New("no snapshots stored yet: run 'vitals scores' first")
	}
	current = latest[0]

	if withID != 0 {
		if withID == current.ID {
			return nil, nil, fmt.Errorf("snapshot #%d is the latest snapshot; choose an older one (see --list)", withID)
		}
		previous, err = db.GetSnapshot(ctx, withID)
		if err != nil {
			return nil, nil, err
		}
		return previous, current, nil
	}

	if len(latest) < 2 {
		return nil, nil, fmt.Errorf("only one snapshot (#%d) is stored: run 'vitals scores' again later to compare", current.ID)
	}
	return latest[1], current, nil
}
