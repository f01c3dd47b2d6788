package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nao1215/vitals/internal/config"
	"github.com/nao1215/vitals/internal/model"
	"github.com/nao1215/vitals/internal/report"
)

// Output formats of 'vitals websites'.
const (
	formatText     = "text"
	formatJSON     = "json"
	formatMarkdown = "markdown"
)

// NewWebsitesCmd creates the websites command.
func NewWebsitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "websites",
		Short: "List websites and record their IDs in the env file",
		Long: `Websites retrieves every website of your PageVitals account, prints it,
and records its ID in the env file as PAGEVITALS_WEBSITE_<NAME>=<id>.

<NAME> is derived from the website name, or its domain when it has no name:
diacritics are folded, domains in non-Latin scripts use their punycode
form, and every run of characters other than A-Z and 0-9 becomes a single
underscore.
Websites whose names collide get _2, _3, ... suffixes in API order.

Running the command again updates entries in place and never duplicates
them. Entries for websites the API no longer returns are removed unless
--keep-stale is given. Comments and other variables in the env file are
preserved, and the file is written with owner-only permissions.

If the account has no websites, the env file is left untouched.

Examples:
  # Record website IDs in .env
  vitals websites

  # Use a different env file and keep entries of deleted websites
  vitals websites --env-file prod.env --keep-stale

  # Print websites as JSON
  vitals websites --format json`,
		Args: cobra.NoArgs,
		RunE: runWebsitesCmd,
	}

	cmd.Flags().Bool("keep-stale", false,
		"Keep PAGEVITALS_WEBSITE_* entries of websites the API no longer returns")
	cmd.Flags().StringP("format", "f", formatText,
		"Output format: text, json or markdown")

	return cmd
}

// runWebsitesCmd executes the websites command.
func runWebsitesCmd(cmd *cobra.Command, _ []string) error {
	keepStale, err := cmd.Flags().GetBool("keep-stale")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	writer, err := tableWriter(cmd.OutOrStdout(), format)
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	websites, err := s.client.ListWebsites(ctx)
	if err != nil {
		return fmt.Errorf("failed to list websites: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(websites) == 0 {
		fmt.Fprintf(out, "No websites found. %s was not modified.\n", s.cfg.EnvFile)
		return nil
	}

	names := model.AssignEnvNames(websites)
	listed := make([]report.WebsiteEntry, len(websites))
	entries := make([]config.WebsiteEntry, len(websites))
	for i, w := range websites {
		entries[i] = config.WebsiteEntry{Name: names[i], ID: w.ID.String()}
		listed[i] = report.WebsiteEntry{Website: w, EnvKey: entries[i].Key()}
	}

	if err := writer.WriteTable(report.WebsitesTable(listed)); err != nil {
		return fmt.Errorf("failed to print websites: %w", err)
	}

	result, err := config.UpsertWebsites(s.cfg.EnvFile, entries, keepStale)
	if err != nil {
		return fmt.Errorf("failed to update env file: %w", err)
	}
	s.logger.Debug("env file updated",
		"path", s.cfg.EnvFile,
		"added", result.Added,
		"updated", result.Updated,
		"unchanged", result.Unchanged,
		"removed", result.Removed,
	)

	// Keep JSON output machine-readable.
	if format != formatJSON {
		fmt.Fprintf(out, "\nUpdated %s: %d added, %d updated, %d unchanged, %d removed\n",
			s.cfg.EnvFile, result.Added, result.Updated, result.Unchanged, result.Removed)
	}
	return nil
}

// tableWriter returns the report writer for format.
func tableWriter(w io.Writer, format string) (report.Writer, error) {
	switch format {
	case formatText:
		return report.NewSimpleWriter(w), nil
	case formatJSON:
		return report.NewJSONWriter(w, report.WithPrettyPrint()), nil
	case formatMarkdown:
		return report.NewMarkdownWriter(w), nil
	default:
		return nil, fmt.Errorf("unknown format %q (use text, json or markdown)", format)
	}
}
