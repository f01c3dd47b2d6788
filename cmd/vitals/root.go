package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/vitals/internal/config"
	vitalslog "github.com/nao1215/vitals/internal/log"
)

// NewRootCmd creates the root command for vitals.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vitals",
		Short: "Export websites, pages and Lighthouse scores from PageVitals",
		Long: `vitals exports monitoring data from the PageVitals API.

The API key is read from PAGEVITALS_API_KEY in the process environment or
the env file (.env by default). Website IDs are read from
PAGEVITALS_WEBSITE_<NAME> variables, which 'vitals websites' maintains.
Variables in the process environment take precedence over the env file.

Typical workflow:
  vitals init        # create .env, then paste your API key into it
  vitals websites    # record website IDs in .env
  vitals pages       # pages_list_<timestamp>.csv
  vitals scores      # lighthouse_scores_<timestamp>.csv
  vitals history     # lighthouse_history_<timestamp>.csv
  vitals compare     # score changes since the previous 'vitals scores'`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("env-file", config.DefaultEnvFile,
		"Env file holding PAGEVITALS_API_KEY and PAGEVITALS_WEBSITE_* variables")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .vitals.yaml in current directory or XDG config directory)")
	cmd.PersistentFlags().String("base-url", "",
		"PageVitals API base URL (default "+config.DefaultBaseURL+")")
	cmd.PersistentFlags().Bool("log-json", false,
		"Write log messages to stderr as JSON")
	cmd.PersistentFlags().String("log-dir", "",
		"Write every API response as pretty-printed JSON into this directory")

	cmd.AddCommand(NewWebsitesCmd())
	cmd.AddCommand(NewPagesCmd())
	cmd.AddCommand(NewScoresCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		// API error bodies may echo request headers.
		fmt.Fprintln(os.Stderr, "Error:", vitalslog.NewSecureHandler(nil).Redact(err.Error()))
		os.Exit(1)
	}
}
