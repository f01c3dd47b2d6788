package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/vitals/internal/config"
)

//go:embed templates/env templates/vitals.yaml
var templates embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter env file",
		Long: `Init creates an env file with an empty PAGEVITALS_API_KEY entry and
explanatory comments. Paste your API key into it, then run
'vitals websites' to record your website IDs.

The file is written to --output, or to the global --env-file when --output
is not given.

The file is created with owner-only permissions (0600) because it holds
your API key. An existing file is never overwritten unless -f is given.

With --with-config, a commented .vitals.yaml configuration file is written
next to the env file as well.

Examples:
  # Create .env in the current directory
  vitals init

  # Create the env file at a specific path
  vitals init -o config/pagevitals.env

  # Also create .vitals.yaml
  vitals init --with-config

  # Force overwrite existing files
  vitals init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultEnvFile,
		"Output path of the env file (defaults to --env-file)")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing files")
	cmd.Flags().Bool("with-config", false,
		"Also write "+config.DefaultConfigFile+" next to the env file")

	return cmd
}

// initTarget is an embedded template and the path it is written to.
type initTarget struct {
	template string
	path     string
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := initOutputPath(cmd)
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	withConfig, err := cmd.Flags().GetBool("with-config")
	if err != nil {
		return err
	}

	targets := []initTarget{{template: "templates/env", path: outputPath}}
	if withConfig {
		targets = append(targets, initTarget{
			template: "templates/vitals.yaml",
			path:     filepath.Join(filepath.Dir(outputPath), config.DefaultConfigFile),
		})
	}

	// Check every target first so that nothing is written when one exists.
	if !force {
		for _, t := range targets {
			if _, err := os.Stat(t.path); err == nil {
				return fmt.Errorf("file already exists: %s (use -f to overwrite)", t.path)
			}
		}
	}

	out := cmd.OutOrStdout()
	for _, t := range targets {
		if err := writeTemplate(t.template, t.path); err != nil {
			return err
		}
		fmt.Fprintf(out, "Created %s\n", t.path)
	}

	fmt.Fprintf(out, "\nNext steps:\n")
	fmt.Fprintf(out, "  1. Set %s in %s\n", config.APIKeyEnv, outputPath)
	fmt.Fprintf(out, "  2. Run 'vitals websites' to record your website IDs\n")
	return nil
}

// initOutputPath returns the env file path to create: --output when given,
// else the global --env-file when given, else the default.
func initOutputPath(cmd *cobra.Command) (string, error) {
	if !cmd.Flags().Changed("output") {
		if envFile := cmd.Flags().Lookup("env-file"); envFile != nil && envFile.Changed {
			return envFile.Value.String(), nil
		}
	}
	return cmd.Flags().GetString("output")
}

// writeTemplate writes an embedded template to path with mode 0600.
func writeTemplate(name, path string) error {
	content, err := templates.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to restrict permissions of %s: %w", path, err)
	}
	return nil
}
