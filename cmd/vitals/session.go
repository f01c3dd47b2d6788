package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/vitals/internal/config"
	vitalslog "github.com/nao1215/vitals/internal/log"
	"github.com/nao1215/vitals/internal/model"
	"github.com/nao1215/vitals/internal/pagevitals"
	"github.com/nao1215/vitals/internal/pipeline"
)

// session bundles what an API command needs: validated configuration, the
// merged environment, a redacting logger and the API client.
type session struct {
	cfg    *config.Config
	env    *config.Environment
	logger *slog.Logger
	client *pagevitals.Client
}

// newSession builds the configuration and validates it, including the API
// key, before the client is created. Nothing is sent over the network here.
func newSession(cmd *cobra.Command) (*session, error) {
	cfg, env, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	jsonLogs, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		return nil, err
	}
	logger := vitalslog.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.APIKey)
	if jsonLogs {
		logger = vitalslog.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.APIKey)
	}

	client, err := pagevitals.NewClient(cfg,
		pagevitals.WithUserAgent(userAgent()),
		pagevitals.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, env: env, logger: logger, client: client}, nil
}

// websites returns the configured websites, or config.ErrNoWebsites.
func (s *session) websites() ([]model.ConfiguredWebsite, error) {
	websites := s.env.Websites()
	if len(websites) == 0 {
		return nil, config.ErrNoWebsites
	}
	return websites, nil
}

// collect runs a pipeline of steps for every configured website.
func (s *session) collect(ctx context.Context, steps func() []pipeline.Step) ([]*pipeline.Collection, error) {
	websites, err := s.websites()
	if err != nil {
		return nil, err
	}

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return pipeline.New(steps(), pipeline.WithLogger(s.logger))
		},
		pipeline.WithBatchLogger(s.logger),
		pipeline.WithConcurrency(s.cfg.Concurrency),
	)
	return bp.ProcessBatch(ctx, websites)
}

// buildConfig creates a Config from defaults, the configuration file, the
// environment and finally the command-line flags, in increasing priority.
// It does not validate the result.
func buildConfig(cmd *cobra.Command) (*config.Config, *config.Environment, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, nil, err
	}
	cfg.ConfigFilePath = configPath

	// An explicitly requested file must exist; the default locations are optional.
	if path := config.FindConfigFile(configPath); path != "" {
		file, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		file.Apply(cfg)
	} else if configPath != "" {
		return nil, nil, fmt.Errorf("config file not found: %s", configPath)
	}

	if flags.Changed("env-file") {
		if cfg.EnvFile, err = flags.GetString("env-file"); err != nil {
			return nil, nil, err
		}
	}

	env, err := config.LoadEnvironment(cfg.EnvFile)
	if err != nil {
		return nil, nil, err
	}
	cfg.APIKey = strings.TrimSpace(env.Get(config.APIKeyEnv))
	if u := strings.TrimSpace(env.Get(config.BaseURLEnv)); u != "" {
		cfg.BaseURL = strings.TrimRight(u, "/")
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, nil, err
	}
	return cfg, env, nil
}

// applyFlags copies explicitly set flags onto cfg. Flags a command does not
// define are skipped.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	set := func(name string) bool {
		return err == nil && flags.Lookup(name) != nil && flags.Changed(name)
	}

	if set("verbose") {
		cfg.Verbose, err = flags.GetBool("verbose")
	}
	if set("base-url") {
		var u string
		u, err = flags.GetString("base-url")
		cfg.BaseURL = strings.TrimRight(u, "/")
	}
	if set("log-dir") {
		cfg.LogDir, err = flags.GetString("log-dir")
	}
	if set("output-dir") {
		cfg.OutputDir, err = flags.GetString("output-dir")
	}
	if set("concurrency") {
		cfg.Concurrency, err = flags.GetInt("concurrency")
	}
	if set("days") {
		cfg.HistoryDays, err = flags.GetInt("days")
	}
	if set("db-dir") {
		cfg.DBDir, err = flags.GetString("db-dir")
	}
	if set("no-db") {
		var noDB bool
		noDB, err = flags.GetBool("no-db")
		cfg.SaveToDB = !noDB
	}
	return err
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// addOutputFlags registers the flags shared by the CSV-producing commands.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output-dir", "o", config.DefaultOutputDir,
		"Directory for the CSV file (created if needed)")
	cmd.Flags().IntP("concurrency", "j", config.DefaultConcurrency,
		"Number of websites fetched at once")
}
