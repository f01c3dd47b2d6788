package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file name looked up in the
// current directory.
const DefaultConfigFile = ".vitals.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the YAML configuration file.
// Every field is optional; zero values leave the current setting untouched.
//
//	baseURL: https://api.pagevitals.com
//	timeout: 30s
//	rateLimit:
//	  requests: 50
//	  window: 10s
//	retry:
//	  max: 2
//	  after: 15s
//	historyDays: 30
//	outputDir: csv
//	logDir: logs
//	envFile: .env
//	dbDir: /var/lib/vitals
type File struct {
	BaseURL     string        `yaml:"baseURL,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	RateLimit   RateLimit     `yaml:"rateLimit,omitempty"`
	Retry       Retry         `yaml:"retry,omitempty"`
	HistoryDays int           `yaml:"historyDays,omitempty"`
	Concurrency int           `yaml:"concurrency,omitempty"`
	OutputDir   string        `yaml:"outputDir,omitempty"`
	LogDir      string        `yaml:"logDir,omitempty"`
	EnvFile     string        `yaml:"envFile,omitempty"`
	DBDir       string        `yaml:"dbDir,omitempty"`
}

// RateLimit is the client-side request budget section.
type RateLimit struct {
	Requests int           `yaml:"requests,omitempty"`
	Window   time.Duration `yaml:"window,omitempty"`
}

// Retry is the HTTP 429 retry section.
type Retry struct {
	// Max is a pointer so that an explicit 0 disables retries.
	Max   *int          `yaml:"max,omitempty"`
	After time.Duration `yaml:"after,omitempty"`
}

// LoadConfigFile loads settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .vitals.yaml in the current directory
// 3. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	xdgConfig := filepath.Join(XDGConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return ""
}

// Apply copies every non-zero setting of the file onto c.
func (cf *File) Apply(c *Config) {
	if cf.BaseURL != "" {
		c.BaseURL = strings.TrimRight(cf.BaseURL, "/")
	}
	if cf.Timeout != 0 {
		c.Timeout = cf.Timeout
	}
	if cf.RateLimit.Requests != 0 {
		c.RequestsPerWindow = cf.RateLimit.Requests
	}
	if cf.RateLimit.Window != 0 {
		c.Window = cf.RateLimit.Window
	}
	if cf.Retry.Max != nil {
		c.MaxRetries = *cf.Retry.Max
	}
	if cf.Retry.After != 0 {
		c.RetryAfter = cf.Retry.After
	}
	if cf.HistoryDays != 0 {
		c.HistoryDays = cf.HistoryDays
	}
	if cf.Concurrency != 0 {
		c.Concurrency = cf.Concurrency
	}
	if cf.OutputDir != "" {
		c.OutputDir = cf.OutputDir
	}
	if cf.LogDir != "" {
		c.LogDir = cf.LogDir
	}
	if cf.EnvFile != "" {
		c.EnvFile = cf.EnvFile
	}
	if cf.DBDir != "" {
		c.DBDir = cf.DBDir
	}
}
