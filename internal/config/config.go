package config

import (
	"net/url"
	"path/filepath"
	"regexp"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The request budget and Retry-After fallback mirror the limits PageVitals
// documents for its public API.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "vitals"

	// APIKeyEnv is the environment variable holding the PageVitals API key.
	APIKeyEnv = "PAGEVITALS_API_KEY"

	// BaseURLEnv optionally overrides the API base URL.
	BaseURLEnv = "PAGEVITALS_API_URL"

	// DefaultBaseURL is the PageVitals REST API endpoint.
	DefaultBaseURL = "https://api.pagevitals.com"

	// DefaultEnvFile is the env file read at startup and updated by
	// 'vitals websites'.
	DefaultEnvFile = ".env"

	// DefaultTimeout bounds each HTTP request.
	DefaultTimeout = 60 * time.Second

	// DefaultRequestsPerWindow and DefaultWindow form the client-side call
	// budget: at most 50 requests in any 10 second window.
	DefaultRequestsPerWindow = 50
	DefaultWindow            = 10 * time.Second

	// DefaultRetryAfter is how long to wait after HTTP 429 when the response
	// carries no usable Retry-After header.
	DefaultRetryAfter = 10 * time.Second

	// DefaultMaxRetries is the number of retries after HTTP 429.
	DefaultMaxRetries = 1

	// DefaultHistoryDays is the number of days of timeline data fetched by
	// 'vitals history'.
	DefaultHistoryDays = 90

	// DefaultOutputDir is where CSV files are written.
	DefaultOutputDir = "."

	// DefaultConcurrency is the number of websites fetched at once.
	// One keeps requests strictly sequential.
	DefaultConcurrency = 1
)

// apiKeyPattern is the accepted shape of a PageVitals API key.
var apiKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{16,128}$`)

// Config holds all configuration options for vitals.
// It is populated from defaults, then the optional YAML config file, then
// CLI flags, and passed explicitly to the components that need it.
type Config struct {
	// APIKey is the PageVitals API key sent as a bearer token.
	APIKey string

	// BaseURL is the API endpoint, without a trailing slash.
	BaseURL string

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// RequestsPerWindow and Window limit the client-side request rate.
	RequestsPerWindow int
	Window            time.Duration

	// RetryAfter is the fallback wait after HTTP 429.
	RetryAfter time.Duration

	// MaxRetries is the number of retries after HTTP 429. Zero disables retries.
	MaxRetries int

	// HistoryDays is the number of days of timeline data to fetch.
	HistoryDays int

	// Concurrency is the number of websites fetched at once.
	Concurrency int

	// EnvFile is the path of the env file holding the API key and the
	// PAGEVITALS_WEBSITE_* mappings.
	EnvFile string

	// ConfigFilePath is the explicit YAML config file path, if any.
	ConfigFilePath string

	// OutputDir is the directory CSV files are written to.
	OutputDir string

	// LogDir, when set, receives a pretty-printed JSON copy of every API
	// response body.
	LogDir string

	// DBDir is the directory of the score history database.
	DBDir string

	// SaveToDB enables storing score snapshots.
	SaveToDB bool

	// Verbose enables debug logging.
	Verbose bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		BaseURL:           DefaultBaseURL,
		Timeout:           DefaultTimeout,
		RequestsPerWindow: DefaultRequestsPerWindow,
		Window:            DefaultWindow,
		RetryAfter:        DefaultRetryAfter,
		MaxRetries:        DefaultMaxRetries,
		HistoryDays:       DefaultHistoryDays,
		Concurrency:       DefaultConcurrency,
		EnvFile:           DefaultEnvFile,
		OutputDir:         DefaultOutputDir,
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
	}
}

// XDGDataDir returns the XDG data directory for vitals.
// On Linux: ~/.local/share/vitals
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for vitals.
// On Linux: ~/.config/vitals
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ValidateAPIKey checks presence and shape of an API key.
func ValidateAPIKey(key string) error {
	if key == "" {
		return ErrMissingAPIKey
	}
	if !apiKeyPattern.MatchString(key) {
		return ErrMalformedAPIKey
	}
	return nil
}

// Validate checks if the configuration is valid.
// The API key is checked first so that credential problems are reported
// before anything else, and always before a request is sent.
func (c *Config) Validate() error {
	if err := ValidateAPIKey(c.APIKey); err != nil {
		return err
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.RequestsPerWindow <= 0 || c.Window <= 0 {
		return ErrInvalidRateLimit
	}

	if c.MaxRetries < 0 {
		return ErrInvalidRetries
	}

	if c.HistoryDays <= 0 {
		return ErrInvalidHistoryDays
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	return nil
}
