package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() while the message stays human-readable.
var (
	// ErrMissingAPIKey is returned when PAGEVITALS_API_KEY is not set in the
	// process environment or the env file.
	ErrMissingAPIKey = errors.New("PAGEVITALS_API_KEY is not set (add it to your .env file or export it)")

	// ErrMalformedAPIKey is returned when the API key does not look like a
	// PageVitals key. It is reported before any request is sent.
	ErrMalformedAPIKey = errors.New("PAGEVITALS_API_KEY is malformed: expected 16-128 characters of letters, digits, '.', '_' or '-'")

	// ErrInvalidBaseURL is returned when the API base URL is not an absolute
	// http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http or https URL")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRateLimit is returned when the request budget or its window
	// is not positive.
	ErrInvalidRateLimit = errors.New("invalid rate limit: requests and window must be positive")

	// ErrInvalidRetries is returned when the retry count is negative.
	ErrInvalidRetries = errors.New("invalid max retries: must be non-negative")

	// ErrInvalidHistoryDays is returned when the history range is not positive.
	ErrInvalidHistoryDays = errors.New("invalid history days: must be positive")

	// ErrInvalidConcurrency is returned when the number of concurrent
	// website fetches is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrNoWebsites is returned when no PAGEVITALS_WEBSITE_* variables are
	// configured.
	ErrNoWebsites = errors.New("no website IDs found: set PAGEVITALS_WEBSITE_<NAME> variables or run 'vitals websites' first")
)
