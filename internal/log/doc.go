// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// The SecureHandler masks:
//   - attributes whose key names a credential (authorization, api_key, token)
//   - values shaped like bearer or basic credentials
//   - any registered secret, wherever it appears inside a string value
//
// Registering the configured PageVitals API key as a secret keeps it out of
// logs even when it is embedded in an error message or a dumped request.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose, cfg.APIKey)
//	slog.SetDefault(logger)
//
//	logger.Debug("request sent", "authorization", "Bearer ...") // masked
package log
