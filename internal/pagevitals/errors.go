package pagevitals

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors matched by APIError.Is.
var (
	// ErrUnauthorized is matched by 401 and 403 responses.
	ErrUnauthorized = errors.New("API key rejected by PageVitals")

	// ErrNotFound is matched by 404 responses, usually an unknown website ID.
	ErrNotFound = errors.New("resource not found")

	// ErrRateLimited is matched by 429 responses that survived all retries.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// maxErrorBody bounds the response body kept in an APIError.
const maxErrorBody = 512

// APIError is returned for any non-2xx response.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func newAPIError(method, url string, status int, body []byte) *APIError {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return &APIError{Method: method, URL: url, StatusCode: status, Body: text}
}

// Error implements error.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += " - " + e.Body
	}
	return msg
}

// Is lets callers test for the sentinel errors with errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}
