package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

const testKey = "pv_live_0123456789abcdef"

// TestSecureHandler_SanitizesSensitiveKeys tests that sensitive keys are sanitized.
func TestSecureHandler_SanitizesSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{name: "authorization header", key: "authorization", value: "Bearer abc", wantMask: true},
		{name: "Authorization uppercase", key: "Authorization", value: "something", wantMask: true},
		{name: "api_key", key: "api_key", value: "plain", wantMask: true},
		{name: "env var name as key", key: "PAGEVITALS_API_KEY", value: "plain", wantMask: true},
		{name: "token keyword inside key", key: "refresh_token", value: "plain", wantMask: true},
		{name: "website id is not sensitive", key: "website_id", value: "site123", wantMask: false},
		{name: "env key is not sensitive", key: "env_key", value: "PAGEVITALS_WEBSITE_SHOP", wantMask: false},
		{name: "url is not sensitive", key: "url", value: "https://example.com/", wantMask: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, true)
			logger.Info("test", tt.key, tt.value)

			output := buf.String()
			hasMask := strings.Contains(output, MaskValue)
			if hasMask != tt.wantMask {
				t.Errorf("expected mask=%v, got output: %s", tt.wantMask, output)
			}
			if tt.wantMask && strings.Contains(output, tt.value) {
				t.Errorf("value %q leaked: %s", tt.value, output)
			}
		})
	}
}

// TestSecureHandler_SanitizesSensitivePatterns tests value pattern matching.
func TestSecureHandler_SanitizesSensitivePatterns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    string
		wantMask bool
	}{
		{name: "bearer value", value: "Bearer abcdef123", wantMask: true},
		{name: "basic auth value", value: "Basic dXNlcjpwYXNz", wantMask: true},
		{name: "jwt", value: "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.abc", wantMask: true},
		{name: "plain domain", value: "example.com", wantMask: false},
		{name: "score", value: "0.93", wantMask: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, true)
			logger.Info("test", "value", tt.value)

			if got := strings.Contains(buf.String(), MaskValue); got != tt.wantMask {
				t.Errorf("expected mask=%v, got output: %s", tt.wantMask, buf.String())
			}
		})
	}
}

// TestSecureHandler_RegisteredSecrets tests that configured secrets never reach the output.
func TestSecureHandler_RegisteredSecrets(t *testing.T) {
	t.Parallel()

	t.Run("secret inside a string attribute", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, true, testKey)
		logger.Debug("dump", "line", "GET /websites key="+testKey)

		if strings.Contains(buf.String(), testKey) {
			t.Errorf("secret leaked: %s", buf.String())
		}
	})

	t.Run("secret inside an error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, true, testKey)
		logger.Error("failed", "error", errors.New("rejected key "+testKey))

		out := buf.String()
		if strings.Contains(out, testKey) {
			t.Errorf("secret leaked: %s", out)
		}
		if !strings.Contains(out, "rejected key") {
			t.Errorf("expected the rest of the error preserved: %s", out)
		}
	})

	t.Run("secret inside the message", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, true, testKey)
		logger.Warn("using " + testKey)

		if strings.Contains(buf.String(), testKey) {
			t.Errorf("secret leaked: %s", buf.String())
		}
	})

	t.Run("empty secrets are ignored", func(t *testing.T) {
		t.Parallel()

		h := NewSecureHandler(slog.NewTextHandler(&bytes.Buffer{}, nil), "", "")
		if got := h.Redact("unchanged"); got != "unchanged" {
			t.Errorf("expected unchanged, got %q", got)
		}
	})
}

func TestSecureHandler_Redact(t *testing.T) {
	t.Parallel()

	h := NewSecureHandler(slog.NewTextHandler(&bytes.Buffer{}, nil), testKey)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "header line", in: "Authorization: Bearer abc.def", want: "Authorization: Bearer " + MaskValue},
		{name: "registered secret", in: "key=" + testKey, want: "key=" + MaskValue},
		{name: "nothing sensitive", in: "GET /websites 200", want: "GET /websites 200"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := h.Redact(tt.in); got != tt.want {
				t.Errorf("Redact(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestSecureHandler_LogLevels tests that verbose controls the minimum level.
func TestSecureHandler_LogLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		verbose    bool
		logFunc    func(*slog.Logger)
		wantOutput bool
	}{
		{name: "debug shown when verbose", verbose: true, logFunc: func(l *slog.Logger) { l.Debug("m") }, wantOutput: true},
		{name: "debug hidden when not verbose", verbose: false, logFunc: func(l *slog.Logger) { l.Debug("m") }, wantOutput: false},
		{name: "info hidden when not verbose", verbose: false, logFunc: func(l *slog.Logger) { l.Info("m") }, wantOutput: false},
		{name: "warn shown when not verbose", verbose: false, logFunc: func(l *slog.Logger) { l.Warn("m") }, wantOutput: true},
		{name: "error shown when not verbose", verbose: false, logFunc: func(l *slog.Logger) { l.Error("m") }, wantOutput: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			tt.logFunc(NewSecureLogger(&buf, tt.verbose))
			if got := buf.Len() > 0; got != tt.wantOutput {
				t.Errorf("expected output=%v, got %q", tt.wantOutput, buf.String())
			}
		})
	}
}

// TestSecureHandler_WithAttrs tests that pre-bound attributes are sanitized.
func TestSecureHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true, testKey).With("api_key", testKey, "website", "shop")
	logger.Info("test")

	out := buf.String()
	if strings.Contains(out, testKey) {
		t.Errorf("secret leaked through WithAttrs: %s", out)
	}
	if !strings.Contains(out, "website=shop") {
		t.Errorf("expected non-sensitive attr preserved: %s", out)
	}
}

// TestSecureHandler_WithGroup tests that grouped attributes are sanitized.
func TestSecureHandler_WithGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true, testKey).WithGroup("request")
	logger.Info("test", slog.Group("headers", slog.String("Authorization", "Bearer "+testKey)))

	if strings.Contains(buf.String(), testKey) {
		t.Errorf("secret leaked through group: %s", buf.String())
	}
}

// TestNewSecureJSONLogger tests JSON logger creation.
func TestNewSecureJSONLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureJSONLogger(&buf, true, testKey)
	logger.Info("test", "authorization", "Bearer "+testKey, "website", "shop")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON, got %q: %v", buf.String(), err)
	}
	if entry["authorization"] != MaskValue {
		t.Errorf("expected masked authorization, got %v", entry["authorization"])
	}
	if entry["website"] != "shop" {
		t.Errorf("expected website preserved, got %v", entry["website"])
	}
}

// TestNewSecureHandler_NilHandler tests that a nil handler falls back to the default.
func TestNewSecureHandler_NilHandler(t *testing.T) {
	t.Parallel()

	handler := NewSecureHandler(nil)
	if handler == nil || handler.handler == nil {
		t.Fatal("expected a usable handler")
	}
}
