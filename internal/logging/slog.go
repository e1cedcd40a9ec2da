package logging

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/mcp-okta-support/okta-go/pkg/okta"
)

// Common log field keys for consistent naming across the codebase.
const (
	KeyMethod     = "method"
	KeyURL        = "url"
	KeyStatus     = "status"
	KeyBucket     = "bucket"
	KeyAttempt    = "attempt"
	KeyDelay      = "delay"
	KeyDuration   = "duration"
	KeyError      = "error"
	KeyErrorKind  = "error_kind"
	KeyOperation  = "operation"
	KeyHeaders    = "headers"
	KeyRemaining  = "remaining"
	KeyResetAt    = "reset_at"
	KeyExpiresAt  = "expires_at"
	KeyIdentifier = "identifier"
)

var sensitiveHeaders = map[string]bool{
	"Authorization": true,
	"Cookie":        true,
	"Set-Cookie":    true,
}

// SlogAdapter implements okta.Logger on top of log/slog.
type SlogAdapter struct {
	logger *slog.Logger
}

var _ okta.Logger = (*SlogAdapter)(nil)

// NewSlogAdapter wraps logger. A nil logger uses slog.Default().
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}

	return &SlogAdapter{logger: logger}
}

// Logger returns the underlying slog.Logger.
func (a *SlogAdapter) Logger() *slog.Logger {
	return a.logger
}

// Debug implements okta.Logger.
func (a *SlogAdapter) Debug(msg string, fields map[string]interface{}) {
	a.log(slog.LevelDebug, msg, fields)
}

// Info implements okta.Logger.
func (a *SlogAdapter) Info(msg string, fields map[string]interface{}) {
	a.log(slog.LevelInfo, msg, fields)
}

// Warn implements okta.Logger.
func (a *SlogAdapter) Warn(msg string, fields map[string]interface{}) {
	a.log(slog.LevelWarn, msg, fields)
}

// Error implements okta.Logger.
func (a *SlogAdapter) Error(msg string, fields map[string]interface{}) {
	a.log(slog.LevelError, msg, fields)
}

func (a *SlogAdapter) log(level slog.Level, msg string, fields map[string]interface{}) {
	ctx := context.Background()
	if !a.logger.Enabled(ctx, level) {
		return
	}

	a.logger.LogAttrs(ctx, level, msg, Attrs(fields)...)
}

// Attrs converts a field map to slog attributes in key order. String values
// and errors pass through the credential sanitizer.
func Attrs(fields map[string]interface{}) []slog.Attr {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys))

	for _, key := range keys {
		switch value := fields[key].(type) {
		case string:
			attrs = append(attrs, slog.String(key, okta.Sanitize(value)))
		case error:
			attrs = append(attrs, slog.String(key, okta.Sanitize(value.Error())))
		default:
			attrs = append(attrs, slog.Any(key, value))
		}
	}

	return attrs
}

// RedactHeaders returns a flattened copy of header with credential-bearing
// values replaced.
func RedactHeaders(header http.Header) map[string]string {
	out := make(map[string]string, len(header))

	for key, values := range header {
		canonical := http.CanonicalHeaderKey(key)
		if sensitiveHeaders[canonical] {
			out[canonical] = RedactAuthorization(strings.Join(values, ", "))

			continue
		}

		out[canonical] = okta.Sanitize(strings.Join(values, ", "))
	}

	return out
}

// RedactAuthorization keeps the scheme of an Authorization value and drops
// the credential.
func RedactAuthorization(value string) string {
	scheme, _, found := strings.Cut(strings.TrimSpace(value), " ")
	if !found || scheme == "" {
		return "[REDACTED]"
	}

	return scheme + " [REDACTED]"
}

// Err returns a sanitized error field value.
func Err(err error) string {
	if err == nil {
		return ""
	}

	return okta.Sanitize(err.Error())
}

// Nop is an okta.Logger that discards everything.
type Nop struct{}

// Debug implements okta.Logger.
func (Nop) Debug(string, map[string]interface{}) {}

// Info implements okta.Logger.
func (Nop) Info(string, map[string]interface{}) {}

// Warn implements okta.Logger.
func (Nop) Warn(string, map[string]interface{}) {}

// Error implements okta.Logger.
func (Nop) Error(string, map[string]interface{}) {}

// OrNop returns logger, or Nop when it is nil.
func OrNop(logger okta.Logger) okta.Logger {
	if logger == nil {
		return Nop{}
	}

	return logger
}
