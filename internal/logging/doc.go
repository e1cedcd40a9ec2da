// Package logging adapts log/slog to the okta.Logger interface and provides
// the redaction helpers used wherever request data reaches a log line.
//
// Authorization, Cookie and Set-Cookie headers are never logged verbatim, and
// string fields pass through okta.Sanitize, so API tokens, bearer tokens and
// client secrets cannot leak through debug output.
package logging
