package okta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Okta response headers consumed by the core.
const (
	HeaderRetryAfter         = "Retry-After"
	HeaderRateLimitLimit     = "X-Rate-Limit-Limit"
	HeaderRateLimitRemaining = "X-Rate-Limit-Remaining"
	HeaderRateLimitReset     = "X-Rate-Limit-Reset"
	HeaderLink               = "Link"
)

const redacted = "[REDACTED]"

var (
	authSchemePattern = regexp.MustCompile(`(?i)\b(SSWS|Bearer|Basic)\s+[A-Za-z0-9\-._~+/]+=*`)
	formSecretPattern = regexp.MustCompile(`(?i)\b(client_secret|api_token|access_token|refresh_token|password|token)=([^&\s"]+)`)
	jsonSecretPattern = regexp.MustCompile(`(?i)"(client_secret|api_token|access_token|refresh_token|password|token)"\s*:\s*"[^"]*"`)
)

// Sanitize removes credential material from s.
func Sanitize(s string) string {
	s = authSchemePattern.ReplaceAllString(s, "$1 "+redacted)
	s = formSecretPattern.ReplaceAllString(s, "$1="+redacted)
	s = jsonSecretPattern.ReplaceAllString(s, `"$1":"`+redacted+`"`)

	return s
}

// errorBody covers both the management API error shape and the OAuth error shape.
type errorBody struct {
	ErrorCode        string       `json:"errorCode"`
	ErrorSummary     string       `json:"errorSummary"`
	ErrorCauses      []ErrorCause `json:"errorCauses"`
	Error            string       `json:"error"`
	ErrorDescription string       `json:"error_description"`
}

func parseErrorBody(status int, body []byte) (string, string, []ErrorCause) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return http.StatusText(status), "", nil
	}

	var parsed errorBody

	err := json.Unmarshal(body, &parsed)
	if err != nil {
		return Sanitize(truncate(trimmed, 512)), "", nil
	}

	code := parsed.ErrorCode
	msg := parsed.ErrorSummary

	if code == "" {
		code = parsed.Error
	}

	if msg == "" {
		msg = parsed.ErrorDescription
	}

	if msg == "" {
		msg = http.StatusText(status)
	}

	causes := make([]ErrorCause, 0, len(parsed.ErrorCauses))
	for _, cause := range parsed.ErrorCauses {
		causes = append(causes, ErrorCause{ErrorSummary: Sanitize(cause.ErrorSummary)})
	}

	return Sanitize(msg), code, causes
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}

// ParseRetryAfter reads the Retry-After header (delta seconds or HTTP date).
func ParseRetryAfter(header http.Header, now time.Time) (time.Duration, bool) {
	if header == nil {
		return 0, false
	}

	value := strings.TrimSpace(header.Get(HeaderRetryAfter))
	if value == "" {
		return 0, false
	}

	seconds, err := strconv.Atoi(value)
	if err == nil {
		if seconds < 0 {
			return 0, false
		}

		return time.Duration(seconds) * time.Second, true
	}

	when, err := http.ParseTime(value)
	if err != nil {
		return 0, false
	}

	delay := when.Sub(now)
	if delay < 0 {
		delay = 0
	}

	return delay, true
}

// ParseRateLimitReset reads X-Rate-Limit-Reset (UTC epoch seconds).
func ParseRateLimitReset(header http.Header) (time.Time, bool) {
	if header == nil {
		return time.Time{}, false
	}

	value := strings.TrimSpace(header.Get(HeaderRateLimitReset))
	if value == "" {
		return time.Time{}, false
	}

	epoch, err := strconv.ParseInt(value, 10, 64)
	if err != nil || epoch <= 0 {
		return time.Time{}, false
	}

	return time.Unix(epoch, 0), true
}

// retryAfterHint prefers Retry-After and falls back to the bucket reset time.
func retryAfterHint(header http.Header, now time.Time) time.Duration {
	if delay, ok := ParseRetryAfter(header, now); ok {
		return delay
	}

	if reset, ok := ParseRateLimitReset(header); ok && reset.After(now) {
		return reset.Sub(now)
	}

	return 0
}

// CheckResponse maps a raw response to nil (2xx) or a typed *APIError.
func CheckResponse(raw *RawResponse) error {
	if raw == nil {
		return &APIError{Kind: KindNetwork, Message: "no response received"}
	}

	if raw.StatusCode >= 200 && raw.StatusCode < 300 {
		return nil
	}

	msg, code, causes := parseErrorBody(raw.StatusCode, raw.Body)
	apiErr := &APIError{
		StatusCode: raw.StatusCode,
		Message:    msg,
		ErrorCode:  code,
		Causes:     causes,
	}

	switch {
	case raw.StatusCode == http.StatusUnauthorized:
		apiErr.Kind = KindUnauthorized
	case raw.StatusCode == http.StatusForbidden:
		apiErr.Kind = KindForbidden
	case raw.StatusCode == http.StatusNotFound:
		apiErr.Kind = KindNotFound
	case raw.StatusCode == http.StatusConflict:
		apiErr.Kind = KindConflict
	case raw.StatusCode == http.StatusTooManyRequests:
		apiErr.Kind = KindRateLimited
		apiErr.RetryAfter = retryAfterHint(raw.Header, time.Now())
	case raw.StatusCode == http.StatusRequestTimeout:
		apiErr.Kind = KindTimeout
	case raw.StatusCode >= http.StatusInternalServerError:
		apiErr.Kind = KindServerError
	default:
		// 400, 422 and the remaining 4xx codes describe a request the server refused to process.
		apiErr.Kind = KindValidation
	}

	return apiErr
}

// Decode decodes a 2xx response body into T. An empty body yields the zero
// value; a malformed body yields a KindValidation error.
func Decode[T any](raw *RawResponse) (*Result[T], error) {
	result := &Result[T]{
		Meta: ResponseMeta{StatusCode: raw.StatusCode, Header: raw.Header},
	}

	if len(strings.TrimSpace(string(raw.Body))) == 0 {
		return result, nil
	}

	err := json.Unmarshal(raw.Body, &result.Value)
	if err != nil {
		return nil, &APIError{
			Kind:       KindValidation,
			StatusCode: raw.StatusCode,
			Message:    fmt.Sprintf("response body does not match expected shape: %s", Sanitize(err.Error())),
		}
	}

	return result, nil
}

// Normalize combines CheckResponse and Decode.
func Normalize[T any](raw *RawResponse) (*Result[T], error) {
	err := CheckResponse(raw)
	if err != nil {
		return nil, err
	}

	return Decode[T](raw)
}

// MapTransportError classifies a failure that happened before a response was
// received. Context cancellation and deadlines map to KindTimeout.
func MapTransportError(err error) error {
	if err == nil {
		return nil
	}

	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return err
	}

	if isTimeout(err) {
		return &APIError{Kind: KindTimeout, Message: Sanitize(err.Error()), Err: err}
	}

	return &APIError{Kind: KindNetwork, Message: Sanitize(err.Error()), Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

// MapTokenExchangeError classifies a failed credential exchange. status is the
// token endpoint's HTTP status, or 0 when no response was received.
func MapTokenExchangeError(status int, body []byte, err error) error {
	if status == 0 {
		return MapTransportError(err)
	}

	msg, code, causes := parseErrorBody(status, body)
	apiErr := &APIError{
		StatusCode: status,
		Message:    "credential exchange rejected: " + msg,
		ErrorCode:  code,
		Causes:     causes,
	}

	switch {
	case status == http.StatusTooManyRequests:
		apiErr.Kind = KindRateLimited
		apiErr.Message = msg
	case status >= http.StatusInternalServerError:
		apiErr.Kind = KindServerError
		apiErr.Message = msg
	default:
		apiErr.Kind = KindUnauthorized
	}

	return apiErr
}

// InvalidArgument reports a request rejected before it was sent.
func InvalidArgument(field, reason string) error {
	return &APIError{
		Kind:    KindValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
	}
}

func invalidWith(field string, err error) error {
	return &APIError{
		Kind:    KindValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, err),
		Err:     err,
	}
}

// RequireIdentifier rejects empty or blank identifiers.
func RequireIdentifier(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return InvalidArgument(field, "cannot be empty")
	}

	return nil
}
