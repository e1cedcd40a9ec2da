package okta

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an APIError.
type Kind int

// Error kinds. The zero value is never produced by the mapper.
const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
	KindValidation
	KindServerError
	KindNetwork
	KindTimeout
)

var kindNames = map[Kind]string{
	KindUnknown:      "unknown",
	KindUnauthorized: "unauthorized",
	KindForbidden:    "forbidden",
	KindNotFound:     "not_found",
	KindConflict:     "conflict",
	KindRateLimited:  "rate_limited",
	KindValidation:   "validation",
	KindServerError:  "server_error",
	KindNetwork:      "network",
	KindTimeout:      "timeout",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// Retryable reports whether failures of this kind are transient.
func (k Kind) Retryable() bool {
	switch k {
	case KindNetwork, KindTimeout, KindServerError, KindRateLimited:
		return true
	default:
		return false
	}
}

// ErrorCause is a single entry of an Okta errorCauses array.
type ErrorCause struct {
	ErrorSummary string `json:"errorSummary" yaml:"errorSummary"`
}

// APIError is the failure variant of every core operation. Values are produced
// by the response normalizer only; callers inspect them with errors.As or the
// Is* helpers.
type APIError struct {
	Kind       Kind
	StatusCode int
	Message    string
	ErrorCode  string
	Causes     []ErrorCause
	// RetryAfter is set for KindRateLimited when the server supplied a hint.
	RetryAfter time.Duration
	// Err is the underlying transport or context error for KindNetwork and KindTimeout.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}

	switch {
	case e.ErrorCode != "" && e.StatusCode > 0:
		return fmt.Sprintf("okta %s (%d %s): %s", e.Kind, e.StatusCode, e.ErrorCode, msg)
	case e.StatusCode > 0:
		return fmt.Sprintf("okta %s (%d): %s", e.Kind, e.StatusCode, msg)
	default:
		return fmt.Sprintf("okta %s: %s", e.Kind, msg)
	}
}

// Unwrap returns the underlying transport error, if any.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches another *APIError of the same kind, so the Err* kind markers
// below work with errors.Is.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}

	return t.Kind == e.Kind && t.StatusCode == 0 && t.Message == ""
}

// Retryable reports whether the error belongs to a transient class.
func (e *APIError) Retryable() bool {
	return e != nil && e.Kind.Retryable()
}

// Kind markers for errors.Is.
var (
	ErrUnauthorized = &APIError{Kind: KindUnauthorized}
	ErrForbidden    = &APIError{Kind: KindForbidden}
	ErrNotFound     = &APIError{Kind: KindNotFound}
	ErrConflict     = &APIError{Kind: KindConflict}
	ErrRateLimited  = &APIError{Kind: KindRateLimited}
	ErrValidation   = &APIError{Kind: KindValidation}
	ErrServerError  = &APIError{Kind: KindServerError}
	ErrNetwork      = &APIError{Kind: KindNetwork}
	ErrTimeout      = &APIError{Kind: KindTimeout}
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired        = errors.New("config is required")
	ErrOrgURLRequired        = errors.New("okta org URL is required")
	ErrOrgURLNotHTTPS        = errors.New("okta org URL must start with https://")
	ErrOrgURLInvalidDomain   = errors.New("okta org URL must be an okta.com, oktapreview.com or okta-emea.com domain")
	ErrCredentialsRequired   = errors.New("either an API token or both client ID and client secret must be provided")
	ErrUnsupportedCredential = errors.New("unsupported credential type")
	ErrUnsupportedOperation  = errors.New("unsupported operation")
	ErrNoMorePages           = errors.New("no more pages")
	ErrInvalidSortOrder      = errors.New("sort order must be ASCENDING or DESCENDING")
	ErrInvalidLimit          = errors.New("limit must be between 1 and 1000")
	ErrWaitExceedsDeadline   = errors.New("rate limit wait would exceed the context deadline")
)

// KindOf returns the Kind of err, or KindUnknown if err is not an APIError.
func KindOf(err error) Kind {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}

	return KindUnknown
}

// IsUnauthorized checks if the error is an authentication failure.
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }

// IsForbidden checks if the error is a permission failure.
func IsForbidden(err error) bool { return KindOf(err) == KindForbidden }

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsConflict checks if the error is a conflict error.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsRateLimited checks if the error is a rate-limit error.
func IsRateLimited(err error) bool { return KindOf(err) == KindRateLimited }

// IsValidation checks if the error is an input or decode validation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsServerError checks if the error is a server-side failure.
func IsServerError(err error) bool { return KindOf(err) == KindServerError }

// IsNetwork checks if the error is a transport-level failure.
func IsNetwork(err error) bool { return KindOf(err) == KindNetwork }

// IsTimeout checks if the error is a timeout or cancellation.
func IsTimeout(err error) bool { return KindOf(err) == KindTimeout }

// RetryAfterOf returns the server-provided retry hint of a rate-limit error.
func RetryAfterOf(err error) (time.Duration, bool) {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) && apiErr.Kind == KindRateLimited && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter, true
	}

	return 0, false
}
