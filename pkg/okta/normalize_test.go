package okta_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/mcp-okta-support/okta-go/pkg/okta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(status int, body string, header http.Header) *okta.RawResponse {
	if header == nil {
		header = http.Header{}
	}

	return &okta.RawResponse{StatusCode: status, Header: header, Body: []byte(body)}
}

func TestCheckResponse_StatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		kind   okta.Kind
	}{
		{"unauthorized", http.StatusUnauthorized, okta.KindUnauthorized},
		{"forbidden", http.StatusForbidden, okta.KindForbidden},
		{"not found", http.StatusNotFound, okta.KindNotFound},
		{"conflict", http.StatusConflict, okta.KindConflict},
		{"rate limited", http.StatusTooManyRequests, okta.KindRateLimited},
		{"bad request", http.StatusBadRequest, okta.KindValidation},
		{"unprocessable", http.StatusUnprocessableEntity, okta.KindValidation},
		{"method not allowed", http.StatusMethodNotAllowed, okta.KindValidation},
		{"request timeout", http.StatusRequestTimeout, okta.KindTimeout},
		{"internal error", http.StatusInternalServerError, okta.KindServerError},
		{"bad gateway", http.StatusBadGateway, okta.KindServerError},
		{"unavailable", http.StatusServiceUnavailable, okta.KindServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := okta.CheckResponse(raw(tt.status, "", nil))
			require.Error(t, err)

			var apiErr *okta.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.NotEmpty(t, apiErr.Message)
		})
	}
}

func TestCheckResponse_Success(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusOK, http.StatusCreated, http.StatusNoContent} {
		assert.NoError(t, okta.CheckResponse(raw(status, "", nil)), "status %d", status)
	}
}

func TestCheckResponse_RetryAfterSeconds(t *testing.T) {
	t.Parallel()

	err := okta.CheckResponse(raw(http.StatusTooManyRequests, "", http.Header{"Retry-After": []string{"5"}}))

	assert.True(t, okta.IsRateLimited(err))

	delay, ok := okta.RetryAfterOf(err)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, delay)
}

func TestCheckResponse_RetryAfterFallsBackToReset(t *testing.T) {
	t.Parallel()

	reset := time.Now().Add(30 * time.Second).Unix()
	header := http.Header{}
	header.Set(okta.HeaderRateLimitReset, strconv.FormatInt(reset, 10))

	err := okta.CheckResponse(raw(http.StatusTooManyRequests, "", header))

	delay, ok := okta.RetryAfterOf(err)
	require.True(t, ok)
	assert.InDelta(t, 30*time.Second, delay, float64(2*time.Second))
}

func TestCheckResponse_OktaErrorBody(t *testing.T) {
	t.Parallel()

	body := `{
		"errorCode": "E0000001",
		"errorSummary": "Api validation failed: login",
		"errorLink": "E0000001",
		"errorId": "oaeXYZ",
		"errorCauses": [{"errorSummary": "login: An object with this field already exists"}]
	}`

	err := okta.CheckResponse(raw(http.StatusBadRequest, body, nil))

	var apiErr *okta.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, okta.KindValidation, apiErr.Kind)
	assert.Equal(t, "E0000001", apiErr.ErrorCode)
	assert.Equal(t, "Api validation failed: login", apiErr.Message)
	require.Len(t, apiErr.Causes, 1)
	assert.Contains(t, apiErr.Causes[0].ErrorSummary, "already exists")
	assert.Equal(t, "okta validation (400 E0000001): Api validation failed: login", apiErr.Error())
}

func TestCheckResponse_RedactsCredentials(t *testing.T) {
	t.Parallel()

	body := `{"errorSummary": "Invalid token provided: SSWS 00abcDEF123456"}`

	err := okta.CheckResponse(raw(http.StatusUnauthorized, body, nil))
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "00abcDEF123456")
	assert.Contains(t, err.Error(), "[REDACTED]")
}

func TestCheckResponse_KindMarkers(t *testing.T) {
	t.Parallel()

	err := okta.CheckResponse(raw(http.StatusNotFound, `{"errorSummary":"Not found: Resource not found: 00u1 (User)"}`, nil))

	assert.ErrorIs(t, err, okta.ErrNotFound)
	assert.NotErrorIs(t, err, okta.ErrForbidden)
	assert.True(t, okta.IsNotFound(err))
	assert.False(t, okta.IsNotFound(errors.New("plain")))

	wrapped := fmt.Errorf("getting user: %w", err)
	assert.True(t, okta.IsNotFound(wrapped))
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	type payload struct {
		ID string `json:"id"`
	}

	t.Run("decodes success body", func(t *testing.T) {
		t.Parallel()

		result, err := okta.Normalize[payload](raw(http.StatusOK, `{"id":"00u1"}`, http.Header{"X-Test": []string{"yes"}}))
		require.NoError(t, err)
		assert.Equal(t, "00u1", result.Value.ID)
		assert.Equal(t, http.StatusOK, result.Meta.StatusCode)
		assert.Equal(t, "yes", result.Meta.Header.Get("X-Test"))
	})

	t.Run("malformed body is a validation error", func(t *testing.T) {
		t.Parallel()

		result, err := okta.Normalize[payload](raw(http.StatusOK, `{"id": 42`, nil))
		assert.Nil(t, result)
		assert.True(t, okta.IsValidation(err))
	})

	t.Run("wrong shape is a validation error", func(t *testing.T) {
		t.Parallel()

		_, err := okta.Normalize[[]payload](raw(http.StatusOK, `{"id":"00u1"}`, nil))
		assert.True(t, okta.IsValidation(err))
	})

	t.Run("empty body yields zero value", func(t *testing.T) {
		t.Parallel()

		result, err := okta.Normalize[payload](raw(http.StatusNoContent, "", nil))
		require.NoError(t, err)
		assert.Empty(t, result.Value.ID)
	})

	t.Run("error status is not decoded", func(t *testing.T) {
		t.Parallel()

		_, err := okta.Normalize[payload](raw(http.StatusNotFound, `{"id":"00u1"}`, nil))
		assert.True(t, okta.IsNotFound(err))
	})
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestMapTransportError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, okta.MapTransportError(nil))

	err := okta.MapTransportError(context.Canceled)
	assert.True(t, okta.IsTimeout(err))
	assert.ErrorIs(t, err, context.Canceled)

	err = okta.MapTransportError(fmt.Errorf("send: %w", context.DeadlineExceeded))
	assert.True(t, okta.IsTimeout(err))

	err = okta.MapTransportError(&net.OpError{Op: "dial", Err: timeoutErr{}})
	assert.True(t, okta.IsTimeout(err))

	err = okta.MapTransportError(errors.New("connection refused"))
	assert.True(t, okta.IsNetwork(err))
	assert.True(t, err.(*okta.APIError).Retryable()) //nolint:errorlint,forcetypeassert // constructed above

	existing := okta.InvalidArgument("user_id", "cannot be empty")
	assert.Same(t, existing, okta.MapTransportError(existing))
}

func TestMapTokenExchangeError(t *testing.T) {
	t.Parallel()

	err := okta.MapTokenExchangeError(http.StatusUnauthorized,
		[]byte(`{"error":"invalid_client","error_description":"Client authentication failed."}`), nil)

	var apiErr *okta.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, okta.KindUnauthorized, apiErr.Kind)
	assert.Equal(t, "invalid_client", apiErr.ErrorCode)
	assert.Contains(t, apiErr.Message, "Client authentication failed.")

	assert.True(t, okta.IsUnauthorized(okta.MapTokenExchangeError(http.StatusBadRequest, nil, nil)))
	assert.True(t, okta.IsServerError(okta.MapTokenExchangeError(http.StatusBadGateway, nil, nil)))
	assert.True(t, okta.IsNetwork(okta.MapTokenExchangeError(0, nil, errors.New("dial tcp: refused"))))
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		secret string
	}{
		{"ssws header", "Authorization: SSWS 00aBcD-eFg_123", "00aBcD-eFg_123"},
		{"bearer header", "Bearer eyJhbGciOi.eyJzdWIi.c2lnbmF0dXJl", "eyJhbGciOi"},
		{"form secret", "grant_type=client_credentials&client_secret=s3cr3t&scope=x", "s3cr3t"},
		{"json secret", `{"access_token": "abc.def.ghi", "token_type":"Bearer"}`, "abc.def.ghi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := okta.Sanitize(tt.input)
			assert.NotContains(t, out, tt.secret)
			assert.Contains(t, out, "[REDACTED]")
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	delay, ok := okta.ParseRetryAfter(http.Header{"Retry-After": []string{"12"}}, now)
	assert.True(t, ok)
	assert.Equal(t, 12*time.Second, delay)

	date := now.Add(90 * time.Second).Format(http.TimeFormat)
	delay, ok = okta.ParseRetryAfter(http.Header{"Retry-After": []string{date}}, now)
	assert.True(t, ok)
	assert.Equal(t, 90*time.Second, delay)

	_, ok = okta.ParseRetryAfter(http.Header{"Retry-After": []string{"soon"}}, now)
	assert.False(t, ok)

	_, ok = okta.ParseRetryAfter(nil, now)
	assert.False(t, ok)
}

func TestRequireIdentifier(t *testing.T) {
	t.Parallel()

	assert.NoError(t, okta.RequireIdentifier("user_id", "00u1"))
	assert.True(t, okta.IsValidation(okta.RequireIdentifier("user_id", "")))
	assert.True(t, okta.IsValidation(okta.RequireIdentifier("user_id", "   ")))
}
