package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	oktahttp "github.com/mcp-okta-support/okta-go/internal/http"
	"github.com/mcp-okta-support/okta-go/pkg/okta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.record("debug", msg, fields) }

func (l *MockLogger) Info(msg string, fields map[string]interface{}) { l.record("info", msg, fields) }

func (l *MockLogger) Warn(msg string, fields map[string]interface{}) { l.record("warn", msg, fields) }

func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.record("error", msg, fields) }

var staticToken = okta.AccessToken{Value: "00api-token", Scheme: okta.SchemeSSWS}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()

	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/api/v1/users/00u1", request.URL.Path)
			assert.Equal(t, http.MethodGet, request.Method)
			assert.Equal(t, "SSWS 00api-token", request.Header.Get("Authorization"))
			assert.Equal(t, "application/json", request.Header.Get("Accept"))
			assert.Equal(t, "okta-support/1.0.0", request.Header.Get("User-Agent"))
			assert.Empty(t, request.Header.Get("Content-Type"))

			_ = json.NewEncoder(writer).Encode(map[string]string{"id": "00u1", "status": "ACTIVE"})
		}))
		defer server.Close()

		client := oktahttp.NewClient(server.URL)

		resp, err := client.Do(context.Background(), okta.NewRequest(http.MethodGet, "/users/00u1", okta.BucketUsers), staticToken)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result map[string]string

		require.NoError(t, json.Unmarshal(resp.Body, &result))
		assert.Equal(t, "00u1", result["id"])
	})

	t.Run("bearer token", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "Bearer eyJ.access", request.Header.Get("Authorization"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := oktahttp.NewClient(server.URL + "/")
		token := okta.AccessToken{Value: "eyJ.access", Scheme: okta.SchemeBearer, ExpiresAt: time.Now().Add(time.Hour)}

		_, err := client.Do(context.Background(), okta.NewRequest(http.MethodGet, "/apps", okta.BucketApps), token)
		require.NoError(t, err)
	})

	t.Run("request with query parameters keeps their order", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/api/v1/logs", request.URL.Path)
			assert.Equal(t, `filter=eventType+eq+%22user.session.start%22&sortOrder=DESCENDING&limit=100`, request.URL.RawQuery)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := oktahttp.NewClient(server.URL)
		spec := okta.NewRequest(http.MethodGet, "/logs", okta.BucketLogs).
			WithQuery("filter", `eventType eq "user.session.start"`).
			WithQuery("sortOrder", "DESCENDING").
			WithQuery("limit", "100")

		resp, err := client.Do(context.Background(), spec, staticToken)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("request with body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodPost, request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

			var body map[string]map[string]string

			_ = json.NewDecoder(request.Body).Decode(&body)
			assert.Equal(t, "Ada", body["profile"]["firstName"])

			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := oktahttp.NewClient(server.URL)
		spec := okta.NewRequest(http.MethodPost, "/users/00u1", okta.BucketUsers).
			WithBody(map[string]interface{}{"profile": map[string]string{"firstName": "Ada"}})

		resp, err := client.Do(context.Background(), spec, staticToken)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("error status is returned, not mapped", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
			_, _ = fmt.Fprint(writer, `{"errorCode":"E0000007","errorSummary":"Not found: Resource not found: 00ux (User)"}`)
		}))
		defer server.Close()

		client := oktahttp.NewClient(server.URL)

		resp, err := client.Do(context.Background(), okta.NewRequest(http.MethodGet, "/users/00ux", okta.BucketUsers), staticToken)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		mapped := okta.CheckResponse(resp)
		assert.True(t, okta.IsNotFound(mapped))
	})

	t.Run("unencodable body is a validation error", func(t *testing.T) {
		t.Parallel()

		client := oktahttp.NewClient("https://acme.okta.com")
		spec := okta.NewRequest(http.MethodPost, "/users/00u1", okta.BucketUsers).WithBody(map[string]interface{}{"bad": make(chan int)})

		_, err := client.Do(context.Background(), spec, staticToken)
		require.Error(t, err)
		assert.True(t, okta.IsValidation(err))
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(writer).Encode(map[string]string{"result": "ok"})
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := oktahttp.NewClient(server.URL, oktahttp.WithLogger(logger), oktahttp.WithDebug(true))

		_, err := client.Do(context.Background(), okta.NewRequest(http.MethodGet, "/users", okta.BucketUsers), staticToken)
		require.NoError(t, err)

		// Should have logged request and response
		require.Len(t, logger.logs, 2)
		assert.Equal(t, "HTTP Request", logger.logs[0]["msg"])
		assert.Equal(t, "HTTP Response", logger.logs[1]["msg"])

		fields, ok := logger.logs[0]["fields"].(map[string]interface{})
		require.True(t, ok)

		headers, ok := fields["headers"].(map[string]string)
		require.True(t, ok)
		assert.Equal(t, "SSWS [REDACTED]", headers["Authorization"])
		assert.NotContains(t, fmt.Sprint(logger.logs), "00api-token")
	})

	t.Run("custom user agent", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "support-bot/2.0", request.Header.Get("User-Agent"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := oktahttp.NewClient(server.URL, oktahttp.WithUserAgent("support-bot/2.0"))

		_, err := client.Do(context.Background(), okta.NewRequest(http.MethodGet, "/users", okta.BucketUsers), staticToken)
		require.NoError(t, err)
	})
}

func TestClient_TransportFailures(t *testing.T) {
	t.Parallel()

	t.Run("connection refused is a network error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		client := oktahttp.NewClient(server.URL)
		server.Close()

		_, err := client.Do(context.Background(), okta.NewRequest(http.MethodGet, "/users", okta.BucketUsers), staticToken)
		require.Error(t, err)
		assert.True(t, okta.IsNetwork(err))
	})

	t.Run("attempt timeout is a timeout error", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			select {
			case <-release:
			case <-request.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		client := oktahttp.NewClient(server.URL, oktahttp.WithTimeout(30*time.Millisecond))

		_, err := client.Do(context.Background(), okta.NewRequest(http.MethodGet, "/users", okta.BucketUsers), staticToken)
		require.Error(t, err)
		assert.True(t, okta.IsTimeout(err))
	})

	t.Run("timeout leaves a caller's client untouched", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			select {
			case <-release:
			case <-request.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		owned := &http.Client{Timeout: time.Minute}
		client := oktahttp.NewClient(server.URL,
			oktahttp.WithHTTPClient(owned),
			oktahttp.WithTimeout(30*time.Millisecond))

		_, err := client.Do(context.Background(), okta.NewRequest(http.MethodGet, "/users", okta.BucketUsers), staticToken)
		require.Error(t, err)
		assert.True(t, okta.IsTimeout(err))
		assert.Equal(t, time.Minute, owned.Timeout)
	})

	t.Run("caller cancellation is a timeout error", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			select {
			case <-release:
			case <-request.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		client := oktahttp.NewClient(server.URL)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := client.Do(ctx, okta.NewRequest(http.MethodGet, "/users", okta.BucketUsers), staticToken)

		require.Error(t, err)
		assert.True(t, okta.IsTimeout(err))
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestClient_URL(t *testing.T) {
	t.Parallel()

	client := oktahttp.NewClient("https://acme.okta.com/")

	assert.Equal(t, "https://acme.okta.com/api/v1", client.BaseURL())
	assert.Equal(t, "https://acme.okta.com/api/v1/users?limit=200&after=00u9",
		client.URL(okta.NewRequest(http.MethodGet, "/users", okta.BucketUsers).WithQuery("limit", "200").WithQuery("after", "00u9")))
}
