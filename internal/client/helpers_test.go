package client_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mcp-okta-support/okta-go/internal/auth"
	"github.com/mcp-okta-support/okta-go/internal/client"
	oktahttp "github.com/mcp-okta-support/okta-go/internal/http"
	"github.com/mcp-okta-support/okta-go/internal/ratelimit"
	"github.com/mcp-okta-support/okta-go/internal/retry"
	"github.com/mcp-okta-support/okta-go/pkg/okta"
	"github.com/stretchr/testify/assert"
)

const testToken = "00test-api-token"

// recordedRequest is what the fake org saw.
type recordedRequest struct {
	Method  string
	Path    string
	Escaped string
	Query   string
	Body    map[string]interface{}
	At      time.Time
}

// fakeOrg is an httptest server standing in for an Okta org. Handlers are
// keyed by "METHOD /path" relative to /api/v1.
type fakeOrg struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
	handlers map[string]http.HandlerFunc
}

func newFakeOrg(t *testing.T) *fakeOrg {
	t.Helper()

	org := &fakeOrg{handlers: make(map[string]http.HandlerFunc)}

	org.Server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "SSWS "+testToken, request.Header.Get("Authorization"))

		path := request.URL.Path[len("/api/v1"):]

		var body map[string]interface{}
		if request.Body != nil {
			_ = json.NewDecoder(request.Body).Decode(&body)
		}

		org.mu.Lock()
		org.requests = append(org.requests, recordedRequest{
			Method:  request.Method,
			Path:    path,
			Escaped: request.URL.EscapedPath(),
			Query:   request.URL.RawQuery,
			Body:    body,
			At:      time.Now(),
		})
		handler, ok := org.handlers[request.Method+" "+path]
		org.mu.Unlock()

		if !ok {
			writeJSON(writer, http.StatusNotFound, map[string]string{
				"errorCode":    "E0000007",
				"errorSummary": "Not found: Resource not found: " + path,
			})

			return
		}

		handler(writer, request)
	}))
	t.Cleanup(org.Close)

	return org
}

func (o *fakeOrg) handle(method, path string, handler http.HandlerFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.handlers[method+" "+path] = handler
}

func (o *fakeOrg) respond(method, path string, status int, body interface{}) {
	o.handle(method, path, func(writer http.ResponseWriter, _ *http.Request) {
		writeJSON(writer, status, body)
	})
}

// sequence replies with statuses in order, then repeats the last one.
func (o *fakeOrg) sequence(method, path string, body interface{}, statuses ...int) {
	var calls atomic.Int32

	o.handle(method, path, func(writer http.ResponseWriter, _ *http.Request) {
		n := int(calls.Add(1)) - 1
		status := statuses[min(n, len(statuses)-1)]

		if status >= http.StatusBadRequest {
			writeJSON(writer, status, map[string]string{"errorCode": "E0000009", "errorSummary": http.StatusText(status)})

			return
		}

		writeJSON(writer, status, body)
	})
}

func (o *fakeOrg) recorded() []recordedRequest {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]recordedRequest(nil), o.requests...)
}

func (o *fakeOrg) nextLink(path, query string) string {
	return fmt.Sprintf(`<%s/api/v1%s?%s>; rel="next"`, o.URL, path, query)
}

func writeJSON(writer http.ResponseWriter, status int, body interface{}) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)

	if body != nil {
		_ = json.NewEncoder(writer).Encode(body)
	}
}

func fastRetries() *retry.Executor {
	return retry.New(retry.Policy{MaxAttempts: 3, WaitMin: time.Millisecond, WaitMax: 5 * time.Millisecond})
}

// newTestClient creates a client against org with fast retries.
func newTestClient(org *fakeOrg, opts ...client.Option) *client.Client {
	return newTestClientWithTokens(org, auth.NewStaticTokenProvider(testToken), opts...)
}

func newTestClientWithTokens(org *fakeOrg, tokens auth.TokenProvider, opts ...client.Option) *client.Client {
	opts = append([]client.Option{
		client.WithRetryExecutor(fastRetries()),
		client.WithLimiter(ratelimit.New()),
	}, opts...)

	return client.New(oktahttp.NewClient(org.URL), tokens, opts...)
}

var _ auth.TokenProvider = (*invalidationRecorder)(nil)

// invalidationRecorder counts Invalidate calls on a wrapped provider.
type invalidationRecorder struct {
	auth.TokenProvider

	invalidations atomic.Int32
}

func (r *invalidationRecorder) Invalidate() {
	r.invalidations.Add(1)
	r.TokenProvider.Invalidate()
}

func sampleUser(id string) okta.User {
	return okta.User{
		ID:     id,
		Status: "ACTIVE",
		Profile: map[string]interface{}{
			"login":     id + "@example.com",
			"email":     id + "@example.com",
			"firstName": "Ada",
			"lastName":  "Lovelace",
		},
	}
}
