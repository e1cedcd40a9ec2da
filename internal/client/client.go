package client

import (
	"context"
	"net/http"
	"time"

	"github.com/mcp-okta-support/okta-go/internal/auth"
	oktahttp "github.com/mcp-okta-support/okta-go/internal/http"
	"github.com/mcp-okta-support/okta-go/internal/instrumentation"
	"github.com/mcp-okta-support/okta-go/internal/logging"
	"github.com/mcp-okta-support/okta-go/internal/ratelimit"
	"github.com/mcp-okta-support/okta-go/internal/retry"
	"github.com/mcp-okta-support/okta-go/pkg/okta"
	"go.opentelemetry.io/otel/attribute"
)

// Client implements the okta.Client interface. Every request runs through
// token -> rate limiter -> retry -> transport -> normalizer; the token cache
// and rate-limit buckets belong to this instance only.
type Client struct {
	httpClient *oktahttp.Client
	tokens     auth.TokenProvider
	limiter    *ratelimit.Limiter
	retrier    *retry.Executor
	telemetry  *instrumentation.Provider
	logger     okta.Logger

	// Resource clients
	users        *UsersClient
	applications *ApplicationsClient
	logs         *LogsClient
}

var _ okta.Client = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithLimiter sets the rate limiter.
func WithLimiter(limiter *ratelimit.Limiter) Option {
	return func(c *Client) {
		if limiter != nil {
			c.limiter = limiter
		}
	}
}

// WithRetryExecutor sets the retry executor.
func WithRetryExecutor(executor *retry.Executor) Option {
	return func(c *Client) {
		if executor != nil {
			c.retrier = executor
		}
	}
}

// WithTelemetry records metrics and spans through provider.
func WithTelemetry(provider *instrumentation.Provider) Option {
	return func(c *Client) {
		c.telemetry = provider
	}
}

// WithLogger sets the logger.
func WithLogger(logger okta.Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrNop(logger)
	}
}

// New creates a new Okta API client over httpClient, authenticating with tokens.
func New(httpClient *oktahttp.Client, tokens auth.TokenProvider, opts ...Option) *Client {
	client := &Client{
		httpClient: httpClient,
		tokens:     tokens,
		limiter:    ratelimit.New(),
		retrier:    retry.New(retry.DefaultPolicy()),
		logger:     logging.Nop{},
	}

	for _, opt := range opts {
		opt(client)
	}

	client.initializeResourceClients()

	return client
}

func (c *Client) initializeResourceClients() {
	c.users = NewUsersClient(c)
	c.applications = NewApplicationsClient(c)
	c.logs = NewLogsClient(c)
}

// Users implements okta.Client.Users.
func (c *Client) Users() okta.UsersClient {
	return c.users
}

// Applications implements okta.Client.Applications.
func (c *Client) Applications() okta.ApplicationsClient {
	return c.applications
}

// Logs implements okta.Client.Logs.
func (c *Client) Logs() okta.LogsClient {
	return c.logs
}

// TokenProvider returns the token provider for this client.
func (c *Client) TokenProvider() auth.TokenProvider {
	return c.tokens
}

// Limiter returns the rate limiter for this client.
func (c *Client) Limiter() *ratelimit.Limiter {
	return c.limiter
}

func (c *Client) metrics() *instrumentation.Metrics {
	if c.telemetry == nil {
		return nil
	}

	return c.telemetry.Metrics
}

// Do implements okta.Client.Do.
func (c *Client) Do(ctx context.Context, spec okta.RequestSpec) (*okta.RawResponse, error) {
	ctx, span := c.telemetry.StartSpan(ctx, "okta "+spec.Method+" "+spec.Bucket,
		attribute.String(instrumentation.SpanAttrMethod, spec.Method),
		attribute.String(instrumentation.SpanAttrPath, spec.Path),
		attribute.String(instrumentation.SpanAttrBucket, spec.Bucket),
		attribute.Bool(instrumentation.SpanAttrIdempotent, spec.Idempotent),
	)

	raw, attempts, err := c.retrier.Execute(ctx, spec, func(ctx context.Context, _ int) (*okta.RawResponse, error) {
		return c.attempt(ctx, spec)
	})

	attrs := []attribute.KeyValue{attribute.Int(instrumentation.SpanAttrAttempts, attempts)}
	if raw != nil {
		attrs = append(attrs, attribute.Int(instrumentation.SpanAttrStatus, raw.StatusCode))
	}

	if err != nil {
		attrs = append(attrs, attribute.String(instrumentation.SpanAttrErrorKind, okta.KindOf(err).String()))
	}

	instrumentation.EndSpan(span, err, attrs...)

	return raw, err
}

// attempt sends spec once. The response is returned whatever its status so
// the retry executor can classify it.
func (c *Client) attempt(ctx context.Context, spec okta.RequestSpec) (*okta.RawResponse, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	err = c.limiter.Acquire(ctx, spec.Bucket)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	raw, err := c.httpClient.Do(ctx, spec, token)
	if err != nil {
		c.metrics().RecordHTTPRequest(ctx, spec.Method, spec.Bucket, 0, time.Since(start))

		return nil, err
	}

	c.metrics().RecordHTTPRequest(ctx, spec.Method, spec.Bucket, raw.StatusCode, time.Since(start))
	c.limiter.ObserveResponse(spec.Bucket, raw.StatusCode, raw.Header)

	if raw.StatusCode == http.StatusUnauthorized {
		c.logger.Warn("Credential rejected, dropping cached token", map[string]interface{}{
			logging.KeyMethod: spec.Method,
			logging.KeyURL:    spec.Path,
		})
		c.tokens.Invalidate()
	}

	return raw, nil
}

// call runs spec and decodes the body into T.
func call[T any](ctx context.Context, c *Client, spec okta.RequestSpec) (*okta.Result[T], error) {
	raw, err := c.Do(ctx, spec)
	if err != nil {
		return nil, err
	}

	return okta.Decode[T](raw)
}

// paginate returns a pager over spec decoding items as T.
func paginate[T any](c *Client, spec okta.RequestSpec, opts okta.PageOptions) *okta.Pager[T] {
	return okta.NewPager[T](c.Do, spec, nil, opts)
}
