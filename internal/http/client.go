package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/mcp-okta-support/okta-go/internal/constants"
	"github.com/mcp-okta-support/okta-go/internal/logging"
	"github.com/mcp-okta-support/okta-go/pkg/okta"
)

// Client is the Okta transport. It sends one attempt of a request and knows
// nothing about retries or rate limits.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     okta.Logger
	debug      bool
	userAgent  string
	timeout    time.Duration
}

// Option configures the HTTP client.
type Option func(*Client)

// WithLogger sets the logger for the HTTP client.
func WithLogger(logger okta.Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrNop(logger)
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithTimeout bounds a single attempt, body read included. It applies per
// request and never modifies a client passed to WithHTTPClient.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithHTTPClient replaces the pooled client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient creates a new HTTP client for the org at orgURL.
func NewClient(orgURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(orgURL, "/") + constants.APIBasePath,
		httpClient: cleanhttp.DefaultPooledClient(),
		timeout:    constants.DefaultHTTPTimeout,
		logger:     logging.Nop{},
		userAgent:  constants.DefaultUserAgentPrefix + constants.Version,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// BaseURL returns the API base URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL returns the absolute URL of spec.
func (c *Client) URL(spec okta.RequestSpec) string {
	target := c.baseURL + spec.Path
	if query := spec.EncodeQuery(); query != "" {
		target += "?" + query
	}

	return target
}

// Do sends spec with token and returns the response whatever its status.
// Failures before a response is received are mapped to KindNetwork or
// KindTimeout.
func (c *Client) Do(ctx context.Context, spec okta.RequestSpec, token okta.AccessToken) (*okta.RawResponse, error) {
	var body io.Reader

	if spec.Body != nil {
		encoded, err := json.Marshal(spec.Body)
		if err != nil {
			return nil, okta.InvalidArgument("body", fmt.Sprintf("cannot be encoded as JSON: %v", err))
		}

		body = bytes.NewReader(encoded)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, spec.Method, c.URL(spec), body)
	if err != nil {
		return nil, okta.InvalidArgument("request", err.Error())
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token.Value != "" {
		req.Header.Set("Authorization", token.Authorization())
	}

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			logging.KeyMethod:  req.Method,
			logging.KeyURL:     req.URL.String(),
			logging.KeyBucket:  spec.Bucket,
			logging.KeyHeaders: logging.RedactHeaders(req.Header),
		})
	}

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, okta.MapTransportError(err)
	}

	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, okta.MapTransportError(fmt.Errorf("reading response body: %w", err))
	}

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			logging.KeyStatus:   resp.StatusCode,
			logging.KeyURL:      req.URL.String(),
			logging.KeyDuration: time.Since(start).String(),
			logging.KeyHeaders:  logging.RedactHeaders(resp.Header),
		})
	}

	return &okta.RawResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}
