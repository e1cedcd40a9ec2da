package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/mcp-okta-support/okta-go/internal/constants"
	"github.com/mcp-okta-support/okta-go/internal/instrumentation"
	"github.com/mcp-okta-support/okta-go/internal/logging"
	"github.com/mcp-okta-support/okta-go/pkg/okta"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "token"

// Option configures a token provider.
type Option func(*options)

type options struct {
	safetyMargin    time.Duration
	defaultLifetime time.Duration
	httpClient      *http.Client
	retryMax        int
	retryWaitMin    time.Duration
	retryWaitMax    time.Duration
	timeout         time.Duration
	logger          okta.Logger
	metrics         *instrumentation.Metrics
	now             func() time.Time
}

// WithSafetyMargin sets how long before expiry a token is refreshed.
func WithSafetyMargin(margin time.Duration) Option {
	return func(o *options) {
		if margin >= 0 {
			o.safetyMargin = margin
		}
	}
}

// WithDefaultLifetime sets the lifetime assumed when expires_in is missing.
func WithDefaultLifetime(lifetime time.Duration) Option {
	return func(o *options) {
		if lifetime > 0 {
			o.defaultLifetime = lifetime
		}
	}
}

// WithHTTPClient sends token exchanges through client instead of the
// built-in retrying client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithRetryConfig tunes retries of the token exchange itself.
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(o *options) {
		o.retryMax = maxRetries
		o.retryWaitMin = waitMin
		o.retryWaitMax = waitMax
	}
}

// WithTimeout bounds a single token exchange attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger okta.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records token exchanges.
func WithMetrics(metrics *instrumentation.Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func defaultOptions() *options {
	return &options{
		safetyMargin:    constants.DefaultTokenSafetyMargin,
		defaultLifetime: constants.DefaultTokenLifetime,
		retryMax:        constants.TokenRetryMax,
		retryWaitMin:    constants.DefaultRetryWaitMin,
		retryWaitMax:    constants.ShortHTTPTimeout,
		timeout:         constants.ShortHTTPTimeout,
		logger:          logging.Nop{},
		now:             time.Now,
	}
}

// OAuthProvider obtains access tokens with the client credentials grant and
// caches them until they come within the safety margin of expiry.
type OAuthProvider struct {
	config     *clientcredentials.Config
	httpClient *http.Client
	store      *TokenStore
	group      singleflight.Group
	opts       *options
}

// NewOAuthProvider creates a new client credentials token provider.
func NewOAuthProvider(cred okta.OAuthClientCredential, opts ...Option) (*OAuthProvider, error) {
	if cred.ClientID == "" || cred.ClientSecret == "" || cred.TokenEndpoint == "" {
		return nil, okta.ErrCredentialsRequired
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	o.logger = logging.OrNop(o.logger)

	scopes := cred.Scopes
	if len(scopes) == 0 {
		scopes = constants.DefaultScopes
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = newRetryingClient(o)
	}

	return &OAuthProvider{
		config: &clientcredentials.Config{
			ClientID:     cred.ClientID,
			ClientSecret: cred.ClientSecret,
			TokenURL:     cred.TokenEndpoint,
			Scopes:       append([]string(nil), scopes...),
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		httpClient: httpClient,
		store:      NewTokenStore(),
		opts:       o,
	}, nil
}

func newRetryingClient(o *options) *http.Client {
	base := cleanhttp.DefaultPooledClient()
	base.Timeout = o.timeout

	client := retryablehttp.NewClient()
	client.HTTPClient = base
	client.RetryMax = o.retryMax
	client.RetryWaitMin = o.retryWaitMin
	client.RetryWaitMax = o.retryWaitMax
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = leveledLogger{logger: o.logger}

	return client.StandardClient()
}

// Token returns the cached token, refreshing it first when it is missing or
// within the safety margin of expiry. Concurrent callers share one exchange.
func (p *OAuthProvider) Token(ctx context.Context) (okta.AccessToken, error) {
	cached := p.store.Get()
	if cached.ValidFor(p.opts.now(), p.opts.safetyMargin) {
		return cached, nil
	}

	ch := p.group.DoChan(refreshKey, func() (interface{}, error) {
		// Another caller may have refreshed while this one was queued.
		current := p.store.Get()
		if current.ValidFor(p.opts.now(), p.opts.safetyMargin) {
			return current, nil
		}

		// The exchange outlives any single caller's cancellation so waiters
		// still receive its result.
		return p.exchange(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return okta.AccessToken{}, okta.MapTransportError(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return okta.AccessToken{}, res.Err
		}

		token, _ := res.Val.(okta.AccessToken)

		return token, nil
	}
}

// Invalidate drops the cached token.
func (p *OAuthProvider) Invalidate() {
	p.store.Clear()
}

// SetToken seeds the cache, e.g. with a token restored from elsewhere.
func (p *OAuthProvider) SetToken(value string, expiresAt time.Time) {
	p.store.Set(okta.AccessToken{Value: value, Scheme: okta.SchemeBearer, ExpiresAt: expiresAt})
}

func (p *OAuthProvider) exchange(ctx context.Context) (okta.AccessToken, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	now := p.opts.now()

	p.opts.logger.Debug("Requesting access token", map[string]interface{}{
		"client_id": p.config.ClientID,
		"scopes":    strings.Join(p.config.Scopes, " "),
	})

	tok, err := p.config.Token(ctx)
	p.opts.metrics.RecordTokenRefresh(ctx, err)

	if err != nil {
		mapped := mapExchangeError(err)
		p.opts.logger.Warn("Access token request failed", map[string]interface{}{
			logging.KeyError:     logging.Err(mapped),
			logging.KeyErrorKind: okta.KindOf(mapped).String(),
		})

		return okta.AccessToken{}, mapped
	}

	token := okta.AccessToken{
		Value:     tok.AccessToken,
		Scheme:    okta.SchemeBearer,
		ExpiresAt: expiryOf(tok.Expiry, now, p.opts.defaultLifetime),
	}

	p.store.Set(token)

	p.opts.logger.Debug("Access token refreshed", map[string]interface{}{
		logging.KeyExpiresAt: token.ExpiresAt.Format(time.RFC3339),
	})

	return token, nil
}

func mapExchangeError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		return okta.MapTokenExchangeError(retrieveErr.Response.StatusCode, retrieveErr.Body, err)
	}

	return okta.MapTokenExchangeError(0, nil, err)
}

// leveledLogger adapts okta.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger okta.Logger
}

func (l leveledLogger) fields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}

		fields[key] = keysAndValues[i+1]
	}

	return fields
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, l.fields(keysAndValues))
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, l.fields(keysAndValues))
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, l.fields(keysAndValues))
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, l.fields(keysAndValues))
}

var _ retryablehttp.LeveledLogger = leveledLogger{}
