package oktaclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mcp-okta-support/okta-go/internal/auth"
	"github.com/mcp-okta-support/okta-go/internal/client"
	"github.com/mcp-okta-support/okta-go/internal/constants"
	oktahttp "github.com/mcp-okta-support/okta-go/internal/http"
	"github.com/mcp-okta-support/okta-go/internal/instrumentation"
	"github.com/mcp-okta-support/okta-go/internal/logging"
	"github.com/mcp-okta-support/okta-go/internal/ratelimit"
	"github.com/mcp-okta-support/okta-go/internal/retry"
	"github.com/mcp-okta-support/okta-go/pkg/okta"
)

// New creates a new Okta API client from config. Every client owns its own
// token cache and rate-limit state.
func New(ctx context.Context, config *okta.Config) (okta.Client, error) {
	if config == nil {
		return nil, okta.ErrConfigRequired
	}

	err := ctx.Err()
	if err != nil {
		return nil, okta.MapTransportError(err)
	}

	orgURL, err := NormalizeOrgURL(config.OrgURL, config.AllowCustomDomain)
	if err != nil {
		return nil, err
	}

	credential, err := credentialFor(config, orgURL)
	if err != nil {
		return nil, err
	}

	logger := logging.OrNop(config.Logger)

	telemetry, err := instrumentation.NewProvider(config.MeterProvider, config.TracerProvider)
	if err != nil {
		return nil, fmt.Errorf("creating telemetry: %w", err)
	}

	tokens, err := auth.New(credential, tokenOptions(config, logger, telemetry)...)
	if err != nil {
		return nil, fmt.Errorf("creating token provider: %w", err)
	}

	limiter := ratelimit.New(
		ratelimit.WithCeiling(config.RateLimitCeiling),
		ratelimit.WithLogger(logger),
		ratelimit.WithMetrics(telemetry.Metrics),
	)

	retrier := retry.New(retryPolicy(config),
		retry.WithLogger(logger),
		retry.WithMetrics(telemetry.Metrics),
	)

	return client.New(oktahttp.NewClient(orgURL, transportOptions(config, logger)...), tokens,
		client.WithLimiter(limiter),
		client.WithRetryExecutor(retrier),
		client.WithTelemetry(telemetry),
		client.WithLogger(logger),
	), nil
}

// NormalizeOrgURL trims orgURL and checks it names an Okta org over https.
// allowCustomDomain skips the scheme and domain checks.
func NormalizeOrgURL(orgURL string, allowCustomDomain bool) (string, error) {
	orgURL = strings.TrimRight(strings.TrimSpace(orgURL), "/")
	if orgURL == "" {
		return "", okta.ErrOrgURLRequired
	}

	if allowCustomDomain {
		if !strings.Contains(orgURL, "://") {
			orgURL = "https://" + orgURL
		}

		return orgURL, nil
	}

	if !strings.HasPrefix(strings.ToLower(orgURL), "https://") {
		return "", fmt.Errorf("%w: %s", okta.ErrOrgURLNotHTTPS, orgURL)
	}

	parsed, err := url.Parse(orgURL)
	if err != nil || parsed.Hostname() == "" {
		return "", fmt.Errorf("%w: %s", okta.ErrOrgURLInvalidDomain, orgURL)
	}

	host := strings.ToLower(parsed.Hostname())
	for _, suffix := range constants.OrgDomainSuffixes {
		if strings.HasSuffix(host, suffix) {
			return orgURL, nil
		}
	}

	return "", fmt.Errorf("%w: %s", okta.ErrOrgURLInvalidDomain, host)
}

// credentialFor picks the credential: an explicit Credential, then an API
// token, then client credentials.
func credentialFor(config *okta.Config, orgURL string) (okta.Credential, error) {
	switch {
	case config.Credential != nil:
		return config.Credential, nil
	case config.APIToken != "":
		return okta.StaticToken{Value: config.APIToken}, nil
	case config.ClientID != "" && config.ClientSecret != "":
		tokenURL := config.TokenURL
		if tokenURL == "" {
			tokenURL = orgURL + constants.DefaultTokenPath
		}

		return okta.OAuthClientCredential{
			ClientID:      config.ClientID,
			ClientSecret:  config.ClientSecret,
			Scopes:        config.Scopes,
			TokenEndpoint: tokenURL,
		}, nil
	default:
		return nil, okta.ErrCredentialsRequired
	}
}

func retryPolicy(config *okta.Config) retry.Policy {
	policy := retry.DefaultPolicy()

	if config.RetryMax > 0 {
		policy.MaxAttempts = config.RetryMax
	}

	if config.RetryWaitMin > 0 {
		policy.WaitMin = config.RetryWaitMin
	}

	if config.RetryWaitMax > 0 {
		policy.WaitMax = config.RetryWaitMax
	}

	return policy
}

func tokenOptions(config *okta.Config, logger okta.Logger, telemetry *instrumentation.Provider) []auth.Option {
	opts := []auth.Option{
		auth.WithLogger(logger),
		auth.WithMetrics(telemetry.Metrics),
	}

	if config.TokenSafetyMargin > 0 {
		opts = append(opts, auth.WithSafetyMargin(config.TokenSafetyMargin))
	}

	if config.HTTPTimeout > 0 {
		opts = append(opts, auth.WithTimeout(config.HTTPTimeout))
	}

	// The retry executor repeats the whole attempt, token exchange included,
	// so the exchange itself is sent once per attempt.
	policy := retryPolicy(config)
	opts = append(opts, auth.WithRetryConfig(0, policy.WaitMin, policy.WaitMax))

	return opts
}

func transportOptions(config *okta.Config, logger okta.Logger) []oktahttp.Option {
	opts := []oktahttp.Option{
		oktahttp.WithLogger(logger),
		oktahttp.WithDebug(config.Debug),
	}

	if config.UserAgent != "" {
		opts = append(opts, oktahttp.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		opts = append(opts, oktahttp.WithTimeout(config.HTTPTimeout))
	}

	return opts
}

// NewWithToken creates a new client authenticating with an API token.
func NewWithToken(ctx context.Context, orgURL, token string) (okta.Client, error) {
	return New(ctx, &okta.Config{
		OrgURL:   orgURL,
		APIToken: token,
	})
}

// NewWithClientCredentials creates a new client using the OAuth2 client
// credentials grant against the org authorization server.
func NewWithClientCredentials(ctx context.Context, orgURL, clientID, clientSecret string, scopes ...string) (okta.Client, error) {
	return New(ctx, &okta.Config{
		OrgURL:       orgURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       scopes,
	})
}
