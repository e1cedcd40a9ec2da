package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mcp-okta-support/okta-go/internal/constants"
	"github.com/mcp-okta-support/okta-go/internal/logging"
	"github.com/mcp-okta-support/okta-go/pkg/okta"
	"github.com/mcp-okta-support/okta-go/pkg/oktaclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/term"
)

// Configuration keys, shared by flags, OKTA_* environment variables and the
// config file.
const (
	keyOrgURL            = "org-url"
	keyAPIToken          = "api-token"
	keyClientID          = "client-id"
	keyClientSecret      = "client-secret"
	keyScopes            = "scopes"
	keyTokenURL          = "token-url"
	keyOutput            = "output"
	keyVerbose           = "verbose"
	keyMetrics           = "metrics"
	keyRateLimit         = "rate-limit"
	keyTimeoutSeconds    = "timeout-seconds"
	keyRetryMax          = "retry-max"
	keyAllowCustomDomain = "allow-custom-domain"
)

// shutdownFunc flushes telemetry once a command finishes.
type shutdownFunc func(ctx context.Context) error

// clientFactory creates the API client for a command. Tests replace it.
var clientFactory = createClient

// secretReader reads a secret without echo.
var secretReader = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd())) //nolint:gosec // fd fits in int
}

func createClient(cmd *cobra.Command) (okta.Client, shutdownFunc, error) {
	config, err := clientConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	shutdown := func(context.Context) error { return nil }

	if viper.GetBool(keyMetrics) {
		exporter, err := stdoutmetric.New(
			stdoutmetric.WithWriter(cmd.ErrOrStderr()),
			stdoutmetric.WithPrettyPrint(),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("creating metrics exporter: %w", err)
		}

		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)))
		config.MeterProvider = provider
		shutdown = provider.Shutdown
	}

	client, err := oktaclient.New(commandContext(cmd), config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, shutdown, nil
}

// clientConfig builds the client configuration from flags, environment and
// config file.
func clientConfig(cmd *cobra.Command) (*okta.Config, error) {
	orgURL := strings.TrimSpace(viper.GetString(keyOrgURL))
	if orgURL == "" {
		return nil, constants.ErrNoOrgURL
	}

	config := &okta.Config{
		OrgURL:            orgURL,
		APIToken:          viper.GetString(keyAPIToken),
		ClientID:          viper.GetString(keyClientID),
		ClientSecret:      viper.GetString(keyClientSecret),
		Scopes:            viper.GetStringSlice(keyScopes),
		TokenURL:          viper.GetString(keyTokenURL),
		RateLimitCeiling:  viper.GetInt(keyRateLimit),
		RetryMax:          viper.GetInt(keyRetryMax),
		Debug:             viper.GetBool(keyVerbose),
		AllowCustomDomain: viper.GetBool(keyAllowCustomDomain),
	}

	if seconds := viper.GetInt(keyTimeoutSeconds); seconds > 0 {
		config.HTTPTimeout = time.Duration(seconds) * time.Second
	}

	if config.Debug {
		config.Logger = logging.NewSlogAdapter(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(),
			&slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if config.APIToken == "" && config.ClientID != "" && config.ClientSecret == "" &&
		term.IsTerminal(int(os.Stdin.Fd())) { //nolint:gosec // fd fits in int
		secret, err := promptSecret(cmd, "Client secret: ")
		if err != nil {
			return nil, err
		}

		config.ClientSecret = secret
	}

	if config.APIToken == "" && (config.ClientID == "" || config.ClientSecret == "") {
		return nil, constants.ErrNoCredentials
	}

	return config, nil
}

func promptSecret(cmd *cobra.Command, prompt string) (string, error) {
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), prompt)

	secret, err := secretReader()

	_, _ = fmt.Fprintln(cmd.ErrOrStderr())

	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}

	return strings.TrimSpace(string(secret)), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}

// withClient runs fn with a client and flushes telemetry afterwards.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, client okta.Client) error) error {
	client, shutdown, err := clientFactory(cmd)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)

	defer func() {
		_ = shutdown(context.WithoutCancel(ctx))
	}()

	return fn(ctx, client)
}
