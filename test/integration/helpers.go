//go:build integration

package integration

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/mcp-okta-support/okta-go/internal/logging"
	"github.com/mcp-okta-support/okta-go/pkg/okta"
	"github.com/mcp-okta-support/okta-go/pkg/oktaclient"
	"github.com/stretchr/testify/require"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	OrgURL       string
	APIToken     string
	ClientID     string
	ClientSecret string
	// UserLogin names an existing user to read; optional.
	UserLogin string
	Verbose   bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		OrgURL:       os.Getenv("OKTA_ORG_URL"),
		APIToken:     os.Getenv("OKTA_API_TOKEN"),
		ClientID:     os.Getenv("OKTA_CLIENT_ID"),
		ClientSecret: os.Getenv("OKTA_CLIENT_SECRET"),
		UserLogin:    os.Getenv("OKTA_TEST_USER_LOGIN"),
		Verbose:      os.Getenv("OKTA_VERBOSE") == "true",
	}
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.OrgURL == "" {
		t.Skip("OKTA_ORG_URL not set, skipping integration test")
	}

	if config.APIToken == "" && (config.ClientID == "" || config.ClientSecret == "") {
		t.Skip("neither OKTA_API_TOKEN nor OKTA_CLIENT_ID/OKTA_CLIENT_SECRET set, skipping integration test")
	}
}

// NewClient creates a client for the configured org, preferring the API token.
func (config *TestConfig) NewClient(t *testing.T) okta.Client {
	t.Helper()

	oktaConfig := &okta.Config{
		OrgURL:       config.OrgURL,
		APIToken:     config.APIToken,
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		UserAgent:    "okta-go-integration",
	}

	if config.Verbose {
		oktaConfig.Debug = true
		oktaConfig.Logger = logging.NewSlogAdapter(slog.New(slog.NewTextHandler(os.Stderr,
			&slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	client, err := oktaclient.New(context.Background(), oktaConfig)
	require.NoError(t, err)

	return client
}
