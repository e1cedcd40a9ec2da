package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// API layout.
const (
	// APIBasePath is appended to the org URL for every management API call.
	APIBasePath = "/api/v1"

	// DefaultTokenPath is the org authorization server token endpoint.
	DefaultTokenPath = "/oauth2/v1/token"

	// DefaultUserAgentPrefix prefixes the client version in the User-Agent header.
	DefaultUserAgentPrefix = "okta-support/"

	// Version is the client version reported in the User-Agent header.
	Version = "1.0.0"
)

// Accepted org URL domain suffixes.
var OrgDomainSuffixes = []string{".okta.com", ".oktapreview.com", ".okta-emea.com"}

// DefaultScopes are requested by the client credentials grant when none are configured.
var DefaultScopes = []string{"okta.users.manage", "okta.apps.manage", "okta.logs.read"}

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for a single HTTP attempt.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for token exchanges.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry policy.
const (
	// DefaultRetryMax is the default maximum number of attempts per request.
	DefaultRetryMax = 3

	// DefaultRetryWaitMin is the first backoff delay; it doubles every attempt.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax caps a single backoff delay.
	DefaultRetryWaitMax = 30 * time.Second

	// DefaultRetryJitter is the jitter fraction added on top of the base delay.
	DefaultRetryJitter = 0.5

	// TokenRetryMax bounds retries of the token exchange itself.
	TokenRetryMax = 2
)

// Token lifetime handling.
const (
	// DefaultTokenSafetyMargin refreshes tokens this long before they expire.
	DefaultTokenSafetyMargin = 60 * time.Second

	// DefaultTokenLifetime is assumed when the token endpoint omits expires_in.
	DefaultTokenLifetime = time.Hour
)

// Rate limiting.
const (
	// DefaultRateLimitCeiling disables the client-side ceiling.
	DefaultRateLimitCeiling = 0

	// DefaultRateLimitResetBuffer is waited past reset_at before resuming a bucket.
	DefaultRateLimitResetBuffer = time.Second

	// DefaultRateLimitRetryAfter is assumed for a 429 without any reset hint.
	DefaultRateLimitRetryAfter = 60 * time.Second
)

// Pagination and display limits.
const (
	// DefaultPageSize is the default number of items per page.
	DefaultPageSize = 200

	// DefaultAppPageSize is the default number of applications per page.
	DefaultAppPageSize = 20

	// DefaultLogPageSize is the default number of System Log events per page.
	DefaultLogPageSize = 100

	// DefaultCLIMaxItems caps CLI list output unless --limit is given.
	DefaultCLIMaxItems = 100
)

// Overview fan-out.
const (
	// DefaultConcurrencyLimit limits concurrent requests of a single fan-out.
	DefaultConcurrencyLimit = 3
)

// CLI output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// CLI configuration.
const (
	// EnvPrefix prefixes environment variables read by the CLI (OKTA_ORG_URL, ...).
	EnvPrefix = "OKTA"

	// ConfigDirName is the CLI configuration directory under the home directory.
	ConfigDirName = ".okta-support"

	// ConfigFileName is the CLI configuration file name.
	ConfigFileName = "config.yml"

	// MinimumArgumentCount is the argument count of two-argument commands.
	MinimumArgumentCount = 2

	// MaxTableValueLength truncates long values in table output.
	MaxTableValueLength = 60
)
