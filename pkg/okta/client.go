package okta

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// UsersClient covers the /api/v1/users endpoints.
type UsersClient interface {
	Get(ctx context.Context, userID string) (*User, error)
	List(ctx context.Context, query *UserQuery, opts PageOptions) (*Pager[User], error)
	UpdateProfile(ctx context.Context, userID string, profile UserProfile) (*User, error)
	Unlock(ctx context.Context, userID string) error
	ResetPassword(ctx context.Context, userID string, sendEmail bool) (*PasswordResetResult, error)
	Reinvite(ctx context.Context, userID string) error
	ListGroups(ctx context.Context, userID string) ([]Group, error)
	ListAppLinks(ctx context.Context, userID string) ([]AppLink, error)
	// Overview fetches the user, its groups and its app links concurrently.
	Overview(ctx context.Context, userID string) (*UserOverview, error)
}

// ApplicationsClient covers the /api/v1/apps endpoints.
type ApplicationsClient interface {
	Get(ctx context.Context, appID string) (*Application, error)
	List(ctx context.Context, query *AppQuery, opts PageOptions) (*Pager[Application], error)
	UpdateConfig(ctx context.Context, appID string, config ApplicationConfig) (*Application, error)
	ListUsers(ctx context.Context, appID string, opts PageOptions) (*Pager[AppUser], error)
	ListGroups(ctx context.Context, appID string, opts PageOptions) (*Pager[AppGroup], error)
	Activate(ctx context.Context, appID string) error
	Deactivate(ctx context.Context, appID string) error
	AssignUser(ctx context.Context, appID, userID string, profile map[string]interface{}) (*AppUser, error)
	UnassignUser(ctx context.Context, appID, userID string) error
}

// LogsClient covers the System Log API.
type LogsClient interface {
	// List sends query as-is.
	List(ctx context.Context, query *LogQuery, opts PageOptions) (*Pager[LogEvent], error)
	// Search treats expr as a filter expression when it contains a filter
	// operator and as a keyword search otherwise.
	Search(ctx context.Context, expr string, query *LogQuery, opts PageOptions) (*Pager[LogEvent], error)
	ForUser(ctx context.Context, userIdentifier string, query *LogQuery, opts PageOptions) (*Pager[LogEvent], error)
	ForApplication(ctx context.Context, appIdentifier string, query *LogQuery, opts PageOptions) (*Pager[LogEvent], error)
	FailedLogins(ctx context.Context, query *LogQuery, opts PageOptions) (*Pager[LogEvent], error)
	PasswordResets(ctx context.Context, query *LogQuery, opts PageOptions) (*Pager[LogEvent], error)
	AdminActions(ctx context.Context, adminIdentifier string, query *LogQuery, opts PageOptions) (*Pager[LogEvent], error)
}

// OperationClient is the operation-level contract used by tool layers.
type OperationClient interface {
	Call(ctx context.Context, op Operation, params Params) (*Result[any], error)
	CallPaginated(ctx context.Context, op Operation, params Params) (*Pager[any], error)
}

// Client is the Okta API client.
type Client interface {
	Users() UsersClient
	Applications() ApplicationsClient
	Logs() LogsClient
	OperationClient

	// Do sends spec through the full request pipeline and returns the raw
	// 2xx response, or a typed *APIError.
	Do(ctx context.Context, spec RequestSpec) (*RawResponse, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Credential is either a StaticToken or an OAuthClientCredential.
type Credential interface {
	credential()
}

// StaticToken is a long-lived Okta API token, sent with the SSWS scheme.
type StaticToken struct {
	Value string
}

func (StaticToken) credential() {}

// String keeps the token out of logs and fmt output.
func (t StaticToken) String() string { return "StaticToken{Value:" + redacted + "}" }

// GoString implements fmt.GoStringer.
func (t StaticToken) GoString() string { return t.String() }

// OAuthClientCredential is client-credentials grant material. Access tokens
// obtained with it are sent with the Bearer scheme.
type OAuthClientCredential struct {
	ClientID      string
	ClientSecret  string
	Scopes        []string
	TokenEndpoint string
}

func (OAuthClientCredential) credential() {}

// String keeps the client secret out of logs and fmt output.
func (c OAuthClientCredential) String() string {
	return fmt.Sprintf("OAuthClientCredential{ClientID:%s ClientSecret:%s Scopes:%v TokenEndpoint:%s}",
		c.ClientID, redacted, c.Scopes, c.TokenEndpoint)
}

// GoString implements fmt.GoStringer.
func (c OAuthClientCredential) GoString() string { return c.String() }

// Authorization schemes.
const (
	SchemeSSWS   = "SSWS"
	SchemeBearer = "Bearer"
)

// AccessToken is a credential ready to be attached to a request. A zero
// ExpiresAt means the token never expires.
type AccessToken struct {
	Value     string
	Scheme    string
	ExpiresAt time.Time
}

// ValidFor reports whether the token is usable at now with margin to spare.
func (t AccessToken) ValidFor(now time.Time, margin time.Duration) bool {
	if t.Value == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return now.Add(margin).Before(t.ExpiresAt)
}

// Authorization renders the Authorization header value.
func (t AccessToken) Authorization() string {
	return t.Scheme + " " + t.Value
}

// String keeps the token value out of logs and fmt output.
func (t AccessToken) String() string {
	return fmt.Sprintf("AccessToken{Scheme:%s Value:%s ExpiresAt:%s}", t.Scheme, redacted, t.ExpiresAt.Format(time.RFC3339))
}

// Config represents client configuration for building an okta.Client.
//
// # Authentication precedence
//
//  1. Credential: if set, it is used as-is.
//  2. APIToken: used as a static SSWS token.
//  3. ClientID/ClientSecret: OAuth2 client_credentials grant against TokenURL
//     (defaults to "<OrgURL>/oauth2/v1/token") with Scopes (defaults to
//     okta.users.manage, okta.apps.manage and okta.logs.read).
//
// # Org URL
//
// OrgURL must use https and end in .okta.com, .oktapreview.com or
// .okta-emea.com. AllowCustomDomain lifts both checks, for custom domains and
// local test servers.
//
// # Timeouts, retries, and rate limits
//
// HTTPTimeout bounds each attempt; the caller's context bounds the whole
// operation including retries and rate-limit waits. RetryMax is the maximum
// number of attempts per logical request. RateLimitCeiling caps requests per
// minute per bucket on top of the budget reported by Okta; zero disables it.
type Config struct {
	// Required fields
	// OrgURL: base URL of the Okta org (e.g., "https://acme.okta.com").
	OrgURL string

	// Authentication options (provide one)
	Credential   Credential
	APIToken     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	TokenURL     string

	// Optional configurations
	HTTPTimeout  time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RateLimitCeiling: requests per minute per bucket; 0 means unlimited.
	RateLimitCeiling int
	// TokenSafetyMargin: refresh OAuth tokens this long before they expire.
	TokenSafetyMargin time.Duration
	UserAgent         string
	// Debug: enables HTTP request/response logging when a Logger is provided.
	Debug  bool
	Logger Logger
	// MeterProvider and TracerProvider default to the otel globals.
	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
	// AllowCustomDomain: skip the https and Okta domain checks on OrgURL.
	AllowCustomDomain bool
}
