package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcp-okta-support/okta-go/pkg/okta"
)

// System Log event types.
const (
	EventTypeSessionStart  = "user.session.start"
	EventTypeResetPassword = "user.account.reset_password"
)

// LogsClient implements okta.LogsClient.
type LogsClient struct {
	client *Client
}

var _ okta.LogsClient = (*LogsClient)(nil)

// NewLogsClient creates a new System Log client.
func NewLogsClient(client *Client) *LogsClient {
	return &LogsClient{client: client}
}

func eq(field, value string) string {
	return field + " eq " + okta.QuoteFilterValue(value)
}

// UserLogFilter matches events where the user is the actor or a target. An
// email-like identifier is matched on alternateId only.
func UserLogFilter(identifier string) string {
	if strings.Contains(identifier, "@") {
		return strings.Join([]string{
			eq("actor.alternateId", identifier),
			eq("target.alternateId", identifier),
		}, " or ")
	}

	return strings.Join([]string{
		eq("actor.id", identifier),
		eq("target.id", identifier),
		eq("actor.alternateId", identifier),
		eq("target.alternateId", identifier),
	}, " or ")
}

// ApplicationLogFilter matches events targeting the application by id, name
// or label.
func ApplicationLogFilter(identifier string) string {
	return strings.Join([]string{
		eq("target.id", identifier),
		eq("target.alternateId", identifier),
		eq("target.displayName", identifier),
	}, " or ")
}

// AdminActionsFilter matches events performed by the administrator.
func AdminActionsFilter(identifier string) string {
	if strings.Contains(identifier, "@") {
		return eq("actor.alternateId", identifier)
	}

	return eq("actor.id", identifier) + " or " + eq("actor.alternateId", identifier)
}

// FailedLoginsFilter matches failed sign-in attempts.
func FailedLoginsFilter() string {
	return eq("eventType", EventTypeSessionStart) + " and " + eq("outcome.result", "FAILURE")
}

// PasswordResetsFilter matches password reset events.
func PasswordResetsFilter() string {
	return eq("eventType", EventTypeResetPassword)
}

// and joins two filter expressions; either may be empty.
func and(left, right string) string {
	switch {
	case left == "":
		return right
	case right == "":
		return left
	default:
		return "(" + left + ") and (" + right + ")"
	}
}

// logsSpec validates query and builds the /logs request, narrowing the
// caller's filter with extra when given.
func logsSpec(query *okta.LogQuery, extra string) (okta.RequestSpec, error) {
	q := okta.LogQuery{}
	if query != nil {
		q = *query
	}

	err := q.Validate()
	if err != nil {
		return okta.RequestSpec{}, err
	}

	q.Filter = and(extra, q.Filter)

	return q.Apply(okta.NewRequest(http.MethodGet, "/logs", okta.BucketLogs)), nil
}

func searchLogsSpec(expr string, query *okta.LogQuery) (okta.RequestSpec, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return okta.RequestSpec{}, okta.InvalidArgument("query", "cannot be empty")
	}

	if okta.LooksLikeFilter(expr) {
		return logsSpec(query, expr)
	}

	q := okta.LogQuery{}
	if query != nil {
		q = *query
	}

	q.Q = expr

	return logsSpec(&q, "")
}

func identifiedLogsSpec(field, identifier string, query *okta.LogQuery, filter func(string) string) (okta.RequestSpec, error) {
	err := okta.RequireIdentifier(field, identifier)
	if err != nil {
		return okta.RequestSpec{}, err
	}

	return logsSpec(query, filter(strings.TrimSpace(identifier)))
}

func (c *LogsClient) pager(spec okta.RequestSpec, err error, opts okta.PageOptions) (*okta.Pager[okta.LogEvent], error) {
	if err != nil {
		return nil, err
	}

	return paginate[okta.LogEvent](c.client, spec, opts), nil
}

// List implements okta.LogsClient.List.
func (c *LogsClient) List(_ context.Context, query *okta.LogQuery, opts okta.PageOptions) (*okta.Pager[okta.LogEvent], error) {
	spec, err := logsSpec(query, "")

	return c.pager(spec, err, opts)
}

// Search implements okta.LogsClient.Search.
func (c *LogsClient) Search(_ context.Context, expr string, query *okta.LogQuery, opts okta.PageOptions) (*okta.Pager[okta.LogEvent], error) {
	spec, err := searchLogsSpec(expr, query)

	return c.pager(spec, err, opts)
}

// ForUser implements okta.LogsClient.ForUser.
func (c *LogsClient) ForUser(_ context.Context, userIdentifier string, query *okta.LogQuery, opts okta.PageOptions) (*okta.Pager[okta.LogEvent], error) {
	spec, err := identifiedLogsSpec("user_id", userIdentifier, query, UserLogFilter)

	return c.pager(spec, err, opts)
}

// ForApplication implements okta.LogsClient.ForApplication.
func (c *LogsClient) ForApplication(_ context.Context, appIdentifier string, query *okta.LogQuery, opts okta.PageOptions) (*okta.Pager[okta.LogEvent], error) {
	spec, err := identifiedLogsSpec("app_id", appIdentifier, query, ApplicationLogFilter)

	return c.pager(spec, err, opts)
}

// FailedLogins implements okta.LogsClient.FailedLogins.
func (c *LogsClient) FailedLogins(_ context.Context, query *okta.LogQuery, opts okta.PageOptions) (*okta.Pager[okta.LogEvent], error) {
	spec, err := logsSpec(query, FailedLoginsFilter())

	return c.pager(spec, err, opts)
}

// PasswordResets implements okta.LogsClient.PasswordResets.
func (c *LogsClient) PasswordResets(_ context.Context, query *okta.LogQuery, opts okta.PageOptions) (*okta.Pager[okta.LogEvent], error) {
	spec, err := logsSpec(query, PasswordResetsFilter())

	return c.pager(spec, err, opts)
}

// AdminActions implements okta.LogsClient.AdminActions.
func (c *LogsClient) AdminActions(_ context.Context, adminIdentifier string, query *okta.LogQuery, opts okta.PageOptions) (*okta.Pager[okta.LogEvent], error) {
	spec, err := identifiedLogsSpec("admin_id", adminIdentifier, query, AdminActionsFilter)

	return c.pager(spec, err, opts)
}
