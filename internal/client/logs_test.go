package client_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/mcp-okta-support/okta-go/internal/client"
	"github.com/mcp-okta-support/okta-go/pkg/okta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent(uuid, eventType string) okta.LogEvent {
	return okta.LogEvent{
		UUID:      uuid,
		EventType: eventType,
		Published: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Severity:  "INFO",
		Actor:     &okta.LogActor{ID: "00u1", AlternateID: "ada@example.com", DisplayName: "Ada Lovelace"},
		Outcome:   &okta.LogOutcome{Result: "FAILURE", Reason: "INVALID_CREDENTIALS"},
	}
}

func queryOf(t *testing.T, request recordedRequest) url.Values {
	t.Helper()

	values, err := url.ParseQuery(request.Query)
	require.NoError(t, err)

	return values
}

func TestLogFilters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{
			name: "user by id",
			got:  client.UserLogFilter("00u1"),
			expected: `actor.id eq "00u1" or target.id eq "00u1" or ` +
				`actor.alternateId eq "00u1" or target.alternateId eq "00u1"`,
		},
		{
			name:     "user by email",
			got:      client.UserLogFilter("ada@example.com"),
			expected: `actor.alternateId eq "ada@example.com" or target.alternateId eq "ada@example.com"`,
		},
		{
			name: "application",
			got:  client.ApplicationLogFilter("Slack"),
			expected: `target.id eq "Slack" or target.alternateId eq "Slack" or ` +
				`target.displayName eq "Slack"`,
		},
		{
			name:     "admin by email",
			got:      client.AdminActionsFilter("root@example.com"),
			expected: `actor.alternateId eq "root@example.com"`,
		},
		{
			name:     "failed logins",
			got:      client.FailedLoginsFilter(),
			expected: `eventType eq "user.session.start" and outcome.result eq "FAILURE"`,
		},
		{
			name:     "password resets",
			got:      client.PasswordResetsFilter(),
			expected: `eventType eq "user.account.reset_password"`,
		},
		{
			name:     "quotes are escaped",
			got:      client.ApplicationLogFilter(`a"b`),
			expected: `target.id eq "a\"b" or target.alternateId eq "a\"b" or target.displayName eq "a\"b"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

func TestLogsClient_List(t *testing.T) {
	t.Parallel()

	org := newFakeOrg(t)
	org.respond(http.MethodGet, "/logs", http.StatusOK, []okta.LogEvent{sampleEvent("e1", "user.session.start")})

	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	pager, err := newTestClient(org).Logs().List(context.Background(), &okta.LogQuery{
		Since:     &since,
		SortOrder: okta.SortAscending,
		Limit:     50,
	}, okta.PageOptions{})
	require.NoError(t, err)

	events, err := pager.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].UUID)

	requests := org.recorded()
	require.Len(t, requests, 1)
	assert.Equal(t, "since=2026-03-01T00%3A00%3A00Z&sortOrder=ASCENDING&limit=50", requests[0].Query)
}

func TestLogsClient_InvalidQuerySendsNothing(t *testing.T) {
	t.Parallel()

	org := newFakeOrg(t)
	logs := newTestClient(org).Logs()

	_, err := logs.List(context.Background(), &okta.LogQuery{Limit: 5000}, okta.PageOptions{})
	require.Error(t, err)
	assert.True(t, okta.IsValidation(err))
	assert.ErrorIs(t, err, okta.ErrInvalidLimit)

	_, err = logs.List(context.Background(), &okta.LogQuery{SortOrder: "SIDEWAYS"}, okta.PageOptions{})
	assert.ErrorIs(t, err, okta.ErrInvalidSortOrder)

	_, err = logs.Search(context.Background(), "  ", nil, okta.PageOptions{})
	assert.True(t, okta.IsValidation(err))

	_, err = logs.ForUser(context.Background(), "", nil, okta.PageOptions{})
	assert.True(t, okta.IsValidation(err))

	assert.Empty(t, org.recorded())
}

func TestLogsClient_Search(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		expr       string
		wantFilter string
		wantQ      string
	}{
		{
			name:       "filter expression",
			expr:       `eventType eq "user.session.start"`,
			wantFilter: `eventType eq "user.session.start"`,
		},
		{
			name:  "keyword search",
			expr:  "Slack",
			wantQ: "Slack",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			org := newFakeOrg(t)
			org.respond(http.MethodGet, "/logs", http.StatusOK, []okta.LogEvent{})

			pager, err := newTestClient(org).Logs().Search(context.Background(), tt.expr, nil, okta.PageOptions{})
			require.NoError(t, err)

			_, err = pager.Collect(context.Background())
			require.NoError(t, err)

			requests := org.recorded()
			require.Len(t, requests, 1)

			query := queryOf(t, requests[0])
			assert.Equal(t, tt.wantFilter, query.Get("filter"))
			assert.Equal(t, tt.wantQ, query.Get("q"))
			assert.Equal(t, "100", query.Get("limit"))
			assert.Equal(t, okta.SortDescending, query.Get("sortOrder"))
		})
	}
}

func TestLogsClient_ForUserNarrowsCallerFilter(t *testing.T) {
	t.Parallel()

	org := newFakeOrg(t)
	org.respond(http.MethodGet, "/logs", http.StatusOK, []okta.LogEvent{sampleEvent("e1", "user.session.start")})

	pager, err := newTestClient(org).Logs().ForUser(context.Background(), "ada@example.com", &okta.LogQuery{
		Filter: `eventType eq "user.session.start"`,
	}, okta.PageOptions{})
	require.NoError(t, err)

	_, err = pager.Collect(context.Background())
	require.NoError(t, err)

	requests := org.recorded()
	require.Len(t, requests, 1)
	assert.Equal(t,
		`(actor.alternateId eq "ada@example.com" or target.alternateId eq "ada@example.com") and `+
			`(eventType eq "user.session.start")`,
		queryOf(t, requests[0]).Get("filter"))
}

func TestLogsClient_CannedQueries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		call       func(okta.LogsClient) (*okta.Pager[okta.LogEvent], error)
		wantFilter string
	}{
		{
			name: "failed logins",
			call: func(logs okta.LogsClient) (*okta.Pager[okta.LogEvent], error) {
				return logs.FailedLogins(context.Background(), nil, okta.PageOptions{})
			},
			wantFilter: client.FailedLoginsFilter(),
		},
		{
			name: "password resets",
			call: func(logs okta.LogsClient) (*okta.Pager[okta.LogEvent], error) {
				return logs.PasswordResets(context.Background(), nil, okta.PageOptions{})
			},
			wantFilter: client.PasswordResetsFilter(),
		},
		{
			name: "application",
			call: func(logs okta.LogsClient) (*okta.Pager[okta.LogEvent], error) {
				return logs.ForApplication(context.Background(), "0oa1", nil, okta.PageOptions{})
			},
			wantFilter: client.ApplicationLogFilter("0oa1"),
		},
		{
			name: "admin actions",
			call: func(logs okta.LogsClient) (*okta.Pager[okta.LogEvent], error) {
				return logs.AdminActions(context.Background(), "00uadmin", nil, okta.PageOptions{})
			},
			wantFilter: client.AdminActionsFilter("00uadmin"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			org := newFakeOrg(t)
			org.respond(http.MethodGet, "/logs", http.StatusOK, []okta.LogEvent{sampleEvent("e1", "x")})

			pager, err := tt.call(newTestClient(org).Logs())
			require.NoError(t, err)

			events, err := pager.Collect(context.Background())
			require.NoError(t, err)
			assert.Len(t, events, 1)

			requests := org.recorded()
			require.Len(t, requests, 1)
			assert.Equal(t, tt.wantFilter, queryOf(t, requests[0]).Get("filter"))
		})
	}
}
