// Package okta provides types, interfaces, and helpers for working with the
// Okta management API (users, applications and the System Log).
//
// # Overview
//
// The okta package defines the domain types (User, Application, LogEvent),
// the resource client interfaces (UsersClient, ApplicationsClient,
// LogsClient), the request and result shapes of the core pipeline
// (RequestSpec, RawResponse, Result, Page, Pager) and the error taxonomy
// (APIError and Kind). A concrete implementation is provided by the
// oktaclient package.
//
// Getting a client
//
//	cli, err := oktaclient.New(ctx, &okta.Config{
//	  OrgURL:   "https://acme.okta.com",
//	  APIToken: os.Getenv("OKTA_API_TOKEN"),
//	})
//	if err != nil { log.Fatal(err) }
//
//	user, err := cli.Users().Get(ctx, "jane@acme.com")
//
// # Pagination
//
// List and search operations return a Pager. Pages are fetched lazily, one
// network call each, and the sequence cannot be restarted:
//
//	pager, err := cli.Logs().FailedLogins(ctx, &okta.LogQuery{Since: &since}, okta.PageOptions{MaxItems: 500})
//	for event, err := range pager.All(ctx) {
//	  if err != nil { break }
//	  _ = event
//	}
//
// # Errors
//
// Every remote failure is an *APIError whose Kind says what went wrong.
// Helpers such as IsNotFound, IsRateLimited and RetryAfterOf cover the common
// branches; errors.Is(err, okta.ErrNotFound) works as well.
package okta
