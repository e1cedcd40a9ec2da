package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mcp-okta-support/okta-go/internal/constants"
	"github.com/mcp-okta-support/okta-go/pkg/okta"
)

// Application user assignment scopes.
const (
	ScopeUser  = "USER"
	ScopeGroup = "GROUP"
)

// ApplicationsClient implements okta.ApplicationsClient.
type ApplicationsClient struct {
	client *Client
}

var _ okta.ApplicationsClient = (*ApplicationsClient)(nil)

// NewApplicationsClient creates a new applications client.
func NewApplicationsClient(client *Client) *ApplicationsClient {
	return &ApplicationsClient{client: client}
}

func appPath(appID string, segments ...string) (string, error) {
	err := okta.RequireIdentifier("app_id", appID)
	if err != nil {
		return "", err
	}

	path := "/apps/" + escapeIdentifier(appID)
	for _, segment := range segments {
		path += "/" + segment
	}

	return path, nil
}

func listApplicationsSpec(query *okta.AppQuery) okta.RequestSpec {
	if query == nil {
		query = &okta.AppQuery{}
	}

	limit := query.Limit
	if limit <= 0 {
		limit = constants.DefaultAppPageSize
	}

	return okta.NewRequest(http.MethodGet, "/apps", okta.BucketApps).
		WithQuery("limit", strconv.Itoa(limit)).
		WithQueryIf("q", query.Query).
		WithQueryIf("filter", query.Filter).
		WithQueryIf("expand", query.Expand)
}

func getApplicationSpec(appID string) (okta.RequestSpec, error) {
	path, err := appPath(appID)
	if err != nil {
		return okta.RequestSpec{}, err
	}

	return okta.NewRequest(http.MethodGet, path, okta.BucketApps), nil
}

func updateApplicationConfigSpec(appID string, config okta.ApplicationConfig) (okta.RequestSpec, error) {
	path, err := appPath(appID)
	if err != nil {
		return okta.RequestSpec{}, err
	}

	if config.IsEmpty() {
		return okta.RequestSpec{}, okta.InvalidArgument("config", "at least one field is required")
	}

	return okta.NewRequest(http.MethodPut, path, okta.BucketApps).
		WithBody(config).
		WithIdempotent(true), nil
}

func appAssignmentsSpec(appID, segment string) (okta.RequestSpec, error) {
	path, err := appPath(appID, segment)
	if err != nil {
		return okta.RequestSpec{}, err
	}

	return okta.NewRequest(http.MethodGet, path, okta.BucketApps).
		WithQuery("limit", strconv.Itoa(constants.DefaultPageSize)), nil
}

func appLifecycleSpec(appID, action string) (okta.RequestSpec, error) {
	path, err := appPath(appID, "lifecycle", action)
	if err != nil {
		return okta.RequestSpec{}, err
	}

	return okta.NewRequest(http.MethodPost, path, okta.BucketApps), nil
}

func assignUserSpec(appID, userID string, profile map[string]interface{}) (okta.RequestSpec, error) {
	path, err := appPath(appID, "users")
	if err != nil {
		return okta.RequestSpec{}, err
	}

	err = okta.RequireIdentifier("user_id", userID)
	if err != nil {
		return okta.RequestSpec{}, err
	}

	return okta.NewRequest(http.MethodPost, path, okta.BucketApps).
		WithBody(okta.AppUserAssignment{ID: strings.TrimSpace(userID), Scope: ScopeUser, Profile: profile}), nil
}

func unassignUserSpec(appID, userID string) (okta.RequestSpec, error) {
	path, err := appPath(appID, "users")
	if err != nil {
		return okta.RequestSpec{}, err
	}

	err = okta.RequireIdentifier("user_id", userID)
	if err != nil {
		return okta.RequestSpec{}, err
	}

	return okta.NewRequest(http.MethodDelete, path+"/"+escapeIdentifier(userID), okta.BucketApps), nil
}

// Get implements okta.ApplicationsClient.Get.
func (c *ApplicationsClient) Get(ctx context.Context, appID string) (*okta.Application, error) {
	spec, err := getApplicationSpec(appID)
	if err != nil {
		return nil, err
	}

	result, err := call[okta.Application](ctx, c.client, spec)
	if err != nil {
		return nil, fmt.Errorf("getting application: %w", err)
	}

	return &result.Value, nil
}

// List implements okta.ApplicationsClient.List.
func (c *ApplicationsClient) List(_ context.Context, query *okta.AppQuery, opts okta.PageOptions) (*okta.Pager[okta.Application], error) {
	return paginate[okta.Application](c.client, listApplicationsSpec(query), opts), nil
}

// UpdateConfig implements okta.ApplicationsClient.UpdateConfig.
func (c *ApplicationsClient) UpdateConfig(ctx context.Context, appID string, config okta.ApplicationConfig) (*okta.Application, error) {
	spec, err := updateApplicationConfigSpec(appID, config)
	if err != nil {
		return nil, err
	}

	result, err := call[okta.Application](ctx, c.client, spec)
	if err != nil {
		return nil, fmt.Errorf("updating application: %w", err)
	}

	return &result.Value, nil
}

// ListUsers implements okta.ApplicationsClient.ListUsers.
func (c *ApplicationsClient) ListUsers(_ context.Context, appID string, opts okta.PageOptions) (*okta.Pager[okta.AppUser], error) {
	spec, err := appAssignmentsSpec(appID, "users")
	if err != nil {
		return nil, err
	}

	return paginate[okta.AppUser](c.client, spec, opts), nil
}

// ListGroups implements okta.ApplicationsClient.ListGroups.
func (c *ApplicationsClient) ListGroups(_ context.Context, appID string, opts okta.PageOptions) (*okta.Pager[okta.AppGroup], error) {
	spec, err := appAssignmentsSpec(appID, "groups")
	if err != nil {
		return nil, err
	}

	return paginate[okta.AppGroup](c.client, spec, opts), nil
}

// Activate implements okta.ApplicationsClient.Activate.
func (c *ApplicationsClient) Activate(ctx context.Context, appID string) error {
	return c.lifecycle(ctx, appID, "activate")
}

// Deactivate implements okta.ApplicationsClient.Deactivate.
func (c *ApplicationsClient) Deactivate(ctx context.Context, appID string) error {
	return c.lifecycle(ctx, appID, "deactivate")
}

func (c *ApplicationsClient) lifecycle(ctx context.Context, appID, action string) error {
	spec, err := appLifecycleSpec(appID, action)
	if err != nil {
		return err
	}

	_, err = c.client.Do(ctx, spec)
	if err != nil {
		return fmt.Errorf("%s application: %w", action, err)
	}

	return nil
}

// AssignUser implements okta.ApplicationsClient.AssignUser.
func (c *ApplicationsClient) AssignUser(ctx context.Context, appID, userID string, profile map[string]interface{}) (*okta.AppUser, error) {
	spec, err := assignUserSpec(appID, userID, profile)
	if err != nil {
		return nil, err
	}

	result, err := call[okta.AppUser](ctx, c.client, spec)
	if err != nil {
		return nil, fmt.Errorf("assigning user to application: %w", err)
	}

	return &result.Value, nil
}

// UnassignUser implements okta.ApplicationsClient.UnassignUser.
func (c *ApplicationsClient) UnassignUser(ctx context.Context, appID, userID string) error {
	spec, err := unassignUserSpec(appID, userID)
	if err != nil {
		return err
	}

	_, err = c.client.Do(ctx, spec)
	if err != nil {
		return fmt.Errorf("unassigning user from application: %w", err)
	}

	return nil
}
