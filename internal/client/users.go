package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mcp-okta-support/okta-go/internal/constants"
	"github.com/mcp-okta-support/okta-go/pkg/okta"
	"golang.org/x/sync/errgroup"
)

// UsersClient implements okta.UsersClient.
type UsersClient struct {
	client *Client
}

var _ okta.UsersClient = (*UsersClient)(nil)

// NewUsersClient creates a new users client.
func NewUsersClient(client *Client) *UsersClient {
	return &UsersClient{client: client}
}

func userPath(userID string, segments ...string) (string, error) {
	err := okta.RequireIdentifier("user_id", userID)
	if err != nil {
		return "", err
	}

	path := "/users/" + escapeIdentifier(userID)
	for _, segment := range segments {
		path += "/" + segment
	}

	return path, nil
}

// escapeIdentifier trims id and escapes it as a single path segment.
func escapeIdentifier(id string) string {
	return url.PathEscape(strings.TrimSpace(id))
}

func getUserSpec(userID string) (okta.RequestSpec, error) {
	path, err := userPath(userID)
	if err != nil {
		return okta.RequestSpec{}, err
	}

	return okta.NewRequest(http.MethodGet, path, okta.BucketUsers), nil
}

func listUsersSpec(query *okta.UserQuery) okta.RequestSpec {
	if query == nil {
		query = &okta.UserQuery{}
	}

	limit := query.Limit
	if limit <= 0 {
		limit = constants.DefaultPageSize
	}

	return okta.NewRequest(http.MethodGet, "/users", okta.BucketUsers).
		WithQuery("limit", strconv.Itoa(limit)).
		WithQueryIf("filter", query.Filter).
		WithQueryIf("search", query.Search)
}

// updateUserProfileSpec is a partial profile update. Okta merges the posted
// attributes, so repeating the request yields the same profile.
func updateUserProfileSpec(userID string, profile okta.UserProfile) (okta.RequestSpec, error) {
	path, err := userPath(userID)
	if err != nil {
		return okta.RequestSpec{}, err
	}

	attrs := profile.Attributes()
	if len(attrs) == 0 {
		return okta.RequestSpec{}, okta.InvalidArgument("profile", "at least one attribute is required")
	}

	return okta.NewRequest(http.MethodPost, path, okta.BucketUsers).
		WithBody(map[string]interface{}{"profile": attrs}).
		WithIdempotent(true), nil
}

func unlockUserSpec(userID string) (okta.RequestSpec, error) {
	path, err := userPath(userID, "lifecycle", "unlock")
	if err != nil {
		return okta.RequestSpec{}, err
	}

	return okta.NewRequest(http.MethodPost, path, okta.BucketUsers), nil
}

// resetPasswordSpec is never retried: a retry could send a second reset email.
func resetPasswordSpec(userID string, sendEmail bool) (okta.RequestSpec, error) {
	path, err := userPath(userID, "lifecycle", "reset_password")
	if err != nil {
		return okta.RequestSpec{}, err
	}

	return okta.NewRequest(http.MethodPost, path, okta.BucketUsers).
		WithQuery("sendEmail", strconv.FormatBool(sendEmail)), nil
}

func reinviteUserSpec(userID string) (okta.RequestSpec, error) {
	path, err := userPath(userID, "lifecycle", "reactivate")
	if err != nil {
		return okta.RequestSpec{}, err
	}

	return okta.NewRequest(http.MethodPost, path, okta.BucketUsers).
		WithQuery("sendEmail", "true"), nil
}

func userSubresourceSpec(userID, segment string) (okta.RequestSpec, error) {
	path, err := userPath(userID, segment)
	if err != nil {
		return okta.RequestSpec{}, err
	}

	return okta.NewRequest(http.MethodGet, path, okta.BucketUsers), nil
}

// Get implements okta.UsersClient.Get.
func (c *UsersClient) Get(ctx context.Context, userID string) (*okta.User, error) {
	spec, err := getUserSpec(userID)
	if err != nil {
		return nil, err
	}

	result, err := call[okta.User](ctx, c.client, spec)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	return &result.Value, nil
}

// List implements okta.UsersClient.List.
func (c *UsersClient) List(_ context.Context, query *okta.UserQuery, opts okta.PageOptions) (*okta.Pager[okta.User], error) {
	return paginate[okta.User](c.client, listUsersSpec(query), opts), nil
}

// UpdateProfile implements okta.UsersClient.UpdateProfile.
func (c *UsersClient) UpdateProfile(ctx context.Context, userID string, profile okta.UserProfile) (*okta.User, error) {
	spec, err := updateUserProfileSpec(userID, profile)
	if err != nil {
		return nil, err
	}

	result, err := call[okta.User](ctx, c.client, spec)
	if err != nil {
		return nil, fmt.Errorf("updating user profile: %w", err)
	}

	return &result.Value, nil
}

// Unlock implements okta.UsersClient.Unlock.
func (c *UsersClient) Unlock(ctx context.Context, userID string) error {
	spec, err := unlockUserSpec(userID)
	if err != nil {
		return err
	}

	_, err = c.client.Do(ctx, spec)
	if err != nil {
		return fmt.Errorf("unlocking user: %w", err)
	}

	return nil
}

// ResetPassword implements okta.UsersClient.ResetPassword.
func (c *UsersClient) ResetPassword(ctx context.Context, userID string, sendEmail bool) (*okta.PasswordResetResult, error) {
	spec, err := resetPasswordSpec(userID, sendEmail)
	if err != nil {
		return nil, err
	}

	result, err := call[okta.PasswordResetResult](ctx, c.client, spec)
	if err != nil {
		return nil, fmt.Errorf("resetting password: %w", err)
	}

	return &result.Value, nil
}

// Reinvite implements okta.UsersClient.Reinvite.
func (c *UsersClient) Reinvite(ctx context.Context, userID string) error {
	spec, err := reinviteUserSpec(userID)
	if err != nil {
		return err
	}

	_, err = c.client.Do(ctx, spec)
	if err != nil {
		return fmt.Errorf("reinviting user: %w", err)
	}

	return nil
}

// ListGroups implements okta.UsersClient.ListGroups.
func (c *UsersClient) ListGroups(ctx context.Context, userID string) ([]okta.Group, error) {
	spec, err := userSubresourceSpec(userID, "groups")
	if err != nil {
		return nil, err
	}

	groups, err := paginate[okta.Group](c.client, spec, okta.PageOptions{}).Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing user groups: %w", err)
	}

	return groups, nil
}

// ListAppLinks implements okta.UsersClient.ListAppLinks.
func (c *UsersClient) ListAppLinks(ctx context.Context, userID string) ([]okta.AppLink, error) {
	spec, err := userSubresourceSpec(userID, "appLinks")
	if err != nil {
		return nil, err
	}

	result, err := call[[]okta.AppLink](ctx, c.client, spec)
	if err != nil {
		return nil, fmt.Errorf("listing user app links: %w", err)
	}

	return result.Value, nil
}

// Overview implements okta.UsersClient.Overview.
func (c *UsersClient) Overview(ctx context.Context, userID string) (*okta.UserOverview, error) {
	err := okta.RequireIdentifier("user_id", userID)
	if err != nil {
		return nil, err
	}

	overview := &okta.UserOverview{}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(constants.DefaultConcurrencyLimit)

	group.Go(func() error {
		user, err := c.Get(ctx, userID)
		overview.User = user

		return err
	})

	group.Go(func() error {
		groups, err := c.ListGroups(ctx, userID)
		overview.Groups = groups

		return err
	})

	group.Go(func() error {
		links, err := c.ListAppLinks(ctx, userID)
		overview.AppLinks = links

		return err
	})

	err = group.Wait()
	if err != nil {
		return nil, err
	}

	return overview, nil
}
