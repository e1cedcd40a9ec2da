package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/mcp-okta-support/okta-go/internal/constants"
	"github.com/mcp-okta-support/okta-go/pkg/okta"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewUsersCommand creates the users command group.
func NewUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user", "u"},
		Short:   "Manage users",
		Long:    "View, update and troubleshoot Okta users",
	}

	cmd.AddCommand(newUsersGetCommand())
	cmd.AddCommand(newUsersListCommand())
	cmd.AddCommand(newUsersUpdateProfileCommand())
	cmd.AddCommand(newUsersUnlockCommand())
	cmd.AddCommand(newUsersResetPasswordCommand())
	cmd.AddCommand(newUsersReinviteCommand())
	cmd.AddCommand(newUsersGroupsCommand())
	cmd.AddCommand(newUsersAppsCommand())
	cmd.AddCommand(newUsersOverviewCommand())

	return cmd
}

func userRows(user *okta.User) [][2]string {
	rows := [][2]string{
		{"ID", user.ID},
		{"Status", user.Status},
		{"Login", orDash(user.Login())},
		{"Email", orDash(user.Email())},
		{"Name", orDash(user.DisplayName())},
		{"Created", formatTime(&user.Created)},
		{"Last Login", formatTime(user.LastLogin)},
		{"Password Changed", formatTime(user.PasswordChanged)},
	}

	for _, row := range mapRows(user.Profile) {
		switch row[0] {
		case "login", "email", "firstName", "lastName":
			continue
		}

		rows = append(rows, [2]string{"profile." + row[0], row[1]})
	}

	return rows
}

func renderUser(cmd *cobra.Command, user *okta.User) error {
	return render(cmd, user, propertyTable(userRows(user)))
}

func newUsersGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get USER_ID_OR_LOGIN",
		Short: "Get user details",
		Long:  "Display a user by id or login",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client okta.Client) error {
				user, err := client.Users().Get(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to get user: %w", err)
				}

				return renderUser(cmd, user)
			})
		},
	}
}

func newUsersListCommand() *cobra.Command {
	var (
		filter string
		search string
		limit  int
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Long:  "List users, optionally narrowed by a filter or search expression",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client okta.Client) error {
				pager, err := client.Users().List(ctx, &okta.UserQuery{Filter: filter, Search: search},
					pageOptions(limit, all))
				if err != nil {
					return fmt.Errorf("failed to list users: %w", err)
				}

				users, err := pager.Collect(ctx)
				if err != nil {
					return fmt.Errorf("failed to list users: %w", err)
				}

				return render(cmd, users, func(table *tablewriter.Table) {
					table.Header("ID", "Status", "Login", "Name", "Last Login")

					for i := range users {
						user := &users[i]
						_ = table.Append(user.ID, user.Status, user.Login(), user.DisplayName(), formatTime(user.LastLogin))
					}
				})
			})
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", `filter expression, e.g. status eq "LOCKED_OUT"`)
	cmd.Flags().StringVar(&search, "search", "", `search expression, e.g. profile.department eq "Engineering"`)
	addLimitFlags(cmd, &limit, &all)

	return cmd
}

func newUsersUpdateProfileCommand() *cobra.Command {
	var (
		profile okta.UserProfile
		attrs   map[string]string
	)

	cmd := &cobra.Command{
		Use:   "update-profile USER_ID",
		Short: "Update user profile attributes",
		Long:  "Partially update a user's profile; only the given attributes change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(attrs) > 0 {
				profile.CustomAttributes = make(map[string]interface{}, len(attrs))
				for key, value := range attrs {
					profile.CustomAttributes[key] = value
				}
			}

			if len(profile.Attributes()) == 0 {
				return constants.ErrProfileFieldsRequired
			}

			return withClient(cmd, func(ctx context.Context, client okta.Client) error {
				user, err := client.Users().UpdateProfile(ctx, args[0], profile)
				if err != nil {
					return fmt.Errorf("failed to update profile: %w", err)
				}

				return renderUser(cmd, user)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&profile.FirstName, "first-name", "", "first name")
	flags.StringVar(&profile.LastName, "last-name", "", "last name")
	flags.StringVar(&profile.Email, "email", "", "primary email")
	flags.StringVar(&profile.Login, "login", "", "login")
	flags.StringVar(&profile.Title, "title", "", "job title")
	flags.StringVar(&profile.Department, "department", "", "department")
	flags.StringVar(&profile.Manager, "manager", "", "manager")
	flags.StringVar(&profile.MobilePhone, "mobile-phone", "", "mobile phone")
	flags.StringVar(&profile.City, "city", "", "city")
	flags.StringVar(&profile.State, "state", "", "state")
	flags.StringVar(&profile.ZipCode, "zip-code", "", "zip code")
	flags.StringVar(&profile.CountryCode, "country-code", "", "country code")
	flags.StringToStringVar(&attrs, "attr", nil, "custom attribute as key=value (repeatable)")

	return cmd
}

func newUsersUnlockCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock USER_ID",
		Short: "Unlock a locked-out user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client okta.Client) error {
				err := client.Users().Unlock(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to unlock user: %w", err)
				}

				return printMessage(cmd, map[string]string{"user": args[0], "result": "unlocked"},
					"User %s unlocked", args[0])
			})
		},
	}
}

func newUsersResetPasswordCommand() *cobra.Command {
	var sendEmail bool

	cmd := &cobra.Command{
		Use:   "reset-password USER_ID",
		Short: "Start a password reset",
		Long:  "Start a password reset; without --send-email the one-time reset link is printed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client okta.Client) error {
				result, err := client.Users().ResetPassword(ctx, args[0], sendEmail)
				if err != nil {
					return fmt.Errorf("failed to reset password: %w", err)
				}

				if result.ResetPasswordURL == "" {
					return printMessage(cmd, result, "Password reset email sent to user %s", args[0])
				}

				return printMessage(cmd, result, "Password reset link for user %s: %s", args[0], result.ResetPasswordURL)
			})
		},
	}

	cmd.Flags().BoolVar(&sendEmail, "send-email", true, "email the reset link to the user")

	return cmd
}

func newUsersReinviteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reinvite USER_ID",
		Short: "Resend the activation email",
		Long:  "Reactivate a user who never completed activation and resend the activation email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client okta.Client) error {
				err := client.Users().Reinvite(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to reinvite user: %w", err)
				}

				return printMessage(cmd, map[string]string{"user": args[0], "result": "reinvited"},
					"Activation email sent to user %s", args[0])
			})
		},
	}
}

func groupsTable(groups []okta.Group) func(*tablewriter.Table) {
	return func(table *tablewriter.Table) {
		table.Header("ID", "Name", "Type")

		for i := range groups {
			_ = table.Append(groups[i].ID, groups[i].Name(), groups[i].Type)
		}
	}
}

func appLinksTable(links []okta.AppLink) func(*tablewriter.Table) {
	return func(table *tablewriter.Table) {
		table.Header("Label", "App", "Instance ID", "Hidden")

		for _, link := range links {
			_ = table.Append(link.Label, link.AppName, link.AppInstanceID, fmt.Sprintf("%t", link.Hidden))
		}
	}
}

func newUsersGroupsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "groups USER_ID",
		Short: "List a user's groups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client okta.Client) error {
				groups, err := client.Users().ListGroups(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to list groups: %w", err)
				}

				return render(cmd, groups, groupsTable(groups))
			})
		},
	}
}

func newUsersAppsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "apps USER_ID",
		Short: "List a user's application links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client okta.Client) error {
				links, err := client.Users().ListAppLinks(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to list app links: %w", err)
				}

				return render(cmd, links, appLinksTable(links))
			})
		},
	}
}

func newUsersOverviewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "overview USER_ID",
		Short: "Show a user with groups and applications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client okta.Client) error {
				overview, err := client.Users().Overview(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to get user overview: %w", err)
				}

				format, err := outputFormat()
				if err != nil {
					return err
				}

				if format != constants.FormatTable {
					return render(cmd, overview, nil)
				}

				out := cmd.OutOrStdout()

				for _, section := range []struct {
					title string
					data  interface{}
					table func(*tablewriter.Table)
				}{
					{"User", overview.User, propertyTable(userRows(overview.User))},
					{"Groups", overview.Groups, groupsTable(overview.Groups)},
					{"Applications", overview.AppLinks, appLinksTable(overview.AppLinks)},
				} {
					_, _ = fmt.Fprintf(out, "%s\n%s\n", section.title, strings.Repeat("-", len(section.title)))

					err = renderAs(out, format, section.data, section.table)
					if err != nil {
						return err
					}

					_, _ = fmt.Fprintln(out)
				}

				return nil
			})
		},
	}
}

// pageOptions caps list output at limit items unless all is set.
func pageOptions(limit int, all bool) okta.PageOptions {
	if all {
		return okta.PageOptions{}
	}

	if limit <= 0 {
		limit = constants.DefaultCLIMaxItems
	}

	return okta.PageOptions{MaxItems: limit}
}

func addLimitFlags(cmd *cobra.Command, limit *int, all *bool) {
	cmd.Flags().IntVar(limit, "limit", constants.DefaultCLIMaxItems, "maximum number of items to show")
	cmd.Flags().BoolVar(all, "all", false, "fetch every page")
}
