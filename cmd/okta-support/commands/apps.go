package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mcp-okta-support/okta-go/internal/constants"
	"github.com/mcp-okta-support/okta-go/pkg/okta"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewAppsCommand creates the apps command group.
func NewAppsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "apps",
		Aliases: []string{"app", "applications"},
		Short:   "Manage applications",
		Long:    "View and configure Okta applications and their assignments",
	}

	cmd.AddCommand(newAppsListCommand())
	cmd.AddCommand(newAppsGetCommand())
	cmd.AddCommand(newAppsUpdateCommand())
	cmd.AddCommand(newAppsUsersCommand())
	cmd.AddCommand(newAppsGroupsCommand())
	cmd.AddCommand(newAppsLifecycleCommand("activate", "Activate an application", true))
	cmd.AddCommand(newAppsLifecycleCommand("deactivate", "Deactivate an application", false))
	cmd.AddCommand(newAppsAssignCommand())
	cmd.AddCommand(newAppsUnassignCommand())

	return cmd
}

func appRows(app *okta.Application) [][2]string {
	rows := [][2]string{
		{"ID", app.ID},
		{"Name", app.Name},
		{"Label", app.Label},
		{"Status", app.Status},
		{"Sign-On Mode", orDash(app.SignOnMode)},
		{"Features", orDash(strings.Join(app.Features, ", "))},
		{"Created", formatTime(&app.Created)},
		{"Last Updated", formatTime(&app.LastUpdated)},
	}

	for _, row := range mapRows(app.Settings) {
		rows = append(rows, [2]string{"settings." + row[0], row[1]})
	}

	return rows
}

func newAppsListCommand() *cobra.Command {
	var (
		query okta.AppQuery
		limit int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applications",
		Long:  "List applications, optionally filtered by name or status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client okta.Client) error {
				pager, err := client.Applications().List(ctx, &query, pageOptions(limit, all))
				if err != nil {
					return fmt.Errorf("failed to list applications: %w", err)
				}

				apps, err := pager.Collect(ctx)
				if err != nil {
					return fmt.Errorf("failed to list applications: %w", err)
				}

				return render(cmd, apps, func(table *tablewriter.Table) {
					table.Header("ID", "Label", "Name", "Status", "Sign-On Mode")

					for _, app := range apps {
						_ = table.Append(app.ID, app.Label, app.Name, app.Status, app.SignOnMode)
					}
				})
			})
		},
	}

	cmd.Flags().StringVarP(&query.Query, "query", "q", "", "match label or name prefix")
	cmd.Flags().StringVar(&query.Filter, "filter", "", `filter expression, e.g. status eq "ACTIVE"`)
	cmd.Flags().StringVar(&query.Expand, "expand", "", "expand related resources")
	addLimitFlags(cmd, &limit, &all)

	return cmd
}

func newAppsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get APP_ID",
		Short: "Get application details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client okta.Client) error {
				app, err := client.Applications().Get(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to get application: %w", err)
				}

				return render(cmd, app, propertyTable(appRows(app)))
			})
		},
	}
}

func newAppsUpdateCommand() *cobra.Command {
	var (
		label    string
		settings string
		features []string
	)

	cmd := &cobra.Command{
		Use:   "update APP_ID",
		Short: "Update application configuration",
		Long:  "Update an application's label, settings or features",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := okta.ApplicationConfig{Label: label, Features: features}

			if settings != "" {
				err := json.Unmarshal([]byte(settings), &config.Settings)
				if err != nil {
					return fmt.Errorf("invalid --settings JSON: %w", err)
				}
			}

			if config.IsEmpty() {
				return constants.ErrAppConfigRequired
			}

			return withClient(cmd, func(ctx context.Context, client okta.Client) error {
				app, err := client.Applications().UpdateConfig(ctx, args[0], config)
				if err != nil {
					return fmt.Errorf("failed to update application: %w", err)
				}

				return render(cmd, app, propertyTable(appRows(app)))
			})
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "display label")
	cmd.Flags().StringVar(&settings, "settings", "", `settings as JSON, e.g. '{"app":{"domain":"acme"}}'`)
	cmd.Flags().StringSliceVar(&features, "features", nil, "provisioning features (comma separated)")

	return cmd
}

func newAppsUsersCommand() *cobra.Command {
	var (
		limit int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "users APP_ID",
		Short: "List users assigned to an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client okta.Client) error {
				pager, err := client.Applications().ListUsers(ctx, args[0], pageOptions(limit, all))
				if err != nil {
					return fmt.Errorf("failed to list application users: %w", err)
				}

				users, err := pager.Collect(ctx)
				if err != nil {
					return fmt.Errorf("failed to list application users: %w", err)
				}

				return render(cmd, users, func(table *tablewriter.Table) {
					table.Header("ID", "Scope", "Status", "User Name")

					for _, user := range users {
						userName, _ := user.Credentials["userName"].(string)
						_ = table.Append(user.ID, user.Scope, user.Status, orDash(userName))
					}
				})
			})
		},
	}

	addLimitFlags(cmd, &limit, &all)

	return cmd
}

func newAppsGroupsCommand() *cobra.Command {
	var (
		limit int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "groups APP_ID",
		Short: "List groups assigned to an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client okta.Client) error {
				pager, err := client.Applications().ListGroups(ctx, args[0], pageOptions(limit, all))
				if err != nil {
					return fmt.Errorf("failed to list application groups: %w", err)
				}

				groups, err := pager.Collect(ctx)
				if err != nil {
					return fmt.Errorf("failed to list application groups: %w", err)
				}

				return render(cmd, groups, func(table *tablewriter.Table) {
					table.Header("ID", "Priority", "Last Updated")

					for _, group := range groups {
						_ = table.Append(group.ID, fmt.Sprintf("%d", group.Priority), formatTime(group.LastUpdated))
					}
				})
			})
		},
	}

	addLimitFlags(cmd, &limit, &all)

	return cmd
}

func newAppsLifecycleCommand(use, short string, activate bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " APP_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client okta.Client) error {
				apps := client.Applications()

				var err error
				if activate {
					err = apps.Activate(ctx, args[0])
				} else {
					err = apps.Deactivate(ctx, args[0])
				}

				if err != nil {
					return fmt.Errorf("failed to %s application: %w", use, err)
				}

				return printMessage(cmd, map[string]string{"app": args[0], "result": use + "d"},
					"Application %s %sd", args[0], use)
			})
		},
	}
}

func newAppsAssignCommand() *cobra.Command {
	var attrs map[string]string

	cmd := &cobra.Command{
		Use:   "assign APP_ID USER_ID",
		Short: "Assign a user to an application",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			var profile map[string]interface{}
			if len(attrs) > 0 {
				profile = make(map[string]interface{}, len(attrs))
				for key, value := range attrs {
					profile[key] = value
				}
			}

			return withClient(cmd, func(ctx context.Context, client okta.Client) error {
				appUser, err := client.Applications().AssignUser(ctx, args[0], args[1], profile)
				if err != nil {
					return fmt.Errorf("failed to assign user: %w", err)
				}

				return render(cmd, appUser, propertyTable([][2]string{
					{"ID", appUser.ID},
					{"Scope", appUser.Scope},
					{"Status", orDash(appUser.Status)},
				}))
			})
		},
	}

	cmd.Flags().StringToStringVar(&attrs, "attr", nil, "app profile attribute as key=value (repeatable)")

	return cmd
}

func newAppsUnassignCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unassign APP_ID USER_ID",
		Short: "Remove a user's application assignment",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client okta.Client) error {
				err := client.Applications().UnassignUser(ctx, args[0], args[1])
				if err != nil {
					return fmt.Errorf("failed to unassign user: %w", err)
				}

				return printMessage(cmd, map[string]string{"app": args[0], "user": args[1], "result": "unassigned"},
					"User %s unassigned from application %s", args[1], args[0])
			})
		},
	}
}
