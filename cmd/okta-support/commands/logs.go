package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mcp-okta-support/okta-go/internal/constants"
	"github.com/mcp-okta-support/okta-go/pkg/okta"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// logFlags holds the query flags shared by every logs subcommand.
type logFlags struct {
	since    string
	until    string
	sort     string
	filter   string
	pageSize int
	limit    int
	all      bool
}

func (f *logFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.since, "since", "", "start of the time window (RFC 3339 or a duration such as 24h)")
	flags.StringVar(&f.until, "until", "", "end of the time window (RFC 3339 or a duration such as 1h)")
	flags.StringVar(&f.sort, "sort", "desc", "sort order: asc or desc")
	flags.StringVar(&f.filter, "filter", "", "additional filter expression")
	flags.IntVar(&f.pageSize, "page-size", okta.DefaultLogLimit, "events per page (1-1000)")
	addLimitFlags(cmd, &f.limit, &f.all)
}

// query builds the System Log query from the flags.
func (f *logFlags) query(now time.Time) (*okta.LogQuery, error) {
	since, err := parseTimestamp(f.since, now)
	if err != nil {
		return nil, err
	}

	until, err := parseTimestamp(f.until, now)
	if err != nil {
		return nil, err
	}

	query := &okta.LogQuery{
		Filter: f.filter,
		Since:  since,
		Until:  until,
		Limit:  f.pageSize,
	}

	switch strings.ToLower(strings.TrimSpace(f.sort)) {
	case "", "desc", "descending":
		query.SortOrder = okta.SortDescending
	case "asc", "ascending":
		query.SortOrder = okta.SortAscending
	default:
		return nil, fmt.Errorf("%w: %q", constants.ErrInvalidSortFlag, f.sort)
	}

	return query, nil
}

type logSource func(ctx context.Context, logs okta.LogsClient, args []string, query *okta.LogQuery,
	opts okta.PageOptions) (*okta.Pager[okta.LogEvent], error)

// NewLogsCommand creates the logs command group.
func NewLogsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "logs",
		Aliases: []string{"log", "events"},
		Short:   "Query the System Log",
		Long:    "Search and filter Okta System Log events",
	}

	cmd.AddCommand(newLogsCommand("search EXPRESSION", "Search events by filter expression or keyword",
		"Treat EXPRESSION as a filter when it contains an operator such as eq, otherwise as a keyword search",
		1, func(ctx context.Context, logs okta.LogsClient, args []string, query *okta.LogQuery,
			opts okta.PageOptions) (*okta.Pager[okta.LogEvent], error) {
			return logs.Search(ctx, args[0], query, opts)
		}))
	cmd.AddCommand(newLogsCommand("user USER_ID_OR_LOGIN", "Events where the user is actor or target", "",
		1, func(ctx context.Context, logs okta.LogsClient, args []string, query *okta.LogQuery,
			opts okta.PageOptions) (*okta.Pager[okta.LogEvent], error) {
			return logs.ForUser(ctx, args[0], query, opts)
		}))
	cmd.AddCommand(newLogsCommand("app APP_ID_OR_NAME", "Events targeting an application", "",
		1, func(ctx context.Context, logs okta.LogsClient, args []string, query *okta.LogQuery,
			opts okta.PageOptions) (*okta.Pager[okta.LogEvent], error) {
			return logs.ForApplication(ctx, args[0], query, opts)
		}))
	cmd.AddCommand(newLogsCommand("failed-logins", "Failed sign-in attempts", "",
		0, func(ctx context.Context, logs okta.LogsClient, _ []string, query *okta.LogQuery,
			opts okta.PageOptions) (*okta.Pager[okta.LogEvent], error) {
			return logs.FailedLogins(ctx, query, opts)
		}))
	cmd.AddCommand(newLogsCommand("password-resets", "Password reset and change events", "",
		0, func(ctx context.Context, logs okta.LogsClient, _ []string, query *okta.LogQuery,
			opts okta.PageOptions) (*okta.Pager[okta.LogEvent], error) {
			return logs.PasswordResets(ctx, query, opts)
		}))
	cmd.AddCommand(newLogsCommand("admin ADMIN_ID_OR_LOGIN", "Administrative actions performed by an admin", "",
		1, func(ctx context.Context, logs okta.LogsClient, args []string, query *okta.LogQuery,
			opts okta.PageOptions) (*okta.Pager[okta.LogEvent], error) {
			return logs.AdminActions(ctx, args[0], query, opts)
		}))

	return cmd
}

func newLogsCommand(use, short, long string, argCount int, source logSource) *cobra.Command {
	var flags logFlags

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(argCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := flags.query(time.Now())
			if err != nil {
				return err
			}

			return withClient(cmd, func(ctx context.Context, client okta.Client) error {
				pager, err := source(ctx, client.Logs(), args, query, pageOptions(flags.limit, flags.all))
				if err != nil {
					return fmt.Errorf("failed to query logs: %w", err)
				}

				events, err := pager.Collect(ctx)
				if err != nil {
					return fmt.Errorf("failed to query logs: %w", err)
				}

				return render(cmd, events, eventsTable(events))
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func eventsTable(events []okta.LogEvent) func(*tablewriter.Table) {
	return func(table *tablewriter.Table) {
		table.Header("Published", "Event Type", "Outcome", "Actor", "Targets", "Message")

		for i := range events {
			event := &events[i]

			outcome := "-"
			if event.Outcome != nil {
				outcome = event.Outcome.Result
				if event.Outcome.Reason != "" {
					outcome += " (" + event.Outcome.Reason + ")"
				}
			}

			_ = table.Append(
				formatTime(&event.Published),
				event.EventType,
				truncate(outcome),
				orDash(event.ActorName()),
				truncate(orDash(strings.Join(event.TargetNames(), ", "))),
				truncate(orDash(event.DisplayMessage)),
			)
		}
	}
}
