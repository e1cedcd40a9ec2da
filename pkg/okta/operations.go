package okta

import (
	"fmt"
	"time"
)

// Operation names a logical operation of the operation-level contract.
type Operation string

// Single-result operations accepted by Call.
const (
	OpGetUser                 Operation = "get_user"
	OpUpdateUserProfile       Operation = "update_user_profile"
	OpUnlockUser              Operation = "unlock_user"
	OpResetPassword           Operation = "reset_password"
	OpReinviteUser            Operation = "reinvite_user"
	OpListApplications        Operation = "list_applications"
	OpGetApplication          Operation = "get_application"
	OpUpdateApplicationConfig Operation = "update_application_config"
	OpListPage                Operation = "list_page"
)

// Paginated operations accepted by CallPaginated. OpListApplications is
// accepted by both.
const (
	OpSearchLogs              Operation = "search_logs"
	OpGetUserLogs             Operation = "get_user_logs"
	OpGetApplicationLogs      Operation = "get_application_logs"
	OpListFailedLogins        Operation = "list_failed_logins"
	OpListPasswordResetEvents Operation = "list_password_reset_events"
)

// Params carries the inputs of an operation. Only the fields relevant to the
// operation are read.
type Params struct {
	UserID string
	AppID  string

	Profile   *UserProfile
	AppConfig *ApplicationConfig
	SendEmail bool

	// Query is a filter expression or keyword search for OpSearchLogs, and a
	// name search for OpListApplications.
	Query     string
	Filter    string
	Expand    string
	Since     *time.Time
	Until     *time.Time
	SortOrder string
	Limit     int

	// Spec is the page request for OpListPage, usually carrying an "after" cursor.
	Spec *RequestSpec

	MaxItems int
	MaxPages int
}

// PageOptions returns the pagination bounds of p.
func (p Params) PageOptions() PageOptions {
	return PageOptions{MaxItems: p.MaxItems, MaxPages: p.MaxPages}
}

// LogQuery returns the System Log query described by p.
func (p Params) LogQuery() *LogQuery {
	return &LogQuery{
		Filter:    p.Filter,
		Since:     p.Since,
		Until:     p.Until,
		SortOrder: p.SortOrder,
		Limit:     p.Limit,
	}
}

// UnsupportedOperation reports an operation that the called entry point does not accept.
func UnsupportedOperation(op Operation) error {
	return fmt.Errorf("%w: %q", ErrUnsupportedOperation, op)
}
