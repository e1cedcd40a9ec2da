package okta

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Log query sort orders.
const (
	SortAscending  = "ASCENDING"
	SortDescending = "DESCENDING"
)

// Log query limits accepted by the System Log API.
const (
	MinLogLimit     = 1
	MaxLogLimit     = 1000
	DefaultLogLimit = 100
)

// User represents an Okta user.
type User struct {
	ID              string                 `json:"id"                        yaml:"id"`
	Status          string                 `json:"status"                    yaml:"status"`
	Created         time.Time              `json:"created"                   yaml:"created"`
	Activated       *time.Time             `json:"activated,omitempty"       yaml:"activated,omitempty"`
	StatusChanged   *time.Time             `json:"statusChanged,omitempty"   yaml:"statusChanged,omitempty"`
	LastLogin       *time.Time             `json:"lastLogin,omitempty"       yaml:"lastLogin,omitempty"`
	LastUpdated     time.Time              `json:"lastUpdated"               yaml:"lastUpdated"`
	PasswordChanged *time.Time             `json:"passwordChanged,omitempty" yaml:"passwordChanged,omitempty"`
	Type            map[string]interface{} `json:"type,omitempty"            yaml:"type,omitempty"`
	Profile         map[string]interface{} `json:"profile,omitempty"         yaml:"profile,omitempty"`
	Credentials     map[string]interface{} `json:"credentials,omitempty"     yaml:"credentials,omitempty"`
	Links           map[string]interface{} `json:"_links,omitempty"          yaml:"_links,omitempty"`
}

func (u *User) profileString(key string) string {
	if u.Profile == nil {
		return ""
	}

	value, ok := u.Profile[key].(string)
	if !ok {
		return ""
	}

	return value
}

// Login returns profile.login.
func (u *User) Login() string { return u.profileString("login") }

// Email returns profile.email.
func (u *User) Email() string { return u.profileString("email") }

// DisplayName returns "First Last", falling back to login, email and id.
func (u *User) DisplayName() string {
	first := u.profileString("firstName")
	last := u.profileString("lastName")

	switch {
	case first != "" && last != "":
		return first + " " + last
	case u.Login() != "":
		return u.Login()
	case u.Email() != "":
		return u.Email()
	default:
		return u.ID
	}
}

// UserProfile is a partial profile update. Unset fields are not sent.
type UserProfile struct {
	FirstName        string                 `json:"firstName,omitempty"   yaml:"firstName,omitempty"`
	LastName         string                 `json:"lastName,omitempty"    yaml:"lastName,omitempty"`
	Email            string                 `json:"email,omitempty"       yaml:"email,omitempty"`
	Login            string                 `json:"login,omitempty"       yaml:"login,omitempty"`
	Title            string                 `json:"title,omitempty"       yaml:"title,omitempty"`
	Department       string                 `json:"department,omitempty"  yaml:"department,omitempty"`
	Manager          string                 `json:"manager,omitempty"     yaml:"manager,omitempty"`
	MobilePhone      string                 `json:"mobilePhone,omitempty" yaml:"mobilePhone,omitempty"`
	City             string                 `json:"city,omitempty"        yaml:"city,omitempty"`
	State            string                 `json:"state,omitempty"       yaml:"state,omitempty"`
	ZipCode          string                 `json:"zipCode,omitempty"     yaml:"zipCode,omitempty"`
	CountryCode      string                 `json:"countryCode,omitempty" yaml:"countryCode,omitempty"`
	CustomAttributes map[string]interface{} `json:"-"                     yaml:"customAttributes,omitempty"`
}

// Attributes flattens the profile into the attribute map Okta expects, with
// custom attributes merged at the top level.
func (p UserProfile) Attributes() map[string]interface{} {
	attrs := make(map[string]interface{})

	set := func(key, value string) {
		if value != "" {
			attrs[key] = value
		}
	}

	set("firstName", p.FirstName)
	set("lastName", p.LastName)
	set("email", p.Email)
	set("login", p.Login)
	set("title", p.Title)
	set("department", p.Department)
	set("manager", p.Manager)
	set("mobilePhone", p.MobilePhone)
	set("city", p.City)
	set("state", p.State)
	set("zipCode", p.ZipCode)
	set("countryCode", p.CountryCode)

	for key, value := range p.CustomAttributes {
		attrs[key] = value
	}

	return attrs
}

// UserQuery filters ListUsers.
type UserQuery struct {
	Filter string
	Search string
	Limit  int
}

// Group represents an Okta group.
type Group struct {
	ID      string                 `json:"id"                yaml:"id"`
	Type    string                 `json:"type,omitempty"    yaml:"type,omitempty"`
	Profile map[string]interface{} `json:"profile,omitempty" yaml:"profile,omitempty"`
	Created *time.Time             `json:"created,omitempty" yaml:"created,omitempty"`
}

// Name returns profile.name.
func (g *Group) Name() string {
	name, _ := g.Profile["name"].(string)

	return name
}

// AppLink is an entry of a user's application dashboard.
type AppLink struct {
	ID               string `json:"id,omitempty"               yaml:"id,omitempty"`
	Label            string `json:"label"                      yaml:"label"`
	LinkURL          string `json:"linkUrl,omitempty"          yaml:"linkUrl,omitempty"`
	AppName          string `json:"appName,omitempty"          yaml:"appName,omitempty"`
	AppInstanceID    string `json:"appInstanceId,omitempty"    yaml:"appInstanceId,omitempty"`
	AppAssignmentID  string `json:"appAssignmentId,omitempty"  yaml:"appAssignmentId,omitempty"`
	CredentialsSetup bool   `json:"credentialsSetup,omitempty" yaml:"credentialsSetup,omitempty"`
	Hidden           bool   `json:"hidden,omitempty"           yaml:"hidden,omitempty"`
	SortOrder        int    `json:"sortOrder,omitempty"        yaml:"sortOrder,omitempty"`
}

// UserOverview bundles a user with its groups and app links.
type UserOverview struct {
	User     *User     `json:"user"     yaml:"user"`
	Groups   []Group   `json:"groups"   yaml:"groups"`
	AppLinks []AppLink `json:"appLinks" yaml:"appLinks"`
}

// PasswordResetRequest is the body of a reset_password call.
type PasswordResetRequest struct {
	SendEmail    bool   `json:"sendEmail"`
	TempPassword string `json:"tempPassword,omitempty"`
}

// PasswordResetResult is returned by reset_password. ResetPasswordURL is only
// populated when SendEmail is false.
type PasswordResetResult struct {
	ResetPasswordURL string `json:"resetPasswordUrl,omitempty" yaml:"resetPasswordUrl,omitempty"`
}

// Application represents an Okta application instance.
type Application struct {
	ID            string                 `json:"id"                      yaml:"id"`
	Name          string                 `json:"name"                    yaml:"name"`
	Label         string                 `json:"label"                   yaml:"label"`
	Status        string                 `json:"status"                  yaml:"status"`
	Created       time.Time              `json:"created"                 yaml:"created"`
	LastUpdated   time.Time              `json:"lastUpdated"             yaml:"lastUpdated"`
	SignOnMode    string                 `json:"signOnMode,omitempty"    yaml:"signOnMode,omitempty"`
	Features      []string               `json:"features,omitempty"      yaml:"features,omitempty"`
	Accessibility map[string]interface{} `json:"accessibility,omitempty" yaml:"accessibility,omitempty"`
	Visibility    map[string]interface{} `json:"visibility,omitempty"    yaml:"visibility,omitempty"`
	Credentials   map[string]interface{} `json:"credentials,omitempty"   yaml:"credentials,omitempty"`
	Settings      map[string]interface{} `json:"settings,omitempty"      yaml:"settings,omitempty"`
	Links         map[string]interface{} `json:"_links,omitempty"        yaml:"_links,omitempty"`
}

// IsActive reports whether the application status is ACTIVE.
func (a *Application) IsActive() bool {
	return a.Status == "ACTIVE"
}

// ApplicationConfig is a partial application update.
type ApplicationConfig struct {
	Label         string                 `json:"label,omitempty"         yaml:"label,omitempty"`
	Visibility    map[string]interface{} `json:"visibility,omitempty"    yaml:"visibility,omitempty"`
	Accessibility map[string]interface{} `json:"accessibility,omitempty" yaml:"accessibility,omitempty"`
	Settings      map[string]interface{} `json:"settings,omitempty"      yaml:"settings,omitempty"`
	Features      []string               `json:"features,omitempty"      yaml:"features,omitempty"`
}

// IsEmpty reports whether no field is set.
func (c ApplicationConfig) IsEmpty() bool {
	return c.Label == "" && len(c.Visibility) == 0 && len(c.Accessibility) == 0 &&
		len(c.Settings) == 0 && len(c.Features) == 0
}

// AppQuery filters ListApplications.
type AppQuery struct {
	Filter string
	Expand string
	Query  string
	Limit  int
}

// AppUser is a user assignment on an application.
type AppUser struct {
	ID          string                 `json:"id"                    yaml:"id"`
	Scope       string                 `json:"scope,omitempty"       yaml:"scope,omitempty"`
	Status      string                 `json:"status,omitempty"      yaml:"status,omitempty"`
	Created     *time.Time             `json:"created,omitempty"     yaml:"created,omitempty"`
	LastUpdated *time.Time             `json:"lastUpdated,omitempty" yaml:"lastUpdated,omitempty"`
	Credentials map[string]interface{} `json:"credentials,omitempty" yaml:"credentials,omitempty"`
	Profile     map[string]interface{} `json:"profile,omitempty"     yaml:"profile,omitempty"`
}

// AppGroup is a group assignment on an application.
type AppGroup struct {
	ID          string                 `json:"id"                    yaml:"id"`
	Priority    int                    `json:"priority,omitempty"    yaml:"priority,omitempty"`
	LastUpdated *time.Time             `json:"lastUpdated,omitempty" yaml:"lastUpdated,omitempty"`
	Profile     map[string]interface{} `json:"profile,omitempty"     yaml:"profile,omitempty"`
}

// AppUserAssignment is the body of an assign-user call.
type AppUserAssignment struct {
	ID      string                 `json:"id"`
	Scope   string                 `json:"scope"`
	Profile map[string]interface{} `json:"profile,omitempty"`
}

// LogActor is the actor of a System Log event.
type LogActor struct {
	ID          string `json:"id"                    yaml:"id"`
	Type        string `json:"type"                  yaml:"type"`
	AlternateID string `json:"alternateId,omitempty" yaml:"alternateId,omitempty"`
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
}

// LogTarget is a target of a System Log event.
type LogTarget struct {
	ID          string `json:"id"                    yaml:"id"`
	Type        string `json:"type"                  yaml:"type"`
	AlternateID string `json:"alternateId,omitempty" yaml:"alternateId,omitempty"`
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
}

// LogOutcome is the outcome of a System Log event.
type LogOutcome struct {
	Result string `json:"result"           yaml:"result"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// LogEvent represents an Okta System Log event.
type LogEvent struct {
	UUID                  string                 `json:"uuid"                            yaml:"uuid"`
	Published             time.Time              `json:"published"                       yaml:"published"`
	EventType             string                 `json:"eventType"                       yaml:"eventType"`
	Version               string                 `json:"version"                         yaml:"version"`
	Severity              string                 `json:"severity"                        yaml:"severity"`
	LegacyEventType       string                 `json:"legacyEventType,omitempty"       yaml:"legacyEventType,omitempty"`
	DisplayMessage        string                 `json:"displayMessage,omitempty"        yaml:"displayMessage,omitempty"`
	Actor                 *LogActor              `json:"actor,omitempty"                 yaml:"actor,omitempty"`
	Outcome               *LogOutcome            `json:"outcome,omitempty"               yaml:"outcome,omitempty"`
	Target                []LogTarget            `json:"target,omitempty"                yaml:"target,omitempty"`
	Client                map[string]interface{} `json:"client,omitempty"                yaml:"client,omitempty"`
	Request               map[string]interface{} `json:"request,omitempty"               yaml:"request,omitempty"`
	Transaction           map[string]interface{} `json:"transaction,omitempty"           yaml:"transaction,omitempty"`
	DebugContext          map[string]interface{} `json:"debugContext,omitempty"          yaml:"debugContext,omitempty"`
	AuthenticationContext map[string]interface{} `json:"authenticationContext,omitempty" yaml:"authenticationContext,omitempty"`
	SecurityContext       map[string]interface{} `json:"securityContext,omitempty"       yaml:"securityContext,omitempty"`
}

// IsSuccess reports whether the event outcome is SUCCESS.
func (e *LogEvent) IsSuccess() bool {
	return e.Outcome != nil && e.Outcome.Result == "SUCCESS"
}

// ActorName returns the actor's display name or alternate id.
func (e *LogEvent) ActorName() string {
	if e.Actor == nil {
		return ""
	}

	if e.Actor.DisplayName != "" {
		return e.Actor.DisplayName
	}

	return e.Actor.AlternateID
}

// TargetNames returns the display names (or alternate ids) of all targets.
func (e *LogEvent) TargetNames() []string {
	names := make([]string, 0, len(e.Target))

	for _, target := range e.Target {
		name := target.DisplayName
		if name == "" {
			name = target.AlternateID
		}

		if name != "" {
			names = append(names, name)
		}
	}

	return names
}

// LogQuery holds System Log query parameters. Since and Until are sent as
// RFC 3339 timestamps.
type LogQuery struct {
	Q         string
	Filter    string
	Since     *time.Time
	Until     *time.Time
	SortOrder string
	Limit     int
	After     string
}

// Validate checks the sort order and limit.
func (q *LogQuery) Validate() error {
	if q.SortOrder != "" && q.SortOrder != SortAscending && q.SortOrder != SortDescending {
		return invalidWith("sortOrder", fmt.Errorf("%w: got %q", ErrInvalidSortOrder, q.SortOrder))
	}

	if q.Limit != 0 && (q.Limit < MinLogLimit || q.Limit > MaxLogLimit) {
		return invalidWith("limit", fmt.Errorf("%w: got %d", ErrInvalidLimit, q.Limit))
	}

	if q.Since != nil && q.Until != nil && q.Until.Before(*q.Since) {
		return InvalidArgument("until", "must not be before since")
	}

	return nil
}

// Apply adds the query parameters to spec in the order q, filter, since,
// until, sortOrder, limit, after.
func (q *LogQuery) Apply(spec RequestSpec) RequestSpec {
	sortOrder := q.SortOrder
	if sortOrder == "" {
		sortOrder = SortDescending
	}

	limit := q.Limit
	if limit == 0 {
		limit = DefaultLogLimit
	}

	spec = spec.WithQueryIf("q", q.Q).WithQueryIf("filter", q.Filter)

	if q.Since != nil {
		spec = spec.WithQuery("since", q.Since.UTC().Format(time.RFC3339))
	}

	if q.Until != nil {
		spec = spec.WithQuery("until", q.Until.UTC().Format(time.RFC3339))
	}

	return spec.
		WithQuery("sortOrder", sortOrder).
		WithQuery("limit", strconv.Itoa(limit)).
		WithQueryIf("after", q.After)
}

var filterOperators = []string{"eq ", "ne ", "sw ", "ew ", "co ", "gt ", "ge ", "lt ", "le "}

// LooksLikeFilter reports whether expr uses an Okta filter operator, as
// opposed to a free-text keyword search.
func LooksLikeFilter(expr string) bool {
	lower := strings.ToLower(expr)

	for _, op := range filterOperators {
		if strings.Contains(lower, " "+op) {
			return true
		}
	}

	return false
}

// QuoteFilterValue escapes value for use inside a double-quoted filter literal.
func QuoteFilterValue(value string) string {
	return `"` + strings.ReplaceAll(strings.ReplaceAll(value, `\`, `\\`), `"`, `\"`) + `"`
}
