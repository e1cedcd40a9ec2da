package constants

import "errors"

// Configuration errors.
var (
	ErrNoOrgURL             = errors.New("no org URL configured, use --org-url or OKTA_ORG_URL")
	ErrNoCredentials        = errors.New("no credentials configured, use --api-token or --client-id with --client-secret")
	ErrInvalidOutputFormat  = errors.New("invalid output format, use table, json or yaml")
	ErrConfigFileNotWritten = errors.New("config file could not be written")
	ErrUnknownConfigKey     = errors.New("unknown configuration key")
)

// Required field errors.
var (
	ErrProfileFieldsRequired = errors.New("at least one profile field flag is required")
	ErrAppConfigRequired     = errors.New("at least one of --label, --settings or --features is required")
	ErrInvalidSortFlag       = errors.New("invalid sort order, use asc or desc")
	ErrInvalidTimestamp      = errors.New("invalid timestamp, use RFC 3339 (e.g. 2026-01-02T15:04:05Z) or a duration such as 24h")
)
