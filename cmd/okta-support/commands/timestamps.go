package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/mcp-okta-support/okta-go/internal/constants"
)

// parseTimestamp accepts an RFC 3339 timestamp, or a duration meaning that
// long before now. An empty value yields nil.
func parseTimestamp(value string, now time.Time) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil //nolint:nilnil // no bound requested
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}

	if d, err := time.ParseDuration(value); err == nil && d >= 0 {
		t := now.Add(-d)

		return &t, nil
	}

	return nil, fmt.Errorf("%w: %q", constants.ErrInvalidTimestamp, value)
}
