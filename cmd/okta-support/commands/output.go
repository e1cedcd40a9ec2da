package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/mcp-okta-support/okta-go/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// outputFormat returns the validated --output value.
func outputFormat() (string, error) {
	format := strings.ToLower(strings.TrimSpace(viper.GetString(keyOutput)))

	switch format {
	case "", constants.FormatTable:
		return constants.FormatTable, nil
	case constants.FormatJSON, constants.FormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %q", constants.ErrInvalidOutputFormat, format)
	}
}

// render writes data as JSON or YAML, or calls table for table output.
func render(cmd *cobra.Command, data interface{}, table func(*tablewriter.Table)) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	return renderAs(cmd.OutOrStdout(), format, data, table)
}

func renderAs(out io.Writer, format string, data interface{}, table func(*tablewriter.Table)) error {
	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")

		return encoder.Encode(data)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(out)
		defer func() { _ = encoder.Close() }()

		return encoder.Encode(data)
	default:
		writer := tablewriter.NewWriter(out)
		table(writer)

		return writer.Render()
	}
}

// propertyTable renders rows of property/value pairs.
func propertyTable(rows [][2]string) func(*tablewriter.Table) {
	return func(table *tablewriter.Table) {
		table.Header("Property", "Value")

		for _, row := range rows {
			_ = table.Append(row[0], row[1])
		}
	}
}

// mapRows flattens a profile-like map into sorted rows.
func mapRows(values map[string]interface{}) [][2]string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	rows := make([][2]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, [2]string{key, truncate(fmt.Sprintf("%v", values[key]))})
	}

	return rows
}

// printMessage writes a plain status line for table output; structured
// formats get the value instead.
func printMessage(cmd *cobra.Command, value interface{}, format string, args ...interface{}) error {
	output, err := outputFormat()
	if err != nil {
		return err
	}

	if output != constants.FormatTable {
		return renderAs(cmd.OutOrStdout(), output, value, nil)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)

	return err
}

func truncate(value string) string {
	if len(value) <= constants.MaxTableValueLength {
		return value
	}

	return value[:constants.MaxTableValueLength-3] + "..."
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}

	return t.UTC().Format(time.RFC3339)
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}

	return value
}
