package commands

import (
	"runtime"

	"github.com/mcp-okta-support/okta-go/internal/constants"
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display version information about the okta-support CLI and its API client",
		RunE: func(cmd *cobra.Command, args []string) error {
			type VersionInfo struct {
				Version       string `json:"version"        yaml:"version"`
				Commit        string `json:"commit"         yaml:"commit"`
				Built         string `json:"built"          yaml:"built"`
				ClientVersion string `json:"client_version" yaml:"client_version"`
				GoVersion     string `json:"go_version"     yaml:"go_version"`
			}

			info := VersionInfo{
				Version:       version,
				Commit:        commit,
				Built:         date,
				ClientVersion: constants.Version,
				GoVersion:     runtime.Version(),
			}

			return render(cmd, info, propertyTable([][2]string{
				{"Version", info.Version},
				{"Commit", info.Commit},
				{"Built", info.Built},
				{"Client Version", info.ClientVersion},
				{"Go Version", info.GoVersion},
			}))
		},
	}
}
