package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mcp-okta-support/okta-go/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// KeyConfig is the flag naming an explicit config file.
const KeyConfig = "config"

const redactedValue = "[REDACTED]"

// ConfigKeys lists the settings accepted by flags, environment and config file.
var ConfigKeys = []string{
	keyOrgURL,
	keyAPIToken,
	keyClientID,
	keyClientSecret,
	keyScopes,
	keyTokenURL,
	keyOutput,
	keyVerbose,
	keyMetrics,
	keyRateLimit,
	keyTimeoutSeconds,
	keyRetryMax,
	keyAllowCustomDomain,
}

var secretKeys = []string{keyAPIToken, keyClientSecret}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and edit the settings stored in the okta-support config file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigPathCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long:  "Display the settings in effect after merging flags, environment and config file; secrets are redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := effectiveSettings()

			rows := make([][2]string, 0, len(ConfigKeys))
			for _, key := range ConfigKeys {
				rows = append(rows, [2]string{key, orDash(fmt.Sprintf("%v", settings[key]))})
			}

			return render(cmd, settings, propertyTable(rows))
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Store a setting in the config file. Keys: " + strings.Join(ConfigKeys, ", "),
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			err := checkConfigKey(key)
			if err != nil {
				return err
			}

			path, err := configFilePath()
			if err != nil {
				return err
			}

			settings, err := readConfigFile(path)
			if err != nil {
				return err
			}

			settings[key] = value

			err = writeConfigFile(path, settings)
			if err != nil {
				return err
			}

			if slices.Contains(secretKeys, key) {
				value = redactedValue
			}

			return printMessage(cmd, map[string]string{"key": key, "value": value, "file": path},
				"Set %s = %s in %s", key, value, path)
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Remove a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			err := checkConfigKey(key)
			if err != nil {
				return err
			}

			path, err := configFilePath()
			if err != nil {
				return err
			}

			settings, err := readConfigFile(path)
			if err != nil {
				return err
			}

			delete(settings, key)

			err = writeConfigFile(path, settings)
			if err != nil {
				return err
			}

			return printMessage(cmd, map[string]string{"key": key, "file": path},
				"Removed %s from %s", key, path)
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath()
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)

			return err
		},
	}
}

// effectiveSettings returns every known setting with secrets redacted.
func effectiveSettings() map[string]interface{} {
	settings := make(map[string]interface{}, len(ConfigKeys))

	for _, key := range ConfigKeys {
		value := viper.Get(key)
		if slices.Contains(secretKeys, key) && viper.GetString(key) != "" {
			value = redactedValue
		}

		settings[key] = value
	}

	return settings
}

func checkConfigKey(key string) error {
	if !slices.Contains(ConfigKeys, key) {
		return fmt.Errorf("%w %q, use one of: %s", constants.ErrUnknownConfigKey, key, strings.Join(ConfigKeys, ", "))
	}

	return nil
}

// configFilePath returns the --config file, the file viper loaded, or the
// default under the home directory.
func configFilePath() (string, error) {
	if path := viper.GetString(KeyConfig); path != "" {
		return path, nil
	}

	if path := viper.ConfigFileUsed(); path != "" {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, constants.ConfigDirName, constants.ConfigFileName), nil
}

func readConfigFile(path string) (map[string]interface{}, error) {
	settings := make(map[string]interface{})

	// #nosec G304 -- path is the user's own config file
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return settings, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(data, &settings)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if settings == nil {
		settings = make(map[string]interface{})
	}

	return settings, nil
}

func writeConfigFile(path string, settings map[string]interface{}) error {
	err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("%w: %w", constants.ErrConfigFileNotWritten, err)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("%w: %w", constants.ErrConfigFileNotWritten, err)
	}

	err = os.WriteFile(path, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("%w: %w", constants.ErrConfigFileNotWritten, err)
	}

	return nil
}
