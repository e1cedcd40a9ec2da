package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mcp-okta-support/okta-go/internal/constants"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewConfigCommand(t *testing.T) {
	cmd := NewConfigCommand()
	assert.Equal(t, "config", cmd.Use)
	assert.Equal(t, "Manage CLI configuration", cmd.Short)
	assert.ElementsMatch(t, []string{"show", "set", "unset", "path"}, subcommandNames(cmd))
}

// useConfigFile points the CLI at a config file in a temporary directory.
func useConfigFile(t *testing.T) string {
	t.Helper()
	resetViper(t)

	path := filepath.Join(t.TempDir(), "nested", constants.ConfigFileName)
	viper.Set(KeyConfig, path)

	return path
}

func readSettings(t *testing.T, path string) map[string]interface{} {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	settings := map[string]interface{}{}
	require.NoError(t, yaml.Unmarshal(data, &settings))

	return settings
}

func TestConfigSetAndUnset(t *testing.T) {
	path := useConfigFile(t)

	output, err := execute(t, NewConfigCommand(), "set", keyOrgURL, "https://acme.okta.com")
	require.NoError(t, err)
	assert.Contains(t, output, "Set org-url = https://acme.okta.com")

	output, err = execute(t, NewConfigCommand(), "set", keyAPIToken, "00secret")
	require.NoError(t, err)
	assert.NotContains(t, output, "00secret")
	assert.Contains(t, output, redactedValue)

	assert.Equal(t, map[string]interface{}{
		keyOrgURL:   "https://acme.okta.com",
		keyAPIToken: "00secret",
	}, readSettings(t, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(constants.ConfigFilePerm), info.Mode().Perm())

	_, err = execute(t, NewConfigCommand(), "unset", keyAPIToken)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{keyOrgURL: "https://acme.okta.com"}, readSettings(t, path))
}

func TestConfigRejectsUnknownKey(t *testing.T) {
	path := useConfigFile(t)

	_, err := execute(t, NewConfigCommand(), "set", "api", "https://api.example.com")
	require.ErrorIs(t, err, constants.ErrUnknownConfigKey)

	_, err = execute(t, NewConfigCommand(), "unset", "token")
	require.ErrorIs(t, err, constants.ErrUnknownConfigKey)

	assert.NoFileExists(t, path)
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	resetViper(t)
	viper.Set(keyOrgURL, "https://acme.okta.com")
	viper.Set(keyClientSecret, "very-secret")
	viper.Set(keyOutput, constants.FormatJSON)

	output, err := execute(t, NewConfigCommand(), "show")
	require.NoError(t, err)
	assert.NotContains(t, output, "very-secret")

	var settings map[string]interface{}
	decodeOutput(t, output, &settings)
	assert.Equal(t, "https://acme.okta.com", settings[keyOrgURL])
	assert.Equal(t, redactedValue, settings[keyClientSecret])
	assert.Nil(t, settings[keyAPIToken])
	assert.Len(t, settings, len(ConfigKeys))
}

func TestConfigPath(t *testing.T) {
	path := useConfigFile(t)

	output, err := execute(t, NewConfigCommand(), "path")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", output)
}

func TestConfigKeysCoverClientSettings(t *testing.T) {
	t.Parallel()

	for _, key := range []string{keyOrgURL, keyAPIToken, keyClientID, keyClientSecret, keyRateLimit, keyTimeoutSeconds} {
		assert.NoError(t, checkConfigKey(key))
	}
}
