package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mcp-okta-support/okta-go/cmd/okta-support/commands"
	"github.com/mcp-okta-support/okta-go/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "okta-support",
	Short: "Okta support CLI",
	Long: `A command-line interface for Okta support work.

It looks up and fixes users, manages application configuration and
assignments, and searches the System Log. Settings come from flags,
OKTA_* environment variables (also read from a .env file) and
$HOME/.okta-support/config.yml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringP(commands.KeyConfig, "c", "", "config file (default is $HOME/.okta-support/config.yml)")
	flags.String("org-url", "", "Okta org URL, e.g. https://acme.okta.com")
	flags.String("api-token", "", "API token (SSWS)")
	flags.String("client-id", "", "OAuth client id for the client credentials grant")
	flags.String("client-secret", "", "OAuth client secret (prompted when omitted on a terminal)")
	flags.StringSlice("scopes", nil, "OAuth scopes (default okta.users.manage,okta.apps.manage,okta.logs.read)")
	flags.String("token-url", "", "OAuth token endpoint (default <org-url>/oauth2/v1/token)")
	flags.StringP("output", "o", constants.FormatTable, "output format (table, json, yaml)")
	flags.BoolP("verbose", "v", false, "log HTTP requests to stderr")
	flags.Bool("metrics", false, "print client metrics to stderr on exit")
	flags.Int("rate-limit", constants.DefaultRateLimitCeiling, "client-side ceiling in requests per minute (0 disables)")
	flags.Int("timeout-seconds", int(constants.DefaultHTTPTimeout.Seconds()), "timeout of a single HTTP attempt")
	flags.Int("retry-max", constants.DefaultRetryMax, "maximum attempts per request")
	flags.Bool("allow-custom-domain", false, "accept org URLs outside the Okta domains")

	// Bind flags to viper
	for _, key := range append([]string{commands.KeyConfig}, commands.ConfigKeys...) {
		_ = viper.BindPFlag(key, flags.Lookup(key))
	}

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewUsersCommand())
	rootCmd.AddCommand(commands.NewAppsCommand())
	rootCmd.AddCommand(commands.NewLogsCommand())
}

func initConfig() {
	_ = godotenv.Load()

	cfgFile := viper.GetString(commands.KeyConfig)

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in ~/.okta-support/config.yml
		viper.AddConfigPath(filepath.Join(home, constants.ConfigDirName))
		viper.SetConfigType("yml")
		viper.SetConfigName(strings.TrimSuffix(constants.ConfigFileName, filepath.Ext(constants.ConfigFileName)))
	}

	// Read in environment variables that match, e.g. OKTA_ORG_URL
	viper.SetEnvPrefix(constants.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
