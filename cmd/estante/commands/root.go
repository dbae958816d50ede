// Package commands implements the CLI commands for estante.
package commands

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skoobtools/estante/internal/logger"
	"github.com/skoobtools/estante/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "estante",
	Short:   "Export your Skoob bookshelf",
	Version: version.String(),
	Long: `Estante walks your Skoob bookshelf through the site's own API and
exports it as CSV, JSON or YAML.

A browser window opens for you to log in; the session token is read
from the site's own traffic, never from your password.

Examples:
  # Log in and print the session token for later reuse
  estante login

  # Full export to a timestamped CSV in the working directory
  estante export

  # Reuse a token, skip book page enrichment, write JSON
  estante export --token "eyJ..." --user-id 123456 \
      --details=false --format json -o shelf.json`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(logger.Options{
			Level: viper.GetString("log_level"),
			Debug: viper.GetBool("debug"),
			Quiet: viper.GetBool("quiet"),
			JSON:  viper.GetBool("log_json"),
		})
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.SetVersionTemplate(version.Full() + "\n")

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default .estante.yaml in cwd or $HOME)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().Bool("log-json", false, "log as JSON")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".estante")
		viper.SetConfigType("yaml")
	}

	// Environment variables: ESTANTE_HARVEST_PAGE_SIZE and friends.
	viper.SetEnvPrefix("ESTANTE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
