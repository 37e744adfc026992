// Package cmd provides the command-line interface for headsync.
//
// Configuration sources, highest priority first:
//  1. Command-line flags (--config, --log-level, ...)
//  2. HEADSYNC_CONFIG_FILE environment variable - custom config file path
//  3. Individual environment variables (HEADSYNC_SERVER_PORT, ...)
//  4. Configuration file (.headsync.yml in the current directory)
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "headsync",
	Short: "Document-head synchronization server for single-page apps",
	Long: `Headsync keeps the browser document head in step with client-side
navigation. Connected pages report route changes over a websocket and the
server drives title derivation and head-content processing back through the
same connection, serializing every mutation so updates never interleave.

Quick Start:
  headsync init                   Write a default .headsync.yml
  headsync serve                  Start the synchronization server
  headsync version                Show build information`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Accept underscore spellings so flags match config keys (log_level).
	rootCmd.PersistentFlags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .headsync.yml, can also use HEADSYNC_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "emit logs as JSON")

	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
}

// initConfig wires up viper. A missing config file is not an error; defaults
// and environment variables still apply.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("HEADSYNC_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".headsync")
	}

	viper.SetEnvPrefix("HEADSYNC")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
