// Package config provides configuration management for headsync using Viper
// for flexible configuration loading from files, environment variables, and
// command-line flags.
//
// The configuration system supports YAML files, environment variable
// overrides with a HEADSYNC_ prefix, and validation. It manages the title
// derivation options (suffix, casing), the dev server settings, and logging.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Title    TitleConfig  `yaml:"title" mapstructure:"title"`
	Server   ServerConfig `yaml:"server" mapstructure:"server"`
	LogLevel string       `yaml:"log_level" mapstructure:"log_level"`
	LogJSON  bool         `yaml:"log_json" mapstructure:"log_json"`
}

// TitleConfig controls document title derivation.
type TitleConfig struct {
	// Suffix is appended verbatim to every derived title.
	Suffix string `yaml:"suffix" mapstructure:"suffix"`

	// TitleCase applies title casing to the derived path segment.
	TitleCase bool `yaml:"title_case" mapstructure:"title_case"`
}

type ServerConfig struct {
	Host           string   `yaml:"host" mapstructure:"host"`
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8133,
		},
		LogLevel: "info",
	}
}

// Load builds a Config from viper's current state, applying defaults and
// validating the result.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	applyDefaults(&config)

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	defaults := Default()

	if config.Server.Host == "" {
		config.Server.Host = defaults.Server.Host
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}

	// Workaround for viper slice handling.
	if viper.IsSet("server.allowed_origins") && len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = viper.GetStringSlice("server.allowed_origins")
	}
}

// Validate validates configuration values for security and correctness.
func Validate(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := validateTitleConfig(&config.Title); err != nil {
		return fmt.Errorf("title config: %w", err)
	}

	return nil
}

// validateServerConfig validates server configuration values.
func validateServerConfig(config *ServerConfig) error {
	// Allow 0 for system-assigned ports in testing.
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	for _, origin := range config.AllowedOrigins {
		if strings.TrimSpace(origin) == "" {
			return fmt.Errorf("allowed_origins contains an empty entry")
		}
	}

	return nil
}

// validateTitleConfig validates title derivation options.
func validateTitleConfig(config *TitleConfig) error {
	if strings.ContainsAny(config.Suffix, "\n\r") {
		return fmt.Errorf("suffix must not contain line breaks")
	}

	return nil
}
