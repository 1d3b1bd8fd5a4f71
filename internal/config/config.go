// Package config handles configuration loading and management for loopctl.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for loopctl.
type Config struct {
	Defaults   DefaultsConfig   `mapstructure:"defaults"`
	Guards     GuardsConfig     `mapstructure:"guards"`
	Validation ValidationConfig `mapstructure:"validation"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// DefaultsConfig holds default values for new iteration sessions.
type DefaultsConfig struct {
	// MaxIterations is the default iteration cap for new sessions.
	MaxIterations int `mapstructure:"max_iterations"`
	// CompletionPromises lists the accepted marker tokens.
	CompletionPromises []string `mapstructure:"completion_promises"`
}

// GuardsConfig holds safety guard thresholds.
type GuardsConfig struct {
	// CircuitBreakerThreshold is the consecutive-failure run that trips
	// the breaker.
	CircuitBreakerThreshold int `mapstructure:"circuit_breaker_threshold"`
	// ThrashingThreshold is the per-file failure-mention count that trips
	// the thrashing guard.
	ThrashingThreshold int `mapstructure:"thrashing_threshold"`
}

// ValidationConfig holds validation engine settings.
type ValidationConfig struct {
	// RuleTimeout is the per-rule timeout when a rule does not set its own.
	RuleTimeout time.Duration `mapstructure:"rule_timeout"`
	// MaxConcurrency bounds the number of rules evaluated in parallel.
	MaxConcurrency int `mapstructure:"max_concurrency"`
}

// LoggingConfig holds debug logging settings.
type LoggingConfig struct {
	// Debug enables the project-local debug log.
	Debug bool `mapstructure:"debug"`
	// Path overrides the default debug log path when set.
	Path string `mapstructure:"path"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (LOOPCTL_*)
// 2. Project config (.loopctl.yaml in current directory or parent)
// 3. User config (~/.config/loopctl/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("LOOPCTL")
	v.AutomaticEnv()
	v.BindEnv("defaults.max_iterations", "LOOPCTL_MAX_ITERATIONS")
	v.BindEnv("guards.circuit_breaker_threshold", "LOOPCTL_CIRCUIT_BREAKER_THRESHOLD")
	v.BindEnv("logging.debug", "LOOPCTL_DEBUG")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("defaults.max_iterations", cfg.Defaults.MaxIterations)
	v.Set("defaults.completion_promises", cfg.Defaults.CompletionPromises)
	v.Set("guards.circuit_breaker_threshold", cfg.Guards.CircuitBreakerThreshold)
	v.Set("guards.thrashing_threshold", cfg.Guards.ThrashingThreshold)
	v.Set("validation.rule_timeout", cfg.Validation.RuleTimeout.String())
	v.Set("validation.max_concurrency", cfg.Validation.MaxConcurrency)
	v.Set("logging.debug", cfg.Logging.Debug)
	v.Set("logging.path", cfg.Logging.Path)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("defaults.max_iterations", 10)
	v.SetDefault("defaults.completion_promises", []string{"COMPLETE"})

	v.SetDefault("guards.circuit_breaker_threshold", 3)
	v.SetDefault("guards.thrashing_threshold", 5)

	v.SetDefault("validation.rule_timeout", "60s")
	v.SetDefault("validation.max_concurrency", 4)

	v.SetDefault("logging.debug", false)
	v.SetDefault("logging.path", "")
}

// getUserConfigDir returns the XDG config directory for loopctl.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "loopctl")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "loopctl")
	}
	return filepath.Join(home, ".config", "loopctl")
}

// findProjectConfig searches for .loopctl.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".loopctl.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}
