// Package config provides configuration management for oggkit using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultMergeReadSize    = 4 * 1024
	defaultValidateReadSize = 1024
	defaultMaxErrors        = 10
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "OGGKIT"

// Config holds all configuration for the application.
type Config struct {
	Logging    LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Output     OutputConfig   `mapstructure:"output" yaml:"output"`
	Merge      MergeConfig    `mapstructure:"merge" yaml:"merge"`
	Validation ValidateConfig `mapstructure:"validate" yaml:"validate"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source" yaml:"add_source"`
	TimeFormat string `mapstructure:"time_format" yaml:"time_format"`
}

// OutputConfig controls terminal rendering.
type OutputConfig struct {
	Color string `mapstructure:"color" yaml:"color"` // auto, always, never
}

// MergeConfig holds multiplexer configuration.
type MergeConfig struct {
	// ReadSize is the number of bytes requested from an input per refill.
	ReadSize ByteSize `mapstructure:"read_size" yaml:"read_size"`
	// Verbose emits the per-round candidate trace at debug level.
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`
}

// ValidateConfig holds validator configuration.
type ValidateConfig struct {
	ReadSize  ByteSize `mapstructure:"read_size" yaml:"read_size"`
	MaxErrors int      `mapstructure:"max_errors" yaml:"max_errors"` // 0 = unlimited
	Prefix    bool     `mapstructure:"prefix" yaml:"prefix"`
	Suffix    bool     `mapstructure:"suffix" yaml:"suffix"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with OGGKIT_ and use underscores for nesting.
// Example: OGGKIT_VALIDATE_MAX_ERRORS=20.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".oggkit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		v.AddConfigPath("/etc/oggkit")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file to ensure defaults are in place.
func SetDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	v.SetDefault("output.color", "auto")

	v.SetDefault("merge.read_size", defaultMergeReadSize)
	v.SetDefault("merge.verbose", false)

	v.SetDefault("validate.read_size", defaultValidateReadSize)
	v.SetDefault("validate.max_errors", defaultMaxErrors)
	v.SetDefault("validate.prefix", false)
	v.SetDefault("validate.suffix", false)
}

// Defaults returns the configuration produced by SetDefaults alone.
func Defaults() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := FromViper(v)
	if err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	validColors := map[string]bool{"auto": true, "always": true, "never": true}
	if !validColors[c.Output.Color] {
		return fmt.Errorf("output.color must be one of: auto, always, never")
	}

	if c.Merge.ReadSize < 1 {
		return fmt.Errorf("merge.read_size must be at least 1 byte")
	}
	if c.Validation.ReadSize < 1 {
		return fmt.Errorf("validate.read_size must be at least 1 byte")
	}
	if c.Validation.MaxErrors < 0 {
		return fmt.Errorf("validate.max_errors must not be negative")
	}

	return nil
}
