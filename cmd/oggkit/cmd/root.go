// Package cmd implements the CLI commands for oggkit.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jmylchreest/oggkit/internal/config"
	"github.com/jmylchreest/oggkit/internal/observability"
	"github.com/jmylchreest/oggkit/internal/version"
)

// cfgFile holds the config file path from CLI flag.
var cfgFile string

// logCfg is the resolved logging configuration of this invocation.
var logCfg config.LoggingConfig

// runID correlates every log record of this invocation.
var runID string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "oggkit",
	Short:   "Ogg multiplexing and validation tools",
	Version: version.Short(),
	Long: `oggkit works on Ogg physical bitstreams.

It can interleave the tracks of several Ogg files into one file ordered by
presentation time, and it can validate the page and packet framing of Ogg
files, reporting every violation it finds.`,
	SilenceUsage: true,
	// PersistentPreRunE is set in init() to avoid initialization cycle
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return initLogging()
	}

	// Global flags
	// Logging flags are not bound to viper; they override config and env only
	// when Changed() so the default flag value never masks them.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.oggkit.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize diagnostics (auto, always, never)")
	mustBindPFlag("output.color", rootCmd.PersistentFlags().Lookup("color"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/oggkit")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".oggkit")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		cobra.CheckErr(fmt.Errorf("reading config file: %w", err))
	}
}

// initLogging configures the slog logger.
//
// Priority order (highest to lowest):
//  1. CLI flags (--log-level, --log-format) - only if explicitly provided
//  2. Environment variables (OGGKIT_LOGGING_LEVEL, OGGKIT_LOGGING_FORMAT)
//  3. Config file values
//  4. Built-in defaults (info, text)
func initLogging() error {
	level := viper.GetString("logging.level")
	format := viper.GetString("logging.format")

	if rootCmd.PersistentFlags().Changed("log-level") {
		level, _ = rootCmd.PersistentFlags().GetString("log-level")
	}
	if rootCmd.PersistentFlags().Changed("log-format") {
		format, _ = rootCmd.PersistentFlags().GetString("log-format")
	}

	if level == "" {
		level = "info"
	}
	if format == "" {
		format = "text"
	}

	logCfg = config.LoggingConfig{
		Level:      strings.ToLower(level),
		Format:     strings.ToLower(format),
		AddSource:  viper.GetBool("logging.add_source"),
		TimeFormat: viper.GetString("logging.time_format"),
	}
	if logCfg.Level == "warning" {
		logCfg.Level = "warn"
	}

	runID = observability.NewCorrelationID()
	observability.SetDefault(newLogger(logCfg))

	if used := viper.ConfigFileUsed(); used != "" {
		slog.Debug("using config file", slog.String("path", used))
	}
	return nil
}

// newLogger builds the invocation logger. Logs always go to stderr.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	logger := observability.NewLoggerWithWriter(cfg, os.Stderr)
	logger = observability.WithApp(logger, version.ApplicationName)
	return observability.WithCorrelationID(logger, runID)
}

// loadConfig decodes the merged flag, env, file and default layers.
func loadConfig() (*config.Config, error) {
	v := viper.GetViper()
	v.Set("logging.level", logCfg.Level)
	v.Set("logging.format", logCfg.Format)
	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// mustBindPFlag binds a viper key to a cobra flag and panics if binding fails.
func mustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("failed to bind flag %q to key %q: %v", flag.Name, key, err))
	}
}
