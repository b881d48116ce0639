package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig() *Config {
	return &Config{
		Logging:    LoggingConfig{Level: "info", Format: "json"},
		Output:     OutputConfig{Color: "auto"},
		Merge:      MergeConfig{ReadSize: 4096},
		Validation: ValidateConfig{ReadSize: 1024, MaxErrors: 10},
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "auto", cfg.Output.Color)

	assert.Equal(t, ByteSize(4096), cfg.Merge.ReadSize)
	assert.False(t, cfg.Merge.Verbose)

	assert.Equal(t, ByteSize(1024), cfg.Validation.ReadSize)
	assert.Equal(t, 10, cfg.Validation.MaxErrors)
	assert.False(t, cfg.Validation.Prefix)
	assert.False(t, cfg.Validation.Suffix)
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 10, cfg.Validation.MaxErrors)
	assert.Equal(t, ByteSize(4096), cfg.Merge.ReadSize)
}

func TestLoad_FromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "oggkit.yaml")

	configContent := `
logging:
  level: "debug"
  format: "json"

output:
  color: never

merge:
  read_size: 64KB
  verbose: true

validate:
  read_size: 512
  max_errors: 0
  prefix: true
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o600))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "never", cfg.Output.Color)
	assert.Equal(t, ByteSize(64*1024), cfg.Merge.ReadSize)
	assert.True(t, cfg.Merge.Verbose)
	assert.Equal(t, ByteSize(512), cfg.Validation.ReadSize)
	assert.Equal(t, 0, cfg.Validation.MaxErrors)
	assert.True(t, cfg.Validation.Prefix)
	assert.False(t, cfg.Validation.Suffix)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OGGKIT_LOGGING_LEVEL", "warn")
	t.Setenv("OGGKIT_VALIDATE_MAX_ERRORS", "3")
	t.Setenv("OGGKIT_MERGE_READ_SIZE", "16KB")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 3, cfg.Validation.MaxErrors)
	assert.Equal(t, ByteSize(16*1024), cfg.Merge.ReadSize)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "oggkit.yaml")

	configContent := `
validate:
  max_errors: 5
  suffix: true
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o600))

	t.Setenv("OGGKIT_VALIDATE_MAX_ERRORS", "20")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Validation.MaxErrors)
	assert.True(t, cfg.Validation.Suffix)
}

func TestLoad_SearchesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".oggkit.yaml"), []byte("validate:\n  max_errors: 7\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Validation.MaxErrors)
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "oggkit.yaml")

	invalidContent := `
validate:
  max_errors: "not a number"
  invalid yaml structure
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidContent), 0o600))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/path/oggkit.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidByteSize(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OGGKIT_MERGE_READ_SIZE", "lots")

	_, err := Load("")
	assert.Error(t, err)
}

func TestFromViper(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("validate.max_errors", 1)
	v.Set("validate.read_size", "2KB")

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Validation.MaxErrors)
	assert.Equal(t, ByteSize(2048), cfg.Validation.ReadSize)
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validTestConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"color", func(c *Config) { c.Output.Color = "sometimes" }, "output.color"},
		{"merge read size", func(c *Config) { c.Merge.ReadSize = 0 }, "merge.read_size"},
		{"validate read size", func(c *Config) { c.Validation.ReadSize = -1 }, "validate.read_size"},
		{"max errors", func(c *Config) { c.Validation.MaxErrors = -1 }, "validate.max_errors"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_ValidationSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oggkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("validate:\n  read_size: 2KB\n  suffix: true\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ByteSize(2048), cfg.Validation.ReadSize)
	assert.True(t, cfg.Validation.Suffix)
	require.NoError(t, cfg.Validate())

	cfg.Validation.ReadSize = 0
	assert.ErrorContains(t, cfg.Validate(), "validate.read_size")
}

func TestValidate_UnlimitedErrors(t *testing.T) {
	cfg := validTestConfig()
	cfg.Validation.MaxErrors = 0
	assert.NoError(t, cfg.Validate())
}
