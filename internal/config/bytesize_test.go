package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected ByteSize
		wantErr  bool
	}{
		{"bytes", "1024", 1024, false},
		{"kilobytes", "4KB", 4 * 1024, false},
		{"short unit", "4K", 4 * 1024, false},
		{"binary unit", "4KiB", 4 * 1024, false},
		{"megabytes", "10MB", 10 * 1024 * 1024, false},
		{"with space", "5 MB", 5 * 1024 * 1024, false},
		{"lowercase", "5mb", 5 * 1024 * 1024, false},
		{"float", "1.5MB", ByteSize(1.5 * 1024 * 1024), false},
		{"zero", "0", 0, false},
		{"negative", "-1", 0, true},
		{"invalid", "invalid", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, err := ParseByteSize(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, size)
		})
	}
}

func TestByteSize_UnmarshalText(t *testing.T) {
	var b ByteSize
	err := b.UnmarshalText([]byte("8KB"))
	require.NoError(t, err)
	assert.Equal(t, ByteSize(8*1024), b)
}

func TestByteSize_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected ByteSize
	}{
		{"string format", `"4KB"`, 4 * 1024},
		{"bytes int", `4096`, 4096},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b ByteSize
			require.NoError(t, json.Unmarshal([]byte(tt.json), &b))
			assert.Equal(t, tt.expected, b)
		})
	}
}

func TestByteSize_String(t *testing.T) {
	assert.Equal(t, "4K", ByteSize(4096).String())
	assert.Equal(t, "1K", ByteSize(1024).String())
	assert.Equal(t, "100B", ByteSize(100).String())
}

func TestByteSize_MarshalYAML(t *testing.T) {
	out, err := yaml.Marshal(struct {
		Size ByteSize `yaml:"size"`
	}{Size: 4096})
	require.NoError(t, err)
	assert.Equal(t, "size: 4K\n", string(out))
}
