package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.BaseURL)
	assert.Equal(t, path, cfg.Path())
}

func TestLoadJSON5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	content := `{
  // service endpoint
  base_url: "https://api.example.com/v1",
  store: "keyring",
  poll_interval: "500ms",
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v1", cfg.BaseURL)
	assert.Equal(t, "keyring", cfg.Store)
	assert.Equal(t, 500*time.Millisecond, cfg.PollIntervalDuration())
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	require.NoError(t, os.WriteFile(path, []byte("{not valid"), 0600))

	_, err := LoadFrom(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestSetSavesAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json5")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Set("base_url", "https://api.example.com/v1"))
	require.NoError(t, cfg.Set("poll_attempts", "5"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reloaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v1", reloaded.BaseURL)
	assert.Equal(t, 5, reloaded.MaxPollAttempts())

	require.NoError(t, reloaded.Unset("poll_attempts"))
	again, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Zero(t, again.MaxPollAttempts())
}

func TestSetValidates(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"base_url", "ftp://example.com"},
		{"base_url", "example.com"},
		{"store", "redis"},
		{"poll_attempts", "0"},
		{"poll_interval", "soon"},
		{"rate_limit", "-1"},
		{"log_level", "loud"},
		{"log_format", "xml"},
		{"default_output", "yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.json5"))
			require.NoError(t, err)

			err = cfg.Set(tt.key, tt.value)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
			assert.NoFileExists(t, cfg.Path())
		})
	}
}

func TestUnknownKey(t *testing.T) {
	cfg := &Config{path: filepath.Join(t.TempDir(), "config.json5")}

	_, err := cfg.Get("region")
	assert.EqualError(t, err, "unknown config key: region")
	assert.Error(t, cfg.Set("region", "us"))
	assert.Error(t, cfg.Unset("region"))
}

func TestEveryKeyIsBacked(t *testing.T) {
	cfg := &Config{}
	for _, key := range ValidKeys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
	assert.Len(t, cfg.Values(), len(Keys))
}

func TestValidKeysSorted(t *testing.T) {
	keys := ValidKeys()
	for i := 1; i < len(keys); i++ {
		assert.Less(t, keys[i-1], keys[i], "keys should be sorted")
	}

	_, err := GetKey("nope")
	assert.Error(t, err)
}

func TestTypedAccessors(t *testing.T) {
	cfg := &Config{PollAttempts: "abc", PollInterval: "-2s", RateLimit: "2.5"}
	assert.Zero(t, cfg.MaxPollAttempts())
	assert.Zero(t, cfg.PollIntervalDuration())
	assert.Equal(t, 2.5, cfg.RateLimitPerSecond())

	cfg = &Config{}
	assert.Zero(t, cfg.RateLimitPerSecond())
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "config.json5", filepath.Base(ConfigPath()))
	assert.Equal(t, "tasq", filepath.Base(ConfigDir()))
}
