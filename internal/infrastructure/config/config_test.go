package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunarhle/lunar/kernel/internal/kernel/memory"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8600", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	// Memory config matches the stock console layout and is valid.
	assert.Equal(t, memory.DefaultLayout(), cfg.Memory.Layout())
	assert.True(t, cfg.Memory.Layout().Valid())
}

func TestLoadOrDefault(t *testing.T) {
	// Should return default when no env vars set
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "8600", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, uint32(0x08000000), cfg.Memory.FcramSize)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                 "9600",
		"HOST":                 "127.0.0.1",
		"LOG_LEVEL":            "debug",
		"LOG_DEV":              "true",
		"RATE_LIMIT_RPS":       "500",
		"RATE_LIMIT_BURST":     "1000",
		"RATE_LIMIT_ENABLED":   "false",
		"FCRAM_SIZE":           "3145728",
		"MEM_APPLICATION_SIZE": "1048576",
		"MEM_SYSTEM_SIZE":      "1048576",
		"MEM_BASE_SIZE":        "1048576",
	}

	for key, value := range envVars {
		err := os.Setenv(key, value)
		require.NoError(t, err)
		defer os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	// Verify server config
	assert.Equal(t, "9600", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)

	// Verify logging config
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)

	// Verify rate limit config
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)

	// Verify memory config
	assert.Equal(t, uint32(0x300000), cfg.Memory.FcramSize)
	assert.Equal(t, uint32(0x100000), cfg.Memory.ApplicationSize)
}

func TestLoadRejectsInvalidPartition(t *testing.T) {
	// Region sizes that do not sum to FCRAM must fail loading.
	err := os.Setenv("FCRAM_SIZE", "3145728")
	require.NoError(t, err)
	defer os.Unsetenv("FCRAM_SIZE")

	err = os.Setenv("MEM_APPLICATION_SIZE", "1048576")
	require.NoError(t, err)
	defer os.Unsetenv("MEM_APPLICATION_SIZE")

	_, err = Load()
	assert.Error(t, err)

	// LoadOrDefault falls back to the stock layout.
	cfg := LoadOrDefault()
	assert.Equal(t, memory.DefaultLayout(), cfg.Memory.Layout())
}

func TestLayoutProfileFile(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "layout.yaml")
	content := []byte("fcram: 3145728\napplication: 1572864\nsystem: 1048576\nbase: 524288\n")
	require.NoError(t, os.WriteFile(profile, content, 0o644))

	err := os.Setenv("MEM_LAYOUT_FILE", profile)
	require.NoError(t, err)
	defer os.Unsetenv("MEM_LAYOUT_FILE")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, uint32(0x300000), cfg.Memory.FcramSize)
	assert.Equal(t, uint32(0x180000), cfg.Memory.ApplicationSize)
	assert.Equal(t, uint32(0x100000), cfg.Memory.SystemSize)
	assert.Equal(t, uint32(0x80000), cfg.Memory.BaseSize)
	assert.True(t, cfg.Memory.Layout().Valid())
}

func TestLayoutProfilePartialOverride(t *testing.T) {
	// Zero fields in the profile keep the environment-derived values; a
	// partial override that breaks the partition fails validation.
	profile := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(profile, []byte("system: 1048576\n"), 0o644))

	err := os.Setenv("MEM_LAYOUT_FILE", profile)
	require.NoError(t, err)
	defer os.Unsetenv("MEM_LAYOUT_FILE")

	_, err = Load()
	assert.Error(t, err)
}

func TestLayoutProfileMissingFile(t *testing.T) {
	err := os.Setenv("MEM_LAYOUT_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	defer os.Unsetenv("MEM_LAYOUT_FILE")

	_, err = Load()
	assert.Error(t, err)
}
