package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, "http://127.0.0.1:8000", c.ServerBaseURL)
	assert.Equal(t, 5*time.Second, c.RequestTimeout)
	assert.Equal(t, "session.db", c.StoragePath)
	assert.Equal(t, "info", c.LogLevel)
	assert.False(t, c.EnforceAuthGuard)
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expected    *Config
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "http://api.test", "-t", "10", "-s", "/tmp/s.db", "-l", "debug", "-g"},
			expected: &Config{ServerBaseURL: "http://api.test", RequestTimeout: 10 * time.Second,
				StoragePath: "/tmp/s.db", LogLevel: "debug", EnforceAuthGuard: true},
		},
		{
			name:     "no flags keeps defaults",
			args:     []string{"-c", "ignored.json"},
			expected: defaults(),
		},
		{
			name: "unrelated flags ignored",
			args: []string{"-x", "1", "-a", "http://other"},
			expected: func() *Config {
				c := defaults()
				c.ServerBaseURL = "http://other"
				return c
			}(),
		},
		{name: "bad timeout", args: []string{"-t", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(cfg, tt.args) })
				return
			}
			require.NotPanics(t, func() { parseFlags(cfg, tt.args) })
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}

func TestParseFlags_SubSecondTimeoutPreservedWithoutFlag(t *testing.T) {
	cfg := defaults()
	cfg.RequestTimeout = 1500 * time.Millisecond
	parseFlags(cfg, nil)
	assert.Equal(t, 1500*time.Millisecond, cfg.RequestTimeout)
}

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestParseJson(t *testing.T) {
	t.Run("loads all fields", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{
			"server_base_url":    "http://json.test",
			"request_timeout":    "2s",
			"storage_path":       ":memory:",
			"log_level":          "warn",
			"enforce_auth_guard": true,
		})
		cfg := defaults()
		parseJson(cfg, []string{"-config", path})

		assert.Empty(t, cmp.Diff(&Config{
			ServerBaseURL:    "http://json.test",
			RequestTimeout:   2 * time.Second,
			StoragePath:      ":memory:",
			LogLevel:         "warn",
			EnforceAuthGuard: true,
		}, cfg))
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{"log_level": "debug"})
		cfg := defaults()
		parseJson(cfg, []string{"-c", path})

		want := defaults()
		want.LogLevel = "debug"
		assert.Empty(t, cmp.Diff(want, cfg))
	})

	t.Run("no flag, no changes", func(t *testing.T) {
		cfg := defaults()
		parseJson(cfg, nil)
		assert.Empty(t, cmp.Diff(defaults(), cfg))
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ nope`), 0o600))
		require.Panics(t, func() { parseJson(defaults(), []string{"-c", bad}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		require.Panics(t, func() { parseJson(defaults(), []string{"-c", "/does/not/exist.json"}) })
	})
}

func TestParseEnv(t *testing.T) {
	t.Setenv("FORUM_SERVER_URL", "http://env.test")
	t.Setenv("FORUM_REQUEST_TIMEOUT", "750ms")
	t.Setenv("FORUM_ENFORCE_AUTH_GUARD", "true")

	cfg := defaults()
	parseEnv(cfg)

	assert.Equal(t, "http://env.test", cfg.ServerBaseURL)
	assert.Equal(t, 750*time.Millisecond, cfg.RequestTimeout)
	assert.True(t, cfg.EnforceAuthGuard)
	assert.Equal(t, "session.db", cfg.StoragePath, "unset variables keep their value")
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParseEnv_BadValuePanics(t *testing.T) {
	t.Setenv("FORUM_REQUEST_TIMEOUT", "forever")
	require.Panics(t, func() { parseEnv(defaults()) })
}

func TestLoadConfig_Precedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, map[string]any{
		"server_base_url": "http://json.test",
		"log_level":       "warn",
		"storage_path":    "json.db",
	})
	t.Setenv("FORUM_LOG_LEVEL", "error")
	t.Setenv("FORUM_STORAGE_PATH", "env.db")
	os.Args = []string{"cli", "-c", path, "-s", "flag.db"}

	cfg := LoadConfig()
	assert.Equal(t, "http://json.test", cfg.ServerBaseURL)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, "flag.db", cfg.StoragePath)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}
