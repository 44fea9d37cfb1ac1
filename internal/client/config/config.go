package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the session client.
//
// Fields:
//   - ServerBaseURL: origin of the forum API, e.g. http://127.0.0.1:8000.
//   - RequestTimeout: upper bound for every API request.
//   - StoragePath: SQLite file holding the credential; ":memory:" keeps it
//     for the lifetime of the process only.
//   - LogLevel: debug, info, warn or error.
//   - EnforceAuthGuard: redirect unauthenticated navigation to protected
//     pages to the login page. Off by default.
type Config struct {
	ServerBaseURL    string        `env:"FORUM_SERVER_URL"`
	RequestTimeout   time.Duration `env:"FORUM_REQUEST_TIMEOUT"`
	StoragePath      string        `env:"FORUM_STORAGE_PATH"`
	LogLevel         string        `env:"FORUM_LOG_LEVEL"`
	EnforceAuthGuard bool          `env:"FORUM_ENFORCE_AUTH_GUARD"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8000"
	c.RequestTimeout = 5 * time.Second
	c.StoragePath = "session.db"
	c.LogLevel = "info"
	c.EnforceAuthGuard = false
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	args := os.Args[1:]

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseEnv(cfg)
	parseFlags(cfg, args)
	return cfg
}
