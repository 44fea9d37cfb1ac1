package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/forumsession/internal/flagx"
	"github.com/dmitrijs2005/forumsession/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from zero values so a partial file only
// overrides what it names.
type JsonConfig struct {
	ServerBaseURL    *string         `json:"server_base_url"`
	RequestTimeout   *timex.Duration `json:"request_timeout"`
	StoragePath      *string         `json:"storage_path"`
	LogLevel         *string         `json:"log_level"`
	EnforceAuthGuard *bool           `json:"enforce_auth_guard"`
}

// parseJson overlays cfg with the file named by -c / -config in args.
// Without either flag nothing happens. Read and decode errors panic.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerBaseURL != nil {
		cfg.ServerBaseURL = *jc.ServerBaseURL
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.StoragePath != nil {
		cfg.StoragePath = *jc.StoragePath
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
	if jc.EnforceAuthGuard != nil {
		cfg.EnforceAuthGuard = *jc.EnforceAuthGuard
	}
}
