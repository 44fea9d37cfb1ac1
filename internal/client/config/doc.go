// Package config loads runtime configuration for the session client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. FORUM_* environment variables.
//  4. Command-line flags, which override everything else.
//
// # JSON schema
//
// Durations may be strings like "5s" or integer nanoseconds:
//
//	{
//	  "server_base_url": "http://127.0.0.1:8000",
//	  "request_timeout": "5s",
//	  "storage_path": "session.db",
//	  "log_level": "info",
//	  "enforce_auth_guard": false
//	}
//
// # Environment
//
//	FORUM_SERVER_URL, FORUM_REQUEST_TIMEOUT, FORUM_STORAGE_PATH,
//	FORUM_LOG_LEVEL, FORUM_ENFORCE_AUTH_GUARD
package config
