// Package config loads the trainlog client configuration.
//
// # Resolution
//
// Load reads ~/.config/trainlog/config.toml unless a path is given. A missing
// file is not an error: defaults are used. Empty fields keep their defaults.
// Environment variables are applied last and win over the file:
//
//   - TRAINLOG_API_BASE
//   - TRAINLOG_USER_ID
//   - TRAINLOG_DATA_DIR
//   - TRAINLOG_LOG_LEVEL
//
// LoadEnv reads a .env file into the environment first, leaving variables
// that are already set untouched.
//
// # TOML Format
//
//	api_base = "https://tracker.example.com"
//	user_id = "42"
//	data_dir = "~/.local/share/trainlog"
//	plan_cache_ttl = "3s"
//	plan_timeout = "10s"
//	request_timeout = "10s"
//	refresh_interval = "30s"
//	log_level = "info"
//
// Durations use time.ParseDuration syntax and must be positive. Tilde
// expansion is applied to data_dir.
//
// # Derived Paths
//
//   - OfflineDBPath: <data_dir>/offline.db, the local fallback store
//   - LogPath: <data_dir>/trainlog.log, written while the TUI is running
package config
