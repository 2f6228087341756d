// Package app is the composition root of trainlog.
//
// # Overview
//
// Open wires configuration, preferences, the offline store, the backend
// client, the plan cache and the tracker services into an App. The CLI
// commands open one App per invocation; Run additionally starts the
// background poller and the TUI.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Open()     │
//	└──────┬───────┘
//	       ├─────> config.Load()          config.toml + TRAINLOG_* env
//	       ├─────> prefs.EnsureDeviceID() theme, device id
//	       ├─────> offline.Open()         SQLite fallback (unavailable on error)
//	       ├─────> api.NewClient()        backend client with fallback
//	       ├─────> state.NewStore()       plan cache
//	       └─────> tracker.New*()         sets, notes, measurements
//
//	Run(): Open() ─> StartPoller() ─> ui.Run() (blocks)
//
// # Polling Behavior
//
// The poller wakes every refresh_interval (default 30s). When the cached plan
// is younger than the interval, for example because the user just toggled a
// set, it sleeps for the remainder instead of fetching. After a failed fetch
// the wait doubles per consecutive failure, capped at five minutes:
//
//	failures: 0    1    2    3    4+
//	wait:     30s  1m   2m   4m   5m
//
// # Logging
//
// While the TUI owns the terminal, logs are written as JSON lines to
// <data_dir>/trainlog.log, which the logs command reads back.
package app
