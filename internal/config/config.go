package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the client settings.
type Config struct {
	APIBase         string
	UserID          string
	DataDir         string
	PlanCacheTTL    time.Duration
	PlanTimeout     time.Duration
	RequestTimeout  time.Duration
	RefreshInterval time.Duration
	LogLevel        string
}

const (
	defaultConfigPath      = "~/.config/trainlog/config.toml"
	defaultDataDir         = "~/.local/share/trainlog"
	defaultAPIBase         = "127.0.0.1:8000"
	defaultPlanCacheTTL    = 3 * time.Second
	defaultPlanTimeout     = 10 * time.Second
	defaultRequestTimeout  = 10 * time.Second
	defaultRefreshInterval = 30 * time.Second
	defaultLogLevel        = "info"
)

// Environment variables that override the file.
const (
	EnvAPIBase  = "TRAINLOG_API_BASE"
	EnvUserID   = "TRAINLOG_USER_ID"
	EnvDataDir  = "TRAINLOG_DATA_DIR"
	EnvLogLevel = "TRAINLOG_LOG_LEVEL"
)

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		APIBase:         defaultAPIBase,
		DataDir:         mustExpand(defaultDataDir),
		PlanCacheTTL:    defaultPlanCacheTTL,
		PlanTimeout:     defaultPlanTimeout,
		RequestTimeout:  defaultRequestTimeout,
		RefreshInterval: defaultRefreshInterval,
		LogLevel:        defaultLogLevel,
	}
}

// LoadEnv loads .env style files into the process environment without overriding
// variables that are already set. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load parses the config file at path (the default location when empty), falling back to
// defaults when it is missing, then applies environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Defaults()

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		applyEnv(&cfg)
		return cfg, nil
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBase         string `toml:"api_base"`
		UserID          string `toml:"user_id"`
		DataDir         string `toml:"data_dir"`
		PlanCacheTTL    string `toml:"plan_cache_ttl"`
		PlanTimeout     string `toml:"plan_timeout"`
		RequestTimeout  string `toml:"request_timeout"`
		RefreshInterval string `toml:"refresh_interval"`
		LogLevel        string `toml:"log_level"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBase); v != "" {
		cfg.APIBase = v
	}
	cfg.UserID = strings.TrimSpace(raw.UserID)
	if v := strings.TrimSpace(raw.DataDir); v != "" {
		cfg.DataDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	durations := []struct {
		name  string
		value string
		dest  *time.Duration
	}{
		{"plan_cache_ttl", raw.PlanCacheTTL, &cfg.PlanCacheTTL},
		{"plan_timeout", raw.PlanTimeout, &cfg.PlanTimeout},
		{"request_timeout", raw.RequestTimeout, &cfg.RequestTimeout},
		{"refresh_interval", raw.RefreshInterval, &cfg.RefreshInterval},
	}
	for _, d := range durations {
		if err := parseDuration(d.name, d.value, d.dest); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// OfflineDBPath is the SQLite file backing the local fallback store.
func (c Config) OfflineDBPath() string {
	return filepath.Join(c.dataDir(), "offline.db")
}

// LogPath is the log file written while the TUI owns the terminal.
func (c Config) LogPath() string {
	return filepath.Join(c.dataDir(), "trainlog.log")
}

func (c Config) dataDir() string {
	if strings.TrimSpace(c.DataDir) == "" {
		return mustExpand(defaultDataDir)
	}
	return c.DataDir
}

func parseDuration(name, value string, dest *time.Duration) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	if d <= 0 {
		return fmt.Errorf("parse %s: must be positive, got %s", name, value)
	}
	*dest = d
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIBase)); v != "" {
		cfg.APIBase = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvUserID)); v != "" {
		cfg.UserID = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		cfg.DataDir = mustExpand(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
