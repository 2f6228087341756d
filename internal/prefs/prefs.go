// Package prefs persists per-user trainlog preferences in ~/.config/trainlog/prefs.toml.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences for trainlog.
type Prefs struct {
	Theme string `toml:"theme"`
	// DeviceID identifies this installation to the backend.
	DeviceID string `toml:"device_id"`
}

const (
	defaultPrefsPath = "~/.config/trainlog/prefs.toml"
	defaultTheme     = "Dracula"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path. A missing or unreadable file yields the defaults,
// and an invalid device id is dropped.
func Load(path string) (Prefs, error) {
	p := Prefs{Theme: defaultTheme}

	resolved, err := resolvePath(path)
	if err != nil {
		return p, nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return p, nil
	}
	if err := toml.Unmarshal(data, &p); err != nil {
		return Prefs{Theme: defaultTheme}, nil
	}

	if p.Theme = strings.TrimSpace(p.Theme); p.Theme == "" {
		p.Theme = defaultTheme
	}
	if _, err := uuid.Parse(strings.TrimSpace(p.DeviceID)); err != nil {
		p.DeviceID = ""
	} else {
		p.DeviceID = strings.TrimSpace(p.DeviceID)
	}
	return p, nil
}

// EnsureDeviceID loads preferences and, when no valid device id is stored yet, generates
// one and saves it. A failed save still returns the generated id for this run.
func EnsureDeviceID(path string) (Prefs, error) {
	p, _ := Load(path)
	if p.DeviceID != "" {
		return p, nil
	}
	p.DeviceID = uuid.NewString()
	return p, Save(path, p)
}

// Save writes preferences to path, creating the directory.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = defaultPrefsPath
	}
	if rest, ok := strings.CutPrefix(path, "~"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, rest)
	}
	return filepath.Abs(path)
}
