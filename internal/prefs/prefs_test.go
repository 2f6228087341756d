package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != defaultTheme {
		t.Fatalf("Theme = %q, want %q", p.Theme, defaultTheme)
	}
	if p.DeviceID != "" {
		t.Fatalf("DeviceID = %q, want empty", p.DeviceID)
	}
}

func TestLoad_ReadsExistingFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	prefsDir := filepath.Join(home, ".config", "trainlog")
	if err := os.MkdirAll(prefsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	id := uuid.NewString()
	prefsFile := filepath.Join(prefsDir, "prefs.toml")
	content := "theme = \"Nord\"\ndevice_id = \"" + id + "\"\n"
	if err := os.WriteFile(prefsFile, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != "Nord" {
		t.Fatalf("Theme = %q, want %q", p.Theme, "Nord")
	}
	if p.DeviceID != id {
		t.Fatalf("DeviceID = %q, want %q", p.DeviceID, id)
	}
}

func TestLoad_InvalidDeviceIDDropped(t *testing.T) {
	prefsFile := filepath.Join(t.TempDir(), "prefs.toml")
	if err := os.WriteFile(prefsFile, []byte("device_id = \"not-a-uuid\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, _ := Load(prefsFile)
	if p.DeviceID != "" {
		t.Fatalf("DeviceID = %q, want empty", p.DeviceID)
	}
}

func TestEnsureDeviceID_GeneratesOnceAndPersists(t *testing.T) {
	prefsFile := filepath.Join(t.TempDir(), "nested", "prefs.toml")

	first, err := EnsureDeviceID(prefsFile)
	if err != nil {
		t.Fatalf("EnsureDeviceID returned error: %v", err)
	}
	if _, err := uuid.Parse(first.DeviceID); err != nil {
		t.Fatalf("DeviceID %q is not a uuid: %v", first.DeviceID, err)
	}
	if first.Theme != defaultTheme {
		t.Fatalf("Theme = %q, want default", first.Theme)
	}

	second, err := EnsureDeviceID(prefsFile)
	if err != nil {
		t.Fatalf("EnsureDeviceID returned error: %v", err)
	}
	if second.DeviceID != first.DeviceID {
		t.Fatalf("DeviceID changed: %q then %q", first.DeviceID, second.DeviceID)
	}
}

func TestSave_CreatesFileAndDirs(t *testing.T) {
	tmp := t.TempDir()
	prefsFile := filepath.Join(tmp, "subdir", "prefs.toml")

	p := Prefs{Theme: "Nord"}
	if err := Save(prefsFile, p); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := Load(prefsFile)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Theme != "Nord" {
		t.Fatalf("Theme = %q, want %q", loaded.Theme, "Nord")
	}
}

func TestLoad_FallsBackToDefaultTheme(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty theme", "theme = \"\"\n"},
		{"invalid toml", "not valid toml {{{\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefsFile := filepath.Join(t.TempDir(), "prefs.toml")
			if err := os.WriteFile(prefsFile, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}

			p, err := Load(prefsFile)
			if err != nil {
				t.Fatalf("Load returned error: %v", err)
			}
			if p.Theme != defaultTheme {
				t.Fatalf("Theme = %q, want %q", p.Theme, defaultTheme)
			}
		})
	}
}
