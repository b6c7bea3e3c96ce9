package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func writePrefs(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if got := NewStore("").Load(); got.Theme != DefaultTheme {
		t.Fatalf("Theme = %q, want %q", got.Theme, DefaultTheme)
	}
}

func TestLoad_DefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writePrefs(t, filepath.Join(home, ".config", "bookshelf", "prefs.toml"), "theme = \"Night\"\n")

	if got := NewStore("  ").Load(); got.Theme != "Night" {
		t.Fatalf("Theme = %q, want %q", got.Theme, "Night")
	}
}

func TestLoad_ExplicitPathTrimsTheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	writePrefs(t, path, "theme = \"  Night \"\n")

	if got := NewStore(path).Load(); got.Theme != "Night" {
		t.Fatalf("Theme = %q, want %q", got.Theme, "Night")
	}
}

func TestLoad_BrokenFilesFallBackToDefault(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty theme", "theme = \"\"\n"},
		{"invalid toml", "not valid toml {{{\n"},
		{"wrong type", "theme = 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "prefs.toml")
			writePrefs(t, path, tt.body)
			if got := NewStore(path).Load(); got.Theme != DefaultTheme {
				t.Fatalf("Theme = %q, want %q", got.Theme, DefaultTheme)
			}
		})
	}
}

func TestSave_CreatesFileAndDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "prefs.toml")
	store := NewStore(path)

	if err := store.Save(Prefs{Theme: "Night"}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if got := store.Load(); got.Theme != "Night" {
		t.Fatalf("Theme = %q, want %q", got.Theme, "Night")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestUpdate_PersistsChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	store := NewStore(path)

	p, err := store.Update(func(p *Prefs) { p.Theme = "Night" })
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if p.Theme != "Night" {
		t.Fatalf("Update returned Theme = %q, want Night", p.Theme)
	}
	if got := NewStore(path).Load(); got.Theme != "Night" {
		t.Fatalf("reloaded Theme = %q, want Night", got.Theme)
	}
}
