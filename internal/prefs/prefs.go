// Package prefs persists bookshelf user preferences in
// ~/.config/bookshelf/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences.
type Prefs struct {
	Theme string `toml:"theme"`
}

const (
	defaultPrefsPath = "~/.config/bookshelf/prefs.toml"
	DefaultTheme     = "Paper"
)

// Defaults returns the preferences used when nothing is stored.
func Defaults() Prefs {
	return Prefs{Theme: DefaultTheme}
}

// Store reads and writes one preferences file.
type Store struct {
	path string
}

// NewStore returns a Store for path, or for the default location when path is blank.
func NewStore(path string) *Store {
	if strings.TrimSpace(path) == "" {
		path = defaultPrefsPath
	}
	return &Store{path: path}
}

// Path returns the configured, unexpanded path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored preferences. A missing, unreadable or malformed
// file yields defaults; preferences never stop the program from starting.
func (s *Store) Load() Prefs {
	p := Defaults()
	resolved, err := expandPath(s.path)
	if err != nil {
		log.Printf("prefs: %v, using defaults", err)
		return p
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("prefs: read %s: %v, using defaults", resolved, err)
		}
		return p
	}
	if err := toml.Unmarshal(data, &p); err != nil {
		log.Printf("prefs: parse %s: %v, using defaults", resolved, err)
		return Defaults()
	}
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = DefaultTheme
	}
	return p
}

// Save writes p, creating directories as needed.
func (s *Store) Save(p Prefs) error {
	resolved, err := expandPath(s.path)
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
	tmp := resolved + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, resolved); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

// Update loads the current preferences, applies fn and saves the result.
func (s *Store) Update(fn func(*Prefs)) (Prefs, error) {
	p := s.Load()
	fn(&p)
	return p, s.Save(p)
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
