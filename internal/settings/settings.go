// Package settings stores per-player preferences between sessions.
//
// Preferences live in a TOML file (default ~/.wikirace/settings.toml):
//
//	allow_backtracking = true
//	difficulty = "hard"
//	nickname = "sejong"
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/latebit/wikirace/internal/game"
	"github.com/latebit/wikirace/internal/wiki"
)

// Settings are the persisted preferences.
type Settings struct {
	AllowBacktracking bool   `toml:"allow_backtracking" json:"allow_backtracking"`
	Difficulty        string `toml:"difficulty" json:"difficulty"`
	Nickname          string `toml:"nickname" json:"nickname"`
}

// File is a settings file on disk.
type File struct {
	path string
	Settings
}

// Load reads a settings file from disk. A missing file yields the defaults:
// backtracking allowed, any difficulty, no nickname. Keys absent from the
// file keep their defaults.
func Load(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("settings file path is empty")
	}
	f := &File{path: path, Settings: Settings{AllowBacktracking: true}}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("read settings file %q: %w", path, err)
	}
	if _, err := toml.Decode(string(data), &f.Settings); err != nil {
		return nil, fmt.Errorf("parse settings file %q: %w", path, err)
	}
	if _, err := wiki.ParseDifficulty(f.Difficulty); err != nil {
		return nil, fmt.Errorf("settings file %q: %w", path, err)
	}
	return f, nil
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Game converts the preferences into engine session settings.
func (f *File) Game() game.Settings {
	d, _ := wiki.ParseDifficulty(f.Difficulty)
	return game.Settings{AllowBacktracking: f.AllowBacktracking, Difficulty: d}
}

// Update copies engine session settings back into the preferences.
func (f *File) Update(s game.Settings) {
	f.AllowBacktracking = s.AllowBacktracking
	f.Difficulty = string(s.Difficulty)
}

// Save writes the preferences to disk.
func (f *File) Save() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	out, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open settings file: %w", err)
	}
	if err := toml.NewEncoder(out).Encode(f.Settings); err != nil {
		_ = out.Close()
		return fmt.Errorf("write settings file: %w", err)
	}
	return out.Close()
}
