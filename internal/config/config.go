// Package config loads the settings file and resolves the on-disk layout.
// All paths are explicit values handed to constructors; internal packages
// never read the environment themselves.
package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_settings.yaml
var defaultSettingsFS embed.FS

// CollectionSettings controls the collection pipeline.
type CollectionSettings struct {
	MaxAgeDays   int    `yaml:"max_age_days"`
	FetchTimeout string `yaml:"fetch_timeout"`
}

// FetchTimeoutDuration parses the per-source fetch timeout, defaulting to 30s.
func (c CollectionSettings) FetchTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.FetchTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// BriefSettings controls the brief-generation stage.
type BriefSettings struct {
	Model              string `yaml:"model"`
	MaxTokens          int    `yaml:"max_tokens"`
	ContentWindowHours int    `yaml:"content_window_hours"`
	SystemPromptPath   string `yaml:"system_prompt_path,omitempty"`
	APIKey             string `yaml:"api_key,omitempty"`
}

// WindowDuration returns the content window for brief generation.
func (b BriefSettings) WindowDuration() time.Duration {
	if b.ContentWindowHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(b.ContentWindowHours) * time.Hour
}

// Settings is the parsed settings file.
type Settings struct {
	Collection CollectionSettings `yaml:"collection"`
	Brief      BriefSettings      `yaml:"brief"`
}

// Paths resolves every file the system touches from two roots.
type Paths struct {
	ConfigDir string
	DataDir   string
}

// DefaultPaths places config and data under the XDG base directories.
func DefaultPaths() Paths {
	return Paths{
		ConfigDir: filepath.Join(xdg.ConfigHome, "daniel-daily"),
		DataDir:   filepath.Join(xdg.DataHome, "daniel-daily"),
	}
}

func (p Paths) SettingsFile() string { return filepath.Join(p.ConfigDir, "settings.yaml") }
func (p Paths) SourcesFile() string  { return filepath.Join(p.ConfigDir, "sources.yaml") }
func (p Paths) ContentDir() string   { return filepath.Join(p.DataDir, "content") }
func (p Paths) BriefsDir() string    { return filepath.Join(p.DataDir, "briefs") }
func (p Paths) StateFile() string    { return filepath.Join(p.DataDir, "state", "sources.json") }
func (p Paths) DedupIndexFile() string {
	return filepath.Join(p.DataDir, "state", "dedup_index.json")
}

func loadDefaults() (*Settings, error) {
	data, err := defaultSettingsFS.ReadFile("default_settings.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded settings: %w", err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing embedded settings: %w", err)
	}
	return &s, nil
}

// LoadSettings reads the settings file, writing the embedded defaults to disk
// on first run. A missing file is not an error.
func LoadSettings(path string) (*Settings, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}

	if err := validate(&s); err != nil {
		return nil, err
	}

	return &s, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultSettingsFS.ReadFile("default_settings.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(s *Settings) error {
	if s.Collection.MaxAgeDays < 0 {
		return fmt.Errorf("collection.max_age_days must not be negative, got %d", s.Collection.MaxAgeDays)
	}
	if s.Collection.FetchTimeout != "" {
		if _, err := time.ParseDuration(s.Collection.FetchTimeout); err != nil {
			return fmt.Errorf("collection.fetch_timeout: invalid duration %q", s.Collection.FetchTimeout)
		}
	}
	if s.Brief.MaxTokens < 0 {
		return fmt.Errorf("brief.max_tokens must not be negative, got %d", s.Brief.MaxTokens)
	}
	return nil
}
