// Package source holds the source registry: the ordered, read-only set of
// configured content origins the collector pulls from.
package source

import (
	"fmt"
	"net/url"
	"os"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// KindRSS is the only fetch kind currently shipped. Additional kinds plug in
// through the coordinator's fetcher registry without touching this package.
const KindRSS = "rss"

var validKinds = map[string]bool{KindRSS: true}

// Source describes one configured content origin. Immutable once loaded.
type Source struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Kind     string `yaml:"type"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
	Enabled  bool   `yaml:"enabled"`
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// Registry is a read-only view over the configured sources. Iteration order
// follows the order of the sources file.
type Registry struct {
	sources []Source
	byID    map[string]Source
}

// Load reads and validates a sources file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources file: %w", err)
	}

	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing sources file %s: %w", path, err)
	}

	return New(f.Sources)
}

// New builds a registry from an already-loaded source list.
func New(sources []Source) (*Registry, error) {
	byID := make(map[string]Source, len(sources))
	for i, s := range sources {
		if s.ID == "" {
			return nil, fmt.Errorf("source %d: id is required", i)
		}
		if s.Name == "" {
			return nil, fmt.Errorf("source %q: name is required", s.ID)
		}
		if s.URL == "" {
			return nil, fmt.Errorf("source %q: url is required", s.ID)
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			return nil, fmt.Errorf("source %q: invalid url: %w", s.ID, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("source %q: url scheme must be http or https, got %q", s.ID, u.Scheme)
		}
		if !validKinds[s.Kind] {
			return nil, fmt.Errorf("source %q: unknown type %q (valid: rss)", s.ID, s.Kind)
		}
		if _, dup := byID[s.ID]; dup {
			return nil, fmt.Errorf("source %q: duplicate id", s.ID)
		}
		byID[s.ID] = s
	}

	return &Registry{sources: sources, byID: byID}, nil
}

// All returns every configured source in file order.
func (r *Registry) All() []Source {
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Enabled returns the enabled sources in file order.
func (r *Registry) Enabled() []Source {
	return lo.Filter(r.sources, func(s Source, _ int) bool {
		return s.Enabled
	})
}

// ByID looks up a source by its id.
func (r *Registry) ByID(id string) (Source, bool) {
	s, ok := r.byID[id]
	return s, ok
}
