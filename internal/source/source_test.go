package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validSources() []Source {
	return []Source{
		{ID: "hn", Name: "Hacker News", Kind: KindRSS, URL: "https://news.ycombinator.com/rss", Category: "tech", Enabled: true},
		{ID: "blog", Name: "Some Blog", Kind: KindRSS, URL: "https://blog.example.com/feed.xml", Category: "eng", Enabled: false},
		{ID: "paper", Name: "Daily Paper", Kind: KindRSS, URL: "https://paper.example.com/rss", Category: "news", Enabled: true},
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Source)
		wantErr string
	}{
		{"missing id", func(s *Source) { s.ID = "" }, "id is required"},
		{"missing name", func(s *Source) { s.Name = "" }, "name is required"},
		{"missing url", func(s *Source) { s.URL = "" }, "url is required"},
		{"bad scheme", func(s *Source) { s.URL = "ftp://example.com/feed" }, "scheme"},
		{"unknown kind", func(s *Source) { s.Kind = "carrier-pigeon" }, "unknown type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sources := validSources()
			tt.mutate(&sources[0])
			_, err := New(sources)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	sources := validSources()
	sources[1].ID = sources[0].ID
	if _, err := New(sources); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestEnabledPreservesOrder(t *testing.T) {
	r, err := New(validSources())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	enabled := r.Enabled()
	if len(enabled) != 2 {
		t.Fatalf("expected 2 enabled sources, got %d", len(enabled))
	}
	if enabled[0].ID != "hn" || enabled[1].ID != "paper" {
		t.Errorf("expected file order, got %s, %s", enabled[0].ID, enabled[1].ID)
	}
}

func TestByID(t *testing.T) {
	r, err := New(validSources())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	src, ok := r.ByID("blog")
	if !ok {
		t.Fatal("expected blog source")
	}
	if src.Name != "Some Blog" {
		t.Errorf("unexpected name %q", src.Name)
	}

	if _, ok := r.ByID("nope"); ok {
		t.Error("expected absent for unknown id")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	data := `sources:
  - id: hn
    name: Hacker News
    type: rss
    url: https://news.ycombinator.com/rss
    category: tech
    enabled: true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("writing sources file: %v", err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(r.All()) != 1 {
		t.Fatalf("expected 1 source, got %d", len(r.All()))
	}
	src := r.All()[0]
	if src.ID != "hn" || src.Kind != KindRSS || !src.Enabled {
		t.Errorf("unexpected source: %+v", src)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing sources file")
	}
}
