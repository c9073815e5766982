package brief

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dlangk/daniel-daily/internal/store"
)

type fakeProvider struct {
	response     string
	err          error
	lastSystem   string
	lastUser     string
	lastMaxToken int
	calls        int
}

func (f *fakeProvider) Model() string { return "fake-model" }

func (f *fakeProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	f.calls++
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	f.lastMaxToken = maxTokens
	return f.response, f.err
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	st, err := store.New(filepath.Join(dir, "content"), filepath.Join(dir, "briefs"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	return st
}

func seedContent(t *testing.T, st *store.Store, id string, fetched time.Time) {
	t.Helper()
	_, err := st.StoreContent(store.ContentFile{
		ID:          id,
		SourceID:    "hn",
		SourceName:  "Hacker News",
		Title:       "Post " + id,
		URL:         "https://example.com/" + id,
		PublishedAt: fetched.Add(-time.Hour),
		FetchedAt:   fetched,
		Category:    "tech",
		Content:     "body of " + id,
	})
	if err != nil {
		t.Fatalf("seeding content: %v", err)
	}
}

func TestGenerateStoresBrief(t *testing.T) {
	st := testStore(t)
	now := time.Date(2026, 8, 21, 6, 0, 0, 0, time.UTC)

	seedContent(t, st, "a", now.Add(-2*time.Hour))
	seedContent(t, st, "b", now.Add(-3*time.Hour))

	provider := &fakeProvider{response: "## Brief\n\nTwo stories today [ref1][ref2]."}
	g := NewGenerator(st, provider, "analyze this", 4000, 24*time.Hour)
	g.now = func() time.Time { return now }

	result, err := g.Generate(context.Background(), false)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result == nil {
		t.Fatal("expected a result")
	}
	if result.ItemsAnalyzed != 2 {
		t.Errorf("items analyzed = %d, want 2", result.ItemsAnalyzed)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times", provider.calls)
	}
	if provider.lastSystem != "analyze this" {
		t.Errorf("system prompt = %q", provider.lastSystem)
	}
	if provider.lastMaxToken != 4000 {
		t.Errorf("max tokens = %d", provider.lastMaxToken)
	}
	if !strings.Contains(provider.lastUser, "Reference ID: ref1") || !strings.Contains(provider.lastUser, "Reference ID: ref2") {
		t.Errorf("prompt missing reference ids:\n%s", provider.lastUser)
	}

	b, ok := st.LatestBrief()
	if !ok {
		t.Fatal("expected stored brief")
	}
	if b.Content != provider.response {
		t.Errorf("brief content = %q", b.Content)
	}
	if b.Model != "fake-model" {
		t.Errorf("brief model = %q", b.Model)
	}
	if b.SourcesAnalyzed != 2 {
		t.Errorf("sources analyzed = %d", b.SourcesAnalyzed)
	}
	if len(b.SourceMap) != 2 {
		t.Errorf("source map = %v", b.SourceMap)
	}
	for ref, rel := range b.SourceMap {
		if _, ok := st.ContentByPath(rel); !ok {
			t.Errorf("source map %s points at unreadable path %s", ref, rel)
		}
	}
}

func TestGenerateEmptyWindow(t *testing.T) {
	st := testStore(t)
	now := time.Date(2026, 8, 21, 6, 0, 0, 0, time.UTC)

	// Content fetched outside the window is not analyzed.
	seedContent(t, st, "stale", now.Add(-48*time.Hour))

	provider := &fakeProvider{response: "unused"}
	g := NewGenerator(st, provider, "", 0, 24*time.Hour)
	g.now = func() time.Time { return now }

	result, err := g.Generate(context.Background(), false)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result for empty window, got %+v", result)
	}
	if provider.calls != 0 {
		t.Errorf("provider must not be called, got %d calls", provider.calls)
	}
}

func TestGenerateDryRun(t *testing.T) {
	st := testStore(t)
	now := time.Date(2026, 8, 21, 6, 0, 0, 0, time.UTC)
	seedContent(t, st, "a", now.Add(-time.Hour))

	provider := &fakeProvider{response: "unused"}
	g := NewGenerator(st, provider, "", 0, 24*time.Hour)
	g.now = func() time.Time { return now }

	result, err := g.Generate(context.Background(), true)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result == nil || result.ItemsAnalyzed != 1 {
		t.Fatalf("expected dry-run result, got %+v", result)
	}
	if result.SourceIDs[0] != "hn" {
		t.Errorf("source ids = %v", result.SourceIDs)
	}
	if provider.calls != 0 {
		t.Errorf("dry run must not call the provider, got %d calls", provider.calls)
	}
	if _, ok := st.LatestBrief(); ok {
		t.Error("dry run must not store a brief")
	}
}

func TestGenerateProviderError(t *testing.T) {
	st := testStore(t)
	now := time.Date(2026, 8, 21, 6, 0, 0, 0, time.UTC)
	seedContent(t, st, "a", now.Add(-time.Hour))

	provider := &fakeProvider{err: errors.New("rate limited")}
	g := NewGenerator(st, provider, "", 0, 24*time.Hour)
	g.now = func() time.Time { return now }

	if _, err := g.Generate(context.Background(), false); err == nil {
		t.Fatal("expected provider error to propagate")
	}
	if _, ok := st.LatestBrief(); ok {
		t.Error("failed generation must not store a brief")
	}
}

func TestGenerateCapsPromptBodies(t *testing.T) {
	st := testStore(t)
	now := time.Date(2026, 8, 21, 6, 0, 0, 0, time.UTC)

	huge := strings.Repeat("x", maxPromptBodyChars*2)
	if _, err := st.StoreContent(store.ContentFile{
		ID: "big", SourceID: "hn", SourceName: "HN", Title: "Big",
		URL: "https://example.com/big", PublishedAt: now.Add(-time.Hour),
		FetchedAt: now.Add(-time.Hour), Category: "tech", Content: huge,
	}); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	provider := &fakeProvider{response: "brief"}
	g := NewGenerator(st, provider, "", 0, 24*time.Hour)
	g.now = func() time.Time { return now }

	if _, err := g.Generate(context.Background(), false); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if strings.Contains(provider.lastUser, strings.Repeat("x", maxPromptBodyChars+1)) {
		t.Error("prompt body not capped")
	}
	if !strings.Contains(provider.lastUser, strings.Repeat("x", maxPromptBodyChars)) {
		t.Error("capped body missing from prompt")
	}
}
