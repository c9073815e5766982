// Package brief turns the recent content window into a generated daily brief
// via an external completion provider and persists it through the store.
package brief

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dlangk/daniel-daily/internal/store"
)

// Each article body is capped at this many characters in the prompt.
const maxPromptBodyChars = 2000

// DefaultSystemPrompt is used when no prompt file is configured.
const DefaultSystemPrompt = `You are an intelligence analyst producing a daily brief.
Synthesize the provided articles into a concise briefing: group related
stories, surface what changed since yesterday, and cite articles by their
reference ID (e.g. [ref3]). Plain markdown, no preamble.`

// Provider is the external completion service. The core treats it as an
// opaque request/response function.
type Provider interface {
	Model() string
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// Generator builds and persists briefs from the store's recent content.
type Generator struct {
	store        *store.Store
	provider     Provider
	systemPrompt string
	maxTokens    int
	window       time.Duration
	now          func() time.Time
}

// NewGenerator wires a generator. A zero window defaults to 24h.
func NewGenerator(st *store.Store, provider Provider, systemPrompt string, maxTokens int, window time.Duration) *Generator {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	if maxTokens <= 0 {
		maxTokens = 8000
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Generator{
		store:        st,
		provider:     provider,
		systemPrompt: systemPrompt,
		maxTokens:    maxTokens,
		window:       window,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Result describes one generation run.
type Result struct {
	Path          string
	ItemsAnalyzed int
	SourceIDs     []string
	Window        store.BriefWindow
}

// Generate collects the content window, calls the provider, and stores the
// brief. Returns nil when the window holds no content. With dryRun the
// provider is not called and nothing is written.
func (g *Generator) Generate(ctx context.Context, dryRun bool) (*Result, error) {
	now := g.now()
	since := now.Add(-g.window)

	files, err := g.store.ContentSince(since)
	if err != nil {
		return nil, fmt.Errorf("reading content window: %w", err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	result := &Result{
		ItemsAnalyzed: len(files),
		SourceIDs:     sourceIDs(files),
		Window:        store.BriefWindow{From: since, To: now},
	}
	if dryRun {
		return result, nil
	}

	refMap := make(map[string]store.ContentFile, len(files))
	userPrompt := g.buildPrompt(files, refMap)

	log.WithFields(log.Fields{
		"items": len(files),
		"model": g.provider.Model(),
	}).Info("Generating brief")

	response, err := g.provider.Complete(ctx, g.systemPrompt, userPrompt, g.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("generating brief: %w", err)
	}

	path, err := g.store.StoreBrief(store.Brief{
		GeneratedAt:     now,
		ContentWindow:   result.Window,
		SourcesAnalyzed: len(files),
		Model:           g.provider.Model(),
		SourceMap:       g.buildSourceMap(refMap),
		Content:         response,
	})
	if err != nil {
		return nil, err
	}

	result.Path = path
	return result, nil
}

func (g *Generator) buildPrompt(files []store.ContentFile, refMap map[string]store.ContentFile) string {
	var b strings.Builder
	b.WriteString("Here are the articles to analyze:\n\n")

	for i, cf := range files {
		refID := fmt.Sprintf("ref%d", i+1)
		refMap[refID] = cf

		body := cf.Content
		if len(body) > maxPromptBodyChars {
			body = body[:maxPromptBodyChars]
		}

		b.WriteString("---\n")
		fmt.Fprintf(&b, "Reference ID: %s\n", refID)
		fmt.Fprintf(&b, "Title: %s\n", cf.Title)
		fmt.Fprintf(&b, "Source: %s\n", cf.SourceName)
		fmt.Fprintf(&b, "Published: %s\n", cf.PublishedAt.Format("2006-01-02 15:04"))
		fmt.Fprintf(&b, "URL: %s\n", cf.URL)
		fmt.Fprintf(&b, "\n%s\n", body)
	}

	b.WriteString("---\n")
	b.WriteString("\nPlease generate a daily brief based on these articles.")
	return b.String()
}

func (g *Generator) buildSourceMap(refMap map[string]store.ContentFile) map[string]string {
	sourceMap := make(map[string]string, len(refMap))
	for refID, cf := range refMap {
		sourceMap[refID] = g.store.RelPath(cf.Path)
	}
	return sourceMap
}

func sourceIDs(files []store.ContentFile) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, cf := range files {
		if !seen[cf.SourceID] {
			seen[cf.SourceID] = true
			ids = append(ids, cf.SourceID)
		}
	}
	sort.Strings(ids)
	return ids
}
