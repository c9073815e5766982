package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dlangk/daniel-daily/internal/source"
)

func feedServer(t *testing.T, xml string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, xml)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func rssDoc(items string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel><title>Test Feed</title><link>https://example.com</link>
` + items + `
</channel></rss>`
}

func testSource(url string) source.Source {
	return source.Source{ID: "hn", Name: "Hacker News", Kind: source.KindRSS, URL: url, Category: "tech", Enabled: true}
}

func TestFetchParsesEntries(t *testing.T) {
	longBody := strings.Repeat("A sentence about something interesting. ", 20)
	srv := feedServer(t, rssDoc(`
<item>
  <title>First Post</title>
  <link>https://example.com/1</link>
  <guid>guid-1</guid>
  <pubDate>Mon, 17 Aug 2026 10:00:00 GMT</pubDate>
  <author>alice@example.com (Alice)</author>
  <category>go</category>
  <category></category>
  <content:encoded><![CDATA[`+longBody+`]]></content:encoded>
  <description>teaser</description>
</item>`))

	f := NewRSSFetcher(nil)
	outcome := f.Fetch(context.Background(), testSource(srv.URL))

	if !outcome.Success {
		t.Fatalf("expected success, got %s: %s", outcome.ErrorType, outcome.ErrorMessage)
	}
	if len(outcome.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(outcome.Items))
	}

	item := outcome.Items[0]
	if item.ID != "guid-1" {
		t.Errorf("expected feed-native id, got %q", item.ID)
	}
	if item.SourceID != "hn" {
		t.Errorf("expected source id hn, got %q", item.SourceID)
	}
	if item.Title != "First Post" {
		t.Errorf("title: %q", item.Title)
	}
	// Explicit content wins over description.
	if !strings.Contains(item.Content, "something interesting") {
		t.Errorf("expected content field used, got %q", item.Content)
	}
	want := time.Date(2026, 8, 17, 10, 0, 0, 0, time.UTC)
	if !item.PublishedAt.Equal(want) {
		t.Errorf("published: %v, want %v", item.PublishedAt, want)
	}
	if item.FetchedAt.IsZero() {
		t.Error("expected fetch timestamp")
	}
	// Empty category terms are filtered out.
	if len(item.Tags) != 1 || item.Tags[0] != "go" {
		t.Errorf("tags: %v", item.Tags)
	}
}

func TestFetchIdentifierFallbackChain(t *testing.T) {
	srv := feedServer(t, rssDoc(`
<item>
  <title>Link Fallback</title>
  <link>https://example.com/by-link</link>
  <description>`+strings.Repeat("x", 600)+`</description>
</item>
<item>
  <title>Title Fallback</title>
  <description>`+strings.Repeat("y", 600)+`</description>
</item>
<item>
  <description>dropped: nothing identifies this entry</description>
</item>`))

	f := NewRSSFetcher(nil)
	outcome := f.Fetch(context.Background(), testSource(srv.URL))

	if !outcome.Success {
		t.Fatalf("expected success: %s", outcome.ErrorMessage)
	}
	if len(outcome.Items) != 2 {
		t.Fatalf("expected unidentifiable entry dropped, got %d items", len(outcome.Items))
	}
	if outcome.Items[0].ID != "https://example.com/by-link" {
		t.Errorf("expected link as id, got %q", outcome.Items[0].ID)
	}
	if outcome.Items[1].ID != "Title Fallback" {
		t.Errorf("expected title as id, got %q", outcome.Items[1].ID)
	}
}

func TestFetchEnrichesShortBodies(t *testing.T) {
	article := "<html><body><article><p>" +
		strings.Repeat("The full article text goes on and on. ", 30) +
		"</p></article></body></html>"

	mux := http.NewServeMux()
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, article)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssDoc(`
<item>
  <title>Teaser Only</title>
  <link>`+srv.URL+`/article</link>
  <guid>guid-1</guid>
  <description>short teaser</description>
</item>`))
	})

	f := NewRSSFetcher(nil)
	outcome := f.Fetch(context.Background(), testSource(srv.URL+"/feed"))

	if !outcome.Success {
		t.Fatalf("expected success: %s", outcome.ErrorMessage)
	}
	if len(outcome.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(outcome.Items))
	}
	if !strings.Contains(outcome.Items[0].Content, "The full article text") {
		t.Errorf("expected enriched body, got %q", outcome.Items[0].Content)
	}
}

func TestFetchKeepsBodyWhenExtractionFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssDoc(`
<item>
  <title>Teaser Only</title>
  <link>`+srv.URL+`/article</link>
  <guid>guid-1</guid>
  <description>short teaser</description>
</item>`))
	})

	f := NewRSSFetcher(nil)
	outcome := f.Fetch(context.Background(), testSource(srv.URL+"/feed"))

	if !outcome.Success {
		t.Fatalf("extraction failure must not fail the fetch: %s", outcome.ErrorMessage)
	}
	if outcome.Items[0].Content != "short teaser" {
		t.Errorf("expected original body kept, got %q", outcome.Items[0].Content)
	}
}

func TestFetchKeepsLongerBodyOverExtraction(t *testing.T) {
	feedBody := "<a href=\"https://example.com\">link</a> " + strings.Repeat("already long feed body. ", 40)

	mux := http.NewServeMux()
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><article><p>tiny</p></article></body></html>")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssDoc(`
<item>
  <title>Anchor Heuristic</title>
  <link>`+srv.URL+`/article</link>
  <guid>guid-1</guid>
  <description><![CDATA[`+feedBody+`]]></description>
</item>`))
	})

	f := NewRSSFetcher(nil)
	outcome := f.Fetch(context.Background(), testSource(srv.URL+"/feed"))

	if !outcome.Success {
		t.Fatalf("expected success: %s", outcome.ErrorMessage)
	}
	// Extracted text is shorter than the feed body, so the feed body stays.
	if !strings.Contains(outcome.Items[0].Content, "already long feed body") {
		t.Errorf("expected feed body kept, got %q", outcome.Items[0].Content)
	}
}

func TestFetchHTTPFailureOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	t.Cleanup(srv.Close)

	f := NewRSSFetcher(nil)
	outcome := f.Fetch(context.Background(), testSource(srv.URL))

	if outcome.Success {
		t.Fatal("expected failure outcome")
	}
	if len(outcome.Items) != 0 {
		t.Errorf("expected no items on failure, got %d", len(outcome.Items))
	}
	if outcome.ErrorMessage == "" {
		t.Error("expected error message")
	}
	if outcome.ErrorType != "http" {
		t.Errorf("expected http classification, got %q", outcome.ErrorType)
	}
}

func TestFetchMalformedFeedOutcome(t *testing.T) {
	srv := feedServer(t, "this is not a feed")

	f := NewRSSFetcher(nil)
	outcome := f.Fetch(context.Background(), testSource(srv.URL))

	if outcome.Success {
		t.Fatal("expected failure outcome")
	}
	if outcome.ErrorType != "parse" {
		t.Errorf("expected parse classification, got %q", outcome.ErrorType)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, "timeout"},
		{context.Canceled, "canceled"},
		{errors.New("unexpected token"), "parse"},
	}
	for _, tt := range tests {
		if got := classifyError(tt.err); got != tt.want {
			t.Errorf("classifyError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
