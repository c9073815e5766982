package fetch

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/dlangk/daniel-daily/internal/source"
)

// Feed entries shorter than this, or containing a link-only teaser, trigger a
// full-article fetch from the entry URL.
const minInlineContent = 500

const anchorMarker = "<a href="

// RSSFetcher pulls RSS and Atom feeds via gofeed.
type RSSFetcher struct {
	parser    *gofeed.Parser
	extractor *Extractor
}

// NewRSSFetcher builds an RSS fetcher. A nil client uses a default with a
// conservative timeout.
func NewRSSFetcher(client *http.Client) *RSSFetcher {
	parser := gofeed.NewParser()
	if client != nil {
		parser.Client = client
	}
	return &RSSFetcher{
		parser:    parser,
		extractor: NewExtractor(client),
	}
}

func (f *RSSFetcher) Kind() string { return source.KindRSS }

// Fetch parses the source's feed into items. A total feed failure becomes a
// failed outcome; entries that individually cannot be normalized are dropped
// without affecting the outcome.
func (f *RSSFetcher) Fetch(ctx context.Context, src source.Source) Outcome {
	feed, err := f.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return Failure(err)
	}

	fetchedAt := time.Now().UTC()
	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		item, ok := f.parseEntry(ctx, entry, src, fetchedAt)
		if !ok {
			log.WithFields(log.Fields{
				"source": src.ID,
				"title":  entry.Title,
			}).Debug("Dropping feed entry without usable identifier")
			continue
		}
		items = append(items, item)
	}

	return Outcome{Success: true, Items: items}
}

func (f *RSSFetcher) parseEntry(ctx context.Context, entry *gofeed.Item, src source.Source, fetchedAt time.Time) (Item, bool) {
	// Identifier fallback chain: feed-native id, then link, then title.
	id := entry.GUID
	if id == "" {
		id = entry.Link
	}
	if id == "" {
		id = entry.Title
	}
	if id == "" {
		return Item{}, false
	}

	title := entry.Title
	if title == "" {
		title = "Untitled"
	}

	content := entry.Content
	if content == "" {
		content = entry.Description
	}

	// Teaser heuristic: short bodies and bodies that are mostly a link get
	// replaced by the extracted article text when that text is longer.
	if entry.Link != "" && (len(content) < minInlineContent || strings.Contains(content, anchorMarker)) {
		full, err := f.extractor.Extract(ctx, entry.Link)
		if err != nil {
			log.WithFields(log.Fields{
				"source": src.ID,
				"url":    entry.Link,
			}).WithError(err).Debug("Article extraction failed, keeping feed body")
		} else if len(full) > len(content) {
			content = full
		}
	}

	published := fetchedAt
	if entry.PublishedParsed != nil {
		published = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		published = *entry.UpdatedParsed
	}

	author := ""
	if entry.Author != nil {
		author = entry.Author.Name
	}

	tags := lo.Filter(entry.Categories, func(c string, _ int) bool {
		return c != ""
	})

	return Item{
		ID:          id,
		SourceID:    src.ID,
		Title:       title,
		Content:     content,
		URL:         entry.Link,
		PublishedAt: published,
		FetchedAt:   fetchedAt,
		Author:      author,
		Tags:        tags,
	}, true
}
