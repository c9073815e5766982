package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/microcosm-cc/bluemonday"
)

const maxArticleBytes = 2 << 20

// Extractor fetches an article page and reduces it to markdown text: strip
// chrome elements, pick the main content node, sanitize, convert.
type Extractor struct {
	client    *http.Client
	policy    *bluemonday.Policy
	converter *md.Converter
}

// NewExtractor builds an extractor. A nil client uses a default with a 20s
// timeout.
func NewExtractor(client *http.Client) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Extractor{
		client:    client,
		policy:    bluemonday.UGCPolicy(),
		converter: md.NewConverter("", true, nil),
	}
}

// Extract downloads the page and returns its main content as markdown.
// Transient HTTP failures are retried twice; 4xx responses are not.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (string, error) {
	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := e.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(fmt.Errorf("fetching article %s: %s", pageURL, resp.Status))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("fetching article %s: %s", pageURL, resp.Status)
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxArticleBytes))
		return err
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(500*time.Millisecond), 2), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return "", err
	}

	return e.extractText(body)
}

func (e *Extractor) extractText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parsing article html: %w", err)
	}

	doc.Find("script, style, nav, header, footer, aside, form, noscript").Remove()

	sel := doc.Find("article").First()
	if sel.Length() == 0 {
		sel = doc.Find("main").First()
	}
	if sel.Length() == 0 {
		sel = doc.Find("body").First()
	}
	if sel.Length() == 0 {
		return "", fmt.Errorf("no content element found")
	}

	html, err := sel.Html()
	if err != nil {
		return "", fmt.Errorf("serializing content element: %w", err)
	}

	clean := e.policy.Sanitize(html)
	markdown, err := e.converter.ConvertString(clean)
	if err != nil {
		return "", fmt.Errorf("converting article to markdown: %w", err)
	}

	return strings.TrimSpace(markdown), nil
}
