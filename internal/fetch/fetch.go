// Package fetch turns one configured source into normalized content items.
// Fetchers never return Go errors for fetch problems: every failure is
// captured into a non-throwing Outcome so the coordinator can record it
// against the source and keep going.
package fetch

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/dlangk/daniel-daily/internal/source"
)

// Item is one unit of content produced by a fetch. Ephemeral: constructed per
// fetch and consumed immediately by the coordinator.
type Item struct {
	ID          string
	SourceID    string
	Title       string
	Content     string
	URL         string
	PublishedAt time.Time
	FetchedAt   time.Time
	Author      string
	Tags        []string
}

// Outcome is the result of one fetch attempt. On failure Items is empty and
// ErrorMessage/ErrorType describe what went wrong.
type Outcome struct {
	Success      bool
	Items        []Item
	ErrorMessage string
	ErrorType    string
}

// Failure wraps an error into a failed outcome with a classification.
func Failure(err error) Outcome {
	return Outcome{
		ErrorMessage: err.Error(),
		ErrorType:    classifyError(err),
	}
}

// Fetcher retrieves content for one kind of source. Implementations must not
// panic and must report all failures through the outcome.
type Fetcher interface {
	Kind() string
	Fetch(ctx context.Context, src source.Source) Outcome
}

func classifyError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}

	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		return "http"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return "network"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return "network"
	}

	return "parse"
}
