// Package collect orchestrates a collection run: iterate enabled sources,
// fetch, filter by age and duplicates, persist, and track per-source health.
// One source's failure never aborts the others; only shared-infrastructure
// write failures (store, index, state) terminate a run.
package collect

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dlangk/daniel-daily/internal/dedup"
	"github.com/dlangk/daniel-daily/internal/fetch"
	"github.com/dlangk/daniel-daily/internal/source"
	"github.com/dlangk/daniel-daily/internal/state"
	"github.com/dlangk/daniel-daily/internal/store"
)

// Stats aggregates one collection run.
type Stats struct {
	SourcesProcessed      int
	ItemsFetched          int
	ItemsStored           int
	ItemsSkippedDuplicate int
	Errors                int
}

func (s *Stats) merge(other Stats) {
	s.SourcesProcessed += other.SourcesProcessed
	s.ItemsFetched += other.ItemsFetched
	s.ItemsStored += other.ItemsStored
	s.ItemsSkippedDuplicate += other.ItemsSkippedDuplicate
	s.Errors += other.Errors
}

// Registry is the read-only source lookup the coordinator consumes.
type Registry interface {
	Enabled() []source.Source
	ByID(id string) (source.Source, bool)
}

// Config wires a coordinator's collaborators.
type Config struct {
	Registry     Registry
	Tracker      *state.Tracker
	Store        *store.Store
	Index        *dedup.Index
	MaxAgeDays   int
	FetchTimeout time.Duration
}

// Coordinator runs the collection pipeline over registered fetchers.
type Coordinator struct {
	registry     Registry
	tracker      *state.Tracker
	store        *store.Store
	index        *dedup.Index
	fetchers     map[string]fetch.Fetcher
	maxAge       time.Duration
	fetchTimeout time.Duration
	now          func() time.Time
}

// New creates a coordinator. Fetchers are added with Register.
func New(cfg Config) *Coordinator {
	maxAgeDays := cfg.MaxAgeDays
	if maxAgeDays <= 0 {
		maxAgeDays = 7
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Coordinator{
		registry:     cfg.Registry,
		tracker:      cfg.Tracker,
		store:        cfg.Store,
		index:        cfg.Index,
		fetchers:     make(map[string]fetch.Fetcher),
		maxAge:       time.Duration(maxAgeDays) * 24 * time.Hour,
		fetchTimeout: timeout,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Register adds a fetcher for its kind, replacing any previous one.
func (c *Coordinator) Register(f fetch.Fetcher) {
	c.fetchers[f.Kind()] = f
}

// CollectAll runs collection over every enabled source in registry order.
// The returned error is reserved for infrastructure failures; per-source
// failures are reported through Stats.Errors and the state tracker.
func (c *Coordinator) CollectAll(ctx context.Context, force bool) (Stats, error) {
	var stats Stats
	cutoff := c.now().Add(-c.maxAge)

	for _, src := range c.registry.Enabled() {
		srcStats, err := c.collect(ctx, src, force, cutoff)
		stats.merge(srcStats)
		if err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// CollectSource runs collection for a single source.
func (c *Coordinator) CollectSource(ctx context.Context, src source.Source, force bool) (Stats, error) {
	return c.collect(ctx, src, force, c.now().Add(-c.maxAge))
}

// CollectByID runs collection for the source with the given id. The second
// return value is false when the id is unknown.
func (c *Coordinator) CollectByID(ctx context.Context, id string, force bool) (Stats, bool, error) {
	src, ok := c.registry.ByID(id)
	if !ok {
		return Stats{}, false, nil
	}
	stats, err := c.CollectSource(ctx, src, force)
	return stats, true, err
}

func (c *Coordinator) collect(ctx context.Context, src source.Source, force bool, cutoff time.Time) (Stats, error) {
	stats := Stats{SourcesProcessed: 1}

	fetcher, ok := c.fetchers[src.Kind]
	if !ok {
		// Configuration defect, not a fetch failure: the source was never
		// attempted, so its state is left untouched.
		log.WithFields(log.Fields{
			"source": src.ID,
			"type":   src.Kind,
		}).Error("No fetcher registered for source type")
		stats.Errors = 1
		return stats, nil
	}

	fctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	start := time.Now()
	outcome := fetcher.Fetch(fctx, src)
	duration := time.Since(start)

	if !outcome.Success {
		log.WithFields(log.Fields{
			"source":    src.ID,
			"errorType": outcome.ErrorType,
		}).Warn("Fetch failed: ", outcome.ErrorMessage)
		if err := c.tracker.RecordFailure(src.ID, outcome.ErrorMessage, outcome.ErrorType, duration); err != nil {
			return stats, fmt.Errorf("recording failure for %s: %w", src.ID, err)
		}
		stats.Errors = 1
		return stats, nil
	}

	stored := 0
	for _, item := range outcome.Items {
		stats.ItemsFetched++

		if item.PublishedAt.Before(cutoff) {
			continue
		}
		if !force && c.index.Exists(item.ID) {
			stats.ItemsSkippedDuplicate++
			continue
		}

		sourceName := item.SourceID
		if s, ok := c.registry.ByID(item.SourceID); ok {
			sourceName = s.Name
		}

		if _, err := c.store.StoreContent(store.ContentFile{
			ID:          item.ID,
			SourceID:    item.SourceID,
			SourceName:  sourceName,
			Title:       item.Title,
			URL:         item.URL,
			PublishedAt: item.PublishedAt,
			FetchedAt:   item.FetchedAt,
			Category:    src.Category,
			Author:      item.Author,
			Tags:        item.Tags,
			Content:     item.Content,
		}); err != nil {
			return stats, fmt.Errorf("storing item %s: %w", item.ID, err)
		}
		if err := c.index.Add(item.ID); err != nil {
			return stats, fmt.Errorf("indexing item %s: %w", item.ID, err)
		}

		stored++
		stats.ItemsStored++
	}

	if err := c.tracker.RecordSuccess(src.ID, stored, duration); err != nil {
		return stats, fmt.Errorf("recording success for %s: %w", src.ID, err)
	}

	log.WithFields(log.Fields{
		"source":  src.ID,
		"fetched": stats.ItemsFetched,
		"stored":  stored,
		"skipped": stats.ItemsSkippedDuplicate,
	}).Info("Collected source")

	return stats, nil
}
