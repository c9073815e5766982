// Package state tracks per-source fetch health: last outcome, counters, and
// a bounded rolling history. Every update is written through to disk before
// returning, so a crash loses at most the in-flight update.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/dlangk/daniel-daily/internal/atomicfile"
)

// MaxHistoryEntries caps the per-source attempt history; the oldest entries
// are evicted.
const MaxHistoryEntries = 10

// HistoryEntry summarizes one fetch attempt.
type HistoryEntry struct {
	Timestamp       time.Time `json:"timestamp"`
	Success         bool      `json:"success"`
	ItemsFetched    int       `json:"items_fetched,omitempty"`
	Error           string    `json:"error,omitempty"`
	DurationSeconds float64   `json:"duration_seconds"`
}

// SourceState is the persisted health record for one source. History is
// ordered most-recent-first.
type SourceState struct {
	SourceID            string         `json:"source_id"`
	LastFetchAttempt    time.Time      `json:"last_fetch_attempt,omitzero"`
	LastSuccessfulFetch time.Time      `json:"last_successful_fetch,omitzero"`
	LastFetchSuccess    bool           `json:"last_fetch_success"`
	LastError           string         `json:"last_error,omitempty"`
	LastErrorType       string         `json:"last_error_type,omitempty"`
	ItemsLastRun        int            `json:"items_fetched_last_run"`
	TotalItemsFetched   int            `json:"total_items_fetched"`
	ConsecutiveFailures int            `json:"consecutive_failures"`
	History             []HistoryEntry `json:"fetch_history"`
}

// Tracker records fetch outcomes per source with write-through persistence.
type Tracker struct {
	path   string
	states map[string]*SourceState
	now    func() time.Time
}

// Open loads the state file. A missing or corrupt file starts with an empty
// state map; first run and recovery are the same path.
func Open(path string) *Tracker {
	t := &Tracker{
		path:   path,
		states: make(map[string]*SourceState),
		now:    func() time.Time { return time.Now().UTC() },
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithField("path", path).WithError(err).Warn("Could not read state file, starting empty")
		}
		return t
	}

	var states map[string]*SourceState
	if err := json.Unmarshal(data, &states); err != nil {
		log.WithField("path", path).WithError(err).Warn("Corrupt state file, starting empty")
		return t
	}
	t.states = states
	return t
}

// RecordSuccess records a successful fetch attempt. Resets the consecutive
// failure counter and adds the stored item count to the running total.
func (t *Tracker) RecordSuccess(sourceID string, itemsFetched int, duration time.Duration) error {
	now := t.now()
	s := t.state(sourceID)

	s.LastFetchAttempt = now
	s.LastSuccessfulFetch = now
	s.LastFetchSuccess = true
	s.LastError = ""
	s.LastErrorType = ""
	s.ItemsLastRun = itemsFetched
	s.TotalItemsFetched += itemsFetched
	s.ConsecutiveFailures = 0

	s.pushHistory(HistoryEntry{
		Timestamp:       now,
		Success:         true,
		ItemsFetched:    itemsFetched,
		DurationSeconds: roundSeconds(duration),
	})

	return t.save()
}

// RecordFailure records a failed fetch attempt, incrementing the consecutive
// failure counter by exactly one.
func (t *Tracker) RecordFailure(sourceID, message, errorType string, duration time.Duration) error {
	if message == "" {
		message = "unknown error"
	}
	now := t.now()
	s := t.state(sourceID)

	s.LastFetchAttempt = now
	s.LastFetchSuccess = false
	s.LastError = message
	s.LastErrorType = errorType
	s.ItemsLastRun = 0
	s.ConsecutiveFailures++

	s.pushHistory(HistoryEntry{
		Timestamp:       now,
		Success:         false,
		Error:           message,
		DurationSeconds: roundSeconds(duration),
	})

	return t.save()
}

// State returns a copy of one source's state.
func (t *Tracker) State(sourceID string) (SourceState, bool) {
	s, ok := t.states[sourceID]
	if !ok {
		return SourceState{}, false
	}
	return *s, true
}

// AllStates returns a copy of the full state map.
func (t *Tracker) AllStates() map[string]SourceState {
	out := make(map[string]SourceState, len(t.states))
	for id, s := range t.states {
		out[id] = *s
	}
	return out
}

// NeedingAttention returns the states whose last attempt failed or that are
// in a failure streak, ordered by source id.
func (t *Tracker) NeedingAttention() []SourceState {
	states := lo.Filter(lo.Values(t.states), func(s *SourceState, _ int) bool {
		return s.ConsecutiveFailures > 0 || !s.LastFetchSuccess
	})

	out := make([]SourceState, 0, len(states))
	for _, s := range states {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SourceID < out[j].SourceID
	})
	return out
}

func (t *Tracker) state(sourceID string) *SourceState {
	s, ok := t.states[sourceID]
	if !ok {
		s = &SourceState{SourceID: sourceID}
		t.states[sourceID] = s
	}
	return s
}

func (s *SourceState) pushHistory(entry HistoryEntry) {
	s.History = append([]HistoryEntry{entry}, s.History...)
	if len(s.History) > MaxHistoryEntries {
		s.History = s.History[:MaxHistoryEntries]
	}
}

func (t *Tracker) save() error {
	data, err := json.MarshalIndent(t.states, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	if err := atomicfile.WriteFile(t.path, data, 0o644); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	return nil
}

func roundSeconds(d time.Duration) float64 {
	return float64(d.Round(10*time.Millisecond)) / float64(time.Second)
}
