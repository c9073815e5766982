package cmd

import (
	"fmt"

	"github.com/dlangk/daniel-daily/internal/config"
	"github.com/dlangk/daniel-daily/internal/dedup"
	"github.com/dlangk/daniel-daily/internal/source"
	"github.com/dlangk/daniel-daily/internal/state"
	"github.com/dlangk/daniel-daily/internal/store"
)

// app bundles the wired persistence and configuration every command needs.
type app struct {
	paths    config.Paths
	settings *config.Settings
	registry *source.Registry
	store    *store.Store
	index    *dedup.Index
	tracker  *state.Tracker
}

func openApp() (*app, error) {
	paths := resolvePaths()

	settings, err := config.LoadSettings(paths.SettingsFile())
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	registry, err := source.Load(paths.SourcesFile())
	if err != nil {
		return nil, fmt.Errorf("loading sources: %w", err)
	}

	st, err := store.New(paths.ContentDir(), paths.BriefsDir())
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	return &app{
		paths:    paths,
		settings: settings,
		registry: registry,
		store:    st,
		index:    dedup.Open(paths.DedupIndexFile()),
		tracker:  state.Open(paths.StateFile()),
	}, nil
}
