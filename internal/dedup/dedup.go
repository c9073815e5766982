// Package dedup maintains the persisted set of content identifiers already
// ingested, so restarts do not re-ingest previously seen items.
package dedup

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/dlangk/daniel-daily/internal/atomicfile"
	"github.com/dlangk/daniel-daily/internal/store"
)

type indexFile struct {
	IDs []string `json:"ids"`
}

// Index is a persisted set of content identifiers. The index only grows,
// except through Rebuild which resets it to the store's current contents.
type Index struct {
	path string
	ids  map[string]struct{}
}

// Open loads the index from disk. A missing or corrupt file starts an empty
// index; recovery and first run are the same path.
func Open(path string) *Index {
	idx := &Index{path: path, ids: make(map[string]struct{})}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithField("path", path).WithError(err).Warn("Could not read dedup index, starting empty")
		}
		return idx
	}

	var f indexFile
	if err := json.Unmarshal(data, &f); err != nil {
		log.WithField("path", path).WithError(err).Warn("Corrupt dedup index, starting empty")
		return idx
	}

	for _, id := range f.IDs {
		idx.ids[id] = struct{}{}
	}
	return idx
}

// Exists reports whether the identifier has already been ingested.
func (i *Index) Exists(id string) bool {
	_, ok := i.ids[id]
	return ok
}

// Add records an identifier and persists the index immediately. Adding an
// identifier that is already present is a no-op apart from the rewrite.
func (i *Index) Add(id string) error {
	i.ids[id] = struct{}{}
	return i.save()
}

// Len returns the number of known identifiers.
func (i *Index) Len() int {
	return len(i.ids)
}

// ContentLister is the slice of the store Rebuild needs.
type ContentLister interface {
	AllContent() ([]store.ContentFile, error)
}

// Rebuild clears the index, repopulates it from every stored content file's
// header, persists, and returns the resulting identifier count. Afterwards
// Exists is true for exactly the identifiers of the currently stored files.
func (i *Index) Rebuild(st ContentLister) (int, error) {
	files, err := st.AllContent()
	if err != nil {
		return 0, fmt.Errorf("scanning store: %w", err)
	}

	i.ids = make(map[string]struct{}, len(files))
	for _, cf := range files {
		i.ids[cf.ID] = struct{}{}
	}

	if err := i.save(); err != nil {
		return 0, err
	}
	return len(i.ids), nil
}

func (i *Index) save() error {
	ids := make([]string, 0, len(i.ids))
	for id := range i.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data, err := json.Marshal(indexFile{IDs: ids})
	if err != nil {
		return fmt.Errorf("encoding dedup index: %w", err)
	}
	if err := atomicfile.WriteFile(i.path, data, 0o644); err != nil {
		return fmt.Errorf("writing dedup index: %w", err)
	}
	return nil
}
