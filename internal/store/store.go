// Package store persists content records and briefs as markdown files with a
// YAML frontmatter header. Every file is self-describing: the header alone is
// enough to reconstruct the record, which is what makes the duplicate index
// rebuildable from the files and the store inspectable with a text editor.
package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/dlangk/daniel-daily/internal/atomicfile"
)

const maxSlugLen = 50

// Store writes and reads content files under a per-source directory layout
// and briefs under a flat briefs directory.
type Store struct {
	contentDir string
	briefsDir  string

	// Files that failed to parse on read paths. Parse failures are skipped
	// by contract, not errored; this counter is the diagnostic for them.
	skippedParses atomic.Int64
}

// New creates a store rooted at the given directories, creating them if
// missing.
func New(contentDir, briefsDir string) (*Store, error) {
	for _, dir := range []string{contentDir, briefsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory %s: %w", dir, err)
		}
	}
	return &Store{contentDir: contentDir, briefsDir: briefsDir}, nil
}

// SkippedParses reports how many unparsable files read paths have skipped.
func (s *Store) SkippedParses() int64 {
	return s.skippedParses.Load()
}

// StoreContent writes one content record under its source's directory and
// returns the file path. The filename is derived from the published date and
// a slug of the title; a collision on both overwrites the earlier file
// (last write wins).
func (s *Store) StoreContent(cf ContentFile) (string, error) {
	sourceDir := filepath.Join(s.contentDir, cf.SourceID)

	filename := fmt.Sprintf("%s-%s.md", cf.PublishedAt.Format("2006-01-02"), slugify(cf.Title))
	path := filepath.Join(sourceDir, filename)

	data, err := marshalFrontmatter(cf, cf.Content)
	if err != nil {
		return "", fmt.Errorf("encoding content %s: %w", cf.ID, err)
	}
	if err := atomicfile.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing content %s: %w", cf.ID, err)
	}
	return path, nil
}

// ContentSince returns every stored record whose fetch timestamp is at or
// after since, ordered by published time descending. Unparsable files are
// skipped.
func (s *Store) ContentSince(since time.Time) ([]ContentFile, error) {
	var results []ContentFile
	err := filepath.WalkDir(s.contentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		cf, ok := s.parseContentFile(path)
		if !ok {
			return nil
		}
		if !cf.FetchedAt.Before(since) {
			results = append(results, cf)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning content dir: %w", err)
	}
	sortByPublishedDesc(results)
	return results, nil
}

// AllContent returns every parseable stored record.
func (s *Store) AllContent() ([]ContentFile, error) {
	return s.ContentSince(time.Time{})
}

// ContentBySource returns all records for one source, ordered by published
// time descending.
func (s *Store) ContentBySource(sourceID string) ([]ContentFile, error) {
	sourceDir := filepath.Join(s.contentDir, sourceID)
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading source dir: %w", err)
	}

	var results []ContentFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		if cf, ok := s.parseContentFile(filepath.Join(sourceDir, entry.Name())); ok {
			results = append(results, cf)
		}
	}
	sortByPublishedDesc(results)
	return results, nil
}

// ContentByPath resolves a record by its path relative to the data directory
// (the form used in brief source maps, e.g. "content/hn/2026-01-02-title.md").
func (s *Store) ContentByPath(relPath string) (ContentFile, bool) {
	path := filepath.Join(filepath.Dir(s.contentDir), relPath)
	return s.parseContentFile(path)
}

// RelPath converts an absolute content file path to its data-dir-relative
// form used in brief source maps.
func (s *Store) RelPath(path string) string {
	rel, err := filepath.Rel(filepath.Dir(s.contentDir), path)
	if err != nil {
		return path
	}
	return rel
}

func (s *Store) parseContentFile(path string) (ContentFile, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.skip(path, err)
		return ContentFile{}, false
	}

	header, body, err := splitFrontmatter(string(data))
	if err != nil {
		s.skip(path, err)
		return ContentFile{}, false
	}

	var cf ContentFile
	if err := yaml.Unmarshal([]byte(header), &cf); err != nil {
		s.skip(path, err)
		return ContentFile{}, false
	}
	if cf.ID == "" {
		s.skip(path, fmt.Errorf("missing id in header"))
		return ContentFile{}, false
	}

	cf.Content = body
	cf.Path = path
	return cf, true
}

// StoreBrief writes a brief named by its generation date and returns the
// file path.
func (s *Store) StoreBrief(b Brief) (string, error) {
	filename := fmt.Sprintf("%s-brief.md", b.GeneratedAt.Format("2006-01-02"))
	path := filepath.Join(s.briefsDir, filename)

	data, err := marshalFrontmatter(b, b.Content)
	if err != nil {
		return "", fmt.Errorf("encoding brief: %w", err)
	}
	if err := atomicfile.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing brief: %w", err)
	}
	return path, nil
}

// LatestBrief returns the most recent parseable brief.
func (s *Store) LatestBrief() (Brief, bool) {
	refs, err := s.ListBriefs()
	if err != nil {
		return Brief{}, false
	}
	for _, ref := range refs {
		if b, ok := s.parseBrief(ref.Path); ok {
			return b, true
		}
	}
	return Brief{}, false
}

// BriefByDate returns the brief generated on the given date (YYYY-MM-DD).
func (s *Store) BriefByDate(date string) (Brief, bool) {
	return s.parseBrief(filepath.Join(s.briefsDir, date+"-brief.md"))
}

// ListBriefs returns all stored briefs, most recent first.
func (s *Store) ListBriefs() ([]BriefRef, error) {
	paths, err := filepath.Glob(filepath.Join(s.briefsDir, "*-brief.md"))
	if err != nil {
		return nil, fmt.Errorf("listing briefs: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))

	refs := make([]BriefRef, 0, len(paths))
	for _, path := range paths {
		date := strings.TrimSuffix(filepath.Base(path), "-brief.md")
		refs = append(refs, BriefRef{Date: date, Path: path})
	}
	return refs, nil
}

func (s *Store) parseBrief(path string) (Brief, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Brief{}, false
	}

	header, body, err := splitFrontmatter(string(data))
	if err != nil {
		s.skip(path, err)
		return Brief{}, false
	}

	var b Brief
	if err := yaml.Unmarshal([]byte(header), &b); err != nil {
		s.skip(path, err)
		return Brief{}, false
	}

	b.Content = body
	b.Path = path
	return b, true
}

func (s *Store) skip(path string, err error) {
	s.skippedParses.Add(1)
	log.WithField("path", path).WithError(err).Debug("Skipping unparsable file")
}

func marshalFrontmatter(header any, body string) ([]byte, error) {
	meta, err := yaml.Marshal(header)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(meta)
	b.WriteString("---\n\n")
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}

func splitFrontmatter(text string) (header, body string, err error) {
	if !strings.HasPrefix(text, "---") {
		return "", "", fmt.Errorf("missing frontmatter delimiter")
	}
	end := strings.Index(text[3:], "---")
	if end < 0 {
		return "", "", fmt.Errorf("unterminated frontmatter")
	}
	end += 3
	return text[3:end], strings.TrimSpace(text[end+3:]), nil
}

func sortByPublishedDesc(files []ContentFile) {
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].PublishedAt.After(files[j].PublishedAt)
	})
}

// slugify lower-cases the title, strips punctuation, collapses whitespace and
// underscores to single hyphens, and caps the length.
func slugify(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			b.WriteRune(' ')
		}
	}

	slug := strings.Join(strings.Fields(b.String()), "-")
	runes := []rune(slug)
	if len(runes) > maxSlugLen {
		slug = string(runes[:maxSlugLen])
	}
	return strings.Trim(slug, "-")
}
