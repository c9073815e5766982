package store

import "time"

// ContentFile is one stored content record: the frontmatter header plus the
// raw body. Records are append-only and never mutated after creation.
type ContentFile struct {
	ID          string    `yaml:"id"`
	SourceID    string    `yaml:"source_id"`
	SourceName  string    `yaml:"source_name"`
	Title       string    `yaml:"title"`
	URL         string    `yaml:"url"`
	PublishedAt time.Time `yaml:"published_at"`
	FetchedAt   time.Time `yaml:"fetched_at"`
	Category    string    `yaml:"category"`
	Author      string    `yaml:"author,omitempty"`
	Tags        []string  `yaml:"tags,omitempty"`

	Content string `yaml:"-"`
	Path    string `yaml:"-"`
}

// BriefWindow is the time span of content a brief was generated from.
type BriefWindow struct {
	From time.Time `yaml:"from"`
	To   time.Time `yaml:"to"`
}

// Brief is a stored summary artifact with its generation metadata. SourceMap
// maps short reference tags (ref1, ref2, ...) to content file locations
// relative to the data directory.
type Brief struct {
	GeneratedAt     time.Time         `yaml:"generated_at"`
	ContentWindow   BriefWindow       `yaml:"content_window"`
	SourcesAnalyzed int               `yaml:"sources_analyzed"`
	Model           string            `yaml:"model"`
	SourceMap       map[string]string `yaml:"source_map"`

	Content string `yaml:"-"`
	Path    string `yaml:"-"`
}

// BriefRef identifies one stored brief by its date stamp.
type BriefRef struct {
	Date string
	Path string
}
