package feed

import (
	"time"
)

// Kind is the detected syndication format of a feed document.
type Kind string

const (
	KindRSS1    Kind = "rss1"
	KindRSS2    Kind = "rss2"
	KindAtom    Kind = "atom"
	KindUnknown Kind = "unknown"
)

// Entry is the canonical unit of content. Entries are immutable once parsed;
// UID is the identity used for deduplication across re-fetches and sources.
type Entry struct {
	UID        string
	Title      string
	Link       string
	Summary    string
	Content    string
	Authors    []string // "email (name)" or "name"
	Categories []string

	// Published is zero when the feed supplied no usable timestamp. The
	// cache store assigns the first-seen fetch time exactly once in that
	// case, so undated items do not jump to "now" on every run.
	Published time.Time
	Updated   *time.Time
	FirstSeen time.Time

	SourceURL  string
	SourceName string
}

// Metadata describes the feed document itself.
type Metadata struct {
	Title       string
	Link        string
	Description string
	ImageURL    string
	Language    string
	PublishedAt *time.Time
}

// Document is the outcome of parsing one feed document. Warnings carry
// recoverable malformations (sanitized HTML, missing optional fields);
// the document is still usable when they are present.
type Document struct {
	Kind     Kind
	Metadata Metadata
	Entries  []Entry
	Warnings []string
}
