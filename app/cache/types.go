package cache

import (
	"time"

	"github.com/okhm/orbit/app/fetch"
	"github.com/okhm/orbit/app/feed"
)

// Record is the durable per-source state: conditional-fetch metadata plus the
// bounded window of most recently seen entries, newest-first. Records are
// read and replaced wholesale, never partially mutated.
type Record struct {
	SourceURL  string
	SourceName string

	Meta         fetch.ConditionalMetadata
	CheckedAt    *time.Time // last successful check (fetch or not-modified)
	UpdatedAt    time.Time  // last time anything touched the record
	FailureCount int
	LastError    string // human-readable note from the most recent failure

	Entries []feed.Entry
}
