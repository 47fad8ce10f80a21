// Package merge turns the per-source cache records into the single
// newest-first sequence rendered to output pages.
package merge

import (
	"sort"

	"github.com/okhm/orbit/app/cache"
	"github.com/okhm/orbit/app/feed"
)

type rankedEntry struct {
	entry    feed.Entry
	position int // registry position of the owning source
}

// Run unions the entries of all cache records, deduplicates by identity and
// returns them newest-first, truncated to maxItems (0 = unlimited).
//
// Records must be given in registry order: when the same identity shows up
// from two sources (syndicated cross-posts), the earlier source keeps the
// entry. Ties on the publish time break by registry position, then by
// identity string, so the result is a strict total order and re-running on
// the same cache state reproduces it byte for byte.
func Run(records []cache.Record, maxItems int) []feed.Entry {
	var ranked []rankedEntry
	seen := make(map[string]bool)

	for position, record := range records {
		for _, entry := range record.Entries {
			if seen[entry.UID] {
				continue
			}
			seen[entry.UID] = true
			ranked = append(ranked, rankedEntry{entry: entry, position: position})
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if !a.entry.Published.Equal(b.entry.Published) {
			return a.entry.Published.After(b.entry.Published)
		}
		if a.position != b.position {
			return a.position < b.position
		}
		return a.entry.UID < b.entry.UID
	})

	if maxItems > 0 && len(ranked) > maxItems {
		ranked = ranked[:maxItems]
	}

	merged := make([]feed.Entry, len(ranked))
	for i, r := range ranked {
		merged[i] = r.entry
	}
	return merged
}
