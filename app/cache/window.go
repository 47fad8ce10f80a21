package cache

import (
	"sort"
	"time"

	"github.com/okhm/orbit/app/feed"
)

// MergeWindow combines a freshly parsed entry set with the retained window.
// Union is by identity: incoming entry data wins, but the first-seen time and
// any publish time assigned at first observation are preserved, so undated
// items keep a fixed position across runs. Retained entries absent from the
// new fetch survive until pushed out by the cap. The result is newest-first
// and truncated to windowSize.
func MergeWindow(existing, incoming []feed.Entry, fetchedAt time.Time, windowSize int) []feed.Entry {
	prior := make(map[string]feed.Entry, len(existing))
	for _, entry := range existing {
		prior[entry.UID] = entry
	}

	merged := make([]feed.Entry, 0, len(existing)+len(incoming))
	seen := make(map[string]bool, len(incoming))

	for _, entry := range incoming {
		if seen[entry.UID] {
			continue
		}
		seen[entry.UID] = true

		if old, ok := prior[entry.UID]; ok {
			entry.FirstSeen = old.FirstSeen
			if entry.Published.IsZero() {
				entry.Published = old.Published
			}
		} else {
			entry.FirstSeen = fetchedAt
			if entry.Published.IsZero() {
				entry.Published = fetchedAt
			}
		}
		merged = append(merged, entry)
	}

	for _, entry := range existing {
		if !seen[entry.UID] {
			seen[entry.UID] = true
			merged = append(merged, entry)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].Published.Equal(merged[j].Published) {
			return merged[i].Published.After(merged[j].Published)
		}
		return merged[i].UID < merged[j].UID
	})

	if windowSize > 0 && len(merged) > windowSize {
		merged = merged[:windowSize]
	}

	return merged
}
