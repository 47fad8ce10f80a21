package cache

import (
	"testing"
	"time"

	"github.com/okhm/orbit/app/feed"
)

func mkEntry(uid string, published time.Time) feed.Entry {
	return feed.Entry{UID: uid, Title: "Entry " + uid, Published: published}
}

func TestMergeWindowUnionAndCap(t *testing.T) {
	base := time.Date(2023, 7, 3, 0, 0, 0, 0, time.UTC)
	fetchedAt := base.Add(12 * time.Hour)

	existing := []feed.Entry{
		mkEntry("id1", base.Add(10*time.Hour)),
		mkEntry("id2", base.Add(9*time.Hour)),
		mkEntry("id3", base.Add(8*time.Hour)),
	}
	incoming := []feed.Entry{
		mkEntry("id4", base.Add(11*time.Hour)),
		mkEntry("id1", base.Add(10*time.Hour)),
	}

	window := MergeWindow(existing, incoming, fetchedAt, 3)

	if len(window) != 3 {
		t.Fatalf("Expected window of 3, got: %d", len(window))
	}
	if window[0].UID != "id4" || window[1].UID != "id1" || window[2].UID != "id2" {
		t.Errorf("Expected [id4 id1 id2], got: [%s %s %s]",
			window[0].UID, window[1].UID, window[2].UID)
	}
}

func TestMergeWindowPreservesFirstSeen(t *testing.T) {
	firstRun := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)
	secondRun := firstRun.Add(24 * time.Hour)

	existing := MergeWindow(nil, []feed.Entry{mkEntry("a", firstRun)}, firstRun, 100)
	if !existing[0].FirstSeen.Equal(firstRun) {
		t.Fatalf("Expected first-seen %v, got: %v", firstRun, existing[0].FirstSeen)
	}

	window := MergeWindow(existing, []feed.Entry{mkEntry("a", firstRun)}, secondRun, 100)
	if !window[0].FirstSeen.Equal(firstRun) {
		t.Errorf("First-seen drifted on re-fetch: %v", window[0].FirstSeen)
	}
}

func TestMergeWindowAssignsTimestampToUndatedOnce(t *testing.T) {
	firstRun := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)
	secondRun := firstRun.Add(24 * time.Hour)

	undated := feed.Entry{UID: "undated", Title: "No date"}

	window := MergeWindow(nil, []feed.Entry{undated}, firstRun, 100)
	if !window[0].Published.Equal(firstRun) {
		t.Fatalf("Expected undated entry to get the fetch time, got: %v", window[0].Published)
	}

	// On the next run the entry is still undated in the feed. Its assigned
	// time must not move.
	window = MergeWindow(window, []feed.Entry{undated}, secondRun, 100)
	if !window[0].Published.Equal(firstRun) {
		t.Errorf("Assigned timestamp moved on re-fetch: %v", window[0].Published)
	}
	if !window[0].FirstSeen.Equal(firstRun) {
		t.Errorf("First-seen moved on re-fetch: %v", window[0].FirstSeen)
	}
}

func TestMergeWindowIncomingDataWins(t *testing.T) {
	published := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)

	old := mkEntry("a", published)
	old.Title = "Old title"
	existing := MergeWindow(nil, []feed.Entry{old}, published, 100)

	updated := mkEntry("a", published)
	updated.Title = "Corrected title"
	window := MergeWindow(existing, []feed.Entry{updated}, published.Add(time.Hour), 100)

	if len(window) != 1 {
		t.Fatalf("Expected 1 entry, got: %d", len(window))
	}
	if window[0].Title != "Corrected title" {
		t.Errorf("Expected incoming data to win, got: %s", window[0].Title)
	}
}

func TestMergeWindowRetainsAbsentEntries(t *testing.T) {
	base := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)

	existing := []feed.Entry{
		mkEntry("old1", base.Add(-time.Hour)),
		mkEntry("old2", base.Add(-2*time.Hour)),
	}
	incoming := []feed.Entry{mkEntry("new1", base)}

	window := MergeWindow(existing, incoming, base, 100)
	if len(window) != 3 {
		t.Fatalf("Expected retained entries to survive, got %d entries", len(window))
	}
	if window[0].UID != "new1" {
		t.Errorf("Expected newest first, got: %s", window[0].UID)
	}
}

func TestMergeWindowDeduplicatesIncoming(t *testing.T) {
	published := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)
	incoming := []feed.Entry{
		mkEntry("dup", published),
		mkEntry("dup", published),
	}

	window := MergeWindow(nil, incoming, published, 100)
	if len(window) != 1 {
		t.Errorf("Expected duplicate identities collapsed, got %d entries", len(window))
	}
}

func TestMergeWindowTieBreaksOnUID(t *testing.T) {
	published := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)
	incoming := []feed.Entry{
		mkEntry("b", published),
		mkEntry("a", published),
	}

	window := MergeWindow(nil, incoming, published, 100)
	if window[0].UID != "a" || window[1].UID != "b" {
		t.Errorf("Expected UID tie-break [a b], got: [%s %s]", window[0].UID, window[1].UID)
	}
}
