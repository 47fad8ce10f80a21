package run

import (
	"time"

	"github.com/okhm/orbit/app/feed"
	"github.com/okhm/orbit/app/registry"
)

// Outcome is the terminal per-source result of one run.
type Outcome string

const (
	OutcomeFetched   Outcome = "fetched"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped" // backing off after earlier failures
)

// SourceResult is what happened to one source during a run. Failed sources
// keep their last-known-good cache; Message carries a human-readable note
// for the rendered source list ("404: not found" and the like).
type SourceResult struct {
	Source  registry.Source
	Outcome Outcome
	Message string
	Entries int // entries parsed from a fresh fetch
}

// Report summarizes one aggregation run. Merged is the final deduplicated,
// newest-first sequence handed to the renderer.
type Report struct {
	Results  []SourceResult // registry order
	Merged   []feed.Entry
	Duration time.Duration
}

// Counts tallies outcomes for logging.
func (r *Report) Counts() (fetched, unchanged, failed, skipped int) {
	for _, res := range r.Results {
		switch res.Outcome {
		case OutcomeFetched:
			fetched++
		case OutcomeUnchanged:
			unchanged++
		case OutcomeFailed:
			failed++
		case OutcomeSkipped:
			skipped++
		}
	}
	return fetched, unchanged, failed, skipped
}
