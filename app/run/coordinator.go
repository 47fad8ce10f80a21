// Package run drives one end-to-end aggregation cycle: concurrent per-source
// fetch→parse→cache pipelines under a bounded worker pool, followed by a
// global merge over a snapshot of the cache.
package run

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okhm/orbit/app/cache"
	"github.com/okhm/orbit/app/feed"
	"github.com/okhm/orbit/app/fetch"
	"github.com/okhm/orbit/app/merge"
	"github.com/okhm/orbit/app/registry"
)

const (
	backoffBase = time.Minute
	backoffMax  = 12 * time.Hour
)

type Options struct {
	WorkerCount int
	RunTimeout  time.Duration // 0 = unlimited
	WindowSize  int
	MaxItems    int
}

type Coordinator struct {
	registry *registry.Registry
	fetcher  *fetch.Fetcher
	parser   *feed.Parser
	store    *cache.Store
	opts     Options
}

func NewCoordinator(reg *registry.Registry, fetcher *fetch.Fetcher, parser *feed.Parser, store *cache.Store, opts Options) *Coordinator {
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 1
	}
	return &Coordinator{
		registry: reg,
		fetcher:  fetcher,
		parser:   parser,
		store:    store,
		opts:     opts,
	}
}

// Run executes one aggregation cycle. Per-source failures are recoverable
// and recorded in the report; the returned error is non-nil only for fatal
// conditions (the cache snapshot cannot be read).
//
// The merge runs strictly after every source has reached a terminal outcome,
// on a fresh read-only snapshot of the cache, so partial per-source state is
// never observable in the merged sequence.
func (c *Coordinator) Run(ctx context.Context) (*Report, error) {
	started := time.Now()

	if c.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.RunTimeout)
		defer cancel()
	}

	sources := c.registry.Sources()
	slog.Info("Run started", "sources", len(sources), "workers", c.opts.WorkerCount)

	results := make([]SourceResult, len(sources))

	g := new(errgroup.Group)
	g.SetLimit(c.opts.WorkerCount)
	for i, src := range sources {
		g.Go(func() error {
			results[i] = c.processSource(ctx, src)
			return nil
		})
	}
	// Workers never return errors; everything per-source is recoverable.
	_ = g.Wait()

	snapshot, err := c.store.LoadAll(sources)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot cache records: %w", err)
	}

	merged := merge.Run(snapshot, c.opts.MaxItems)

	report := &Report{
		Results:  results,
		Merged:   merged,
		Duration: time.Since(started),
	}

	fetched, unchanged, failed, skipped := report.Counts()
	slog.Info("Run completed",
		"duration", report.Duration,
		"fetched", fetched,
		"unchanged", unchanged,
		"failed", failed,
		"skipped", skipped,
		"merged_entries", len(merged))

	return report, nil
}

// processSource runs the fetch→parse→cache pipeline for one source. It
// always reaches a terminal outcome: errors are logged and folded into the
// result, never propagated.
func (c *Coordinator) processSource(ctx context.Context, src registry.Source) SourceResult {
	result := SourceResult{Source: src}

	record, err := c.store.Load(src.URL)
	if err != nil {
		// Last-known-good state is unreadable; fetch unconditionally.
		slog.Warn("Failed to load cache record", "source", src.URL, "error", err)
		record = nil
	}

	var prior fetch.ConditionalMetadata
	if record != nil {
		prior = record.Meta

		if wait := remainingBackoff(record); wait > 0 {
			slog.Debug("Source backing off, skipping", "source", src.URL,
				"failures", record.FailureCount, "retry_in", wait.Round(time.Second))
			result.Outcome = OutcomeSkipped
			// Keep showing why the source went quiet, not just that it did.
			result.Message = cmp.Or(record.LastError,
				fmt.Sprintf("backing off after %d failures", record.FailureCount))
			return result
		}
	}

	res := c.fetcher.Run(ctx, src.URL, prior)

	switch res.Status {
	case fetch.StatusUnchanged:
		if err := c.store.MarkUnchanged(src.URL, time.Now().UTC()); err != nil {
			slog.Error("Failed to record unchanged check", "source", src.URL, "error", err)
		}
		slog.Debug("Source unchanged", "source", src.URL)
		result.Outcome = OutcomeUnchanged
		return result

	case fetch.StatusFailed:
		slog.Warn("Fetch failed, keeping cached entries", "source", src.URL,
			"kind", res.Failure.Kind, "error", res.Failure)
		result.Outcome = OutcomeFailed
		result.Message = failureMessage(res.Failure)
		c.markFailed(src, result.Message)
		return result
	}

	doc, err := c.parser.Run(res.Body, src.URL, src.Name)
	if err != nil {
		// Unrecoverable parse breakage is handled like a fetch failure:
		// the stored window must not be corrupted by a bad document.
		slog.Warn("Parse failed, keeping cached entries", "source", src.URL, "error", err)
		result.Outcome = OutcomeFailed
		result.Message = "unparseable feed"
		c.markFailed(src, result.Message)
		return result
	}

	for _, warning := range doc.Warnings {
		slog.Debug("Parse warning", "source", src.URL, "warning", warning)
	}

	if err := c.store.SaveFetched(src, res.Meta, doc.Entries, c.opts.WindowSize); err != nil {
		slog.Error("Failed to save cache record", "source", src.URL, "error", err)
		result.Outcome = OutcomeFailed
		result.Message = "cache write failed"
		return result
	}

	slog.Info("Source updated", "source", src.URL, "kind", doc.Kind,
		"entries", len(doc.Entries), "warnings", len(doc.Warnings))
	result.Outcome = OutcomeFetched
	result.Entries = len(doc.Entries)
	return result
}

func (c *Coordinator) markFailed(src registry.Source, message string) {
	if err := c.store.MarkFailed(src, message); err != nil {
		slog.Error("Failed to record source failure", "source", src.URL, "error", err)
	}
}

// remainingBackoff returns how long a failing source still has to wait.
// The delay doubles per consecutive failure from backoffBase up to
// backoffMax and resets on the first success.
func remainingBackoff(record *cache.Record) time.Duration {
	if record.FailureCount <= 0 || record.UpdatedAt.IsZero() {
		return 0
	}

	shift := record.FailureCount - 1
	if shift > 12 {
		shift = 12
	}
	delay := backoffBase << uint(shift)
	if delay > backoffMax {
		delay = backoffMax
	}

	return time.Until(record.UpdatedAt.Add(delay))
}

func failureMessage(f *fetch.Failure) string {
	switch f.Kind {
	case fetch.FailureHTTP:
		switch f.HTTPStatus {
		case 403:
			return "403: forbidden"
		case 404:
			return "404: not found"
		case 410:
			return "410: gone"
		case 500:
			return "internal server error"
		default:
			return fmt.Sprintf("http status %d", f.HTTPStatus)
		}
	case fetch.FailureTimeout:
		return "request timeout"
	case fetch.FailureTooLarge:
		return "response too large"
	default:
		return "connection error"
	}
}
