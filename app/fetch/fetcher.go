package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Fetcher retrieves feed documents with conditional HTTP semantics. One
// Fetcher is shared by all workers; it holds no per-source state.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	timeout     time.Duration
	maxBodySize int64
}

func NewFetcher(client *http.Client, userAgent string, timeout time.Duration, maxBodySize int64) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{
		client:      client,
		userAgent:   userAgent,
		timeout:     timeout,
		maxBodySize: maxBodySize,
	}
}

// Run performs one best-effort retrieval. Prior conditional metadata, when
// present, is sent as If-None-Match / If-Modified-Since; a 304 response
// yields StatusUnchanged. Failures never return a Go error: they are
// classified into the Result so one source cannot abort the run.
func (f *Fetcher) Run(ctx context.Context, url string, prior ConditionalMetadata) Result {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return failed(FailureConnection, 0, err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.1")
	if prior.ETag != "" {
		req.Header.Set("If-None-Match", prior.ETag)
	}
	if prior.LastModified != "" {
		req.Header.Set("If-Modified-Since", prior.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return failed(classifyTransport(timeoutCtx, err), 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return Result{Status: StatusUnchanged}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failed(FailureHTTP, resp.StatusCode, fmt.Errorf("HTTP %d %s", resp.StatusCode, resp.Status))
	}

	// Read one byte past the limit to distinguish "exactly at the limit"
	// from "exceeds it".
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return failed(classifyTransport(timeoutCtx, err), 0, err)
	}
	if int64(len(body)) > f.maxBodySize {
		return failed(FailureTooLarge, 0, fmt.Errorf("response exceeds %d bytes", f.maxBodySize))
	}

	return Result{
		Status: StatusFetched,
		Body:   body,
		Meta: ConditionalMetadata{
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			FetchedAt:    time.Now().UTC(),
		},
	}
}

func failed(kind FailureKind, status int, err error) Result {
	return Result{
		Status:  StatusFailed,
		Failure: &Failure{Kind: kind, HTTPStatus: status, Err: err},
	}
}

func classifyTransport(ctx context.Context, err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	return FailureConnection
}
