package fetch

import (
	"fmt"
	"time"
)

// Status is the terminal outcome of one retrieval attempt.
type Status int

const (
	StatusFetched Status = iota
	StatusUnchanged
	StatusFailed
)

// FailureKind classifies retrieval failures. All kinds are per-source
// recoverable; the distinction matters for logging and backoff.
type FailureKind string

const (
	FailureTimeout    FailureKind = "timeout"
	FailureConnection FailureKind = "connection-error"
	FailureHTTP       FailureKind = "http-error"
	FailureTooLarge   FailureKind = "too-large"
)

// Failure describes why a retrieval failed. HTTPStatus is set only for
// FailureHTTP.
type Failure struct {
	Kind       FailureKind
	HTTPStatus int
	Err        error
}

func (f *Failure) Error() string {
	if f.Kind == FailureHTTP {
		return fmt.Sprintf("%s: status %d", f.Kind, f.HTTPStatus)
	}
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Kind, f.Err)
	}
	return string(f.Kind)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// ConditionalMetadata is the per-source state driving conditional requests.
// It is updated only on a successful fetch, never on Unchanged or Failed.
type ConditionalMetadata struct {
	ETag         string
	LastModified string
	FetchedAt    time.Time
}

// Result is one per-source, per-run retrieval outcome. Body and Meta are set
// for StatusFetched; Failure for StatusFailed.
type Result struct {
	Status  Status
	Body    []byte
	Meta    ConditionalMetadata
	Failure *Failure
}
