package ingest

import "errors"

var (
	// ErrEmptyQuery rejects blank queries before any I/O happens.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrUpstreamUnavailable reports that the upstream API failed with
	// no local fallback: retries were exhausted or the error was
	// terminal, and the local index had nothing to degrade to.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrNotFound reports an unknown search id on export. A distinct
	// absent result, not a failure.
	ErrNotFound = errors.New("search not found")
)
