// Package adapter acquires raw feed bytes from the supported source kinds.
// Every adapter returns the complete payload in memory; parsing and
// reconciliation never touch the transport.
package adapter

import "context"

// Source is one feed byte source. Fetch returns the full payload; an empty
// payload is a valid "feed is empty" case, not an error.
type Source interface {
	// Kind identifies the source for results and events.
	Kind() string

	// Fetch acquires the feed bytes. Transport failures are returned as
	// errors; the orchestrator converts them into failed sync results.
	Fetch(ctx context.Context) ([]byte, error)
}
