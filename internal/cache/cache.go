// Package cache memoizes nearby-query results. Results are pure functions
// of (query cell, radius, reference minute, limit), so serving a memoized
// body is always correct until the underlying records change; change events
// invalidate by cell.
package cache

import "context"

type Interface interface {
	// Get returns a memoized result body, if present.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Put memoizes a result body under key and records key against the
	// query's H3 cell for targeted invalidation. Failures are swallowed;
	// the cache is an optimization, never a correctness dependency.
	Put(ctx context.Context, key, cell string, val []byte)

	// InvalidateCells drops every memoized result touching the given cells.
	InvalidateCells(ctx context.Context, cells ...string) error
}

// Nop disables memoization.
type Nop struct{}

var _ Interface = Nop{}

func (Nop) Get(context.Context, string) ([]byte, bool)     { return nil, false }
func (Nop) Put(context.Context, string, string, []byte)    {}
func (Nop) InvalidateCells(context.Context, ...string) error { return nil }
