// Package ledger persists and allocates surrogate sample identifiers.
//
// The used-id ledger is the only state shared between independent process
// instances, so it carries the pipeline's one hard concurrency contract:
// the read of previously issued ids and the commit of newly drawn ones
// must happen inside a single cross-process exclusive transaction. Two
// concurrent invocations must never both be issued the same surrogate id.
package ledger

import "context"

// Store is the durable used-id ledger. Implementations must guarantee that
// Reserve serializes against every other concurrent Reserve, across process
// boundaries: the callback observes every id ever committed, and the ids it
// returns become visible to other callers atomically or not at all.
type Store interface {
	// Reserve runs fn inside one exclusive transaction. fn receives the set
	// of all previously issued surrogate ids and returns the new ids to
	// commit. If fn returns an error nothing is committed.
	Reserve(ctx context.Context, fn func(used map[int64]bool) ([]int64, error)) error

	// Close releases the ledger connection.
	Close() error
}
