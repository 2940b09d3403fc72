// Package evalcache defines the interface for storing evaluated pattern
// results between runs of the graph evaluator.
//
// # Why a Separate Cache Store
//
// The cache isolates **derived state** (evaluated patterns, including failed
// evaluations) from the **authored graph** (nodes, edges) owned by graphstore.
// Patterns are recomputed from the graph at any time; the cache only exists
// to avoid doing that work twice.
//
// Each entry carries the dependency stamp it was computed under. The stamp
// folds together the node's version and the stamps of everything upstream,
// so the evaluator can detect a stale entry by itself even if an
// invalidation call was missed.
//
// # Negative Caching
//
// A present entry with a nil pattern records a failed evaluation. It is
// returned as-is on the next lookup rather than retried; recovery requires
// an explicit invalidation (or a stamp change) once the cause is fixed.
//
// # Entry Lifecycle
//
// absent -> present -> (evicted) -> absent. Nothing else mutates an entry;
// re-evaluation overwrites it wholesale.
package evalcache

import "github.com/vk/patterngridgo/internal/pattern"

// Store is the interface for the evaluator's result cache.
//
// Implementations MUST be safe for concurrent use: HTTP handlers evaluate
// while the graph store evicts on mutation commits.
type Store interface {
	// Load returns the cached pattern and the dependency stamp it was
	// computed under. ok reports whether an entry exists at all; a nil
	// pattern with ok=true is a remembered failure.
	Load(id string) (p *pattern.Pattern, stamp uint64, ok bool)

	// StoreResult records an evaluation outcome, nil pattern included.
	StoreResult(id string, p *pattern.Pattern, stamp uint64)

	// Evict drops a single entry. Absent ids are a no-op.
	Evict(id string)

	// Clear drops every entry.
	Clear()
}
