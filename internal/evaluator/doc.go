// Package evaluator computes node patterns over graph snapshots.
//
// Evaluation is memoized through an evalcache.Store. Every cached entry
// carries a dependency stamp: a hash folding a node's own version together
// with the stamps of everything upstream of it. A hit requires both presence
// and a matching stamp, so entries computed against a graph state that has
// since changed are recomputed instead of served stale, even if the owning
// store never issued an invalidation for them.
//
// Failures never surface as errors. A node that cannot be evaluated, whether
// structurally (unknown modifier type, unbound required input, too few
// positional inputs) or because its transform failed, yields nil, and the
// nil itself is cached so the failure is not retried until something
// invalidates it. The cause goes to the log at error level.
//
// Evaluation drives an explicit stack rather than recursing, so a deep
// modifier chain cannot exhaust the call stack. An edge re-entering a node
// mid-evaluation (a cycle) is logged and bound as a failed upstream rather
// than looping; DetectCycles on the graph is the diagnostic for naming the
// loop itself.
package evaluator
