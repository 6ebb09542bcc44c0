// Package graph holds the relation cache and its breadth-first traversal.
//
// Storage is an append-only, deduplicated, bidirectional index:
//   - forward[h]: every relation whose lhs is h
//   - backward[t]: every pointer-like relation whose destination is t
//
// Both sides keep their relations in ascending Relation order so that a walk
// over the same cache always visits relations in the same order.
//
// Storage is not safe for concurrent mutation. It is owned by exactly one
// goroutine (the engine's consumer loop); other goroutines only ever hand it
// relations through the engine's queue.
package graph
