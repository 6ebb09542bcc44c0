// Package engine implements the fetch pipeline that feeds the relation cache.
//
// ARCHITECTURE:
//
// Many producers, one consumer:
// Every request dispatched through a Dispatcher runs in its own goroutine.
// Producers never touch the cache; they hand finished batches to an unbounded
// Queue. A single Engine owns the graph.Storage and the audit log and drains
// the queue, at most one batch per Tick.
//
// Batch Flow:
//  1. Dispatcher.Send draws a seq from the Clock and enqueues an "issued"
//     batch before returning
//  2. A goroutine performs the fetch and decodes the body
//  3. The whole outcome (every relation, or one failure) is assembled and
//     enqueued as a single batch
//  4. Engine.Tick dequeues one batch without blocking, merges its relations
//     and appends its entries to the log
//
// Batches from different requests arrive in any relative order; entries of
// one batch are never interleaved with another's. Merging is idempotent and
// commutative, so arrival order never changes the final cache.
//
// There is no cancellation, retry or application deadline: a dispatched
// request always ends in exactly one outcome batch, bounded by the
// transport's own timeout. The queue is unbounded; sustained dispatch faster
// than the consumer ticks grows it without limit.
//
// Logical Clock:
// Sequence numbers come from a process-wide monotonic counter starting at 0.
// They correlate log entries with the request that produced them and are
// never reused. NEVER use wall-clock timestamps for ordering.
package engine
