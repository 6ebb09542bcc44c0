package engine

import (
	"sync"

	"github.com/roach88/fixgraph/internal/ir"
)

// BatchKind distinguishes outcome batches.
type BatchKind int

const (
	// BatchIssued carries the single RequestIssued entry of a new request.
	BatchIssued BatchKind = iota + 1
	// BatchDelivered carries every ResponseDelivered entry of a response.
	// It may be empty.
	BatchDelivered
	// BatchFailed carries the transport or decode error of a request.
	BatchFailed
)

// String returns the name of the batch kind.
func (k BatchKind) String() string {
	switch k {
	case BatchIssued:
		return "issued"
	case BatchDelivered:
		return "delivered"
	case BatchFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Batch is the unit of delivery: everything one request produced at one
// point in time, tagged with the request's seq.
type Batch struct {
	Kind    BatchKind
	Seq     int64
	Command string
	Entries []ir.LogEntry
	Err     error
}

// Relations returns the relations carried by a delivered batch.
func (b Batch) Relations() []ir.Relation {
	var out []ir.Relation
	for _, e := range b.Entries {
		if e.Kind == ir.EntryResponseDelivered {
			out = append(out, e.Relation)
		}
	}
	return out
}

// Queue is a thread-safe, unbounded FIFO of batches with many producers and
// a single consumer.
//
// Contract for the consumer: TryDequeue never blocks. Call it at most once
// per tick to drain at most one batch per tick.
//
// The queue uses a channel for signaling to enable context-aware waiting
// when a caller does want to sleep until a batch arrives.
type Queue struct {
	mu      sync.Mutex
	batches []Batch
	closed  bool
	signal  chan struct{} // Signals batch availability (buffered, size 1)
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		batches: make([]Batch, 0, 64),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue adds a batch to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *Queue) Enqueue(b Batch) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.batches = append(q.batches, b)

	// Non-blocking; the buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes and returns the front batch without blocking.
// Returns (Batch{}, false) if the queue is empty.
func (q *Queue) TryDequeue() (Batch, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.batches) == 0 {
		return Batch{}, false
	}

	b := q.batches[0]

	// Nil out the slot so the backing array does not pin entry slices.
	q.batches[0] = Batch{}

	if len(q.batches) == 1 {
		q.batches = q.batches[:0]
	} else {
		q.batches = q.batches[1:]
	}

	return b, true
}

// Wait returns a channel that signals when batches may be available.
// Use with select for context-aware waiting:
//
//	select {
//	case <-ctx.Done():
//	    return ctx.Err()
//	case <-q.Wait():
//	    // Try TryDequeue
//	}
func (q *Queue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of pending batches.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.batches)
}

// Close signals that no more batches will be enqueued.
// Pending batches can still be dequeued. Wakes any waiters.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
