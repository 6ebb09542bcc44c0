package engine

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/fixgraph/internal/graph"
	"github.com/roach88/fixgraph/internal/ir"
)

// DefaultTickInterval is how often Run and WaitIdle tick when no batch
// signal arrives.
const DefaultTickInterval = 16 * time.Millisecond

// Recorder persists consumed log entries. Implemented by store.Session.
type Recorder interface {
	RecordEntries(ctx context.Context, entries []ir.LogEntry) error
}

// Failure is a request that ended in an error, kept for display.
type Failure struct {
	Seq     int64
	Command string
	Err     error
}

// Engine is the single consumer of the outcome queue.
//
// CRITICAL: The engine owns the relation cache and the audit log. All
// mutation of both happens inside Tick, which must be called from exactly
// one goroutine at a time.
//
// Presentation code reads through Graph, Log and Err between ticks.
type Engine struct {
	queue    *Queue
	graph    *graph.Storage
	log      []ir.LogEntry
	recorder Recorder
	metrics  *Metrics

	// outstanding maps issued-but-unfinished seqs to their command text.
	outstanding map[int64]string
	failures    []Failure

	// lastErr is the error shown to the user; cleared by the next success.
	lastErr error
}

// Option configures an Engine.
type Option func(*Engine)

// WithStorage makes the engine merge into an existing cache, e.g. one
// rebuilt from a persisted session.
func WithStorage(s *graph.Storage) Option {
	return func(e *Engine) {
		e.graph = s
	}
}

// WithRecorder persists every consumed log entry through r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithMetrics records consumer counters on m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an engine draining q.
func New(q *Queue, opts ...Option) *Engine {
	e := &Engine{
		queue:       q,
		outstanding: make(map[int64]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.graph == nil {
		e.graph = graph.New()
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}
	return e
}

// Tick drains at most one pending batch and never blocks waiting for one.
// It reports whether a batch was consumed.
//
//   - issued and delivered batches: every relation is merged into the cache
//     and every entry is appended to the log
//   - failed batches: the error is kept for display; cache and log are untouched
func (e *Engine) Tick(ctx context.Context) bool {
	b, ok := e.queue.TryDequeue()
	if !ok {
		return false
	}
	e.metrics.BatchesConsumed.WithLabelValues(b.Kind.String()).Inc()

	switch b.Kind {
	case BatchIssued:
		e.outstanding[b.Seq] = b.Command
	case BatchDelivered:
		delete(e.outstanding, b.Seq)
	case BatchFailed:
		delete(e.outstanding, b.Seq)
		e.lastErr = b.Err
		e.failures = append(e.failures, Failure{Seq: b.Seq, Command: b.Command, Err: b.Err})
		slog.Debug("failure batch consumed", "seq", b.Seq, "error", b.Err)
		return true
	default:
		slog.Error("unknown batch kind", "seq", b.Seq, "kind", int(b.Kind))
		return true
	}

	e.lastErr = nil
	merged := 0
	for _, entry := range b.Entries {
		if entry.Kind == ir.EntryResponseDelivered && e.graph.Insert(entry.Relation) {
			merged++
		}
		e.log = append(e.log, entry)
	}
	e.metrics.RelationsMerged.Add(float64(merged))

	if e.recorder != nil && len(b.Entries) > 0 {
		// Log and continue: a persistence failure must not lose the
		// in-memory merge that already happened.
		if err := e.recorder.RecordEntries(ctx, b.Entries); err != nil {
			slog.Error("recording batch failed", "seq", b.Seq, "entries", len(b.Entries), "error", err)
		}
	}

	if b.Kind == BatchDelivered {
		slog.Debug("batch merged", "seq", b.Seq, "entries", len(b.Entries), "new_relations", merged)
	}
	return true
}

// Run ticks every interval until ctx is cancelled. A queue signal triggers
// an early tick so batches are not held for a full interval.
func (e *Engine) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Debug("engine starting", "interval", interval)
	for {
		e.Tick(ctx)

		select {
		case <-ctx.Done():
			slog.Debug("engine stopping: context cancelled")
			return ctx.Err()
		case <-ticker.C:
		case <-e.signal():
		}
	}
}

// WaitIdle ticks until every issued request has produced its outcome and
// the queue is empty, or ctx ends.
func (e *Engine) WaitIdle(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		for e.Tick(ctx) {
		}
		if len(e.outstanding) == 0 && e.queue.Len() == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-e.signal():
		}
	}
}

// signal returns the queue's wakeup channel, or nil once the queue is
// closed so a closed channel does not spin the loop.
func (e *Engine) signal() <-chan struct{} {
	if e.queue.Closed() {
		return nil
	}
	return e.queue.Wait()
}

// Graph returns the relation cache. Callers must treat it as read-only.
func (e *Engine) Graph() *graph.Storage {
	return e.graph
}

// Log returns the audit log in arrival order.
func (e *Engine) Log() []ir.LogEntry {
	return slices.Clone(e.log)
}

// Err returns the most recent failure, or nil if a successful batch has
// been consumed since.
func (e *Engine) Err() error {
	return e.lastErr
}

// Failures returns every failure consumed so far, in arrival order.
func (e *Engine) Failures() []Failure {
	return slices.Clone(e.failures)
}

// Outstanding returns the seqs issued but not yet finished, ascending.
func (e *Engine) Outstanding() []int64 {
	out := make([]int64, 0, len(e.outstanding))
	for seq := range e.outstanding {
		out = append(out, seq)
	}
	slices.Sort(out)
	return out
}
