package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/fixgraph/internal/ir"
	"github.com/roach88/fixgraph/internal/protocol"
)

// Dispatcher issues requests as independent goroutines and delivers their
// outcomes to a Queue.
//
// A Dispatcher owns the sequence clock and the send side of the queue and is
// passed explicitly to every call site that issues requests.
//
// Thread-safety: Send is safe from any goroutine. The clock is the only
// state shared between dispatch goroutines.
type Dispatcher struct {
	clock   *Clock
	queue   *Queue
	fetcher Fetcher
	metrics *Metrics
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithClock makes the dispatcher draw seqs from clock instead of a fresh one.
func WithClock(clock *Clock) DispatcherOption {
	return func(d *Dispatcher) {
		d.clock = clock
	}
}

// WithDispatchMetrics records dispatch counters on m.
func WithDispatchMetrics(m *Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher creates a dispatcher that fetches with f and delivers to q.
func NewDispatcher(q *Queue, f Fetcher, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		clock:   NewClock(),
		queue:   q,
		fetcher: f,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.metrics == nil {
		d.metrics = NewMetrics(nil)
	}
	return d
}

// Send issues req and returns its sequence number.
//
// The RequestIssued entry is enqueued before Send returns; the fetch runs in
// its own goroutine. Send is fire-and-forget: ctx supplies values to the
// fetch but its cancellation is ignored, so an issued request always
// produces exactly one outcome batch.
func (d *Dispatcher) Send(ctx context.Context, req protocol.Request) int64 {
	seq := d.clock.Next()
	command := req.CommandText()

	d.deliver(Batch{
		Kind:    BatchIssued,
		Seq:     seq,
		Command: command,
		Entries: []ir.LogEntry{ir.RequestIssued(seq, command)},
	})
	d.metrics.RequestsIssued.WithLabelValues(req.Verb.String()).Inc()
	slog.Debug("request issued", "seq", seq, "command", command)

	go d.fetch(context.WithoutCancel(ctx), seq, command, req)
	return seq
}

// SendCommand parses command text and issues the resulting request.
func (d *Dispatcher) SendCommand(ctx context.Context, text string) (int64, error) {
	req, err := protocol.ParseCommand(text)
	if err != nil {
		return 0, err
	}
	return d.Send(ctx, req), nil
}

// Clock returns the dispatcher's sequence clock.
func (d *Dispatcher) Clock() *Clock {
	return d.clock
}

// fetch performs the network call and delivers one outcome batch.
// Runs on its own goroutine.
func (d *Dispatcher) fetch(ctx context.Context, seq int64, command string, req protocol.Request) {
	path := req.EndpointPath()

	body, err := d.fetcher.Fetch(ctx, path)
	if err != nil {
		d.fail(seq, command, "transport", err)
		return
	}

	resp, err := req.DecodeResponse(body)
	if err != nil {
		d.fail(seq, command, "decode", err)
		return
	}
	if len(resp.Candidates) > 0 {
		// Pin and tag discovery is not implemented; candidates are only reported.
		slog.Debug("explanation candidates ignored", "seq", seq, "count", len(resp.Candidates))
	}

	// The batch is fully assembled before it is handed to the queue, so its
	// entries are never interleaved with another request's.
	entries := make([]ir.LogEntry, 0, len(resp.Relations))
	for _, r := range resp.Relations {
		entries = append(entries, ir.ResponseDelivered(seq, r))
	}
	d.metrics.RelationsDelivered.Add(float64(len(entries)))

	d.deliver(Batch{
		Kind:    BatchDelivered,
		Seq:     seq,
		Command: command,
		Entries: entries,
	})
	slog.Debug("response delivered", "seq", seq, "path", path, "relations", len(entries))
}

func (d *Dispatcher) fail(seq int64, command, reason string, err error) {
	d.metrics.RequestsFailed.WithLabelValues(reason).Inc()
	slog.Warn("request failed", "seq", seq, "command", command, "reason", reason, "error", err)
	d.deliver(Batch{
		Kind:    BatchFailed,
		Seq:     seq,
		Command: command,
		Err:     err,
	})
}

func (d *Dispatcher) deliver(b Batch) {
	if !d.queue.Enqueue(b) {
		slog.Warn("outcome dropped: queue closed", "seq", b.Seq, "kind", b.Kind.String())
	}
}
