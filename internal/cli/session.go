package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/fixgraph/internal/config"
	"github.com/roach88/fixgraph/internal/engine"
	"github.com/roach88/fixgraph/internal/ir"
	"github.com/roach88/fixgraph/internal/protocol"
	"github.com/roach88/fixgraph/internal/store"
)

// DefaultWait bounds how long fetch and replay wait for outcomes.
const DefaultWait = 60 * time.Second

// sessionRun is the outcome of dispatching a set of requests in a session.
type sessionRun struct {
	Session  store.SessionInfo
	Engine   *engine.Engine
	TimedOut bool
}

// FailureResult describes one failed request.
type FailureResult struct {
	Seq     int64  `json:"seq"`
	Command string `json:"command"`
	Code    string `json:"code"`
	Error   string `json:"error"`
}

// sessionTarget picks the session a run records into: a new one from gen,
// or the existing session ContinueID.
type sessionTarget struct {
	Generator  store.SessionIDGenerator
	ContinueID string
}

// open creates or reopens the session and returns the seq its first request
// takes.
func (t sessionTarget) open(ctx context.Context, cfg config.Config, st *store.Store) (store.SessionInfo, int64, error) {
	if t.ContinueID != "" {
		info, err := st.ReadSession(ctx, t.ContinueID)
		if err != nil {
			return store.SessionInfo{}, 0, err
		}
		next, err := st.NextSeq(ctx, info.ID)
		if err != nil {
			return store.SessionInfo{}, 0, err
		}
		return info, next, nil
	}

	root, err := cfg.Root()
	if err != nil {
		return store.SessionInfo{}, 0, err
	}
	info, err := st.CreateSession(ctx, t.Generator, cfg.Server.BaseURL, root)
	if err != nil {
		return store.SessionInfo{}, 0, err
	}
	return info, 0, nil
}

// executeRequests opens the target session, issues reqs concurrently and
// ticks until every outcome has been consumed or wait passes. Consumed
// entries are persisted as they arrive; the engine merges on top of the
// stored cache. A continued session keeps numbering after its last seq.
func executeRequests(ctx context.Context, cfg config.Config, st *store.Store, target sessionTarget, reqs []protocol.Request, wait time.Duration) (*sessionRun, error) {
	info, firstSeq, err := target.open(ctx, cfg, st)
	if err != nil {
		return nil, err
	}
	rec, err := st.Recorder(ctx, info.ID)
	if err != nil {
		return nil, err
	}
	cache, err := st.LoadGraph(ctx)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	metrics := engine.NewMetrics(reg)
	defer logMetrics(reg)

	fetcher := engine.NewHTTPFetcher(cfg.Server.BaseURL, cfg.Server.Timeout)
	defer fetcher.Close()

	queue := engine.NewQueue()
	defer queue.Close()
	dispatcher := engine.NewDispatcher(queue, fetcher,
		engine.WithClock(engine.NewClockAt(firstSeq)),
		engine.WithDispatchMetrics(metrics),
	)
	eng := engine.New(queue,
		engine.WithStorage(cache),
		engine.WithRecorder(rec),
		engine.WithMetrics(metrics),
	)

	slog.Debug("session started", "session", info.ID, "server", fetcher.BaseURL, "requests", len(reqs), "first_seq", firstSeq)
	for _, req := range reqs {
		dispatcher.Send(ctx, req)
	}

	if wait <= 0 {
		wait = DefaultWait
	}
	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	run := &sessionRun{Session: info, Engine: eng}
	if err := eng.WaitIdle(waitCtx, cfg.TickInterval); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		run.TimedOut = true
		slog.Warn("gave up waiting for outcomes", "session", info.ID, "outstanding", len(eng.Outstanding()))
	}
	return run, nil
}

// failures converts the engine's failure history for output.
func (r *sessionRun) failures() []FailureResult {
	out := []FailureResult{}
	for _, f := range r.Engine.Failures() {
		out = append(out, FailureResult{
			Seq:     f.Seq,
			Command: f.Command,
			Code:    errorCode(f.Err),
			Error:   f.Err.Error(),
		})
	}
	return out
}

// logLines renders the run's log the way the log view shows it.
func (r *sessionRun) logLines() []string {
	return entryLines(r.Engine.Log())
}

// exitError summarizes failures and timeouts, or returns nil.
func (r *sessionRun) exitError() error {
	if n := len(r.Engine.Failures()); n > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d request(s) failed", n))
	}
	if r.TimedOut {
		return NewExitError(ExitFailure, fmt.Sprintf("timed out waiting for %d request(s)", len(r.Engine.Outstanding())))
	}
	return nil
}

func entryLines(entries []ir.LogEntry) []string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.String())
	}
	return lines
}

// errorCode extracts a stable code from a typed error. Request errors are
// checked first since they may wrap a handle parse error.
func errorCode(err error) string {
	if code := engine.ErrorCode(err); code != "ERROR" {
		return code
	}
	var (
		pe *ir.ParseError
		fe *config.Error
	)
	switch {
	case errors.As(err, &pe):
		return string(pe.Code)
	case errors.As(err, &fe):
		return string(fe.Code)
	default:
		return "ERROR"
	}
}

// commandFailure reports err in the configured format and returns an
// ExitError carrying code.
func commandFailure(f *OutputFormatter, code int, message string, err error) error {
	return f.Fail(code, errorCode(err), message, err)
}

// openStore opens the configured database.
func openStore(cfg config.Config) (*store.Store, error) {
	slog.Debug("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// logMetrics writes the pipeline counters at debug level.
func logMetrics(reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		slog.Debug("gathering metrics failed", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs := []any{"metric", mf.GetName(), "value", m.GetCounter().GetValue()}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, lp.GetName(), lp.GetValue())
			}
			slog.Debug("metric", attrs...)
		}
	}
}
