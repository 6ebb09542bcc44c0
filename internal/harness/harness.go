package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"slices"
	"strings"
	"time"

	"github.com/roach88/fixgraph/internal/engine"
	"github.com/roach88/fixgraph/internal/ir"
	"github.com/roach88/fixgraph/internal/store"
	"github.com/roach88/fixgraph/internal/testutil"
)

// DefaultStepTimeout bounds the wait for one step's outcomes.
const DefaultStepTimeout = 5 * time.Second

// Harness holds the pipeline for one scenario run.
type Harness struct {
	store      *store.Store
	session    store.SessionInfo
	engine     *engine.Engine
	dispatcher *engine.Dispatcher
	fetcher    *engine.HTTPFetcher
	queue      *engine.Queue
	timeout    time.Duration
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database against a fresh fixture
// remote. Session IDs and seqs are deterministic.
//
// Execution flow:
//  1. Start the fixture remote and open the database
//  2. Wire the dispatcher, engine and session recorder
//  3. Issue each step and wait for its outcomes
//  4. Read the persisted log back and evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	remote, err := scenario.remote()
	if err != nil {
		return nil, fmt.Errorf("failed to build remote: %w", err)
	}
	srv := httptest.NewServer(remote)
	defer srv.Close()

	st, err := store.OpenMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h, err := newHarness(ctx, scenario, st, srv.URL)
	if err != nil {
		return nil, err
	}
	defer h.queue.Close()
	defer h.fetcher.Close()

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, scenario, step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	result, err := h.collect(ctx, scenario)
	if err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(scenario, result, h.engine) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(ctx context.Context, scenario *Scenario, st *store.Store, baseURL string) (*Harness, error) {
	timeout := DefaultStepTimeout
	if scenario.Timeout != "" {
		d, err := time.ParseDuration(scenario.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout: %w", err)
		}
		timeout = d
	}

	var root ir.Handle
	if scenario.Root != "" {
		r, err := scenario.handle(scenario.Root)
		if err != nil {
			return nil, err
		}
		root = r
	}

	gen := testutil.NewFixedSessionGenerator(scenario.Session)
	info, err := st.CreateSession(ctx, gen, baseURL, root)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	rec, err := st.Recorder(ctx, info.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create recorder: %w", err)
	}

	queue := engine.NewQueue()
	fetcher := engine.NewHTTPFetcher(baseURL, timeout)
	return &Harness{
		store:      st,
		session:    info,
		engine:     engine.New(queue, engine.WithRecorder(rec)),
		dispatcher: engine.NewDispatcher(queue, fetcher),
		fetcher:    fetcher,
		queue:      queue,
		timeout:    timeout,
	}, nil
}

// executeStep issues every command of step and waits for all outcomes.
func (h *Harness) executeStep(ctx context.Context, scenario *Scenario, step Step) error {
	for _, text := range step.Commands {
		req, err := scenario.request(text)
		if err != nil {
			return err
		}
		seq := h.dispatcher.Send(ctx, req)
		slog.Debug("scenario request issued", "scenario", scenario.Name, "seq", seq, "command", req.CommandText())
	}

	waitCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	if err := h.engine.WaitIdle(waitCtx, time.Millisecond); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("timed out waiting for %v", h.engine.Outstanding())
		}
		return err
	}
	return nil
}

// collect reads the persisted log back and snapshots the cache.
func (h *Harness) collect(ctx context.Context, scenario *Scenario) (*Result, error) {
	entries, err := h.store.ReadLog(ctx, h.session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	slices.SortStableFunc(entries, func(a, b ir.LogEntry) int {
		return cmpSeq(a.Seq, b.Seq)
	})

	result := NewResult(h.session.ID)
	for _, e := range entries {
		result.Log = append(result.Log, e.String())
	}
	for _, f := range h.engine.Failures() {
		result.Failures = append(result.Failures, FailureRecord{
			Seq:     f.Seq,
			Command: f.Command,
			Code:    engine.ErrorCode(f.Err),
		})
	}
	slices.SortFunc(result.Failures, func(a, b FailureRecord) int {
		return cmpSeq(a.Seq, b.Seq)
	})
	for _, r := range h.engine.Graph().Relations() {
		result.Relations = append(result.Relations, r.String())
	}
	if scenario.Root != "" {
		root, err := scenario.handle(scenario.Root)
		if err != nil {
			return nil, err
		}
		var buf strings.Builder
		if err := h.engine.Graph().Render(&buf, root); err != nil {
			return nil, err
		}
		result.Traversal = buf.String()
	}
	return result, nil
}

// remote builds the fixture remote a scenario describes.
func (s *Scenario) remote() (*testutil.Remote, error) {
	r := testutil.NewRemote()
	fx := s.Remote

	for _, t := range fx.Trees {
		tree, err := s.handle(t.Handle)
		if err != nil {
			return nil, fmt.Errorf("trees: %w", err)
		}
		children, err := s.handles(t.Children)
		if err != nil {
			return nil, fmt.Errorf("trees: %w", err)
		}
		r.Tree(tree, children...)
	}
	for _, d := range fx.Descriptions {
		h, err := s.handle(d.Handle)
		if err != nil {
			return nil, fmt.Errorf("descriptions: %w", err)
		}
		r.Describe(h, d.Text)
	}
	for _, rel := range fx.Relations {
		h, err := s.handle(rel.Handle)
		if err != nil {
			return nil, fmt.Errorf("relations: %w", err)
		}
		op, err := ir.ParseOperationName(rel.Op)
		if err != nil {
			return nil, fmt.Errorf("relations: %w", err)
		}
		rhs, err := s.handle(rel.RHS)
		if err != nil {
			return nil, fmt.Errorf("relations: %w", err)
		}
		r.Relate(h, op, rhs)
	}
	for _, e := range fx.Explanations {
		target, err := s.handle(e.Target)
		if err != nil {
			return nil, fmt.Errorf("explanations: %w", err)
		}
		op, err := ir.ParseOperationName(e.Op)
		if err != nil {
			return nil, fmt.Errorf("explanations: %w", err)
		}
		lhs, err := s.handle(e.LHS)
		if err != nil {
			return nil, fmt.Errorf("explanations: %w", err)
		}
		rhs, err := s.handle(e.RHS)
		if err != nil {
			return nil, fmt.Errorf("explanations: %w", err)
		}
		r.Explain(target, testutil.Explanation{Op: op, LHS: lhs, RHS: rhs})
	}
	for _, c := range fx.Candidates {
		target, err := s.handle(c.Target)
		if err != nil {
			return nil, fmt.Errorf("candidates: %w", err)
		}
		hs, err := s.handles(c.Handles)
		if err != nil {
			return nil, fmt.Errorf("candidates: %w", err)
		}
		r.Candidates(target, hs...)
	}
	for _, st := range fx.Statuses {
		req, err := s.request(st.Command)
		if err != nil {
			return nil, fmt.Errorf("statuses: %w", err)
		}
		r.Status(req.EndpointPath(), st.Code)
	}
	for _, raw := range fx.Raw {
		req, err := s.request(raw.Command)
		if err != nil {
			return nil, fmt.Errorf("raw: %w", err)
		}
		r.Raw(req.EndpointPath(), raw.Body)
	}
	return r, nil
}

func cmpSeq(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (s *Scenario) handles(words []string) ([]ir.Handle, error) {
	out := make([]ir.Handle, 0, len(words))
	for _, w := range words {
		h, err := s.handle(w)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}
