package testutil

import (
	"context"
	"fmt"
	"sync"
)

// StubFetcher serves canned bodies by endpoint path without a network.
//
// A path can be gated: its fetch blocks until Release is called for it,
// which lets tests choose the order in which concurrent requests finish.
//
// Thread-safety: all methods are safe for concurrent use.
type StubFetcher struct {
	mu     sync.Mutex
	bodies map[string][]byte
	errs   map[string]error
	gates  map[string]chan struct{}
	calls  []string
}

// NewStubFetcher creates an empty stub. Unknown paths fail.
func NewStubFetcher() *StubFetcher {
	return &StubFetcher{
		bodies: make(map[string][]byte),
		errs:   make(map[string]error),
		gates:  make(map[string]chan struct{}),
	}
}

// Respond makes path return body.
func (f *StubFetcher) Respond(path, body string) *StubFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[path] = []byte(body)
	return f
}

// Fail makes path return err.
func (f *StubFetcher) Fail(path string, err error) *StubFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[path] = err
	return f
}

// Gate makes fetches of path block until Release(path).
func (f *StubFetcher) Gate(path string) *StubFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gates[path] = make(chan struct{})
	return f
}

// Release unblocks every fetch of path, current and future.
func (f *StubFetcher) Release(path string) {
	f.mu.Lock()
	gate, ok := f.gates[path]
	delete(f.gates, path)
	f.mu.Unlock()
	if ok {
		close(gate)
	}
}

// Calls returns the paths fetched so far, in call order.
func (f *StubFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Fetch implements engine.Fetcher.
func (f *StubFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	gate := f.gates[path]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[path]; ok {
		return nil, err
	}
	if body, ok := f.bodies[path]; ok {
		return body, nil
	}
	return nil, fmt.Errorf("stub: no response for %s", path)
}
