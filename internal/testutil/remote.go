package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/roach88/fixgraph/internal/ir"
)

// Explanation is one (op, lhs, rhs) triple served by /explanations.
type Explanation struct {
	Op  ir.Operation
	LHS ir.Handle
	RHS ir.Handle
}

type relationKey struct {
	handle ir.Handle
	op     ir.Operation
}

// Remote is an in-memory stand-in for the remote object API.
//
// Empty lists are served as "" rather than [], matching the real server.
//
// Thread-safety: all methods are safe for concurrent use.
type Remote struct {
	mu           sync.Mutex
	explanations map[ir.Handle][]Explanation
	candidates   map[ir.Handle][]ir.Handle
	contents     map[ir.Handle][]ir.Handle
	descriptions map[ir.Handle]string
	relations    map[relationKey]ir.Handle
	statuses     map[string]int
	raw          map[string]string
	hits         []string
}

// NewRemote creates an empty remote. Unknown handles answer 404.
func NewRemote() *Remote {
	return &Remote{
		explanations: make(map[ir.Handle][]Explanation),
		candidates:   make(map[ir.Handle][]ir.Handle),
		contents:     make(map[ir.Handle][]ir.Handle),
		descriptions: make(map[ir.Handle]string),
		relations:    make(map[relationKey]ir.Handle),
		statuses:     make(map[string]int),
		raw:          make(map[string]string),
	}
}

// Explain adds an explanation triple for target.
func (r *Remote) Explain(target ir.Handle, e Explanation) *Remote {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.explanations[target] = append(r.explanations[target], e)
	return r
}

// Candidates sets the pin/tag handles listed for target.
func (r *Remote) Candidates(target ir.Handle, handles ...ir.Handle) *Remote {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidates[target] = handles
	return r
}

// Tree sets the children of tree, in order.
func (r *Remote) Tree(tree ir.Handle, children ...ir.Handle) *Remote {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contents[tree] = children
	return r
}

// Describe sets the description of h.
func (r *Remote) Describe(h ir.Handle, text string) *Remote {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptions[h] = text
	return r
}

// Relate sets the result of applying op to h.
func (r *Remote) Relate(h ir.Handle, op ir.Operation, rhs ir.Handle) *Remote {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.relations[relationKey{h, op}] = rhs
	return r
}

// Status makes requests to path (including query) answer with code.
func (r *Remote) Status(pathAndQuery string, code int) *Remote {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[pathAndQuery] = code
	return r
}

// Raw makes requests to path (including query) answer 200 with body.
func (r *Remote) Raw(pathAndQuery, body string) *Remote {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.raw[pathAndQuery] = body
	return r
}

// Hits returns the request URIs served so far, in arrival order.
func (r *Remote) Hits() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.hits...)
}

// Start serves the remote on a test server closed at test cleanup.
func (r *Remote) Start(t testing.TB) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// ServeHTTP implements http.Handler.
func (r *Remote) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()

	uri := req.URL.RequestURI()
	r.hits = append(r.hits, uri)

	if code, ok := r.statuses[uri]; ok {
		http.Error(w, http.StatusText(code), code)
		return
	}
	if body, ok := r.raw[uri]; ok {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
		return
	}

	h, err := ir.ParseHandle(req.URL.Query().Get("handle"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body any
	switch req.URL.Path {
	case "/explanations":
		exps, okE := r.explanations[h]
		cands, okC := r.candidates[h]
		if !okE && !okC {
			http.NotFound(w, req)
			return
		}
		rels := make([]map[string]string, 0, len(exps))
		for _, e := range exps {
			rels = append(rels, map[string]string{
				"op":  strconv.Itoa(int(e.Op.Code())),
				"lhs": e.LHS.String(),
				"rhs": e.RHS.String(),
			})
		}
		body = map[string]any{
			"target":    h.String(),
			"relations": emptyable(rels),
			"handles":   emptyable(hexList(cands)),
		}
	case "/tree_contents":
		children, ok := r.contents[h]
		if !ok {
			http.NotFound(w, req)
			return
		}
		body = map[string]any{"handles": emptyable(hexList(children))}
	case "/description":
		text, ok := r.descriptions[h]
		if !ok {
			http.NotFound(w, req)
			return
		}
		body = map[string]any{"description": text}
	case "/relation":
		op, err := ir.ParseOperationCode(req.URL.Query().Get("op"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rhs, ok := r.relations[relationKey{h, op}]
		if !ok {
			http.NotFound(w, req)
			return
		}
		body = map[string]any{
			"op":  strconv.Itoa(int(op.Code())),
			"rhs": rhs.String(),
		}
	default:
		http.NotFound(w, req)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func hexList(hs []ir.Handle) []string {
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.String())
	}
	return out
}

// emptyable renders an empty list the way the real server does.
func emptyable[T any](items []T) any {
	if len(items) == 0 {
		return ""
	}
	return items
}
