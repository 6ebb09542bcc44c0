package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/fixgraph/internal/ir"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession creates a session with a fixed ID.
func createTestSession(t *testing.T, s *Store, id string) SessionInfo {
	t.Helper()
	info, err := s.CreateSession(context.Background(), NewFixedGenerator(id), "http://127.0.0.1:9090", h(0xff))
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	return info
}

// h returns a handle whose last byte is b.
func h(b byte) ir.Handle {
	var out ir.Handle
	out[ir.HandleLength-1] = b
	return out
}

// everyKind returns one relation of each kind, lhs h(1).
func everyKind() []ir.Relation {
	return []ir.Relation{
		ir.NewRelation(h(1), ir.Eval(h(2))),
		ir.NewRelation(h(1), ir.Apply(h(3))),
		ir.NewRelation(h(1), ir.Pin(h(4))),
		ir.NewRelation(h(1), ir.TagAuthor(h(5))),
		ir.NewRelation(h(1), ir.TagTarget(h(6))),
		ir.NewRelation(h(1), ir.TagLabel(h(7))),
		ir.NewRelation(h(1), ir.TreeEntry(h(8), 3)),
		ir.NewRelation(h(1), ir.Description("a <tree> & more")),
	}
}

// relationEqual lets cmp compare relations, whose payload is unexported.
var relationEqual = cmp.Comparer(func(a, b ir.Relation) bool { return a == b })
