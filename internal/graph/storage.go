package graph

import (
	"slices"

	"github.com/google/btree"

	"github.com/roach88/fixgraph/internal/ir"
)

// btreeDegree is the fan-out of the per-handle ordered sets. Most handles
// carry only a handful of relations, so a small degree keeps nodes compact.
const btreeDegree = 8

// relationSet is an ordered set of relations.
type relationSet = btree.BTreeG[ir.Relation]

func newRelationSet() *relationSet {
	return btree.NewG(btreeDegree, ir.Relation.Less)
}

// Storage stores every relation obtained from the remote.
type Storage struct {
	forward  map[ir.Handle]*relationSet
	backward map[ir.Handle]*relationSet
	size     int
}

// New creates an empty Storage.
func New() *Storage {
	return &Storage{
		forward:  make(map[ir.Handle]*relationSet),
		backward: make(map[ir.Handle]*relationSet),
	}
}

// Insert adds a relation. It reports whether the relation was new; inserting
// a relation equal to one already present changes nothing.
func (s *Storage) Insert(r ir.Relation) bool {
	fwd, ok := s.forward[r.LHS]
	if !ok {
		fwd = newRelationSet()
		s.forward[r.LHS] = fwd
	}
	if fwd.Has(r) {
		return false
	}
	fwd.ReplaceOrInsert(r)
	s.size++

	if target, ok := r.RHS.Target(); ok {
		bwd, ok := s.backward[target]
		if !ok {
			bwd = newRelationSet()
			s.backward[target] = bwd
		}
		bwd.ReplaceOrInsert(r)
	}
	return true
}

// InsertAll inserts every relation and returns how many were new.
func (s *Storage) InsertAll(rels []ir.Relation) int {
	added := 0
	for _, r := range rels {
		if s.Insert(r) {
			added++
		}
	}
	return added
}

// Contains reports whether an equal relation is stored.
func (s *Storage) Contains(r ir.Relation) bool {
	fwd, ok := s.forward[r.LHS]
	return ok && fwd.Has(r)
}

// Len returns the number of distinct relations.
func (s *Storage) Len() int {
	return s.size
}

// Forward returns the relations whose lhs is h, in ascending order.
func (s *Storage) Forward(h ir.Handle) []ir.Relation {
	return collect(s.forward[h])
}

// Backward returns the pointer-like relations whose destination is h, in
// ascending order.
func (s *Storage) Backward(h ir.Handle) []ir.Relation {
	return collect(s.backward[h])
}

// Handles returns every handle that appears as an lhs or a destination,
// in ascending order.
func (s *Storage) Handles() []ir.Handle {
	seen := make(map[ir.Handle]struct{}, len(s.forward)+len(s.backward))
	for h := range s.forward {
		seen[h] = struct{}{}
	}
	for h := range s.backward {
		seen[h] = struct{}{}
	}
	out := make([]ir.Handle, 0, len(seen))
	for h := range seen {
		out = append(out, h)
	}
	slices.SortFunc(out, ir.Handle.Compare)
	return out
}

// Relations returns every stored relation in ascending order.
func (s *Storage) Relations() []ir.Relation {
	out := make([]ir.Relation, 0, s.size)
	for _, set := range s.forward {
		set.Ascend(func(r ir.Relation) bool {
			out = append(out, r)
			return true
		})
	}
	slices.SortFunc(out, ir.Relation.Compare)
	return out
}

func collect(set *relationSet) []ir.Relation {
	if set == nil {
		return nil
	}
	out := make([]ir.Relation, 0, set.Len())
	set.Ascend(func(r ir.Relation) bool {
		out = append(out, r)
		return true
	})
	return out
}
