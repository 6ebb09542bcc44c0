package graph

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/fixgraph/internal/ir"
)

// Visitor is called once per relation reached during a traversal. It must
// not mutate the Storage being walked.
type Visitor func(r ir.Relation)

// TraverseBFS walks the graph breadth-first from root.
//
// A node is marked visited the first time it is reached, through either
// direction, and is expanded at most once. For each node, forward relations
// are offered before backward relations, each side in ascending order:
//   - a forward pointer-like relation is visited if its destination is new;
//     the destination joins the frontier
//   - a forward Description is always visited and never joins the frontier
//   - a backward relation is visited if its lhs is new; the lhs joins the
//     frontier
//
// Cycles and self-loops terminate: every node and every relation is visited
// at most once.
func (s *Storage) TraverseBFS(root ir.Handle, visit Visitor) {
	s.walk(root, func(r ir.Relation, _ int) { visit(r) })
}

// Reachable returns the nodes reached from root in visiting order, root first.
func (s *Storage) Reachable(root ir.Handle) []ir.Handle {
	out := []ir.Handle{root}
	seen := map[ir.Handle]bool{root: true}
	s.TraverseBFS(root, func(r ir.Relation) {
		for _, h := range endpoints(r) {
			if !seen[h] {
				seen[h] = true
				out = append(out, h)
			}
		}
	})
	return out
}

// Render writes one line per visited relation, indented by the depth of the
// node whose expansion reached it. Description text is shown NFC normalized
// and quoted, so it always stays on its own line.
func (s *Storage) Render(w io.Writer, root ir.Handle) error {
	if _, err := fmt.Fprintf(w, "%s\n", root); err != nil {
		return err
	}
	var werr error
	s.walk(root, func(r ir.Relation, depth int) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(w, "%s%s %s\n", strings.Repeat("  ", depth+1), r.LHS.Short(), displayKind(r.RHS))
	})
	return werr
}

// walk is TraverseBFS with the depth of the expanding node.
func (s *Storage) walk(root ir.Handle, visit func(r ir.Relation, depth int)) {
	type frontierNode struct {
		handle ir.Handle
		depth  int
	}

	seen := map[ir.Handle]struct{}{root: {}}
	frontier := []frontierNode{{handle: root}}

	reach := func(h ir.Handle, depth int) bool {
		if _, ok := seen[h]; ok {
			return false
		}
		seen[h] = struct{}{}
		frontier = append(frontier, frontierNode{handle: h, depth: depth + 1})
		return true
	}

	for len(frontier) > 0 {
		next := frontier[0]
		frontier = frontier[1:]

		if fwd := s.forward[next.handle]; fwd != nil {
			fwd.Ascend(func(r ir.Relation) bool {
				target, pointer := r.RHS.Target()
				if !pointer {
					visit(r, next.depth)
					return true
				}
				if reach(target, next.depth) {
					visit(r, next.depth)
				}
				return true
			})
		}

		if bwd := s.backward[next.handle]; bwd != nil {
			bwd.Ascend(func(r ir.Relation) bool {
				if reach(r.LHS, next.depth) {
					visit(r, next.depth)
				}
				return true
			})
		}
	}
}

// endpoints returns the handles a relation touches: lhs and, for pointer-like
// kinds, the destination.
func endpoints(r ir.Relation) []ir.Handle {
	if target, ok := r.RHS.Target(); ok {
		return []ir.Handle{r.LHS, target}
	}
	return []ir.Handle{r.LHS}
}

func displayKind(k ir.RelationKind) string {
	if k.Kind() != ir.KindDescription {
		return k.String()
	}
	return strconv.Quote(norm.NFC.String(k.Text()))
}
