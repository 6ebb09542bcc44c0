package graph

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fixgraph/internal/ir"
)

// h builds a handle whose last byte is b.
func h(b byte) ir.Handle {
	var out ir.Handle
	out[ir.HandleLength-1] = b
	return out
}

func setLen(m map[ir.Handle]*relationSet, k ir.Handle) int {
	if s, ok := m[k]; ok {
		return s.Len()
	}
	return 0
}

func TestInsert_Idempotent(t *testing.T) {
	s := New()
	r := ir.NewRelation(h(1), ir.Eval(h(2)))

	assert.True(t, s.Insert(r))
	assert.False(t, s.Insert(r))
	assert.False(t, s.Insert(ir.NewRelation(h(1), ir.Eval(h(2)))))

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, setLen(s.forward, h(1)))
	assert.Equal(t, 1, setLen(s.backward, h(2)))
}

func TestInsert_PointerLikeIndexedBackward(t *testing.T) {
	s := New()
	target := h(9)

	kinds := []ir.RelationKind{
		ir.Eval(target), ir.Apply(target), ir.Pin(target),
		ir.TagAuthor(target), ir.TagTarget(target), ir.TagLabel(target),
		ir.TreeEntry(target, 0),
	}
	for _, k := range kinds {
		r := ir.NewRelation(h(1), k)
		s.Insert(r)

		require.Contains(t, s.backward, target)
		assert.True(t, s.backward[target].Has(r), "kind %s", k.Kind())
	}
	assert.Len(t, s.Backward(target), len(kinds))
	assert.Len(t, s.Forward(h(1)), len(kinds))
}

func TestInsert_DescriptionOnlyForward(t *testing.T) {
	s := New()
	r := ir.NewRelation(h(1), ir.Description("a blob"))

	s.Insert(r)

	assert.True(t, s.Contains(r))
	assert.Equal(t, []ir.Relation{r}, s.Forward(h(1)))
	assert.Empty(t, s.backward)
}

func TestForward_AscendingOrder(t *testing.T) {
	s := New()
	desc := ir.NewRelation(h(1), ir.Description("d"))
	apply := ir.NewRelation(h(1), ir.Apply(h(2)))
	eval := ir.NewRelation(h(1), ir.Eval(h(3)))

	s.Insert(desc)
	s.Insert(apply)
	s.Insert(eval)

	assert.Equal(t, []ir.Relation{eval, apply, desc}, s.Forward(h(1)))
	assert.Nil(t, s.Forward(h(7)))
}

func TestHandles_IncludesBothSides(t *testing.T) {
	s := New()
	s.Insert(ir.NewRelation(h(3), ir.Eval(h(1))))
	s.Insert(ir.NewRelation(h(2), ir.Description("x")))

	assert.Equal(t, []ir.Handle{h(1), h(2), h(3)}, s.Handles())
}

func TestInsert_Confluence(t *testing.T) {
	rels := []ir.Relation{
		ir.NewRelation(h(1), ir.Eval(h(2))),
		ir.NewRelation(h(2), ir.Apply(h(3))),
		ir.NewRelation(h(3), ir.Eval(h(1))),
		ir.NewRelation(h(3), ir.TreeEntry(h(4), 0)),
		ir.NewRelation(h(3), ir.TreeEntry(h(5), 1)),
		ir.NewRelation(h(4), ir.Description("leaf")),
		ir.NewRelation(h(5), ir.Eval(h(5))),
	}

	reference := New()
	reference.InsertAll(rels)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]ir.Relation(nil), rels...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		// Redelivery of a prefix must not change anything either.
		shuffled = append(shuffled, shuffled[:3]...)

		s := New()
		s.InsertAll(shuffled)

		if diff := cmp.Diff(reference.Relations(), s.Relations(), cmp.Comparer(relationEqual)); diff != "" {
			t.Fatalf("relations differ (-want +got):\n%s", diff)
		}
		for _, hd := range reference.Handles() {
			if diff := cmp.Diff(reference.Backward(hd), s.Backward(hd), cmp.Comparer(relationEqual)); diff != "" {
				t.Fatalf("backward[%s] differs (-want +got):\n%s", hd.Short(), diff)
			}
		}
	}
}

func relationEqual(a, b ir.Relation) bool {
	return a.Compare(b) == 0
}
