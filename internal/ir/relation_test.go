package ir

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHandle(b byte) Handle {
	var h Handle
	h[HandleLength-1] = b
	return h
}

func TestRelationKind_DestinationSplitsTerminalKinds(t *testing.T) {
	target := testHandle(9)

	pointerKinds := []RelationKind{
		Eval(target), Apply(target), Pin(target),
		TagAuthor(target), TagTarget(target), TagLabel(target),
		TreeEntry(target, 4),
	}
	for _, k := range pointerKinds {
		port, h, ok := k.Destination()
		require.True(t, ok, "kind %s", k.Kind())
		assert.Equal(t, target, h)
		assert.Equal(t, k.Kind(), port.Kind)
		assert.True(t, k.Kind().PointerLike())
	}

	port, _, _ := TreeEntry(target, 4).Destination()
	assert.Equal(t, uint64(4), port.Index)

	_, _, ok := Description("hello").Destination()
	assert.False(t, ok)
	assert.False(t, KindDescription.PointerLike())
}

func TestRelationKind_OrderFollowsDeclaration(t *testing.T) {
	low, high := testHandle(1), testHandle(2)

	ordered := []RelationKind{
		Eval(low), Eval(high),
		Apply(low),
		Pin(low),
		TagAuthor(low),
		TagTarget(low),
		TagLabel(low),
		TreeEntry(low, 0), TreeEntry(low, 1), TreeEntry(high, 0),
		Description("a"), Description("b"),
	}

	for i := 0; i+1 < len(ordered); i++ {
		assert.Equal(t, -1, ordered[i].Compare(ordered[i+1]), "%v < %v", ordered[i], ordered[i+1])
		assert.Equal(t, 1, ordered[i+1].Compare(ordered[i]))
	}
}

func TestRelation_OrderIsLHSFirst(t *testing.T) {
	a, b := testHandle(1), testHandle(2)

	rels := []Relation{
		NewRelation(b, Eval(a)),
		NewRelation(a, Description("z")),
		NewRelation(a, Eval(b)),
	}
	sort.Slice(rels, func(i, j int) bool { return rels[i].Less(rels[j]) })

	assert.Equal(t, NewRelation(a, Eval(b)), rels[0])
	assert.Equal(t, NewRelation(a, Description("z")), rels[1])
	assert.Equal(t, NewRelation(b, Eval(a)), rels[2])
}

func TestRelation_StructuralEquality(t *testing.T) {
	a, b := testHandle(1), testHandle(2)

	assert.Equal(t, NewRelation(a, TreeEntry(b, 3)), NewRelation(a, TreeEntry(b, 3)))
	assert.NotEqual(t, NewRelation(a, TreeEntry(b, 3)), NewRelation(a, TreeEntry(b, 4)))

	set := map[Relation]bool{}
	set[NewRelation(a, Eval(b))] = true
	set[NewRelation(a, Eval(b))] = true
	assert.Len(t, set, 1)
}

func TestNewRelationKind_RoundTripsVariants(t *testing.T) {
	target := testHandle(5)
	variants := []RelationKind{
		Eval(target), Apply(target), Pin(target),
		TagAuthor(target), TagTarget(target), TagLabel(target),
		TreeEntry(target, 11), Description("text"),
	}

	for _, v := range variants {
		h, _ := v.Target()
		back, err := NewRelationKind(v.Kind(), h, v.Index(), v.Text())
		require.NoError(t, err)
		assert.Equal(t, v, back)

		k, err := ParseKind(v.Kind().String())
		require.NoError(t, err)
		assert.Equal(t, v.Kind(), k)
	}

	_, err := NewRelationKind(Kind(42), target, 0, "")
	assert.Error(t, err)
	_, err = ParseKind("nope")
	assert.Error(t, err)
}

func TestRelationKind_Display(t *testing.T) {
	target := testHandle(0xff)
	hex := target.String()

	assert.Equal(t, "evaluates into "+hex, Eval(target).String())
	assert.Equal(t, "applies into "+hex, Apply(target).String())
	assert.Equal(t, "pins "+hex, Pin(target).String())
	assert.Equal(t, "has entry "+hex+" at index [2]", TreeEntry(target, 2).String())
	assert.Equal(t, "has entry at index [2]", TreeEntry(target, 2).Abbrev())
	assert.Equal(t, "a blob", Description("a blob").String())

	r := NewRelation(testHandle(1), Eval(target))
	assert.True(t, strings.HasSuffix(r.String(), " evaluates into "+hex))
}

func TestOperationKind(t *testing.T) {
	h := testHandle(3)
	assert.Equal(t, Eval(h), OperationKind(OpEval, h))
	assert.Equal(t, Apply(h), OperationKind(OpApply, h))
}

func TestLogEntry_String(t *testing.T) {
	issued := RequestIssued(3, "description "+testHandle(1).String())
	assert.Equal(t, "[3]: description "+testHandle(1).String(), issued.String())

	rel := NewRelation(testHandle(1), Description("blob"))
	delivered := ResponseDelivered(3, rel)
	assert.Equal(t, "[3]: "+testHandle(1).String()+" blob", delivered.String())

	k, err := ParseEntryKind(EntryResponseDelivered.String())
	require.NoError(t, err)
	assert.Equal(t, EntryResponseDelivered, k)
}
