package ir

import (
	"fmt"
	"strings"
)

// Kind tags a RelationKind variant.
//
// The declaration order fixes both the sort order of relations and the
// order in which they are displayed.
type Kind uint8

const (
	KindEval Kind = iota
	KindApply
	KindPin
	KindTagAuthor
	KindTagTarget
	KindTagLabel
	KindTreeEntry
	KindDescription
)

// kindNames are the stable wire/storage names, indexed by Kind.
var kindNames = [...]string{
	KindEval:        "eval",
	KindApply:       "apply",
	KindPin:         "pin",
	KindTagAuthor:   "tag_author",
	KindTagTarget:   "tag_target",
	KindTagLabel:    "tag_label",
	KindTreeEntry:   "tree_entry",
	KindDescription: "description",
}

// String returns the stable name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown relation kind %q", s)
}

// PointerLike reports whether relations of this kind carry a destination handle.
func (k Kind) PointerLike() bool {
	switch k {
	case KindEval, KindApply, KindPin, KindTagAuthor, KindTagTarget, KindTagLabel, KindTreeEntry:
		return true
	case KindDescription:
		return false
	default:
		panic(fmt.Sprintf("ir: unknown relation kind %d", uint8(k)))
	}
}

// RelationKind is the typed payload of a Relation: a closed union over Kind.
//
// Fields are unexported so values can only be built through the variant
// constructors below, which keeps unused payload fields zero. The zero
// payload makes RelationKind comparable with ==.
type RelationKind struct {
	kind   Kind
	target Handle
	index  uint64
	text   string
}

func Eval(h Handle) RelationKind      { return RelationKind{kind: KindEval, target: h} }
func Apply(h Handle) RelationKind     { return RelationKind{kind: KindApply, target: h} }
func Pin(h Handle) RelationKind       { return RelationKind{kind: KindPin, target: h} }
func TagAuthor(h Handle) RelationKind { return RelationKind{kind: KindTagAuthor, target: h} }
func TagTarget(h Handle) RelationKind { return RelationKind{kind: KindTagTarget, target: h} }
func TagLabel(h Handle) RelationKind  { return RelationKind{kind: KindTagLabel, target: h} }

// TreeEntry is the index-th child of a tree.
func TreeEntry(h Handle, index uint64) RelationKind {
	return RelationKind{kind: KindTreeEntry, target: h, index: index}
}

// Description is a terminal text payload.
func Description(text string) RelationKind {
	return RelationKind{kind: KindDescription, text: text}
}

// OperationKind returns the Eval or Apply variant matching op.
func OperationKind(op Operation, h Handle) RelationKind {
	switch op {
	case OpEval:
		return Eval(h)
	case OpApply:
		return Apply(h)
	default:
		panic(fmt.Sprintf("ir: unknown operation %d", uint8(op)))
	}
}

// NewRelationKind rebuilds a variant from its parts, as read back from storage.
// Payload fields that do not belong to the kind are ignored.
func NewRelationKind(kind Kind, target Handle, index uint64, text string) (RelationKind, error) {
	switch kind {
	case KindEval, KindApply, KindPin, KindTagAuthor, KindTagTarget, KindTagLabel:
		return RelationKind{kind: kind, target: target}, nil
	case KindTreeEntry:
		return TreeEntry(target, index), nil
	case KindDescription:
		return Description(text), nil
	default:
		return RelationKind{}, fmt.Errorf("unknown relation kind %d", uint8(kind))
	}
}

// Kind returns the variant tag.
func (r RelationKind) Kind() Kind { return r.kind }

// Index returns the tree entry position; zero for other kinds.
func (r RelationKind) Index() uint64 { return r.index }

// Text returns the description text; empty for other kinds.
func (r RelationKind) Text() string { return r.text }

// PortType identifies an outgoing port of a node: the kind plus, for tree
// entries, the position.
type PortType struct {
	Kind  Kind
	Index uint64
}

// Destination is the single place that splits pointer-like kinds from
// terminal ones. It returns the port and the destination handle, or ok=false
// for a Description.
func (r RelationKind) Destination() (port PortType, target Handle, ok bool) {
	switch r.kind {
	case KindEval, KindApply, KindPin, KindTagAuthor, KindTagTarget, KindTagLabel:
		return PortType{Kind: r.kind}, r.target, true
	case KindTreeEntry:
		return PortType{Kind: r.kind, Index: r.index}, r.target, true
	case KindDescription:
		return PortType{}, Handle{}, false
	default:
		panic(fmt.Sprintf("ir: unknown relation kind %d", uint8(r.kind)))
	}
}

// Target returns the destination handle, if any.
func (r RelationKind) Target() (Handle, bool) {
	_, h, ok := r.Destination()
	return h, ok
}

// Compare orders by variant index, then payload.
func (r RelationKind) Compare(o RelationKind) int {
	if r.kind != o.kind {
		if r.kind < o.kind {
			return -1
		}
		return 1
	}
	switch r.kind {
	case KindEval, KindApply, KindPin, KindTagAuthor, KindTagTarget, KindTagLabel:
		return r.target.Compare(o.target)
	case KindTreeEntry:
		if c := r.target.Compare(o.target); c != 0 {
			return c
		}
		switch {
		case r.index < o.index:
			return -1
		case r.index > o.index:
			return 1
		}
		return 0
	case KindDescription:
		return strings.Compare(r.text, o.text)
	default:
		panic(fmt.Sprintf("ir: unknown relation kind %d", uint8(r.kind)))
	}
}

// Abbrev is the short label shown next to a node's port.
func (r RelationKind) Abbrev() string {
	switch r.kind {
	case KindEval:
		return "evaluates into"
	case KindApply:
		return "applies into"
	case KindPin:
		return "pins"
	case KindTagAuthor:
		return "this object"
	case KindTagTarget:
		return "tags this object"
	case KindTagLabel:
		return "with this label"
	case KindTreeEntry:
		return fmt.Sprintf("has entry at index [%d]", r.index)
	case KindDescription:
		return r.text
	default:
		panic(fmt.Sprintf("ir: unknown relation kind %d", uint8(r.kind)))
	}
}

// String renders the payload for log lines.
func (r RelationKind) String() string {
	switch r.kind {
	case KindEval, KindApply, KindPin, KindTagAuthor, KindTagTarget, KindTagLabel:
		return r.Abbrev() + " " + r.target.String()
	case KindTreeEntry:
		return fmt.Sprintf("has entry %s at index [%d]", r.target, r.index)
	case KindDescription:
		return r.text
	default:
		panic(fmt.Sprintf("ir: unknown relation kind %d", uint8(r.kind)))
	}
}

// Relation is a typed edge from a handle to a payload.
type Relation struct {
	LHS Handle
	RHS RelationKind
}

// NewRelation builds a Relation.
func NewRelation(lhs Handle, rhs RelationKind) Relation {
	return Relation{LHS: lhs, RHS: rhs}
}

// Compare orders lexicographically by (lhs, rhs).
func (r Relation) Compare(o Relation) int {
	if c := r.LHS.Compare(o.LHS); c != 0 {
		return c
	}
	return r.RHS.Compare(o.RHS)
}

// Less reports r < o.
func (r Relation) Less(o Relation) bool {
	return r.Compare(o) < 0
}

// String renders "<lhs> <rhs>".
func (r Relation) String() string {
	return r.LHS.String() + " " + r.RHS.String()
}
