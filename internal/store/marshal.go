package store

import (
	"database/sql"
	"fmt"

	"github.com/roach88/fixgraph/internal/ir"
)

// relationRow is the column form of a relation.
type relationRow struct {
	ID     string
	LHS    string
	Kind   string
	Target sql.NullString
	Index  sql.NullInt64
	Text   sql.NullString
	Body   string
}

// marshalRelation flattens r into columns. Only the payload the kind uses is
// non-NULL. Body is the canonical JSON the ID was hashed from.
func marshalRelation(r ir.Relation) (relationRow, error) {
	body, err := ir.MarshalCanonical(r)
	if err != nil {
		return relationRow{}, fmt.Errorf("marshal relation: %w", err)
	}
	id, err := ir.RelationID(r)
	if err != nil {
		return relationRow{}, fmt.Errorf("marshal relation: %w", err)
	}

	row := relationRow{
		ID:   id,
		LHS:  r.LHS.String(),
		Kind: r.RHS.Kind().String(),
		Body: string(body),
	}
	port, target, ok := r.RHS.Destination()
	if ok {
		row.Target = sql.NullString{String: target.String(), Valid: true}
		if port.Kind == ir.KindTreeEntry {
			row.Index = sql.NullInt64{Int64: int64(port.Index), Valid: true}
		}
	} else {
		row.Text = sql.NullString{String: r.RHS.Text(), Valid: true}
	}
	return row, nil
}

// unmarshalRelation rebuilds a relation from its columns.
func unmarshalRelation(row relationRow) (ir.Relation, error) {
	lhs, err := ir.ParseHandle(row.LHS)
	if err != nil {
		return ir.Relation{}, fmt.Errorf("unmarshal relation %s: lhs: %w", row.ID, err)
	}
	kind, err := ir.ParseKind(row.Kind)
	if err != nil {
		return ir.Relation{}, fmt.Errorf("unmarshal relation %s: %w", row.ID, err)
	}

	var target ir.Handle
	if row.Target.Valid {
		target, err = ir.ParseHandle(row.Target.String)
		if err != nil {
			return ir.Relation{}, fmt.Errorf("unmarshal relation %s: target: %w", row.ID, err)
		}
	} else if kind.PointerLike() {
		return ir.Relation{}, fmt.Errorf("unmarshal relation %s: %s without target", row.ID, kind)
	}

	rhs, err := ir.NewRelationKind(kind, target, uint64(row.Index.Int64), row.Text.String)
	if err != nil {
		return ir.Relation{}, fmt.Errorf("unmarshal relation %s: %w", row.ID, err)
	}
	return ir.NewRelation(lhs, rhs), nil
}
