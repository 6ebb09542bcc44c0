package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/roach88/fixgraph/internal/ir"
)

// ReadRelations returns every stored relation in relation order.
//
// Returns an empty slice (not nil) if the cache is empty.
func (s *Store) ReadRelations(ctx context.Context) ([]ir.Relation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, lhs, kind, target, idx, text, body FROM relations`)
	if err != nil {
		return nil, fmt.Errorf("query relations: %w", err)
	}
	defer rows.Close()

	relations := []ir.Relation{}
	for rows.Next() {
		r, err := scanRelation(rows)
		if err != nil {
			return nil, err
		}
		relations = append(relations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relations: %w", err)
	}

	// Hex text order is not relation order for kinds and indices.
	slices.SortFunc(relations, ir.Relation.Compare)
	return relations, nil
}

// CountRelations returns the number of stored relations.
func (s *Store) CountRelations(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM relations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count relations: %w", err)
	}
	return n, nil
}

func scanRelation(row rowScanner) (ir.Relation, error) {
	var rr relationRow
	if err := row.Scan(&rr.ID, &rr.LHS, &rr.Kind, &rr.Target, &rr.Index, &rr.Text, &rr.Body); err != nil {
		return ir.Relation{}, fmt.Errorf("scan relation: %w", err)
	}
	return unmarshalRelation(rr)
}

// ReadLog returns a session's audit log in arrival order.
//
// Returns an empty slice (not nil) if the session has no entries.
func (s *Store) ReadLog(ctx context.Context, sessionID string) ([]ir.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.seq, l.kind, l.command, r.id, r.lhs, r.kind, r.target, r.idx, r.text, r.body
		FROM log_entries l
		LEFT JOIN relations r ON l.relation_id = r.id
		WHERE l.session_id = ?
		ORDER BY l.position ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query log: %w", err)
	}
	defer rows.Close()

	entries := []ir.LogEntry{}
	for rows.Next() {
		e, err := scanLogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return entries, nil
}

func scanLogEntry(row rowScanner) (ir.LogEntry, error) {
	var (
		seq       int64
		kindName  string
		command   sql.NullString
		id        sql.NullString
		lhs, kind sql.NullString
		body      sql.NullString
		rr        relationRow
	)
	if err := row.Scan(&seq, &kindName, &command, &id, &lhs, &kind, &rr.Target, &rr.Index, &rr.Text, &body); err != nil {
		return ir.LogEntry{}, fmt.Errorf("scan log entry: %w", err)
	}

	entryKind, err := ir.ParseEntryKind(kindName)
	if err != nil {
		return ir.LogEntry{}, fmt.Errorf("scan log entry: %w", err)
	}

	switch entryKind {
	case ir.EntryRequestIssued:
		return ir.RequestIssued(seq, command.String), nil
	case ir.EntryResponseDelivered:
		if !id.Valid {
			return ir.LogEntry{}, fmt.Errorf("scan log entry: seq %d: missing relation", seq)
		}
		rr.ID, rr.LHS, rr.Kind, rr.Body = id.String, lhs.String, kind.String, body.String
		r, err := unmarshalRelation(rr)
		if err != nil {
			return ir.LogEntry{}, fmt.Errorf("scan log entry: %w", err)
		}
		return ir.ResponseDelivered(seq, r), nil
	default:
		return ir.LogEntry{}, fmt.Errorf("scan log entry: unknown kind %q", kindName)
	}
}
