package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/roach88/fixgraph/internal/ir"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// WriteRelation inserts a relation into the shared cache.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - a relation already
// stored by any session is silently ignored.
//
// Returns the relation's content-addressed ID and whether a row was added.
func (s *Store) WriteRelation(ctx context.Context, r ir.Relation) (id string, inserted bool, err error) {
	return writeRelation(ctx, s.db, r)
}

func writeRelation(ctx context.Context, db execer, r ir.Relation) (string, bool, error) {
	row, err := marshalRelation(r)
	if err != nil {
		return "", false, fmt.Errorf("write relation: %w", err)
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO relations (id, lhs, kind, target, idx, text, body)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		row.ID,
		row.LHS,
		row.Kind,
		row.Target,
		row.Index,
		row.Text,
		row.Body,
	)
	if err != nil {
		return "", false, fmt.Errorf("write relation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("write relation: rows affected: %w", err)
	}
	return row.ID, affected > 0, nil
}

// SessionRecorder appends consumed log entries to one session's log.
//
// Thread-safety: RecordEntries is safe for concurrent use, but positions
// follow call order, so it should be driven by the single consumer.
type SessionRecorder struct {
	store     *Store
	sessionID string

	mu   sync.Mutex
	next int64
}

// Recorder returns a recorder appending to sessionID, continuing after any
// entries the session already has.
func (s *Store) Recorder(ctx context.Context, sessionID string) (*SessionRecorder, error) {
	if _, err := s.ReadSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("recorder: %w", err)
	}

	var next int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(position) + 1, 0)
		FROM log_entries
		WHERE session_id = ?
	`, sessionID).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("recorder: next position: %w", err)
	}

	return &SessionRecorder{store: s, sessionID: sessionID, next: next}, nil
}

// SessionID returns the session the recorder appends to.
func (r *SessionRecorder) SessionID() string {
	return r.sessionID
}

// RecordEntries appends entries atomically: either every entry and its
// relation is stored, or none is.
func (r *SessionRecorder) RecordEntries(ctx context.Context, entries []ir.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record entries: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	position := r.next
	for _, e := range entries {
		var command, relationID sql.NullString
		switch e.Kind {
		case ir.EntryRequestIssued:
			command = sql.NullString{String: e.Command, Valid: true}
		case ir.EntryResponseDelivered:
			id, _, err := writeRelation(ctx, tx, e.Relation)
			if err != nil {
				return fmt.Errorf("record entries: %w", err)
			}
			relationID = sql.NullString{String: id, Valid: true}
		default:
			return fmt.Errorf("record entries: unknown entry kind %d", int(e.Kind))
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO log_entries (session_id, position, seq, kind, command, relation_id)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			r.sessionID,
			position,
			e.Seq,
			e.Kind.String(),
			command,
			relationID,
		)
		if err != nil {
			return fmt.Errorf("record entries: position %d: %w", position, err)
		}
		position++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record entries: commit: %w", err)
	}
	r.next = position
	return nil
}
