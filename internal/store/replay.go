package store

import (
	"context"
	"fmt"

	"github.com/roach88/fixgraph/internal/graph"
	"github.com/roach88/fixgraph/internal/ir"
)

// LoadGraph rebuilds the in-memory cache from every stored relation.
func (s *Store) LoadGraph(ctx context.Context) (*graph.Storage, error) {
	relations, err := s.ReadRelations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	g := graph.New()
	g.InsertAll(relations)
	return g, nil
}

// SessionState is a session's log replayed into a fresh cache.
type SessionState struct {
	Info    SessionInfo
	Entries []ir.LogEntry
	Graph   *graph.Storage

	// Commands are the issued command texts in arrival order.
	Commands []string
}

// ReplaySession rebuilds one session's cache from its log alone, merging
// entries in arrival order exactly as the consumer did.
func (s *Store) ReplaySession(ctx context.Context, sessionID string) (SessionState, error) {
	info, err := s.ReadSession(ctx, sessionID)
	if err != nil {
		return SessionState{}, fmt.Errorf("replay session: %w", err)
	}
	entries, err := s.ReadLog(ctx, sessionID)
	if err != nil {
		return SessionState{}, fmt.Errorf("replay session: %w", err)
	}

	state := SessionState{
		Info:     info,
		Entries:  entries,
		Graph:    graph.New(),
		Commands: []string{},
	}
	for _, e := range entries {
		switch e.Kind {
		case ir.EntryRequestIssued:
			state.Commands = append(state.Commands, e.Command)
		case ir.EntryResponseDelivered:
			state.Graph.Insert(e.Relation)
		}
	}
	return state, nil
}

// NextSeq returns one past the highest seq logged by sessionID, or 0.
func (s *Store) NextSeq(ctx context.Context, sessionID string) (int64, error) {
	var next int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq) + 1, 0)
		FROM log_entries
		WHERE session_id = ?
	`, sessionID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return next, nil
}
