package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/fixgraph/internal/ir"
)

// ErrSessionNotFound is returned when a session ID has no row.
var ErrSessionNotFound = errors.New("session not found")

// SessionIDGenerator produces unique session IDs.
type SessionIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session IDs.
//
// UUIDv7 embeds a timestamp in the most significant bits, so listing
// sessions by ID also lists them by start time.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined session IDs for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined ID.
//
// Panics if all IDs have been consumed, which means the test created more
// sessions than it declared.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all session IDs exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// SessionInfo describes one client run.
type SessionInfo struct {
	ID              string
	BaseURL         string
	Root            ir.Handle
	ClientVersion   string
	EncodingVersion string
}

// CreateSession starts a new session with an ID from gen.
func (s *Store) CreateSession(ctx context.Context, gen SessionIDGenerator, baseURL string, root ir.Handle) (SessionInfo, error) {
	info := SessionInfo{
		ID:              gen.Generate(),
		BaseURL:         baseURL,
		Root:            root,
		ClientVersion:   ir.ClientVersion,
		EncodingVersion: ir.EncodingVersion,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, base_url, root, client_version, encoding_version)
		VALUES (?, ?, ?, ?, ?)
	`,
		info.ID,
		info.BaseURL,
		info.Root.String(),
		info.ClientVersion,
		info.EncodingVersion,
	)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("create session: %w", err)
	}
	return info, nil
}

// ReadSession returns a session by ID, or ErrSessionNotFound.
func (s *Store) ReadSession(ctx context.Context, id string) (SessionInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, base_url, root, client_version, encoding_version
		FROM sessions
		WHERE id = ?
	`, id)

	info, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionInfo{}, fmt.Errorf("read session %q: %w", id, ErrSessionNotFound)
	}
	return info, err
}

// ListSessions returns every session in creation order.
//
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, base_url, root, client_version, encoding_version
		FROM sessions
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionInfo{}
	for rows.Next() {
		info, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (SessionInfo, error) {
	var info SessionInfo
	var root string
	if err := row.Scan(&info.ID, &info.BaseURL, &root, &info.ClientVersion, &info.EncodingVersion); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SessionInfo{}, err
		}
		return SessionInfo{}, fmt.Errorf("scan session: %w", err)
	}
	h, err := ir.ParseHandle(root)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("scan session %q: root: %w", info.ID, err)
	}
	info.Root = h
	return info, nil
}
