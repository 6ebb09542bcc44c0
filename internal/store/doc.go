// Package store provides SQLite-backed durable storage for the relation
// cache and per-session audit logs.
//
// The store holds:
//   - Sessions: one row per client run (base URL, root, versions)
//   - Relations: the merged cache, shared across sessions
//   - Log entries: each session's audit log in arrival order
//
// # Critical Patterns
//
// Content-addressed relations:
//   - relations.id is ir.RelationID, the hash of the canonical encoding
//   - INSERT ... ON CONFLICT(id) DO NOTHING makes merges idempotent, the
//     same way the in-memory cache ignores duplicates
//
// Arrival order:
//   - log_entries.position is the arrival index within a session
//   - All log queries ORDER BY position ASC; seq is stored but never used
//     for ordering
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
