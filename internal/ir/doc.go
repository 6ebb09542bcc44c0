// Package ir provides the foundational value types for fixgraph.
//
// This package contains the identifier and edge types every other package
// speaks in. All other internal packages import ir; ir imports nothing
// internal.
//
// Key design constraints:
//   - Handle is a fixed 32-byte value type, comparable and usable as a map key
//   - RelationKind is a closed union; every switch over Kind is exhaustive
//     and panics on an unknown tag
//   - Relation ordering is total: (lhs, kind, payload)
//   - Sequence numbers (seq) are logical, never wall-clock timestamps
package ir
