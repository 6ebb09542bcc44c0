package ir

import "fmt"

// EntryKind distinguishes audit log entries.
type EntryKind int

const (
	// EntryRequestIssued records that a request was dispatched.
	EntryRequestIssued EntryKind = iota + 1
	// EntryResponseDelivered records one relation produced by a response.
	EntryResponseDelivered
)

// String returns the stable name of the entry kind.
func (k EntryKind) String() string {
	switch k {
	case EntryRequestIssued:
		return "request_issued"
	case EntryResponseDelivered:
		return "response_delivered"
	default:
		return fmt.Sprintf("EntryKind(%d)", int(k))
	}
}

// ParseEntryKind is the inverse of EntryKind.String.
func ParseEntryKind(s string) (EntryKind, error) {
	switch s {
	case "request_issued":
		return EntryRequestIssued, nil
	case "response_delivered":
		return EntryResponseDelivered, nil
	default:
		return 0, fmt.Errorf("unknown log entry kind %q", s)
	}
}

// LogEntry is one line of the audit log. Seq is the sequence number of the
// request that produced it. Command is set for RequestIssued entries,
// Relation for ResponseDelivered entries.
type LogEntry struct {
	Seq      int64
	Kind     EntryKind
	Command  string
	Relation Relation
}

// RequestIssued builds an issuance entry.
func RequestIssued(seq int64, command string) LogEntry {
	return LogEntry{Seq: seq, Kind: EntryRequestIssued, Command: command}
}

// ResponseDelivered builds a delivery entry.
func ResponseDelivered(seq int64, r Relation) LogEntry {
	return LogEntry{Seq: seq, Kind: EntryResponseDelivered, Relation: r}
}

// String renders the entry the way the log view shows it.
func (e LogEntry) String() string {
	switch e.Kind {
	case EntryRequestIssued:
		return fmt.Sprintf("[%d]: %s", e.Seq, e.Command)
	case EntryResponseDelivered:
		return fmt.Sprintf("[%d]: %s", e.Seq, e.Relation)
	default:
		return fmt.Sprintf("[%d]: %s", e.Seq, e.Kind)
	}
}
