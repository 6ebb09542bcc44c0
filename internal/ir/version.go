package ir

// Version constants for the persisted schema and the client.
const (
	// EncodingVersion is the canonical relation encoding version.
	EncodingVersion = "1"

	// ClientVersion is the fixgraph client version.
	ClientVersion = "0.1.0"
)
