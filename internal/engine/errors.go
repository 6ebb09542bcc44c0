package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/fixgraph/internal/protocol"
)

// TransportError reports a failed network exchange: the request could not be
// sent, the connection failed, or the remote answered with a non-2xx status.
//
// A transport error ends its request with one failure batch; it never affects
// the cache or other requests.
type TransportError struct {
	// Path is the endpoint path that was requested.
	Path string

	// StatusCode is the HTTP status, or 0 if no response was received.
	StatusCode int

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("request failed: %s: status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("request failed: %s: %v", e.Path, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// IsTransportError returns true if the error is a transport failure.
// Uses errors.As to handle wrapped errors.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// ErrorCode returns a stable code for a request failure: the protocol error
// code, HTTP_<status> for a non-2xx answer, TRANSPORT for any other network
// failure. Unrecognized errors report ERROR.
func ErrorCode(err error) string {
	var (
		ce *protocol.CommandError
		de *protocol.DecodeError
		te *TransportError
	)
	switch {
	case errors.As(err, &ce):
		return string(ce.Code)
	case errors.As(err, &de):
		return string(de.Code)
	case errors.As(err, &te):
		if te.StatusCode != 0 {
			return fmt.Sprintf("HTTP_%d", te.StatusCode)
		}
		return "TRANSPORT"
	default:
		return "ERROR"
	}
}
