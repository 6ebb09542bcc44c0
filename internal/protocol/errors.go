package protocol

import (
	"errors"
	"fmt"

	"github.com/roach88/fixgraph/internal/ir"
)

// CommandErrorCode categorizes command text parse failures.
type CommandErrorCode string

const (
	// ErrCodeMissingArgument indicates a required word is absent.
	ErrCodeMissingArgument CommandErrorCode = "MISSING_ARGUMENT"

	// ErrCodeInvalidHandle indicates the handle word does not parse.
	ErrCodeInvalidHandle CommandErrorCode = "INVALID_HANDLE"

	// ErrCodeInvalidVerb indicates an unknown verb.
	ErrCodeInvalidVerb CommandErrorCode = "INVALID_VERB"

	// ErrCodeInvalidOperation indicates the operation word does not parse.
	ErrCodeInvalidOperation CommandErrorCode = "INVALID_OPERATION"

	// ErrCodeUnexpectedArgument indicates trailing words after a complete command.
	ErrCodeUnexpectedArgument CommandErrorCode = "UNEXPECTED_ARGUMENT"
)

// CommandError reports malformed command text. Position is the 0-based index
// of the offending word (0 is the verb).
type CommandError struct {
	Code     CommandErrorCode
	Position int
	Text     string
	Cause    error
}

func (e *CommandError) Error() string {
	switch e.Code {
	case ErrCodeMissingArgument:
		return fmt.Sprintf("%s: missing argument at position %d", e.Code, e.Position)
	case ErrCodeInvalidHandle:
		return fmt.Sprintf("%s: invalid handle at position %d: %v", e.Code, e.Position, e.Cause)
	case ErrCodeInvalidVerb:
		return fmt.Sprintf("%s: unknown verb %q", e.Code, e.Text)
	case ErrCodeInvalidOperation:
		return fmt.Sprintf("%s: invalid operation %q", e.Code, e.Text)
	default:
		return fmt.Sprintf("%s: unexpected argument %q at position %d", e.Code, e.Text, e.Position)
	}
}

func (e *CommandError) Unwrap() error {
	return e.Cause
}

// DecodeErrorCode categorizes response decoding failures.
type DecodeErrorCode string

const (
	// ErrCodeMalformedBody indicates the body does not have the expected shape.
	ErrCodeMalformedBody DecodeErrorCode = "MALFORMED_BODY"

	// ErrCodeBadHandle indicates a handle field is not 64 hex characters.
	ErrCodeBadHandle DecodeErrorCode = "INVALID_HANDLE"

	// ErrCodeBadOperation indicates an op field is not a valid decimal code.
	ErrCodeBadOperation DecodeErrorCode = "INVALID_OPERATION"

	// ErrCodeOperationMismatch indicates the remote answered a different op
	// than the one requested.
	ErrCodeOperationMismatch DecodeErrorCode = "OPERATION_MISMATCH"
)

// DecodeError reports a response that does not match the protocol.
type DecodeError struct {
	Code  DecodeErrorCode
	Field string
	Cause error

	// Requested and Returned are set for ErrCodeOperationMismatch.
	Requested ir.Operation
	Returned  ir.Operation
}

func (e *DecodeError) Error() string {
	switch {
	case e.Code == ErrCodeOperationMismatch:
		return fmt.Sprintf("%s: requested %s, got %s", e.Code, e.Requested, e.Returned)
	case e.Cause != nil && e.Field != "":
		return fmt.Sprintf("%s: field %q: %v", e.Code, e.Field, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	default:
		return fmt.Sprintf("%s: field %q", e.Code, e.Field)
	}
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// IsCommandError returns true if err wraps a *CommandError.
func IsCommandError(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce)
}

// IsDecodeError returns true if err wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// IsOperationMismatch returns true if err is a DecodeError for a mismatched op.
// Uses errors.As to handle wrapped errors.
func IsOperationMismatch(err error) bool {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Code == ErrCodeOperationMismatch
	}
	return false
}
