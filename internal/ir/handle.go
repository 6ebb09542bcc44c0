package ir

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
)

// HandleLength is the size of a Handle in bytes.
const HandleLength = 32

// HandleHexLength is the length of a Handle's canonical text form.
const HandleHexLength = 2 * HandleLength

// Handle is a content-addressed identifier for a remote object.
//
// Handles are ordered by byte value. The canonical text form is 64 lowercase
// hex characters.
type Handle [HandleLength]byte

// ParseErrorCode categorizes handle parse failures.
type ParseErrorCode string

const (
	// ErrCodeWrongLength indicates the input is not 64 characters long.
	ErrCodeWrongLength ParseErrorCode = "WRONG_LENGTH"

	// ErrCodeNonHexCharacter indicates a 64-character input with a non-hex character.
	ErrCodeNonHexCharacter ParseErrorCode = "NON_HEX_CHARACTER"
)

// ParseError reports a malformed handle text.
type ParseError struct {
	Code  ParseErrorCode
	Input string
}

func (e *ParseError) Error() string {
	switch e.Code {
	case ErrCodeWrongLength:
		return fmt.Sprintf("%s: handle must be %d hex characters, got %d", e.Code, HandleHexLength, len(e.Input))
	default:
		return fmt.Sprintf("%s: handle %q contains non-hex characters", e.Code, e.Input)
	}
}

// IsParseError returns true if err wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// ParseHandle parses a 64 character hex string. Upper and lower case digits
// are both accepted.
func ParseHandle(s string) (Handle, error) {
	var h Handle
	if len(s) != HandleHexLength {
		return h, &ParseError{Code: ErrCodeWrongLength, Input: s}
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return Handle{}, &ParseError{Code: ErrCodeNonHexCharacter, Input: s}
	}
	return h, nil
}

// MustParseHandle is like ParseHandle but panics on error.
// Use only in tests or for compile-time constants.
func MustParseHandle(s string) Handle {
	h, err := ParseHandle(s)
	if err != nil {
		panic(err)
	}
	return h
}

// String renders the canonical lowercase hex form.
func (h Handle) String() string {
	return hex.EncodeToString(h[:])
}

// Short renders the first eight hex characters, for log lines.
func (h Handle) Short() string {
	return h.String()[:8]
}

// Compare orders handles by byte value.
func (h Handle) Compare(o Handle) int {
	return bytes.Compare(h[:], o[:])
}

// MarshalText implements encoding.TextMarshaler.
func (h Handle) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Handle) UnmarshalText(text []byte) error {
	parsed, err := ParseHandle(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
