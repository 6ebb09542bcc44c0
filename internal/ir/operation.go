package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Operation selects which relation of a handle the remote computes.
type Operation uint8

const (
	// OpEval asks for the value a handle evaluates into.
	OpEval Operation = 0
	// OpApply asks for the result of applying a handle.
	OpApply Operation = 1
)

// OperationFromCode converts a numeric wire code into an Operation.
func OperationFromCode(code uint64) (Operation, error) {
	switch code {
	case 0:
		return OpEval, nil
	case 1:
		return OpApply, nil
	default:
		return 0, fmt.Errorf("invalid code %d for operation", code)
	}
}

// ParseOperationCode parses the decimal text form used on the wire ("0", "1").
func ParseOperationCode(s string) (Operation, error) {
	code, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("parsing operation code %q: %w", s, err)
	}
	return OperationFromCode(code)
}

// ParseOperationName accepts "eval" or "apply" (any case) or a numeric code.
func ParseOperationName(s string) (Operation, error) {
	switch strings.ToLower(s) {
	case "eval":
		return OpEval, nil
	case "apply":
		return OpApply, nil
	}
	return ParseOperationCode(s)
}

// Code returns the numeric wire code.
func (o Operation) Code() uint8 {
	return uint8(o)
}

// Name returns the display name ("Eval", "Apply").
func (o Operation) Name() string {
	switch o {
	case OpEval:
		return "Eval"
	case OpApply:
		return "Apply"
	default:
		return "Operation(" + strconv.Itoa(int(o)) + ")"
	}
}

// String implements fmt.Stringer.
func (o Operation) String() string {
	return o.Name()
}
