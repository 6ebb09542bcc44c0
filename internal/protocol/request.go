package protocol

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/roach88/fixgraph/internal/ir"
)

// Verb tags a Request variant.
type Verb int

const (
	VerbExplanations Verb = iota
	VerbContents
	VerbDescription
	VerbRelations
)

var verbNames = [...]string{
	VerbExplanations: "explanations",
	VerbContents:     "contents",
	VerbDescription:  "description",
	VerbRelations:    "relations",
}

// String returns the command text word for the verb.
func (v Verb) String() string {
	if v >= 0 && int(v) < len(verbNames) {
		return verbNames[v]
	}
	return "Verb(" + strconv.Itoa(int(v)) + ")"
}

// ParseVerb is the inverse of Verb.String.
func ParseVerb(s string) (Verb, bool) {
	for v, name := range verbNames {
		if name == s {
			return Verb(v), true
		}
	}
	return 0, false
}

// Request is a stateless fetch request. Op is meaningful only for
// VerbRelations.
type Request struct {
	Verb   Verb
	Handle ir.Handle
	Op     ir.Operation
}

// Explanations asks which (op, lhs) pairs are known to produce h.
func Explanations(h ir.Handle) Request { return Request{Verb: VerbExplanations, Handle: h} }

// Contents asks for the ordered children of the tree h.
func Contents(h ir.Handle) Request { return Request{Verb: VerbContents, Handle: h} }

// Description asks for the display text of h.
func Description(h ir.Handle) Request { return Request{Verb: VerbDescription, Handle: h} }

// Relations asks for the result of op applied to h.
func Relations(h ir.Handle, op ir.Operation) Request {
	return Request{Verb: VerbRelations, Handle: h, Op: op}
}

// CommandText renders the canonical one-line form, e.g.
//
//	relations 1000…0024 eval
func (r Request) CommandText() string {
	switch r.Verb {
	case VerbExplanations, VerbContents, VerbDescription:
		return r.Verb.String() + " " + r.Handle.String()
	case VerbRelations:
		return r.Verb.String() + " " + r.Handle.String() + " " + strings.ToLower(r.Op.Name())
	default:
		panic(fmt.Sprintf("protocol: unknown verb %d", int(r.Verb)))
	}
}

// String implements fmt.Stringer.
func (r Request) String() string {
	return r.CommandText()
}

// ParseCommand parses the one-line command form. Words are separated by
// whitespace. The operation word of "relations" accepts a name (eval, apply)
// or a numeric code.
func ParseCommand(text string) (Request, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return Request{}, &CommandError{Code: ErrCodeMissingArgument, Position: 0}
	}

	verb, ok := ParseVerb(strings.ToLower(words[0]))
	if !ok {
		return Request{}, &CommandError{Code: ErrCodeInvalidVerb, Position: 0, Text: words[0]}
	}

	if len(words) < 2 {
		return Request{}, &CommandError{Code: ErrCodeMissingArgument, Position: 1}
	}
	h, err := ir.ParseHandle(words[1])
	if err != nil {
		return Request{}, &CommandError{Code: ErrCodeInvalidHandle, Position: 1, Text: words[1], Cause: err}
	}

	next := 2
	req := Request{Verb: verb, Handle: h}
	if verb == VerbRelations {
		if len(words) < 3 {
			return Request{}, &CommandError{Code: ErrCodeMissingArgument, Position: 2}
		}
		op, err := ir.ParseOperationName(words[2])
		if err != nil {
			return Request{}, &CommandError{Code: ErrCodeInvalidOperation, Position: 2, Text: words[2], Cause: err}
		}
		req.Op = op
		next = 3
	}

	if len(words) > next {
		return Request{}, &CommandError{Code: ErrCodeUnexpectedArgument, Position: next, Text: words[next]}
	}
	return req, nil
}

// EndpointPath maps the request to the remote query path.
func (r Request) EndpointPath() string {
	q := url.Values{}
	q.Set("handle", r.Handle.String())

	switch r.Verb {
	case VerbExplanations:
		return "/explanations?" + q.Encode()
	case VerbContents:
		return "/tree_contents?" + q.Encode()
	case VerbDescription:
		return "/description?" + q.Encode()
	case VerbRelations:
		q.Set("op", strconv.Itoa(int(r.Op.Code())))
		return "/relation?" + q.Encode()
	default:
		panic(fmt.Sprintf("protocol: unknown verb %d", int(r.Verb)))
	}
}
