package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/fixgraph/internal/ir"
)

// Response is a decoded response body.
type Response struct {
	Relations []ir.Relation

	// Candidates are the pin/tag handles an explanations response lists.
	// They are validated but not yet resolved into relations.
	Candidates []ir.Handle
}

// emptyableList decodes either a JSON array or the empty string, which the
// remote emits in place of an empty array. Both forms yield zero or more
// elements; any other string is rejected.
type emptyableList[T any] []T

func (l *emptyableList[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		if s != "" {
			return fmt.Errorf("expected array or empty string, got %q", s)
		}
		*l = nil
		return nil
	}
	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

// wireRelation is one explanation triple. All fields are text.
type wireRelation struct {
	Op  *string `json:"op"`
	LHS *string `json:"lhs"`
	RHS *string `json:"rhs"`
}

type explanationsBody struct {
	Target    *string                      `json:"target"`
	Relations *emptyableList[wireRelation] `json:"relations"`
	Handles   *emptyableList[string]       `json:"handles"`
}

type contentsBody struct {
	Handles *emptyableList[string] `json:"handles"`
}

type descriptionBody struct {
	Description *string `json:"description"`
}

type relationBody struct {
	Op  *string `json:"op"`
	RHS *string `json:"rhs"`
}

// Decode turns a response body into relations.
func (r Request) Decode(body []byte) ([]ir.Relation, error) {
	resp, err := r.DecodeResponse(body)
	if err != nil {
		return nil, err
	}
	return resp.Relations, nil
}

// DecodeResponse decodes a response body according to the request variant.
func (r Request) DecodeResponse(body []byte) (*Response, error) {
	switch r.Verb {
	case VerbExplanations:
		return decodeExplanations(body)
	case VerbContents:
		return decodeContents(r.Handle, body)
	case VerbDescription:
		return decodeDescription(r.Handle, body)
	case VerbRelations:
		return decodeRelation(r.Handle, r.Op, body)
	default:
		panic(fmt.Sprintf("protocol: unknown verb %d", int(r.Verb)))
	}
}

func decodeExplanations(body []byte) (*Response, error) {
	var msg explanationsBody
	if err := unmarshalBody(body, &msg); err != nil {
		return nil, err
	}
	if msg.Target == nil {
		return nil, missingField("target")
	}
	if _, err := parseHandle("target", *msg.Target); err != nil {
		return nil, err
	}
	if msg.Relations == nil {
		return nil, missingField("relations")
	}
	if msg.Handles == nil {
		return nil, missingField("handles")
	}

	resp := &Response{}
	for i, wr := range *msg.Relations {
		field := fmt.Sprintf("relations[%d]", i)
		if wr.Op == nil || wr.LHS == nil || wr.RHS == nil {
			return nil, missingField(field)
		}
		op, err := parseOp(field+".op", *wr.Op)
		if err != nil {
			return nil, err
		}
		lhs, err := parseHandle(field+".lhs", *wr.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := parseHandle(field+".rhs", *wr.RHS)
		if err != nil {
			return nil, err
		}
		resp.Relations = append(resp.Relations, ir.NewRelation(lhs, ir.OperationKind(op, rhs)))
	}

	for i, s := range *msg.Handles {
		h, err := parseHandle(fmt.Sprintf("handles[%d]", i), s)
		if err != nil {
			return nil, err
		}
		resp.Candidates = append(resp.Candidates, h)
	}
	return resp, nil
}

func decodeContents(tree ir.Handle, body []byte) (*Response, error) {
	var msg contentsBody
	if err := unmarshalBody(body, &msg); err != nil {
		return nil, err
	}
	if msg.Handles == nil {
		return nil, missingField("handles")
	}

	resp := &Response{}
	for i, s := range *msg.Handles {
		child, err := parseHandle(fmt.Sprintf("handles[%d]", i), s)
		if err != nil {
			return nil, err
		}
		resp.Relations = append(resp.Relations, ir.NewRelation(tree, ir.TreeEntry(child, uint64(i))))
	}
	return resp, nil
}

func decodeDescription(h ir.Handle, body []byte) (*Response, error) {
	var msg descriptionBody
	if err := unmarshalBody(body, &msg); err != nil {
		return nil, err
	}
	if msg.Description == nil {
		return nil, missingField("description")
	}
	return &Response{
		Relations: []ir.Relation{ir.NewRelation(h, ir.Description(*msg.Description))},
	}, nil
}

func decodeRelation(h ir.Handle, requested ir.Operation, body []byte) (*Response, error) {
	var msg relationBody
	if err := unmarshalBody(body, &msg); err != nil {
		return nil, err
	}
	if msg.Op == nil {
		return nil, missingField("op")
	}
	if msg.RHS == nil {
		return nil, missingField("rhs")
	}

	returned, err := parseOp("op", *msg.Op)
	if err != nil {
		return nil, err
	}
	if returned != requested {
		return nil, &DecodeError{Code: ErrCodeOperationMismatch, Field: "op", Requested: requested, Returned: returned}
	}
	rhs, err := parseHandle("rhs", *msg.RHS)
	if err != nil {
		return nil, err
	}
	return &Response{
		Relations: []ir.Relation{ir.NewRelation(h, ir.OperationKind(requested, rhs))},
	}, nil
}

func unmarshalBody(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		var field string
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field = typeErr.Field
		}
		return &DecodeError{Code: ErrCodeMalformedBody, Field: field, Cause: err}
	}
	return nil
}

func missingField(field string) error {
	return &DecodeError{Code: ErrCodeMalformedBody, Field: field, Cause: errors.New("missing field")}
}

func parseHandle(field, s string) (ir.Handle, error) {
	h, err := ir.ParseHandle(s)
	if err != nil {
		return ir.Handle{}, &DecodeError{Code: ErrCodeBadHandle, Field: field, Cause: err}
	}
	return h, nil
}

func parseOp(field, s string) (ir.Operation, error) {
	op, err := ir.ParseOperationCode(s)
	if err != nil {
		return 0, &DecodeError{Code: ErrCodeBadOperation, Field: field, Cause: err}
	}
	return op, nil
}
