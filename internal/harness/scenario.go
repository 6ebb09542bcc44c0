package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fixgraph/internal/ir"
	"github.com/roach88/fixgraph/internal/protocol"
)

// Scenario defines an end-to-end run against a fixture remote.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Session is the fixed session ID. If empty, defaults to
	// "test-session-default" for deterministic golden output.
	Session string `yaml:"session,omitempty"`

	// Root is the traversal root for reachable assertions and golden output.
	Root string `yaml:"root"`

	// Handles maps aliases to 64 character hex handles.
	Handles map[string]string `yaml:"handles,omitempty"`

	// Remote is what the fixture remote answers.
	Remote RemoteFixture `yaml:"remote"`

	// Steps are issued in order; commands within a step concurrently.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final cache, log and failures.
	Assertions []Assertion `yaml:"assertions"`

	// Timeout bounds the wait for each step, e.g. "5s". Defaults to
	// DefaultStepTimeout.
	Timeout string `yaml:"timeout,omitempty"`
}

// RemoteFixture lists the fixture remote's knowledge.
type RemoteFixture struct {
	Trees        []TreeFixture        `yaml:"trees,omitempty"`
	Descriptions []DescriptionFixture `yaml:"descriptions,omitempty"`
	Relations    []RelationFixture    `yaml:"relations,omitempty"`
	Explanations []ExplanationFixture `yaml:"explanations,omitempty"`
	Candidates   []CandidatesFixture  `yaml:"candidates,omitempty"`
	Statuses     []StatusFixture      `yaml:"statuses,omitempty"`
	Raw          []RawFixture         `yaml:"raw,omitempty"`
}

// TreeFixture is a tree and its ordered children.
type TreeFixture struct {
	Handle   string   `yaml:"handle"`
	Children []string `yaml:"children"`
}

// DescriptionFixture is the display text of a handle.
type DescriptionFixture struct {
	Handle string `yaml:"handle"`
	Text   string `yaml:"text"`
}

// RelationFixture is the answer to "relations handle op".
type RelationFixture struct {
	Handle string `yaml:"handle"`
	Op     string `yaml:"op"`
	RHS    string `yaml:"rhs"`
}

// ExplanationFixture is one (op, lhs, rhs) triple known to produce target.
type ExplanationFixture struct {
	Target string `yaml:"target"`
	Op     string `yaml:"op"`
	LHS    string `yaml:"lhs"`
	RHS    string `yaml:"rhs"`
}

// CandidatesFixture lists candidate handles for target.
type CandidatesFixture struct {
	Target  string   `yaml:"target"`
	Handles []string `yaml:"handles"`
}

// StatusFixture makes the endpoint of command answer with an HTTP status.
type StatusFixture struct {
	Command string `yaml:"command"`
	Code    int    `yaml:"code"`
}

// RawFixture makes the endpoint of command answer with a literal body.
type RawFixture struct {
	Command string `yaml:"command"`
	Body    string `yaml:"body"`
}

// Step is a group of commands issued together.
type Step struct {
	Commands []string `yaml:"commands"`
}

// Assertion validates the outcome of a run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// LHS, Kind, Target, Index and Text describe a relation (relation).
	LHS    string `yaml:"lhs,omitempty"`
	Kind   string `yaml:"kind,omitempty"`
	Target string `yaml:"target,omitempty"`
	Index  uint64 `yaml:"index,omitempty"`
	Text   string `yaml:"text,omitempty"`

	// Absent inverts a relation assertion.
	Absent bool `yaml:"absent,omitempty"`

	// Command and Code identify a failed request (failure).
	Command string `yaml:"command,omitempty"`
	Code    string `yaml:"code,omitempty"`

	// Handles is the expected reachable set (reachable).
	Handles []string `yaml:"handles,omitempty"`

	// Count is the expected size (cache_size, log_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertRelation  = "relation"
	AssertFailure   = "failure"
	AssertReachable = "reachable"
	AssertCacheSize = "cache_size"
	AssertLogCount  = "log_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and that every
// handle and command resolves.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for alias, hex := range s.Handles {
		if _, err := ir.ParseHandle(hex); err != nil {
			return fmt.Errorf("handles[%s]: %w", alias, err)
		}
	}
	if s.Root != "" {
		if _, err := s.handle(s.Root); err != nil {
			return fmt.Errorf("root: %w", err)
		}
	}

	for i, step := range s.Steps {
		if len(step.Commands) == 0 {
			return fmt.Errorf("steps[%d]: commands list is required and must be non-empty", i)
		}
		for j, text := range step.Commands {
			if _, err := s.request(text); err != nil {
				return fmt.Errorf("steps[%d].commands[%d]: %w", i, j, err)
			}
		}
	}

	if _, err := s.remote(); err != nil {
		return fmt.Errorf("remote: %w", err)
	}

	for i, a := range s.Assertions {
		if err := s.validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func (s *Scenario) validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertRelation:
		if _, err := s.relation(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertFailure:
		if a.Command == "" {
			return fmt.Errorf("assertions[%d]: command is required for failure", index)
		}
		if _, err := s.request(a.Command); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertReachable:
		if s.Root == "" {
			return fmt.Errorf("assertions[%d]: root is required for reachable", index)
		}
		for _, word := range a.Handles {
			if _, err := s.handle(word); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertCacheSize, AssertLogCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// handle resolves an alias or hex word.
func (s *Scenario) handle(word string) (ir.Handle, error) {
	if hex, ok := s.Handles[word]; ok {
		word = hex
	}
	return ir.ParseHandle(word)
}

// expand replaces alias words of a command text with their hex form.
func (s *Scenario) expand(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		if hex, ok := s.Handles[w]; ok {
			words[i] = hex
		}
	}
	return strings.Join(words, " ")
}

// request parses a command text after alias expansion.
func (s *Scenario) request(text string) (protocol.Request, error) {
	return protocol.ParseCommand(s.expand(text))
}

// relation builds the relation a relation assertion names.
func (s *Scenario) relation(a Assertion) (ir.Relation, error) {
	lhs, err := s.handle(a.LHS)
	if err != nil {
		return ir.Relation{}, fmt.Errorf("lhs: %w", err)
	}
	kind, err := ir.ParseKind(a.Kind)
	if err != nil {
		return ir.Relation{}, err
	}
	var target ir.Handle
	if kind.PointerLike() {
		if target, err = s.handle(a.Target); err != nil {
			return ir.Relation{}, fmt.Errorf("target: %w", err)
		}
	}
	rhs, err := ir.NewRelationKind(kind, target, a.Index, a.Text)
	if err != nil {
		return ir.Relation{}, err
	}
	return ir.NewRelation(lhs, rhs), nil
}
