package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/fixgraph/internal/engine"
	"github.com/roach88/fixgraph/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the log to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Log      []string // Full log for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull log:\n")
	for _, line := range e.Log {
		fmt.Fprintf(&buf, "  %s\n", line)
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion of scenario against a run and
// returns one message per failed assertion.
func EvaluateAssertions(scenario *Scenario, result *Result, eng *engine.Engine) []string {
	var errs []string
	for i, a := range scenario.Assertions {
		if err := evaluateAssertion(scenario, result, eng, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %s", i, err))
		}
	}
	return errs
}

func evaluateAssertion(s *Scenario, result *Result, eng *engine.Engine, a Assertion) error {
	switch a.Type {
	case AssertRelation:
		return assertRelation(s, result, eng, a)
	case AssertFailure:
		return assertFailure(s, result, a)
	case AssertReachable:
		return assertReachable(s, result, eng, a)
	case AssertCacheSize:
		if n := eng.Graph().Len(); n != a.Count {
			return &AssertionError{
				Type:     AssertCacheSize,
				Expected: fmt.Sprintf("%d relation(s)", a.Count),
				Actual:   fmt.Sprintf("%d relation(s)", n),
				Log:      result.Log,
			}
		}
		return nil
	case AssertLogCount:
		if n := len(result.Log); n != a.Count {
			return &AssertionError{
				Type:     AssertLogCount,
				Expected: fmt.Sprintf("%d entries", a.Count),
				Actual:   fmt.Sprintf("%d entries", n),
				Log:      result.Log,
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertRelation checks the cache for presence, or absence, of a relation.
func assertRelation(s *Scenario, result *Result, eng *engine.Engine, a Assertion) error {
	r, err := s.relation(a)
	if err != nil {
		return err
	}
	present := eng.Graph().Contains(r)
	if present != a.Absent {
		return nil
	}

	expected, actual := "present: "+r.String(), "not in cache"
	if a.Absent {
		expected, actual = "absent: "+r.String(), "found in cache"
	}
	return &AssertionError{Type: AssertRelation, Expected: expected, Actual: actual, Log: result.Log}
}

// assertFailure checks that the command's request failed with the code.
func assertFailure(s *Scenario, result *Result, a Assertion) error {
	req, err := s.request(a.Command)
	if err != nil {
		return err
	}
	command := req.CommandText()

	var codes []string
	for _, f := range result.Failures {
		if f.Command != command {
			continue
		}
		if a.Code == "" || f.Code == a.Code {
			return nil
		}
		codes = append(codes, f.Code)
	}

	actual := "no failure for command"
	if len(codes) > 0 {
		actual = "failed with " + strings.Join(codes, ", ")
	}
	return &AssertionError{
		Type:     AssertFailure,
		Expected: fmt.Sprintf("%s fails with %s", command, a.Code),
		Actual:   actual,
		Log:      result.Log,
	}
}

// assertReachable compares the reachable set from the root with a.Handles,
// ignoring order.
func assertReachable(s *Scenario, result *Result, eng *engine.Engine, a Assertion) error {
	root, err := s.handle(s.Root)
	if err != nil {
		return err
	}
	want := make([]string, 0, len(a.Handles))
	for _, w := range a.Handles {
		h, err := s.handle(w)
		if err != nil {
			return err
		}
		want = append(want, h.String())
	}
	got := handleStrings(eng.Graph().Reachable(root))

	sort.Strings(want)
	sort.Strings(got)
	if strings.Join(want, ",") == strings.Join(got, ",") {
		return nil
	}
	return &AssertionError{
		Type:     AssertReachable,
		Expected: fmt.Sprintf("%v", s.aliases(want)),
		Actual:   fmt.Sprintf("%v", s.aliases(got)),
		Log:      result.Log,
	}
}

func handleStrings(hs []ir.Handle) []string {
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.String())
	}
	return out
}

// aliases maps hex handles back to their scenario alias, for messages.
func (s *Scenario) aliases(hexes []string) []string {
	names := make(map[string]string, len(s.Handles))
	for alias, hex := range s.Handles {
		names[strings.ToLower(hex)] = alias
	}
	out := make([]string, 0, len(hexes))
	for _, h := range hexes {
		if alias, ok := names[h]; ok {
			out = append(out, alias)
		} else {
			out = append(out, h)
		}
	}
	return out
}
