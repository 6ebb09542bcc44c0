package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders the deterministic parts of a result: the log grouped by
// seq, the failures and the traversal from the root.
func Snapshot(name string, result *Result) []byte {
	var buf strings.Builder
	fmt.Fprintf(&buf, "scenario: %s\n", name)
	fmt.Fprintf(&buf, "session: %s\n", result.Session)

	buf.WriteString("\nlog:\n")
	for _, line := range result.Log {
		fmt.Fprintf(&buf, "  %s\n", line)
	}

	buf.WriteString("\nfailures:\n")
	for _, f := range result.Failures {
		fmt.Fprintf(&buf, "  [%d] %s: %s\n", f.Seq, f.Command, f.Code)
	}

	if result.Traversal != "" {
		buf.WriteString("\ntraversal:\n")
		buf.WriteString(result.Traversal)
	}
	return []byte(buf.String())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(name, result))
}
