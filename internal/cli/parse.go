package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/fixgraph/internal/protocol"
)

// ParseResult is the JSON payload of the parse command.
type ParseResult struct {
	Command string `json:"command"`
	Verb    string `json:"verb"`
	Handle  string `json:"handle"`
	Op      string `json:"op,omitempty"`
	Path    string `json:"path"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <command text>",
		Short: "Validate a command text and show its endpoint",
		Long: `Parse a command text without issuing it and print the endpoint path it
maps to. Words may be passed as separate arguments or as one quoted string.

Examples:
  fixgraph parse contents 1000...0024
  fixgraph parse "relations <hex> apply" --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(rootOpts, strings.Join(args, " "), cmd)
		},
	}
	return cmd
}

func runParse(opts *RootOptions, text string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	req, err := protocol.ParseCommand(text)
	if err != nil {
		return commandFailure(f, ExitCommandError, fmt.Sprintf("invalid command %q", text), err)
	}

	result := ParseResult{
		Command: req.CommandText(),
		Verb:    req.Verb.String(),
		Handle:  req.Handle.String(),
		Path:    req.EndpointPath(),
	}
	if req.Verb == protocol.VerbRelations {
		result.Op = req.Op.Name()
	}

	return f.Emit("", result, func(w io.Writer) {
		fmt.Fprintln(w, result.Path)
	})
}

// parseWait parses a --wait value.
func parseWait(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("wait must be positive, got %s", s)
	}
	return d, nil
}
