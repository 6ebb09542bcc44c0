package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/fixgraph/internal/protocol"
)

// FetchOptions holds flags for the fetch command.
type FetchOptions struct {
	*RootOptions
	Wait     string
	Continue string
}

// FetchResult is the JSON payload of the fetch command.
type FetchResult struct {
	SessionID       string          `json:"session_id"`
	Log             []string        `json:"log"`
	Failures        []FailureResult `json:"failures"`
	Outstanding     []int64         `json:"outstanding"`
	CachedRelations int             `json:"cached_relations"`
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FetchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fetch <command>...",
		Short: "Issue requests and cache their relations",
		Long: `Issue one request per command text, concurrently, and wait for every
outcome. Relations are merged into the local cache and every log entry is
recorded in a new session, or appended to an existing one with --continue.
A continued session numbers its requests after the last one it logged.

Command text:
  explanations <handle>
  contents <handle>
  description <handle>
  relations <handle> eval|apply

Exit codes:
  0 - All requests succeeded
  1 - A request failed or the wait deadline passed
  2 - Command error (invalid command text, database not openable, etc.)

Examples:
  fixgraph fetch "contents 1000...0024"
  fixgraph fetch "relations <hex> apply" "description <hex>" --wait 5s
  fixgraph fetch --continue 0190c6e4-... "description <hex>"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Wait, "wait", DefaultWait.String(), "how long to wait for outcomes")
	cmd.Flags().StringVar(&opts.Continue, "continue", "", "append to this existing session instead of starting one")

	return cmd
}

func runFetch(opts *FetchOptions, args []string, cmd *cobra.Command) error {
	ctx := contextOrBackground(cmd.Context())
	f := opts.formatter(cmd)

	wait, err := parseWait(opts.Wait)
	if err != nil {
		return commandFailure(f, ExitCommandError, "invalid --wait", err)
	}

	// Every command must parse before anything is issued.
	reqs := make([]protocol.Request, 0, len(args))
	for _, text := range args {
		req, err := protocol.ParseCommand(text)
		if err != nil {
			return commandFailure(f, ExitCommandError, fmt.Sprintf("invalid command %q", text), err)
		}
		reqs = append(reqs, req)
	}

	cfg, err := opts.Config()
	if err != nil {
		return commandFailure(f, ExitCommandError, "failed to load config", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		return commandFailure(f, ExitCommandError, "failed to open database", err)
	}
	defer closeStore(st)

	run, err := executeRequests(ctx, cfg, st, sessionTarget{Generator: opts.sessionGenerator(), ContinueID: opts.Continue}, reqs, wait)
	if err != nil {
		return commandFailure(f, ExitCommandError, "fetch failed", err)
	}

	result := FetchResult{
		SessionID:       run.Session.ID,
		Log:             run.logLines(),
		Failures:        run.failures(),
		Outstanding:     run.Engine.Outstanding(),
		CachedRelations: run.Engine.Graph().Len(),
	}
	if err := f.Emit(run.Session.ID, result, func(w io.Writer) { outputFetchText(w, result) }); err != nil {
		return err
	}
	return run.exitError()
}

func outputFetchText(w io.Writer, result FetchResult) {
	for _, line := range result.Log {
		fmt.Fprintln(w, line)
	}
	for _, failure := range result.Failures {
		fmt.Fprintf(w, "error [%d] %s: %s\n", failure.Seq, failure.Command, failure.Error)
	}
	if len(result.Outstanding) > 0 {
		fmt.Fprintf(w, "still waiting on %v\n", result.Outstanding)
	}
	fmt.Fprintf(w, "session %s: %d relation(s) cached\n", result.SessionID, result.CachedRelations)
}
