package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/fixgraph/internal/graph"
	"github.com/roach88/fixgraph/internal/ir"
	"github.com/roach88/fixgraph/internal/protocol"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	SessionID string
	Wait      string
}

// ReplayResult is the JSON payload of the replay command.
type ReplayResult struct {
	OriginalSession string          `json:"original_session"`
	SessionID       string          `json:"session_id"`
	Commands        int             `json:"commands"`
	Matches         bool            `json:"matches"`
	Missing         []string        `json:"missing"`
	Added           []string        `json:"added"`
	Failures        []FailureResult `json:"failures"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-issue a session's requests and compare the results",
		Long: `Re-issue every request a session logged, in a new session, and compare
the relations delivered this time with those the original session delivered.

Exit codes:
  0 - The new session delivered exactly the original relations
  1 - Relations differ, a request failed, or the wait deadline passed
  2 - Command error (session not found, database not openable, etc.)

Examples:
  fixgraph replay --session 0190c6e4-...
  fixgraph replay --session 0190c6e4-... --server http://other:9090 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SessionID, "session", "", "session to replay (required)")
	_ = cmd.MarkFlagRequired("session")
	cmd.Flags().StringVar(&opts.Wait, "wait", DefaultWait.String(), "how long to wait for outcomes")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := contextOrBackground(cmd.Context())
	f := opts.formatter(cmd)

	wait, err := parseWait(opts.Wait)
	if err != nil {
		return commandFailure(f, ExitCommandError, "invalid --wait", err)
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

	original, err := st.ReplaySession(ctx, opts.SessionID)
	if err != nil {
		return commandFailure(f, ExitCommandError, "failed to read session", err)
	}

	reqs := make([]protocol.Request, 0, len(original.Commands))
	for _, text := range original.Commands {
		req, err := protocol.ParseCommand(text)
		if err != nil {
			return commandFailure(f, ExitCommandError, fmt.Sprintf("logged command %q does not parse", text), err)
		}
		reqs = append(reqs, req)
	}

	run, err := executeRequests(ctx, cfg, st, sessionTarget{Generator: opts.sessionGenerator()}, reqs, wait)
	if err != nil {
		return commandFailure(f, ExitCommandError, "replay failed", err)
	}

	// Compare what each session delivered, not the shared cache.
	replayed := graph.New()
	for _, e := range run.Engine.Log() {
		if e.Kind == ir.EntryResponseDelivered {
			replayed.Insert(e.Relation)
		}
	}
	missing, added := diffRelations(original.Graph, replayed)

	result := ReplayResult{
		OriginalSession: original.Info.ID,
		SessionID:       run.Session.ID,
		Commands:        len(reqs),
		Matches:         len(missing) == 0 && len(added) == 0,
		Missing:         missing,
		Added:           added,
		Failures:        run.failures(),
	}

	if err := f.Emit(run.Session.ID, result, func(w io.Writer) { outputReplayText(w, result) }); err != nil {
		return err
	}

	if err := run.exitError(); err != nil {
		return err
	}
	if !result.Matches {
		return NewExitError(ExitFailure, fmt.Sprintf("replay diverged: %d missing, %d added", len(missing), len(added)))
	}
	return nil
}

// diffRelations lists relations only in want (missing) and only in got
// (added), each in relation order.
func diffRelations(want, got *graph.Storage) (missing, added []string) {
	missing, added = []string{}, []string{}
	for _, r := range want.Relations() {
		if !got.Contains(r) {
			missing = append(missing, r.String())
		}
	}
	for _, r := range got.Relations() {
		if !want.Contains(r) {
			added = append(added, r.String())
		}
	}
	return missing, added
}

func outputReplayText(w io.Writer, result ReplayResult) {
	fmt.Fprintf(w, "replayed %d command(s) from %s as %s\n", result.Commands, result.OriginalSession, result.SessionID)
	for _, failure := range result.Failures {
		fmt.Fprintf(w, "error [%d] %s: %s\n", failure.Seq, failure.Command, failure.Error)
	}
	for _, r := range result.Missing {
		fmt.Fprintf(w, "- %s\n", r)
	}
	for _, r := range result.Added {
		fmt.Fprintf(w, "+ %s\n", r)
	}
	if result.Matches {
		fmt.Fprintln(w, "relations match")
	} else {
		fmt.Fprintln(w, "relations differ")
	}
}
