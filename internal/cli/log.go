package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/fixgraph/internal/store"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	SessionID string // optional - defaults to the latest session
}

// LogResult is the JSON payload of the log command.
type LogResult struct {
	SessionID string   `json:"session_id"`
	BaseURL   string   `json:"base_url"`
	Entries   []string `json:"entries"`
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Print a session's audit log",
		Long: `Print a persisted audit log in arrival order, one entry per line:

  [seq]: <command>           a request was issued
  [seq]: <lhs> <relation>    a response delivered a relation

Without --session the most recent session is shown.

Examples:
  fixgraph log
  fixgraph log --session 0190c6e4-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SessionID, "session", "", "session to show (default: latest)")

	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	ctx := contextOrBackground(cmd.Context())
	f := opts.formatter(cmd)

	cfg, err := opts.Config()
	if err != nil {
		return commandFailure(f, ExitCommandError, "failed to load config", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		return commandFailure(f, ExitCommandError, "failed to open database", err)
	}
	defer closeStore(st)

	info, err := selectSession(ctx, st, opts.SessionID)
	if errors.Is(err, store.ErrSessionNotFound) && opts.SessionID == "" {
		return f.Emit("", LogResult{Entries: []string{}}, func(w io.Writer) {
			fmt.Fprintln(w, "No sessions found in database.")
		})
	}
	if err != nil {
		return commandFailure(f, ExitCommandError, "failed to find session", err)
	}

	entries, err := st.ReadLog(ctx, info.ID)
	if err != nil {
		return commandFailure(f, ExitCommandError, "failed to read log", err)
	}

	result := LogResult{
		SessionID: info.ID,
		BaseURL:   info.BaseURL,
		Entries:   entryLines(entries),
	}
	return f.Emit(info.ID, result, func(w io.Writer) {
		fmt.Fprintf(w, "session %s (%s)\n", info.ID, info.BaseURL)
		for _, line := range result.Entries {
			fmt.Fprintln(w, line)
		}
	})
}

// selectSession returns the named session, or the latest one when id is
// empty. Both cases report store.ErrSessionNotFound when nothing matches.
func selectSession(ctx context.Context, st *store.Store, id string) (store.SessionInfo, error) {
	if id != "" {
		return st.ReadSession(ctx, id)
	}
	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return store.SessionInfo{}, err
	}
	if len(sessions) == 0 {
		return store.SessionInfo{}, store.ErrSessionNotFound
	}
	return sessions[len(sessions)-1], nil
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
