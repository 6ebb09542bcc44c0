package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fixgraph/internal/ir"
)

// TraverseResult is the JSON payload of the traverse command.
type TraverseResult struct {
	Root      string   `json:"root"`
	Relations []string `json:"relations"`
	Reachable []string `json:"reachable"`
}

// NewTraverseCommand creates the traverse command.
func NewTraverseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "traverse [root]",
		Short: "Walk the cached graph breadth-first from a root",
		Long: `Load the relation cache from the database and print every relation
visited by a breadth-first walk from root, indented by depth. Forward
relations of a node come before backward ones, each in relation order.

Without a root argument the configured default root is used.

Examples:
  fixgraph traverse
  fixgraph traverse 1000...0024 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraverse(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runTraverse(opts *RootOptions, args []string, cmd *cobra.Command) error {
	ctx := contextOrBackground(cmd.Context())
	f := opts.formatter(cmd)

	cfg, err := opts.Config()
	if err != nil {
		return commandFailure(f, ExitCommandError, "failed to load config", err)
	}

	var root ir.Handle
	if len(args) == 1 {
		root, err = ir.ParseHandle(args[0])
	} else {
		root, err = cfg.Root()
	}
	if err != nil {
		return commandFailure(f, ExitCommandError, "invalid root", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		return commandFailure(f, ExitCommandError, "failed to open database", err)
	}
	defer closeStore(st)

	cache, err := st.LoadGraph(ctx)
	if err != nil {
		return commandFailure(f, ExitCommandError, "failed to load cache", err)
	}

	if opts.Format != "json" {
		return cache.Render(cmd.OutOrStdout(), root)
	}

	result := TraverseResult{
		Root:      root.String(),
		Relations: []string{},
		Reachable: []string{},
	}
	cache.TraverseBFS(root, func(r ir.Relation) {
		result.Relations = append(result.Relations, r.String())
	})
	for _, h := range cache.Reachable(root) {
		result.Reachable = append(result.Reachable, h.String())
	}
	if err := f.Success(result); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}
