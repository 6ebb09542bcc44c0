package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fixgraph/internal/testutil"
)

func TestReplay_Matches(t *testing.T) {
	env := newCLIEnv(t)
	env.remote.
		Tree(testutil.Handle(1), testutil.Handle(2)).
		Describe(testutil.Handle(2), "leaf")

	_, err := execute(NewFetchCommand(env.opts("text", "s-1")),
		"contents "+testutil.Hex(1),
		"description "+testutil.Hex(2),
	)
	require.NoError(t, err)

	out, err := execute(NewReplayCommand(env.opts("text", "s-2")), "--session", "s-1")
	require.NoError(t, err)
	assert.Equal(t, "replayed 2 command(s) from s-1 as s-2\nrelations match\n", out)
}

func TestReplay_Diverges(t *testing.T) {
	env := newCLIEnv(t)
	env.remote.Describe(testutil.Handle(2), "before")

	_, err := execute(NewFetchCommand(env.opts("text", "s-1")), "description "+testutil.Hex(2))
	require.NoError(t, err)

	env.remote.Describe(testutil.Handle(2), "after")

	out, err := execute(NewReplayCommand(env.opts("json", "s-2")), "--session", "s-1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result ReplayResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "s-2", resp.SessionID)
	assert.False(t, result.Matches)
	assert.Equal(t, []string{testutil.Hex(2) + " before"}, result.Missing)
	assert.Equal(t, []string{testutil.Hex(2) + " after"}, result.Added)
	assert.Empty(t, result.Failures)
}

func TestReplay_FailedRequest(t *testing.T) {
	env := newCLIEnv(t)
	env.remote.Describe(testutil.Handle(2), "leaf")

	_, err := execute(NewFetchCommand(env.opts("text", "s-1")),
		"description "+testutil.Hex(2),
		"description "+testutil.Hex(3),
	)
	require.Error(t, err)

	out, err := execute(NewReplayCommand(env.opts("text", "s-2")), "--session", "s-1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "error [")
	assert.Contains(t, out, "relations match")
}

func TestReplay_UnknownSession(t *testing.T) {
	env := newCLIEnv(t)

	_, err := execute(NewReplayCommand(env.opts("text", "s-2")), "--session", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplay_RequiresSession(t *testing.T) {
	env := newCLIEnv(t)

	_, err := execute(NewReplayCommand(env.opts("text")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}
