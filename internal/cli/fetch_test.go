package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fixgraph/internal/ir"
	"github.com/roach88/fixgraph/internal/store"
	"github.com/roach88/fixgraph/internal/testutil"
)

func TestFetch_Contents(t *testing.T) {
	env := newCLIEnv(t)
	env.remote.Tree(testutil.Handle(1), testutil.Handle(2), testutil.Handle(3))

	out, err := execute(NewFetchCommand(env.opts("text", "s-1")), "contents "+testutil.Hex(1))
	require.NoError(t, err)

	want := strings.Join([]string{
		"[0]: contents " + testutil.Hex(1),
		"[0]: " + testutil.Hex(1) + " has entry " + testutil.Hex(2) + " at index [0]",
		"[0]: " + testutil.Hex(1) + " has entry " + testutil.Hex(3) + " at index [1]",
		"session s-1: 2 relation(s) cached",
	}, "\n") + "\n"
	assert.Equal(t, want, out)

	st := env.openStore()
	n, err := st.CountRelations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err := st.ReadLog(context.Background(), "s-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, ir.EntryRequestIssued, entries[0].Kind)
}

func TestFetch_Concurrent(t *testing.T) {
	env := newCLIEnv(t)
	env.remote.
		Tree(testutil.Handle(1), testutil.Handle(2)).
		Describe(testutil.Handle(2), "hello")

	out, err := execute(NewFetchCommand(env.opts("text", "s-1")),
		"contents "+testutil.Hex(1),
		"description "+testutil.Hex(2),
	)
	require.NoError(t, err)

	assert.Contains(t, out, "[0]: contents "+testutil.Hex(1))
	assert.Contains(t, out, "[1]: description "+testutil.Hex(2))
	assert.Contains(t, out, "[1]: "+testutil.Hex(2)+" hello")
	assert.Contains(t, out, "session s-1: 2 relation(s) cached")
	assert.Len(t, env.remote.Hits(), 2)
}

func TestFetch_InvalidCommandIssuesNothing(t *testing.T) {
	env := newCLIEnv(t)

	_, err := execute(NewFetchCommand(env.opts("text", "s-1")),
		"contents "+testutil.Hex(1),
		"contents nothex",
	)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Empty(t, env.remote.Hits())

	sessions, err := env.openStore().ListSessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestFetch_RequestFailure(t *testing.T) {
	env := newCLIEnv(t)

	out, err := execute(NewFetchCommand(env.opts("text", "s-1")), "description "+testutil.Hex(9))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "[0]: description "+testutil.Hex(9))
	assert.Contains(t, out, "error [0] description "+testutil.Hex(9)+":")
	assert.Contains(t, out, "session s-1: 0 relation(s) cached")
}

func TestFetch_JSON(t *testing.T) {
	env := newCLIEnv(t)
	env.remote.Relate(testutil.Handle(4), ir.OpEval, testutil.Handle(5))
	env.remote.Status("/description?handle="+testutil.Hex(6), http.StatusInternalServerError)

	out, err := execute(NewFetchCommand(env.opts("json", "s-1")),
		"relations "+testutil.Hex(4)+" eval",
		"description "+testutil.Hex(6),
	)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result FetchResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "s-1", resp.SessionID)
	assert.Equal(t, "s-1", result.SessionID)
	assert.Equal(t, 1, result.CachedRelations)
	assert.Empty(t, result.Outstanding)
	assert.Len(t, result.Log, 3)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, int64(1), result.Failures[0].Seq)
	assert.Equal(t, "HTTP_500", result.Failures[0].Code)
}

func TestFetch_WaitDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	env := newCLIEnv(t)
	opts := env.opts("json", "s-1")
	opts.Server = srv.URL

	out, err := execute(NewFetchCommand(opts), "--wait", "20ms", "contents "+testutil.Hex(1))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "timed out")

	var result FetchResult
	decodeResponse(t, out, &result)
	assert.Equal(t, []int64{0}, result.Outstanding)
	assert.Equal(t, []string{"[0]: contents " + testutil.Hex(1)}, result.Log)
}

func TestFetch_InvalidWait(t *testing.T) {
	env := newCLIEnv(t)
	_, err := execute(NewFetchCommand(env.opts("text", "s-1")), "--wait", "-1s", "contents "+testutil.Hex(1))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFetch_CacheAccumulatesAcrossSessions(t *testing.T) {
	env := newCLIEnv(t)
	env.remote.
		Tree(testutil.Handle(1), testutil.Handle(2)).
		Describe(testutil.Handle(2), "leaf")

	out, err := execute(NewFetchCommand(env.opts("text", "s-1")), "contents "+testutil.Hex(1))
	require.NoError(t, err)
	assert.Contains(t, out, "session s-1: 1 relation(s) cached")

	out, err = execute(NewFetchCommand(env.opts("text", "s-2")), "description "+testutil.Hex(2))
	require.NoError(t, err)
	assert.Contains(t, out, "session s-2: 2 relation(s) cached")

	sessions, err := env.openStore().ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s-1", sessions[0].ID)
	assert.Equal(t, "s-2", sessions[1].ID)
}

func TestFetch_ContinueSession(t *testing.T) {
	env := newCLIEnv(t)
	env.remote.
		Tree(testutil.Handle(1), testutil.Handle(2)).
		Describe(testutil.Handle(2), "leaf").
		Describe(testutil.Handle(3), "other")

	_, err := execute(NewFetchCommand(env.opts("text", "s-1")),
		"contents "+testutil.Hex(1),
		"description "+testutil.Hex(2),
	)
	require.NoError(t, err)

	out, err := execute(NewFetchCommand(env.opts("text")), "--continue", "s-1", "description "+testutil.Hex(3))
	require.NoError(t, err)
	assert.Contains(t, out, "[2]: description "+testutil.Hex(3))
	assert.Contains(t, out, "[2]: "+testutil.Hex(3)+" other")
	assert.Contains(t, out, "session s-1: 3 relation(s) cached")

	st := env.openStore()
	sessions, err := st.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	next, err := st.NextSeq(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), next)
}

func TestFetch_ContinueUnknownSession(t *testing.T) {
	env := newCLIEnv(t)

	_, err := execute(NewFetchCommand(env.opts("text")), "--continue", "nope", "contents "+testutil.Hex(1))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
	assert.Empty(t, env.remote.Hits(), "nothing is issued into a missing session")
}
