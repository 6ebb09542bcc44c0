package testutil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fixgraph/internal/ir"
	"github.com/roach88/fixgraph/internal/protocol"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestRemote_ServesDecodableBodies(t *testing.T) {
	remote := NewRemote().
		Tree(Handle(1), Handle(2), Handle(3)).
		Describe(Handle(2), "a blob").
		Relate(Handle(3), ir.OpApply, Handle(4)).
		Explain(Handle(4), Explanation{Op: ir.OpEval, LHS: Handle(5), RHS: Handle(4)})
	srv := remote.Start(t)

	tests := []struct {
		req  protocol.Request
		want []ir.Relation
	}{
		{protocol.Contents(Handle(1)), []ir.Relation{
			ir.NewRelation(Handle(1), ir.TreeEntry(Handle(2), 0)),
			ir.NewRelation(Handle(1), ir.TreeEntry(Handle(3), 1)),
		}},
		{protocol.Description(Handle(2)), []ir.Relation{
			ir.NewRelation(Handle(2), ir.Description("a blob")),
		}},
		{protocol.Relations(Handle(3), ir.OpApply), []ir.Relation{
			ir.NewRelation(Handle(3), ir.Apply(Handle(4))),
		}},
		{protocol.Explanations(Handle(4)), []ir.Relation{
			ir.NewRelation(Handle(5), ir.Eval(Handle(4))),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.req.CommandText(), func(t *testing.T) {
			code, body := get(t, srv.URL+tt.req.EndpointPath())
			require.Equal(t, http.StatusOK, code, body)

			rels, err := tt.req.Decode([]byte(body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, rels)
		})
	}
}

func TestRemote_EmptyListsAreEmptyStrings(t *testing.T) {
	srv := NewRemote().Tree(Handle(1)).Start(t)

	code, body := get(t, srv.URL+protocol.Contents(Handle(1)).EndpointPath())
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"handles": ""}`, body)
}

func TestRemote_UnknownHandleIsNotFound(t *testing.T) {
	srv := NewRemote().Start(t)

	code, _ := get(t, srv.URL+protocol.Description(Handle(9)).EndpointPath())
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRemote_StatusAndRawOverrides(t *testing.T) {
	path := protocol.Description(Handle(1)).EndpointPath()
	srv := NewRemote().Status(path, http.StatusServiceUnavailable).Start(t)

	code, _ := get(t, srv.URL+path)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	path2 := protocol.Description(Handle(2)).EndpointPath()
	remote := NewRemote().Raw(path2, `not json`)
	srv2 := remote.Start(t)
	code, body := get(t, srv2.URL+path2)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "not json", body)
	assert.Equal(t, []string{path2}, remote.Hits())
}

func TestStubFetcher(t *testing.T) {
	f := NewStubFetcher().
		Respond("/a", "body-a").
		Fail("/b", errors.New("boom"))

	body, err := f.Fetch(context.Background(), "/a")
	require.NoError(t, err)
	assert.Equal(t, "body-a", string(body))

	_, err = f.Fetch(context.Background(), "/b")
	assert.EqualError(t, err, "boom")

	_, err = f.Fetch(context.Background(), "/c")
	assert.Error(t, err)

	assert.Equal(t, []string{"/a", "/b", "/c"}, f.Calls())
}

func TestStubFetcher_Gate(t *testing.T) {
	f := NewStubFetcher().Respond("/slow", "done").Gate("/slow")

	result := make(chan string, 1)
	go func() {
		body, _ := f.Fetch(context.Background(), "/slow")
		result <- string(body)
	}()

	select {
	case <-result:
		t.Fatal("gated fetch returned before release")
	case <-time.After(20 * time.Millisecond):
	}

	f.Release("/slow")
	select {
	case got := <-result:
		assert.Equal(t, "done", got)
	case <-time.After(time.Second):
		t.Fatal("gated fetch did not return after release")
	}
}

func TestFixedSessionGenerator(t *testing.T) {
	assert.Equal(t, "s-1", NewFixedSessionGenerator("s-1").Generate())
	assert.Equal(t, "test-session-default", NewFixedSessionGenerator("").Generate())
}
