package cli

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fixgraph/internal/store"
	"github.com/roach88/fixgraph/internal/testutil"
)

func noEnv(string) (string, bool) { return "", false }

// cliEnv is a database path plus a fixture remote.
type cliEnv struct {
	t      *testing.T
	remote *testutil.Remote
	srv    *httptest.Server
	db     string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	remote := testutil.NewRemote()
	return &cliEnv{
		t:      t,
		remote: remote,
		srv:    remote.Start(t),
		db:     filepath.Join(t.TempDir(), "test.db"),
	}
}

// opts returns fresh root options pointing at the env. Session IDs are
// handed out from sessions in order.
func (e *cliEnv) opts(format string, sessions ...string) *RootOptions {
	return &RootOptions{
		Format:           format,
		Database:         e.db,
		Server:           e.srv.URL,
		LookupEnv:        noEnv,
		SessionGenerator: store.NewFixedGenerator(sessions...),
	}
}

// openStore opens the env's database for assertions.
func (e *cliEnv) openStore() *store.Store {
	e.t.Helper()
	st, err := store.Open(e.db)
	require.NoError(e.t, err)
	e.t.Cleanup(func() { st.Close() })
	return st
}

// execute runs cmd with args and returns stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// decodeResponse parses a JSON CLIResponse and re-decodes its data into v.
func decodeResponse(t *testing.T, out string, v any) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	if v != nil && resp.Data != nil {
		raw, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, v))
	}
	return resp
}
