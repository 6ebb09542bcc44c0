package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fixgraph/internal/ir"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	root, err := cfg.Root()
	require.NoError(t, err)
	assert.Equal(t, ir.MustParseHandle(DefaultRoot), root)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  base_url: http://fixpoint.internal:8080
tick_interval: 5ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://fixpoint.internal:8080", cfg.Server.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.Server.Timeout, "unset fields keep defaults")
	assert.Equal(t, 5*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, DefaultDatabase, cfg.Database)
}

func TestLoad_FullDocument(t *testing.T) {
	root := "00000000000000000000000000000000000000000000000000000000000000ab"
	path := writeConfig(t, `
server:
  base_url: 10.0.0.1:9090
  timeout: 1m30s
database: /var/lib/fixgraph/cache.db
tick_interval: 100ms
default_root: `+root+`
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Server:       ServerConfig{BaseURL: "10.0.0.1:9090", Timeout: 90 * time.Second},
		Database:     "/var/lib/fixgraph/cache.db",
		TickInterval: 100 * time.Millisecond,
		DefaultRoot:  root,
	}, cfg)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code ErrorCode
	}{
		{"not yaml", "server: [unclosed", ErrCodeSyntax},
		{"unknown key", "colour: blue\n", ErrCodeSchema},
		{"unknown nested key", "server:\n  port: 9090\n", ErrCodeSchema},
		{"bad duration", "tick_interval: soon\n", ErrCodeSchema},
		{"numeric duration", "server:\n  timeout: 30\n", ErrCodeSchema},
		{"short root", "default_root: abc\n", ErrCodeSchema},
		{"empty database", "database: \"\"\n", ErrCodeSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.body)
			_, err := Load(path)
			require.Error(t, err)
			require.True(t, IsConfigError(err))

			var ce *Error
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.code, ce.Code)
			assert.Equal(t, path, ce.Path)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeRead, ce.Code)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{EnvServer: " http://override:1 "}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	cfg.ApplyEnv(lookup)
	assert.Equal(t, "http://override:1", cfg.Server.BaseURL)

	env[EnvServer] = "   "
	cfg = Default()
	cfg.ApplyEnv(lookup)
	assert.Equal(t, DefaultBaseURL, cfg.Server.BaseURL, "blank values are ignored")
}

func TestApplyEnv_OSLookup(t *testing.T) {
	t.Setenv(EnvServer, "http://from-env:9")
	cfg := Default()
	cfg.ApplyEnv(os.LookupEnv)
	assert.Equal(t, "http://from-env:9", cfg.Server.BaseURL)
}
