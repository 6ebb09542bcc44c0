// Package config loads client settings from a YAML file, validated against
// an embedded CUE schema, with an environment override for the server.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/fixgraph/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

// Defaults.
const (
	DefaultBaseURL      = "http://127.0.0.1:9090"
	DefaultTimeout      = 30 * time.Second
	DefaultDatabase     = "fixgraph.db"
	DefaultTickInterval = 16 * time.Millisecond
	DefaultRoot         = "1000000000000000000000000000000000000000000000000000000000000024"
)

// EnvServer overrides Server.BaseURL when set.
const EnvServer = "FIXGRAPH_SERVER"

// Config is the client configuration.
type Config struct {
	Server       ServerConfig  `yaml:"server"`
	Database     string        `yaml:"database"`
	TickInterval time.Duration `yaml:"tick_interval"`
	DefaultRoot  string        `yaml:"default_root"`
}

// ServerConfig locates the remote object API.
type ServerConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ErrorCode categorizes config failures.
type ErrorCode string

const (
	// ErrCodeRead indicates the file could not be read.
	ErrCodeRead ErrorCode = "READ_FAILED"
	// ErrCodeSyntax indicates the file is not valid YAML.
	ErrCodeSyntax ErrorCode = "INVALID_YAML"
	// ErrCodeSchema indicates the document violates the schema.
	ErrCodeSchema ErrorCode = "SCHEMA_VIOLATION"
)

// Error reports a config file that could not be loaded.
type Error struct {
	Code  ErrorCode
	Path  string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Path, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsConfigError returns true if err wraps a *Error.
func IsConfigError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultTimeout,
		},
		Database:     DefaultDatabase,
		TickInterval: DefaultTickInterval,
		DefaultRoot:  DefaultRoot,
	}
}

// Load reads path and overlays it on the defaults. An empty path returns
// the defaults. The environment is not consulted; see ApplyEnv.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &Error{Code: ErrCodeRead, Path: path, Cause: err}
	}
	if err := Parse(data, &cfg); err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return Config{}, err
	}
	return cfg, nil
}

// Parse validates a YAML document against the schema and decodes it into
// cfg. Fields absent from the document keep their current values.
func Parse(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return &Error{Code: ErrCodeSyntax, Path: "<input>", Cause: err}
	}
	if err := validateSchema(raw); err != nil {
		return &Error{Code: ErrCodeSchema, Path: "<input>", Cause: err}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return &Error{Code: ErrCodeSyntax, Path: "<input>", Cause: err}
	}
	return nil
}

// validateSchema unifies the raw document with #Config. Unknown keys fail
// because definitions are closed.
func validateSchema(raw map[string]any) error {
	if raw == nil {
		return nil
	}
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	doc := ctx.Encode(raw)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	return def.Unify(doc).Validate(cue.Concrete(true))
}

// ApplyEnv overrides settings from the environment via lookup (os.LookupEnv
// in production).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvServer); ok && strings.TrimSpace(v) != "" {
		c.Server.BaseURL = strings.TrimSpace(v)
	}
}

// Root parses DefaultRoot.
func (c Config) Root() (ir.Handle, error) {
	h, err := ir.ParseHandle(c.DefaultRoot)
	if err != nil {
		return ir.Handle{}, fmt.Errorf("default root: %w", err)
	}
	return h, nil
}
