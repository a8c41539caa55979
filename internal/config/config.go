package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/BurntSushi/toml"

	"github.com/roach88/gavel/internal/chain"
)

//go:embed schema.cue
var schemaCUE string

// Config is a validated configuration with every default filled in.
type Config struct {
	Auction chain.AuctionParams `json:"auction"`
	Chain   ChainSettings       `json:"chain"`
	Genesis Genesis             `json:"genesis"`
}

// ChainSettings configure block production.
type ChainSettings struct {
	MaxCallsPerBlock int    `json:"max_calls_per_block"`
	BlockIntervalMS  int64  `json:"block_interval_ms"`
	Database         string `json:"database"`
}

// Genesis is the initial chain state.
type Genesis struct {
	Accounts    []chain.Account    `json:"accounts"`
	Collections []chain.Collection `json:"collections"`
}

// ChainGenesis returns the genesis a chain is built from.
func (c Config) ChainGenesis() chain.Genesis {
	return chain.Genesis{
		Auction:          c.Auction,
		MaxCallsPerBlock: c.Chain.MaxCallsPerBlock,
		Accounts:         c.Genesis.Accounts,
		Collections:      c.Genesis.Collections,
	}
}

// BlockInterval returns the block production interval.
func (c Config) BlockInterval() time.Duration {
	return time.Duration(c.Chain.BlockIntervalMS) * time.Millisecond
}

// Error is a config problem, positioned in the source when CUE knows where.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// ValidationError lists every schema violation found.
type ValidationError struct {
	Issues []*Error
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return "invalid config: " + e.Issues[0].Error()
	}
	return fmt.Sprintf("invalid config: %s (and %d more)", e.Issues[0].Error(), len(e.Issues)-1)
}

func issues(err error) error {
	var out []*Error
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if path := e.Path(); len(path) > 0 {
			msg = fmt.Sprintf("%s: %s", strings.Join(path, "."), msg)
		}
		out = append(out, &Error{Message: msg, Pos: e.Position()})
	}
	if len(out) == 0 {
		out = append(out, &Error{Message: err.Error()})
	}
	return &ValidationError{Issues: out}
}

// Default returns the configuration of an empty config file.
func Default() Config {
	cfg, err := FromMap(nil)
	if err != nil {
		panic(fmt.Sprintf("config schema has no valid defaults: %v", err))
	}
	return cfg
}

// Load reads a .cue or .toml file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	switch ext := filepath.Ext(path); ext {
	case ".cue":
		return FromCUE(path, data)
	case ".toml":
		return FromTOML(data)
	default:
		return Config{}, fmt.Errorf("config %s: unsupported extension %q (want .cue or .toml)", path, ext)
	}
}

// FromCUE validates CUE source. filename is used in error positions.
func FromCUE(filename string, data []byte) (Config, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return Config{}, issues(err)
	}
	return decode(ctx, v)
}

// FromTOML validates TOML source.
func FromTOML(data []byte) (Config, error) {
	var m map[string]any
	if _, err := toml.Decode(string(data), &m); err != nil {
		return Config{}, fmt.Errorf("parse toml: %w", err)
	}
	return FromMap(m)
}

// FromMap validates an already decoded document, as produced by the TOML
// and YAML decoders. A nil map yields the defaults.
func FromMap(m map[string]any) (Config, error) {
	if m == nil {
		m = map[string]any{}
	}
	ctx := cuecontext.New()
	v := ctx.Encode(m)
	if err := v.Err(); err != nil {
		return Config{}, issues(err)
	}
	return decode(ctx, v)
}

func decode(ctx *cue.Context, v cue.Value) (Config, error) {
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile schema: %w", err)
	}
	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, issues(err)
	}
	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
