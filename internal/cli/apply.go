package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/gavel/internal/harness"
	"github.com/roach88/gavel/internal/ir"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Database string
}

// Script is a block script: the blocks part of a scenario.
type Script struct {
	Blocks []harness.BlockStep `yaml:"blocks"`
}

// BlockSummary reports one applied block.
type BlockSummary struct {
	Number    int64         `json:"number"`
	StateRoot string        `json:"state_root"`
	Sweep     ir.SweepStats `json:"sweep"`
	Events    int           `json:"events"`
	Calls     []CallSummary `json:"calls"`
}

// CallSummary reports one call of a block.
type CallSummary struct {
	Index   int    `json:"index"`
	Origin  string `json:"origin"`
	Kind    string `json:"kind"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`

	// Expected is set when the script's expectation was not met.
	Expected string `json:"expected,omitempty"`
}

// ApplyResult is the output of apply.
type ApplyResult struct {
	Blocks     []BlockSummary `json:"blocks"`
	Head       int64          `json:"head"`
	StateRoot  string         `json:"state_root"`
	Unexpected int            `json:"unexpected"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <script.yaml>",
		Short: "Apply a YAML block script to a chain database",
		Long: `Apply the blocks of a YAML script to the chain stored in a database.

The database is created from --config when it does not exist. Otherwise the
chain is rebuilt from its stored blocks and the script continues it. A block
without a number follows the current head.

Script format:
  blocks:
    - calls:
        - { origin: owner, kind: list, args: { collection: 1, item: 1 } }
    - number: 120
      calls:
        - { origin: alice, kind: bid, args: { collection: 1, item: 1, amount: 40 }, expect: Ok }

Exit codes:
  0 - All blocks applied and every expect matched
  1 - A call's outcome differed from its expect
  2 - Command error (bad script, database error, etc.)

Examples:
  gavel apply --db ./chain.db --config chain.cue blocks.yaml
  gavel apply --db ./chain.db more.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	return cmd
}

// LoadScript reads a block script. Unknown fields are rejected.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(s.Blocks) == 0 {
		return nil, fmt.Errorf("script has no blocks")
	}
	return &s, nil
}

func runApply(opts *ApplyOptions, scriptPath string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	logger := opts.logger(cmd.ErrOrStderr())

	script, err := LoadScript(scriptPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load script", err)
	}

	c, st, _, err := openChain(ctx, opts.Database, opts.RootOptions, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	result := ApplyResult{Blocks: make([]BlockSummary, 0, len(script.Blocks))}
	for i, step := range script.Blocks {
		number := step.Number
		if number == 0 {
			number = c.Head() + 1
		}
		calls := make([]ir.Call, len(step.Calls))
		for j, cs := range step.Calls {
			args, err := ir.ObjectFromMap(cs.Args)
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("blocks[%d].calls[%d]: bad args", i, j), err)
			}
			calls[j] = ir.Call{Origin: cs.Origin, Kind: cs.Kind, Args: args}
		}

		block, err := c.ApplyBlock(ctx, number, calls)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to apply blocks[%d]", i), err)
		}

		summary := summarize(block)
		for j, cs := range step.Calls {
			if cs.Expect != "" && cs.Expect != block.Receipts[j].Outcome {
				summary.Calls[j].Expected = cs.Expect
				result.Unexpected++
			}
		}
		result.Blocks = append(result.Blocks, summary)
	}
	result.Head = c.Head()
	result.StateRoot = c.StateRoot()

	p := opts.printer(cmd)
	text := func(w io.Writer) { writeApplyText(w, result) }
	if result.Unexpected > 0 {
		return p.Fail(ExitFailure, "E_UNEXPECTED_OUTCOME",
			fmt.Sprintf("%d call(s) did not match their expect", result.Unexpected), result, text)
	}
	return p.OK(result, text)
}

func summarize(b ir.Block) BlockSummary {
	s := BlockSummary{
		Number:    b.Number,
		StateRoot: b.StateRoot,
		Sweep:     b.Sweep,
		Events:    len(b.Events),
		Calls:     make([]CallSummary, len(b.Calls)),
	}
	for i, call := range b.Calls {
		s.Calls[i] = CallSummary{
			Index:   call.Index,
			Origin:  call.Origin,
			Kind:    call.Kind,
			Outcome: b.Receipts[i].Outcome,
			Error:   b.Receipts[i].Error,
		}
	}
	return s
}

func writeApplyText(w io.Writer, r ApplyResult) {
	for _, b := range r.Blocks {
		fmt.Fprintf(w, "block %d: %d call(s), %d event(s), sweep %d resolved %d failed %d deferred\n",
			b.Number, len(b.Calls), b.Events, b.Sweep.Resolved, b.Sweep.Failed, b.Sweep.Deferred)
		for _, c := range b.Calls {
			mark := "✓"
			if c.Expected != "" {
				mark = "✗"
			}
			fmt.Fprintf(w, "  %s [%d] %s by %s: %s", mark, c.Index, c.Kind, c.Origin, c.Outcome)
			if c.Expected != "" {
				fmt.Fprintf(w, " (expected %s)", c.Expected)
			}
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintf(w, "\nHead: %d\nState root: %s\n", r.Head, r.StateRoot)
}
