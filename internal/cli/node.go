package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/gavel/internal/chain"
	"github.com/roach88/gavel/internal/ir"
)

// NodeOptions holds flags for the node command.
type NodeOptions struct {
	*RootOptions
	Database string
	Interval time.Duration

	// Input overrides stdin (for testing).
	Input io.Reader
}

// NodeResult is printed when the node stops.
type NodeResult struct {
	Submitted int    `json:"submitted"`
	Rejected  int    `json:"rejected"`
	Head      int64  `json:"head"`
	StateRoot string `json:"state_root"`
}

// NewNodeCommand creates the node command.
func NewNodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "node",
		Short: "Produce blocks from calls read on stdin",
		Long: `Run a block producer that reads calls as JSON lines on stdin.

Each line is one call:
  {"origin":"alice","kind":"bid","args":{"collection":1,"item":1,"amount":40}}

A block is produced every interval, with or without calls, so the timeout
sweep runs on schedule. At end of input the queued calls are flushed into
final blocks and the node exits. Ctrl-C stops immediately.

Examples:
  gavel node --db ./chain.db --config chain.toml < calls.jsonl
  gavel node --db ./chain.db --interval 200ms`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNode(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "block interval (default from config)")

	return cmd
}

func runNode(opts *NodeOptions, cmd *cobra.Command) error {
	logger := opts.logger(cmd.ErrOrStderr())

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	c, st, cfg, err := openChain(ctx, opts.Database, opts.RootOptions, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("error closing database", "error", err)
		}
	}()

	interval := opts.Interval
	if interval <= 0 {
		interval = cfg.BlockInterval()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	input := opts.Input
	if input == nil {
		input = cmd.InOrStdin()
	}
	type readOutcome struct {
		counts NodeResult
		err    error
	}
	readDone := make(chan readOutcome, 1)
	go func() {
		var counts NodeResult
		err := readCalls(input, c, &counts, logger)
		c.Stop()
		readDone <- readOutcome{counts: counts, err: err}
	}()

	var result NodeResult
	runErr := c.Run(ctx, interval)
	switch {
	case errors.Is(runErr, context.Canceled):
		// The reader may still be blocked on stdin; its counts are lost.
		logger.Info("node interrupted", "head", c.Head())
	case runErr != nil:
		return WrapExitError(ExitFailure, "block production failed", runErr)
	default:
		out := <-readDone
		if out.err != nil {
			return WrapExitError(ExitCommandError, "failed to read calls", out.err)
		}
		result = out.counts
	}

	result.Head = c.Head()
	result.StateRoot = c.StateRoot()
	return opts.printer(cmd).OK(result, func(w io.Writer) {
		fmt.Fprintf(w, "Submitted: %d (rejected %d)\nHead: %d\nState root: %s\n",
			result.Submitted, result.Rejected, result.Head, result.StateRoot)
	})
}

// readCalls submits one call per non-empty line until EOF. Lines that are
// not valid calls are logged and skipped.
func readCalls(r io.Reader, c *chain.Chain, result *NodeResult, logger *slog.Logger) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		call, err := parseCall([]byte(text))
		if err != nil {
			result.Rejected++
			logger.Warn("skipping call", "line", line, "error", err)
			continue
		}
		if !c.Submit(call) {
			return nil
		}
		result.Submitted++
	}
	return scanner.Err()
}

type callLine struct {
	Origin string      `json:"origin"`
	Kind   string      `json:"kind"`
	Args   ir.IRObject `json:"args"`
}

func parseCall(data []byte) (ir.Call, error) {
	var cl callLine
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cl); err != nil {
		return ir.Call{}, err
	}
	if cl.Origin == "" || cl.Kind == "" {
		return ir.Call{}, errors.New("origin and kind are required")
	}
	return ir.Call{Origin: cl.Origin, Kind: cl.Kind, Args: cl.Args}, nil
}
