package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/gavel/internal/chain"
	"github.com/roach88/gavel/internal/config"
	"github.com/roach88/gavel/internal/ir"
	"github.com/roach88/gavel/internal/store"
)

// Option configures a run.
type Option func(*runner)

// WithLogger sets the logger handed to the chain. Runs are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(r *runner) {
		r.logger = l
	}
}

type runner struct {
	logger *slog.Logger
}

// Run executes a scenario against a fresh chain backed by an in-memory
// SQLite store.
//
// Failed expectations and assertions are reported in the Result. An error
// is returned only when the scenario cannot be executed at all: a bad
// config, args that are not valid IR, or a block the chain refuses.
//
// After the last block the stored log is replayed on a second chain. A
// divergence fails the scenario.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	r := &runner{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(r)
	}

	cfg, err := config.FromMap(scenario.Config)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	genesis := cfg.ChainGenesis()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	encoded, err := genesis.Encode()
	if err != nil {
		return nil, err
	}
	if err := st.WriteMeta(ctx, store.MetaGenesis, encoded); err != nil {
		return nil, err
	}

	c, err := chain.New(genesis, chain.WithStore(st), chain.WithLogger(r.logger))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	for i, step := range scenario.Blocks {
		number := step.Number
		if number == 0 {
			number = c.Head() + 1
		}
		calls := make([]ir.Call, len(step.Calls))
		for j, cs := range step.Calls {
			args, err := ir.ObjectFromMap(cs.Args)
			if err != nil {
				return nil, fmt.Errorf("blocks[%d].calls[%d]: args: %w", i, j, err)
			}
			calls[j] = ir.Call{Origin: cs.Origin, Kind: cs.Kind, Args: args}
		}

		block, err := c.ApplyBlock(ctx, number, calls)
		if err != nil {
			return nil, fmt.Errorf("blocks[%d]: %w", i, err)
		}
		result.Trace = append(result.Trace, traceBlock(block)...)

		for j, cs := range step.Calls {
			if cs.Expect == "" {
				continue
			}
			if got := block.Receipts[j]; got.Outcome != cs.Expect {
				result.AddError(fmt.Sprintf("block %d call %d (%s by %s): expected outcome %s, got %s (%s)",
					number, j, cs.Kind, cs.Origin, cs.Expect, got.Outcome, got.Error))
			}
		}
		r.logger.Debug("scenario block applied", "scenario", scenario.Name, "block", number)
	}

	result.Head = c.Head()
	result.StateRoot = c.StateRoot()
	result.State = c.Snapshot()

	if err := verifyReplay(ctx, st, genesis, result, r.logger); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// verifyReplay re-executes the stored log and records every divergence.
func verifyReplay(ctx context.Context, st *store.Store, genesis chain.Genesis, result *Result, logger *slog.Logger) error {
	blocks, err := st.ReadBlocks(ctx)
	if err != nil {
		return fmt.Errorf("read stored blocks: %w", err)
	}
	replayed, err := chain.Replay(ctx, genesis, blocks, chain.WithLogger(logger))
	if err != nil {
		return err
	}
	for _, m := range replayed.Mismatches {
		result.AddError("replay: " + m.String())
	}
	if replayed.StateRoot != result.StateRoot {
		result.AddError(fmt.Sprintf("replay: final state root %s, want %s", replayed.StateRoot, result.StateRoot))
	}
	return nil
}

// traceBlock flattens a block into trace entries: sweep events first, then
// each call followed by its events.
func traceBlock(b ir.Block) []TraceEntry {
	var out []TraceEntry
	next := 0
	emit := func(callID string) {
		for next < len(b.Events) && b.Events[next].CallID == callID {
			ev := b.Events[next]
			out = append(out, TraceEntry{
				Type:    TraceEvent,
				Block:   ev.Block,
				Index:   ev.Index,
				Kind:    ev.Kind,
				Payload: ev.Payload,
			})
			next++
		}
	}

	emit("")
	for i, call := range b.Calls {
		out = append(out, TraceEntry{
			Type:    TraceCall,
			Block:   call.Block,
			Index:   call.Index,
			Origin:  call.Origin,
			Kind:    call.Kind,
			Args:    call.Args,
			Outcome: b.Receipts[i].Outcome,
		})
		emit(call.ID)
	}
	return out
}
