package chain

import (
	"context"
	"fmt"

	"github.com/roach88/gavel/internal/ir"
)

// Mismatch is a difference between a stored block and its re-execution.
type Mismatch struct {
	Block int64  `json:"block"`
	Field string `json:"field"`
	Want  string `json:"want"`
	Got   string `json:"got"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("block %d: %s: stored %s, replayed %s", m.Block, m.Field, m.Want, m.Got)
}

// ReplayResult summarizes a replay.
type ReplayResult struct {
	Blocks     int        `json:"blocks"`
	Head       int64      `json:"head"`
	StateRoot  string     `json:"state_root"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

// OK reports whether every block matched.
func (r ReplayResult) OK() bool {
	return len(r.Mismatches) == 0
}

// Replay re-executes stored blocks against a fresh chain built from the same
// genesis and compares what each block produced. Identity is structural:
// calls carry their block and index, call IDs are derived from content, and
// every iteration in the engine is ordered, so the same inputs yield the same
// state roots.
//
// Blocks are applied in order and every mismatch is reported. Replay never
// writes; opts should not include WithStore.
func Replay(ctx context.Context, g Genesis, blocks []ir.Block, opts ...Option) (ReplayResult, error) {
	c, err := New(g, opts...)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}
	var result ReplayResult
	for _, stored := range blocks {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		calls := make([]ir.Call, len(stored.Calls))
		for i, call := range stored.Calls {
			calls[i] = ir.Call{Origin: call.Origin, Kind: call.Kind, Args: call.Args}
		}
		got, err := c.ApplyBlock(ctx, stored.Number, calls)
		if err != nil {
			return result, fmt.Errorf("replay block %d: %w", stored.Number, err)
		}
		result.Blocks++
		result.Mismatches = append(result.Mismatches, compareBlocks(stored, got)...)
	}
	result.Head = c.Head()
	result.StateRoot = c.StateRoot()
	return result, nil
}

func compareBlocks(want, got ir.Block) []Mismatch {
	var out []Mismatch
	check := func(field, w, g string) {
		if w != g {
			out = append(out, Mismatch{Block: want.Number, Field: field, Want: w, Got: g})
		}
	}
	check("state_root", want.StateRoot, got.StateRoot)
	check("events_hash", want.EventsHash, got.EventsHash)
	check("call_ids", fmt.Sprint(callIDs(want)), fmt.Sprint(callIDs(got)))
	check("outcomes", fmt.Sprint(outcomes(want)), fmt.Sprint(outcomes(got)))
	check("sweep", fmt.Sprintf("%+v", want.Sweep), fmt.Sprintf("%+v", got.Sweep))
	return out
}

func callIDs(b ir.Block) []string {
	ids := make([]string, len(b.Calls))
	for i, c := range b.Calls {
		ids[i] = c.ID
	}
	return ids
}

func outcomes(b ir.Block) []string {
	out := make([]string, len(b.Receipts))
	for i, r := range b.Receipts {
		out[i] = r.Outcome
	}
	return out
}
