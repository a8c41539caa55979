package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/gavel/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestBlock creates a block with one call per kind and one event per call.
func createTestBlock(number int64, kinds ...string) ir.Block {
	b := ir.Block{
		Number:        number,
		StateRoot:     "root-" + string(rune('a'+number)),
		EventsHash:    "events",
		Sweep:         ir.SweepStats{Resolved: 1},
		Calls:         []ir.Call{},
		Receipts:      []ir.Receipt{},
		Events:        []ir.EventRecord{},
		EngineVersion: ir.EngineVersion,
	}
	for i, kind := range kinds {
		args := ir.IRObject{"collection": ir.IRInt(1), "item": ir.IRInt(int64(i)), "amount": ir.IRString("18446744073709551615")}
		id := ir.MustCallID(number, i, "alice", kind, args)
		b.Calls = append(b.Calls, ir.Call{ID: id, Block: number, Index: i, Origin: "alice", Kind: kind, Args: args})
		b.Receipts = append(b.Receipts, ir.Receipt{CallID: id, Outcome: ir.OutcomeOK})
		b.Events = append(b.Events, ir.EventRecord{
			Block:   number,
			Index:   i,
			CallID:  id,
			Kind:    "BidPlaced",
			Payload: ir.IRObject{"bidder": ir.IRString("alice")},
		})
	}
	return b
}
