package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gavel/internal/ir"
)

func TestInspect_State(t *testing.T) {
	_, db := newChainDB(t)

	out, err := execute(t, "", "--format", "json", "inspect", "--db", db)
	require.NoError(t, err)

	var view StateView
	decodeData(t, out, &view)
	assert.Equal(t, int64(2), view.Head)
	assert.NotEmpty(t, view.StateRoot)
	require.Len(t, view.Auctions, 1)
	a := view.Auctions[0]
	assert.Equal(t, "1/1", a.Asset)
	assert.Equal(t, "owner", a.Record.Owner)
	assert.Equal(t, "alice", a.Record.HighestBidder)
	assert.Equal(t, uint64(40), a.Record.HighestBid)
	assert.Equal(t, int64(101), a.Deadline)
	require.Len(t, a.Bids, 1)
	assert.Equal(t, "alice", a.Bids[0].Bidder)

	out, err = execute(t, "", "inspect", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "1/1 (active) owner owner, started 1, deadline 101")
	assert.Contains(t, out, "highest 40 by alice")
}

func TestInspect_AssetHistory(t *testing.T) {
	dir, db := newChainDB(t)
	relist := writeFile(t, dir, "relist.yaml", `
blocks:
  - number: 150
    calls:
      - { origin: alice, kind: list, args: { collection: 1, item: 1 }, expect: Ok }
`)
	_, err := execute(t, "", "apply", "--db", db, relist)
	require.NoError(t, err)

	out, err := execute(t, "", "--format", "json", "inspect", "--db", db, "--asset", "1/1")
	require.NoError(t, err)

	var view StateView
	decodeData(t, out, &view)
	require.Len(t, view.Auctions, 1)
	a := view.Auctions[0]
	assert.Equal(t, "alice", a.Record.Owner)
	assert.Equal(t, int64(150), a.Record.StartBlock)
	require.Len(t, a.History, 1)
	assert.Equal(t, uint64(40), a.History[0].ClearingPrice)
	assert.True(t, a.History[0].Ended)
}

func TestInspect_AssetErrors(t *testing.T) {
	_, db := newChainDB(t)

	_, err := execute(t, "", "inspect", "--db", db, "--asset", "1/2")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "never auctioned")

	_, err = execute(t, "", "inspect", "--db", db, "--asset", "one")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --asset")
}

func TestInspect_Block(t *testing.T) {
	_, db := newChainDB(t)

	out, err := execute(t, "", "inspect", "--db", db, "--block", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Block 2")
	assert.Contains(t, out, "Calls (2):")
	assert.Contains(t, out, "bid by alice")
	assert.Contains(t, out, "-> BidTooLow")
	assert.Contains(t, out, "Events (1):")

	out, err = execute(t, "", "--format", "json", "inspect", "--db", db, "--block", "2")
	require.NoError(t, err)
	var b ir.Block
	decodeData(t, out, &b)
	assert.Equal(t, int64(2), b.Number)
	require.Len(t, b.Receipts, 2)
	assert.Equal(t, "Ok", b.Receipts[0].Outcome)

	_, err = execute(t, "", "inspect", "--db", db, "--block", "9")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInspect_Events(t *testing.T) {
	_, db := newChainDB(t)

	out, err := execute(t, "", "--format", "json", "inspect", "--db", db, "--events", "BidPlaced")
	require.NoError(t, err)
	var events []ir.EventRecord
	decodeData(t, out, &events)
	require.Len(t, events, 1)
	assert.Equal(t, int64(2), events[0].Block)
	assert.Equal(t, ir.IRString("alice"), events[0].Payload["bidder"])

	out, err = execute(t, "", "inspect", "--db", db, "--events", "all")
	require.NoError(t, err)
	assert.Contains(t, out, "1.0 Listed")
	assert.Contains(t, out, "2 event(s)")
}
