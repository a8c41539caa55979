package chain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gavel/internal/ir"
)

func runScript(t *testing.T, g Genesis) (*Chain, *memStore) {
	t.Helper()
	store := &memStore{}
	c := newTestChain(t, g, WithStore(store))
	ctx := context.Background()

	script := []struct {
		number int64
		calls  []ir.Call
	}{
		{1, []ir.Call{
			{Origin: "owner", Kind: KindList, Args: assetArgs(1)},
			{Origin: "owner", Kind: KindList, Args: assetArgs(2)},
			{Origin: "root", Kind: KindSetFeePercent, Args: ir.IRObject{"fee": ir.IRInt(5)}},
		}},
		{2, []ir.Call{
			{Origin: "alice", Kind: KindBid, Args: assetArgs(1, "amount", ir.IRInt(40))},
			{Origin: "bob", Kind: KindBid, Args: assetArgs(1, "amount", ir.IRInt(60))},
			{Origin: "alice", Kind: KindBid, Args: assetArgs(2, "amount", ir.IRInt(30))},
		}},
		{3, []ir.Call{
			{Origin: "owner", Kind: KindResolve, Args: assetArgs(1)},
		}},
		{101, nil},
		{102, []ir.Call{
			{Origin: "root", Kind: KindWithdrawFees, Args: ir.IRObject{"to": ir.IRString("dao")}},
		}},
	}
	for _, step := range script {
		_, err := c.ApplyBlock(ctx, step.number, step.calls)
		require.NoError(t, err)
	}
	return c, store
}

func TestReplayReproducesStateRoots(t *testing.T) {
	g := testGenesis()
	c, store := runScript(t, g)

	result, err := Replay(context.Background(), g, store.blocks, quiet())
	require.NoError(t, err)

	assert.True(t, result.OK(), "mismatches: %v", result.Mismatches)
	assert.Equal(t, 5, result.Blocks)
	assert.Equal(t, int64(102), result.Head)
	assert.Equal(t, c.StateRoot(), result.StateRoot)
}

func TestReplayIsStableAcrossRuns(t *testing.T) {
	g := testGenesis()
	_, first := runScript(t, g)
	_, second := runScript(t, g)
	assert.Equal(t, first.blocks, second.blocks)
}

func TestReplayDetectsTampering(t *testing.T) {
	g := testGenesis()
	_, store := runScript(t, g)
	store.blocks[2].StateRoot = "deadbeef"

	result, err := Replay(context.Background(), g, store.blocks, quiet())
	require.NoError(t, err)

	require.Len(t, result.Mismatches, 1)
	assert.Equal(t, int64(3), result.Mismatches[0].Block)
	assert.Equal(t, "state_root", result.Mismatches[0].Field)
	assert.False(t, result.OK())
}

func TestReplayDetectsDifferentGenesis(t *testing.T) {
	g := testGenesis()
	_, store := runScript(t, g)

	other := testGenesis()
	other.Auction.RoyaltyPercent = 20
	result, err := Replay(context.Background(), other, store.blocks, quiet())
	require.NoError(t, err)
	assert.False(t, result.OK())
}
