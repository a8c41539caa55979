package chain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gavel/internal/auction"
	"github.com/roach88/gavel/internal/ir"
	"github.com/roach88/gavel/internal/testutil"
)

type memStore struct {
	blocks []ir.Block
}

func (s *memStore) WriteBlock(_ context.Context, b ir.Block) error {
	s.blocks = append(s.blocks, b)
	return nil
}

func quiet() Option {
	return WithLogger(testutil.Logger())
}

func testGenesis() Genesis {
	g := DefaultGenesis()
	g.Accounts = []Account{{ID: "alice", Balance: 100}, {ID: "bob", Balance: 100}}
	g.Collections = []Collection{{
		ID:    1,
		Owner: "creator",
		Items: []Item{{ID: 1, Owner: "owner"}, {ID: 2, Owner: "owner"}},
	}}
	return g
}

func assetArgs(item int64, extra ...any) ir.IRObject {
	args := ir.IRObject{"collection": ir.IRInt(1), "item": ir.IRInt(item)}
	for i := 0; i+1 < len(extra); i += 2 {
		args[extra[i].(string)] = extra[i+1].(ir.IRValue)
	}
	return args
}

func newTestChain(t *testing.T, g Genesis, opts ...Option) *Chain {
	t.Helper()
	c, err := New(g, append([]Option{quiet()}, opts...)...)
	require.NoError(t, err)
	return c
}

func outcomesOf(b ir.Block) []string {
	return outcomes(b)
}

func TestNewRejectsBadGenesis(t *testing.T) {
	g := testGenesis()
	g.Accounts = append(g.Accounts, Account{ID: "root", Balance: 1})
	_, err := New(g, quiet())
	assert.ErrorContains(t, err, "invalid account id")

	g = testGenesis()
	g.Collections[0].Items = append(g.Collections[0].Items, Item{ID: 1, Owner: "x"})
	_, err = New(g, quiet())
	assert.Error(t, err)

	g = testGenesis()
	g.Auction.BidCapacity = 0
	_, err = New(g, quiet())
	assert.ErrorContains(t, err, "bid capacity")
}

func TestProduceBlockAppliesCallsInOrder(t *testing.T) {
	store := &memStore{}
	c := newTestChain(t, testGenesis(), WithStore(store))
	genesisRoot := c.StateRoot()

	c.Submit(ir.Call{Origin: "owner", Kind: KindList, Args: assetArgs(1)})
	c.Submit(ir.Call{Origin: "alice", Kind: KindBid, Args: assetArgs(1, "amount", ir.IRInt(50))})
	c.Submit(ir.Call{Origin: "bob", Kind: KindBid, Args: assetArgs(1, "amount", ir.IRString("40"))})

	block, err := c.ProduceBlock(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), block.Number)
	assert.Equal(t, []string{"Ok", "Ok", "BidTooLow"}, outcomesOf(block))
	require.Len(t, block.Events, 2)
	assert.Equal(t, auction.EventListed, block.Events[0].Kind)
	assert.Equal(t, block.Calls[0].ID, block.Events[0].CallID)
	assert.Equal(t, auction.EventBidPlaced, block.Events[1].Kind)
	assert.Equal(t, block.Calls[1].ID, block.Events[1].CallID)
	assert.Equal(t, 1, block.Events[1].Index)

	assert.Equal(t, ir.MustCallID(1, 0, "owner", KindList, assetArgs(1)), block.Calls[0].ID)
	assert.NotEqual(t, genesisRoot, block.StateRoot)
	assert.Equal(t, block.StateRoot, c.StateRoot())
	assert.Equal(t, ir.EngineVersion, block.EngineVersion)

	require.Len(t, store.blocks, 1)
	assert.Equal(t, block, store.blocks[0])
	assert.Equal(t, uint64(50), c.Ledger().ReservedBalance("alice"))
}

func TestDispatchOutcomes(t *testing.T) {
	c := newTestChain(t, testGenesis())
	calls := []ir.Call{
		{Origin: "alice", Kind: "transfer"},
		{Origin: "", Kind: KindList, Args: assetArgs(1)},
		{Origin: "owner", Kind: KindList, Args: ir.IRObject{"collection": ir.IRInt(1)}},
		{Origin: "owner", Kind: KindList, Args: assetArgs(1)},
		{Origin: "alice", Kind: KindBid, Args: assetArgs(1)},
		{Origin: "alice", Kind: KindBid, Args: assetArgs(1, "amount", ir.IRInt(500))},
		{Origin: "alice", Kind: KindSetFeePercent, Args: ir.IRObject{"fee": ir.IRInt(5)}},
		{Origin: "root", Kind: KindSetFeePercent, Args: ir.IRObject{"fee": ir.IRInt(101)}},
		{Origin: "root", Kind: KindWithdrawFees, Args: ir.IRObject{"to": ir.IRString("root")}},
		{Origin: "root", Kind: KindWithdrawFees, Args: ir.IRObject{"to": ir.IRString("dao")}},
		{Origin: "owner", Kind: KindResolve, Args: assetArgs(2)},
	}

	block, err := c.ApplyBlock(context.Background(), 1, calls)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"UnknownCall",
		"InvalidOrigin",
		"InvalidArgs",
		"Ok",
		"InvalidArgs",
		"InsufficientBalance",
		"BadOrigin",
		"InvalidFee",
		"InvalidArgs",
		"NoFeesAvailable",
		"AuctionNotFound",
	}, outcomesOf(block))
	assert.NotEmpty(t, block.Receipts[0].Error)
	assert.Empty(t, block.Receipts[3].Error)
}

func TestMaxCallsPerBlock(t *testing.T) {
	g := testGenesis()
	g.MaxCallsPerBlock = 2
	c := newTestChain(t, g)
	for i := 0; i < 3; i++ {
		c.Submit(ir.Call{Origin: "root", Kind: KindSetFeePercent, Args: ir.IRObject{"fee": ir.IRInt(int64(i))}})
	}

	b1, err := c.ProduceBlock(context.Background())
	require.NoError(t, err)
	assert.Len(t, b1.Calls, 2)
	assert.Equal(t, 1, c.Pending())

	b2, err := c.ProduceBlock(context.Background())
	require.NoError(t, err)
	require.Len(t, b2.Calls, 1)
	assert.Equal(t, ir.IRObject{"fee": ir.IRInt(2)}, b2.Calls[0].Args, "FIFO order is kept across blocks")
	assert.Equal(t, uint8(2), c.Engine().FeePercent())
}

func TestSweepRunsBeforeCalls(t *testing.T) {
	c := newTestChain(t, testGenesis())
	ctx := context.Background()
	_, err := c.ApplyBlock(ctx, 1, []ir.Call{{Origin: "owner", Kind: KindList, Args: assetArgs(1)}})
	require.NoError(t, err)

	block, err := c.ApplyBlock(ctx, 101, []ir.Call{
		{Origin: "alice", Kind: KindBid, Args: assetArgs(1, "amount", ir.IRInt(10))},
	})
	require.NoError(t, err)

	assert.Equal(t, ir.SweepStats{Failed: 1}, block.Sweep)
	require.Len(t, block.Events, 1)
	assert.Equal(t, auction.EventAuctionFailed, block.Events[0].Kind)
	assert.Empty(t, block.Events[0].CallID)
	assert.Equal(t, []string{"AuctionEnded"}, outcomesOf(block))
}

func TestApplyBlockRejectsPastNumber(t *testing.T) {
	c := newTestChain(t, testGenesis())
	_, err := c.ApplyBlock(context.Background(), 3, nil)
	require.NoError(t, err)

	_, err = c.ApplyBlock(context.Background(), 3, nil)
	assert.ErrorContains(t, err, "not after head")
	assert.Equal(t, int64(3), c.Head())
}

func TestRunFlushesQueueOnStop(t *testing.T) {
	store := &memStore{}
	c := newTestChain(t, testGenesis(), WithStore(store))
	require.True(t, c.Submit(ir.Call{Origin: "owner", Kind: KindList, Args: assetArgs(1)}))
	require.True(t, c.Submit(ir.Call{Origin: "alice", Kind: KindBid, Args: assetArgs(1, "amount", ir.IRInt(5))}))
	c.Stop()
	assert.False(t, c.Submit(ir.Call{Origin: "bob", Kind: KindBid, Args: assetArgs(1, "amount", ir.IRInt(6))}))

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background(), time.Hour) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	require.Len(t, store.blocks, 1)
	assert.Equal(t, []string{"Ok", "Ok"}, outcomesOf(store.blocks[0]))
	assert.Equal(t, 0, c.Pending())
}

func TestRunStopsOnCancel(t *testing.T) {
	c := newTestChain(t, testGenesis())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, time.Millisecond) }()

	require.Eventually(t, func() bool { return c.Head() >= 3 }, 5*time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "Ok", Outcome(nil))
	assert.Equal(t, "NotOwner", Outcome(auction.ErrNotOwner))
	assert.Equal(t, "UnknownCall", Outcome(&DispatchError{Code: ErrCodeUnknownCall}))
	assert.Equal(t, "Failed", Outcome(context.Canceled))
}

func TestGenesisEncodeRoundTrip(t *testing.T) {
	g := testGenesis()
	encoded, err := g.Encode()
	require.NoError(t, err)

	got, err := DecodeGenesis(encoded)
	require.NoError(t, err)
	assert.Equal(t, g, got)

	_, err = DecodeGenesis(`{"auction":{},"surprise":1}`)
	assert.Error(t, err)
}
