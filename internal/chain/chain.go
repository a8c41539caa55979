package chain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/gavel/internal/auction"
	"github.com/roach88/gavel/internal/ir"
	"github.com/roach88/gavel/internal/ledger"
	"github.com/roach88/gavel/internal/registry"
)

// BlockStore persists applied blocks.
type BlockStore interface {
	WriteBlock(ctx context.Context, b ir.Block) error
}

// Chain owns the engine, its collaborators and the block clock.
type Chain struct {
	genesis  Genesis
	clock    *BlockClock
	ledger   *ledger.Memory
	registry *registry.Memory
	engine   *auction.Engine
	queue    *callQueue
	store    BlockStore
	logger   *slog.Logger

	maxCallsPerBlock int
	lastRoot         string
}

// Option configures a Chain.
type Option func(*Chain)

// WithStore persists every applied block to s.
func WithStore(s BlockStore) Option {
	return func(c *Chain) {
		c.store = s
	}
}

// WithLogger sets the logger for the chain and its engine.
func WithLogger(l *slog.Logger) Option {
	return func(c *Chain) {
		c.logger = l
	}
}

// New builds a chain at block 0 from g.
func New(g Genesis, opts ...Option) (*Chain, error) {
	if g.MaxCallsPerBlock < 0 {
		return nil, fmt.Errorf("max calls per block must not be negative, got %d", g.MaxCallsPerBlock)
	}
	l, r, err := g.build()
	if err != nil {
		return nil, err
	}
	c := &Chain{
		genesis:          g,
		clock:            NewBlockClock(),
		ledger:           l,
		registry:         r,
		queue:            newCallQueue(),
		logger:           slog.Default(),
		maxCallsPerBlock: g.MaxCallsPerBlock,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.engine, err = auction.New(g.Auction.Config(), l, r, c.clock, auction.WithLogger(c.logger))
	if err != nil {
		return nil, err
	}
	c.lastRoot, err = ir.StateRoot(c.Snapshot())
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Genesis returns the genesis the chain was built from.
func (c *Chain) Genesis() Genesis { return c.genesis }

// Engine returns the auction engine for queries.
func (c *Chain) Engine() *auction.Engine { return c.engine }

// Ledger returns the currency ledger for queries.
func (c *Chain) Ledger() *ledger.Memory { return c.ledger }

// Registry returns the asset registry for queries.
func (c *Chain) Registry() *registry.Memory { return c.registry }

// Head returns the number of the last applied block.
func (c *Chain) Head() int64 { return c.clock.CurrentBlock() }

// StateRoot returns the state root after the last applied block.
func (c *Chain) StateRoot() string { return c.lastRoot }

// Pending returns the number of queued calls.
func (c *Chain) Pending() int { return c.queue.Len() }

// Snapshot returns the canonical state of every component.
func (c *Chain) Snapshot() ir.IRObject {
	return ir.IRObject{
		"ledger":   c.ledger.Snapshot(),
		"registry": c.registry.Snapshot(),
		"auction":  c.engine.Snapshot(),
	}
}

// Submit queues a call for a future block. Only Origin, Kind and Args are
// used; the rest is assigned at inclusion. Safe from any goroutine.
// Returns false once the chain is stopped.
func (c *Chain) Submit(call ir.Call) bool {
	return c.queue.Push(ir.Call{Origin: call.Origin, Kind: call.Kind, Args: call.Args})
}

// ProduceBlock applies the next block with as many queued calls as the
// per-block limit allows. The rest stay queued, in order.
func (c *Chain) ProduceBlock(ctx context.Context) (ir.Block, error) {
	calls := c.queue.Take(c.maxCallsPerBlock)
	return c.ApplyBlock(ctx, c.Head()+1, calls)
}

// ApplyBlock applies calls as block number. Blocks may skip numbers; the
// sweep at number catches every auction due at or before it.
//
// A failing call yields a receipt with its error code and never aborts the
// block. An error is returned only when the block itself cannot be built or
// stored.
func (c *Chain) ApplyBlock(ctx context.Context, number int64, calls []ir.Call) (ir.Block, error) {
	if err := c.clock.AdvanceTo(number); err != nil {
		return ir.Block{}, err
	}
	block := ir.Block{
		Number:        number,
		Calls:         make([]ir.Call, 0, len(calls)),
		Receipts:      make([]ir.Receipt, 0, len(calls)),
		Events:        []ir.EventRecord{},
		EngineVersion: ir.EngineVersion,
	}

	sweep := c.engine.OnInitialize(number)
	block.Sweep = sweep.Stats()
	block.Events = c.collect(block.Events, number, "")

	for i, call := range calls {
		id, err := ir.CallID(number, i, call.Origin, call.Kind, call.Args)
		if err != nil {
			return ir.Block{}, fmt.Errorf("block %d call %d: %w", number, i, err)
		}
		call.ID, call.Block, call.Index = id, number, i
		if call.Args == nil {
			call.Args = ir.IRObject{}
		}
		block.Calls = append(block.Calls, call)

		receipt := ir.Receipt{CallID: id, Outcome: ir.OutcomeOK}
		if err := c.dispatch(call); err != nil {
			receipt.Outcome = Outcome(err)
			receipt.Error = err.Error()
			c.logger.Debug("call failed",
				"block", number,
				"index", i,
				"kind", call.Kind,
				"origin", call.Origin,
				"outcome", receipt.Outcome,
				"error", err,
			)
		}
		block.Receipts = append(block.Receipts, receipt)
		block.Events = c.collect(block.Events, number, id)
	}

	root, err := ir.StateRoot(c.Snapshot())
	if err != nil {
		return ir.Block{}, fmt.Errorf("block %d: %w", number, err)
	}
	eventsHash, err := ir.EventsHash(block.Events)
	if err != nil {
		return ir.Block{}, fmt.Errorf("block %d: %w", number, err)
	}
	block.StateRoot = root
	block.EventsHash = eventsHash
	c.lastRoot = root

	if c.store != nil {
		if err := c.store.WriteBlock(ctx, block); err != nil {
			return ir.Block{}, fmt.Errorf("write block %d: %w", number, err)
		}
	}

	c.logger.Info("block applied",
		"block", number,
		"calls", len(block.Calls),
		"events", len(block.Events),
		"state_root", root,
	)
	return block, nil
}

// collect drains engine events into records positioned after existing ones.
func (c *Chain) collect(records []ir.EventRecord, block int64, callID string) []ir.EventRecord {
	for _, ev := range c.engine.DrainEvents() {
		records = append(records, ir.EventRecord{
			Block:   block,
			Index:   len(records),
			CallID:  callID,
			Kind:    ev.Kind,
			Payload: ev.Payload,
		})
	}
	return records
}

// Run produces a block every interval until ctx is cancelled or Stop is
// called. Empty blocks are produced too, so the sweep runs on schedule.
// After Stop, queued calls are flushed into final blocks before Run returns.
//
// Must be called from exactly one goroutine.
func (c *Chain) Run(ctx context.Context, interval time.Duration) error {
	c.logger.Info("chain starting", "head", c.Head(), "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("chain stopping: context cancelled", "head", c.Head())
			c.queue.Close()
			return ctx.Err()

		case <-ticker.C:
			if _, err := c.ProduceBlock(ctx); err != nil {
				return err
			}

		case <-c.queue.Wait():
			if !c.queue.Closed() {
				// Calls arrived; they wait for the next tick.
				continue
			}
			for c.queue.Len() > 0 {
				if _, err := c.ProduceBlock(ctx); err != nil {
					return err
				}
			}
			c.logger.Info("chain stopping: queue closed", "head", c.Head())
			return nil
		}
	}
}

// Stop closes the call queue. Run flushes what is queued and returns.
func (c *Chain) Stop() {
	c.queue.Close()
}
