package testutil

import "sync"

// Clock is a block clock that tests move by hand. It satisfies the
// auction engine's Clock.
//
// Thread-safety: All methods are safe for concurrent use.
type Clock struct {
	mu    sync.Mutex
	block int64
}

// NewClock returns a clock reading block.
func NewClock(block int64) *Clock {
	return &Clock{block: block}
}

// CurrentBlock returns the block the clock reads.
func (c *Clock) CurrentBlock() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.block
}

// Set moves the clock to block. Unlike the chain's clock it may go backwards,
// so one fixture can revisit earlier blocks.
func (c *Clock) Set(block int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.block = block
}

// Advance moves the clock n blocks forward and returns the new block.
func (c *Clock) Advance(n int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.block += n
	return c.block
}
