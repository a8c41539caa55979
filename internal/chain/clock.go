package chain

import (
	"fmt"
	"sync/atomic"
)

// BlockClock is the chain's notion of time: the number of the block being
// applied. It only moves forward.
//
// Reads are atomic so status queries may run beside the producer; only the
// producer advances it.
type BlockClock struct {
	head atomic.Int64
}

// NewBlockClock returns a clock at block 0 (genesis).
func NewBlockClock() *BlockClock {
	return &BlockClock{}
}

// CurrentBlock returns the number of the last block started.
func (c *BlockClock) CurrentBlock() int64 {
	return c.head.Load()
}

// AdvanceTo moves the clock to block n, which must be ahead of the head.
func (c *BlockClock) AdvanceTo(n int64) error {
	if cur := c.head.Load(); n <= cur {
		return fmt.Errorf("block %d is not after head %d", n, cur)
	}
	c.head.Store(n)
	return nil
}
