package auction

import (
	"errors"
	"fmt"
)

// Config holds the engine parameters. They are fixed for the life of a chain
// and are part of its genesis.
type Config struct {
	// BidCapacity bounds the number of entries per bid book.
	BidCapacity int

	// TimeoutBlocks is how long an auction runs before the sweep resolves it.
	TimeoutBlocks int64

	// RoyaltyPercent of every sale is minted to the collection owner.
	RoyaltyPercent uint8

	// FeePercent is the initial marketplace fee rate.
	FeePercent uint8

	// MaxSettlementsPerBlock caps the auctions the sweep handles per block.
	// Zero means no cap.
	MaxSettlementsPerBlock int

	// TreasuryAccount holds collected fees in the ledger.
	TreasuryAccount string
}

// MaxTimeoutBlocks bounds TimeoutBlocks so deadlines stay far from int64
// overflow.
const MaxTimeoutBlocks = 1<<32 - 1

// DefaultConfig returns the parameters used when none are configured.
func DefaultConfig() Config {
	return Config{
		BidCapacity:     10,
		TimeoutBlocks:   100,
		RoyaltyPercent:  10,
		FeePercent:      0,
		TreasuryAccount: "treasury",
	}
}

// Validate reports the first invalid parameter.
func (c Config) Validate() error {
	switch {
	case c.BidCapacity < 1:
		return fmt.Errorf("bid capacity must be at least 1, got %d", c.BidCapacity)
	case c.TimeoutBlocks < 0 || c.TimeoutBlocks > MaxTimeoutBlocks:
		return fmt.Errorf("timeout blocks must be in [0, %d], got %d", MaxTimeoutBlocks, c.TimeoutBlocks)
	case c.RoyaltyPercent > 100:
		return fmt.Errorf("royalty percent must be at most 100, got %d", c.RoyaltyPercent)
	case c.FeePercent > 100:
		return fmt.Errorf("fee percent must be at most 100, got %d", c.FeePercent)
	case c.MaxSettlementsPerBlock < 0:
		return fmt.Errorf("max settlements per block must not be negative, got %d", c.MaxSettlementsPerBlock)
	case c.TreasuryAccount == "":
		return errors.New("treasury account must be set")
	}
	return nil
}
