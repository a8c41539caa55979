package chain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/gavel/internal/auction"
	"github.com/roach88/gavel/internal/ir"
	"github.com/roach88/gavel/internal/ledger"
	"github.com/roach88/gavel/internal/registry"
)

// Genesis is the initial state and parameters of a chain. Two nodes that
// start from equal Genesis values and apply the same blocks reach the same
// state roots.
type Genesis struct {
	Auction          AuctionParams `json:"auction"`
	MaxCallsPerBlock int           `json:"max_calls_per_block"`
	Accounts         []Account     `json:"accounts"`
	Collections      []Collection  `json:"collections"`
}

// AuctionParams mirrors auction.Config in its persisted form.
type AuctionParams struct {
	BidCapacity            int    `json:"bid_capacity"`
	TimeoutBlocks          int64  `json:"timeout_blocks"`
	RoyaltyPercent         uint8  `json:"royalty_percent"`
	FeePercent             uint8  `json:"fee_percent"`
	MaxSettlementsPerBlock int    `json:"max_settlements_per_block"`
	TreasuryAccount        string `json:"treasury_account"`
}

// Config converts the params to the engine's configuration.
func (p AuctionParams) Config() auction.Config {
	return auction.Config{
		BidCapacity:            p.BidCapacity,
		TimeoutBlocks:          p.TimeoutBlocks,
		RoyaltyPercent:         p.RoyaltyPercent,
		FeePercent:             p.FeePercent,
		MaxSettlementsPerBlock: p.MaxSettlementsPerBlock,
		TreasuryAccount:        p.TreasuryAccount,
	}
}

// ParamsFrom converts an engine configuration to its persisted form.
func ParamsFrom(c auction.Config) AuctionParams {
	return AuctionParams{
		BidCapacity:            c.BidCapacity,
		TimeoutBlocks:          c.TimeoutBlocks,
		RoyaltyPercent:         c.RoyaltyPercent,
		FeePercent:             c.FeePercent,
		MaxSettlementsPerBlock: c.MaxSettlementsPerBlock,
		TreasuryAccount:        c.TreasuryAccount,
	}
}

// Account is an endowed ledger account.
type Account struct {
	ID      string `json:"id"`
	Balance uint64 `json:"balance"`
}

// Collection is a registry collection with its minted items.
type Collection struct {
	ID    uint32 `json:"id"`
	Owner string `json:"owner"`
	Items []Item `json:"items"`
}

// Item is a minted asset.
type Item struct {
	ID    uint32 `json:"id"`
	Owner string `json:"owner"`
}

// DefaultGenesis returns an empty chain with default auction parameters.
func DefaultGenesis() Genesis {
	return Genesis{Auction: ParamsFrom(auction.DefaultConfig())}
}

// Encode returns the JSON form recorded in a block log, so a log can be
// replayed without its original config file.
func (g Genesis) Encode() (string, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("encode genesis: %w", err)
	}
	return string(data), nil
}

// DecodeGenesis parses the form produced by Encode.
func DecodeGenesis(data string) (Genesis, error) {
	var g Genesis
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&g); err != nil {
		return Genesis{}, fmt.Errorf("decode genesis: %w", err)
	}
	return g, nil
}

// build creates the ledger and registry described by g, in slice order.
func (g Genesis) build() (*ledger.Memory, *registry.Memory, error) {
	l := ledger.NewMemory()
	for _, a := range g.Accounts {
		if a.ID == "" || a.ID == ir.OriginRoot {
			return nil, nil, fmt.Errorf("genesis: invalid account id %q", a.ID)
		}
		if err := l.Deposit(a.ID, a.Balance); err != nil {
			return nil, nil, fmt.Errorf("genesis: endow %s: %w", a.ID, err)
		}
	}
	r := registry.NewMemory()
	for _, c := range g.Collections {
		if err := r.CreateCollection(c.ID, c.Owner); err != nil {
			return nil, nil, fmt.Errorf("genesis: %w", err)
		}
		for _, it := range c.Items {
			if err := r.Mint(ir.AssetID{Collection: c.ID, Item: it.ID}, it.Owner); err != nil {
				return nil, nil, fmt.Errorf("genesis: %w", err)
			}
		}
	}
	return l, r, nil
}
