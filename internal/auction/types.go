package auction

import (
	"math"

	"github.com/roach88/gavel/internal/ir"
)

// AuctionRecord is the state of one auction.
type AuctionRecord struct {
	Owner      string `json:"owner"`
	StartBlock int64  `json:"start_block"`

	// HighestBid never decreases while the auction is active.
	HighestBid uint64 `json:"highest_bid"`

	// HighestBidder is empty until the first bid. After settlement it is
	// the buyer.
	HighestBidder string `json:"highest_bidder,omitempty"`

	Ended bool `json:"ended"`

	// ClearingPrice is what the buyer paid. Zero for failed auctions.
	ClearingPrice uint64 `json:"clearing_price"`
}

// HasBidder reports whether at least one bid was accepted.
func (r AuctionRecord) HasBidder() bool {
	return r.HighestBidder != ""
}

// Deadline is the first block at which the sweep picks the auction up.
// It saturates at math.MaxInt64 instead of wrapping.
func (r AuctionRecord) Deadline(timeout int64) int64 {
	if timeout > math.MaxInt64-r.StartBlock {
		return math.MaxInt64
	}
	return r.StartBlock + timeout
}

// Object returns the canonical form of the record.
func (r AuctionRecord) Object() ir.IRObject {
	return ir.IRObject{
		"owner":          ir.IRString(r.Owner),
		"start_block":    ir.IRInt(r.StartBlock),
		"highest_bid":    ir.Balance(r.HighestBid),
		"highest_bidder": ir.IRString(r.HighestBidder),
		"ended":          ir.IRBool(r.Ended),
		"clearing_price": ir.Balance(r.ClearingPrice),
	}
}

// BidEntry is one offer in a bid book.
type BidEntry struct {
	Bidder string `json:"bidder"`
	Amount uint64 `json:"amount"`
}

// Object returns the canonical form of the entry.
func (b BidEntry) Object() ir.IRObject {
	return ir.IRObject{
		"bidder": ir.IRString(b.Bidder),
		"amount": ir.Balance(b.Amount),
	}
}
