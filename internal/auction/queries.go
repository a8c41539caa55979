package auction

import (
	"slices"

	"github.com/roach88/gavel/internal/ir"
)

// Auction returns the current record of asset.
func (e *Engine) Auction(asset ir.AssetID) (AuctionRecord, bool) {
	rec, ok := e.store.record(asset)
	if !ok {
		return AuctionRecord{}, false
	}
	return *rec, true
}

// Bids returns the bid book of asset, highest first.
func (e *Engine) Bids(asset ir.AssetID) []BidEntry {
	book := e.store.book(asset)
	if book == nil {
		return nil
	}
	return book.Entries()
}

// IsInAuction reports whether asset has an active auction.
func (e *Engine) IsInAuction(asset ir.AssetID) bool {
	return e.store.isInAuction(asset)
}

// ActiveAuctions returns every asset in auction, ordered by asset.
func (e *Engine) ActiveAuctions() []ir.AssetID {
	return e.store.active()
}

// History returns the ended records that were replaced by a relisting,
// oldest first.
func (e *Engine) History(asset ir.AssetID) []AuctionRecord {
	return slices.Clone(e.store.history[asset])
}

// FeePercent returns the fee rate.
func (e *Engine) FeePercent() uint8 {
	return e.treasury.feePercent
}

// AccumulatedFees returns the fees collected since the last withdrawal.
func (e *Engine) AccumulatedFees() uint64 {
	return e.treasury.accumulated
}

// TreasuryAccount returns the ledger account holding collected fees.
func (e *Engine) TreasuryAccount() string {
	return e.treasury.account
}

// Snapshot returns the canonical engine state for the state root.
func (e *Engine) Snapshot() ir.IRObject {
	s := e.store.snapshot()
	s["fees"] = ir.IRObject{
		"fee_percent": ir.IRInt(int64(e.treasury.feePercent)),
		"accumulated": ir.Balance(e.treasury.accumulated),
		"account":     ir.IRString(e.treasury.account),
	}
	return s
}
