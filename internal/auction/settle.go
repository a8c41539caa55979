package auction

import (
	"fmt"
	"math/bits"

	"github.com/roach88/gavel/internal/ir"
)

// finalize sells asset to buyer for amount. It is all or nothing: each step
// registers its inverse in a journal, and any failure rolls back every step
// before it. Engine state changes only after the last collaborator step.
//
// The royalty is minted on top of the gross amount while the seller receives
// amount minus the fee, so a sale with a royalty increases total issuance by
// the royalty.
func (e *Engine) finalize(asset ir.AssetID, buyer string, amount uint64) error {
	rec, ok := e.store.record(asset)
	if !ok {
		return newError(CodeAuctionNotFound, "%s", asset)
	}
	if rec.Ended {
		return newError(CodeAuctionEnded, "%s", asset)
	}
	owner, err := e.ownership.OwnerOf(asset)
	if err != nil {
		return newError(CodeAssetNotFound, "%s: %v", asset, err)
	}
	if owner != rec.Owner {
		return newError(CodeNotOwner, "%s changed hands to %s", asset, owner)
	}

	// Only the highest bidder has escrow in this auction.
	var escrowed uint64
	if buyer == rec.HighestBidder {
		escrowed = min(rec.HighestBid, e.currency.ReservedBalance(buyer))
	}
	available, carry := bits.Add64(e.currency.FreeBalance(buyer), escrowed, 0)
	if carry == 0 && available < amount {
		return newError(CodeNoValidBuyer, "%s can cover %d of %d", buyer, available, amount)
	}

	fee, payout := e.treasury.split(amount)
	accumulated, carry := bits.Add64(e.treasury.accumulated, fee, 0)
	if carry != 0 {
		return fmt.Errorf("settle %s: accumulated fees overflow", asset)
	}
	royalty := percentOf(amount, e.cfg.RoyaltyPercent)

	var j journal

	released := e.currency.Unreserve(buyer, escrowed)
	j.record(func() error { return e.currency.Reserve(buyer, released) })

	if err := e.currency.Withdraw(buyer, amount); err != nil {
		return e.abort(&j, fmt.Errorf("settle %s: charge %s: %w", asset, buyer, err))
	}
	j.record(func() error { return e.currency.Deposit(buyer, amount) })

	if recipient, ok := e.ownership.RoyaltyRecipient(asset.Collection); ok && royalty > 0 {
		if err := e.currency.Deposit(recipient, royalty); err != nil {
			return e.abort(&j, fmt.Errorf("settle %s: royalty: %w", asset, err))
		}
		j.record(func() error { return e.currency.Withdraw(recipient, royalty) })
	}

	if err := e.currency.Deposit(rec.Owner, payout); err != nil {
		return e.abort(&j, fmt.Errorf("settle %s: payout: %w", asset, err))
	}
	j.record(func() error { return e.currency.Withdraw(rec.Owner, payout) })

	if fee > 0 {
		if err := e.currency.Deposit(e.treasury.account, fee); err != nil {
			return e.abort(&j, fmt.Errorf("settle %s: fee: %w", asset, err))
		}
		j.record(func() error { return e.currency.Withdraw(e.treasury.account, fee) })
	}

	if err := e.ownership.Thaw(asset); err != nil {
		return e.abort(&j, fmt.Errorf("settle %s: thaw: %w", asset, err))
	}
	j.record(func() error { return e.ownership.Freeze(asset) })

	if err := e.ownership.TransferCustody(asset, buyer); err != nil {
		return e.abort(&j, fmt.Errorf("settle %s: transfer: %w", asset, err))
	}

	// Fallback sale: the displaced highest bidder gets their escrow back.
	if rec.HasBidder() && rec.HighestBidder != buyer {
		e.currency.Unreserve(rec.HighestBidder, rec.HighestBid)
	}

	e.treasury.accumulated = accumulated
	settled := *rec
	settled.HighestBidder = buyer
	settled.ClearingPrice = amount
	e.store.close(asset, settled)
	j.emit(auctionResolvedEvent(asset, buyer, amount))
	e.commit(&j)

	e.logger.Info("auction resolved",
		"asset", asset.String(),
		"buyer", buyer,
		"amount", amount,
		"fee", fee,
		"royalty", royalty,
	)
	return nil
}
