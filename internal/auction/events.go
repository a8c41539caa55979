package auction

import (
	"github.com/roach88/gavel/internal/ir"
)

// Event kinds, in the form written to the event log.
const (
	EventListed          = "Listed"
	EventBidPlaced       = "BidPlaced"
	EventAuctionResolved = "AuctionResolved"
	EventAuctionFailed   = "AuctionFailed"
	EventFeeRateSet      = "FeeRateSet"
	EventFeesWithdrawn   = "FeesWithdrawn"
)

// Event is a state change announced by the engine.
type Event struct {
	Kind    string
	Payload ir.IRObject
}

func assetPayload(asset ir.AssetID) ir.IRObject {
	return asset.Object()
}

func listedEvent(asset ir.AssetID, owner string) Event {
	p := assetPayload(asset)
	p["owner"] = ir.IRString(owner)
	return Event{Kind: EventListed, Payload: p}
}

func bidPlacedEvent(asset ir.AssetID, bidder string, amount uint64) Event {
	p := assetPayload(asset)
	p["bidder"] = ir.IRString(bidder)
	p["amount"] = ir.Balance(amount)
	return Event{Kind: EventBidPlaced, Payload: p}
}

func auctionResolvedEvent(asset ir.AssetID, buyer string, amount uint64) Event {
	p := assetPayload(asset)
	p["buyer"] = ir.IRString(buyer)
	p["amount"] = ir.Balance(amount)
	return Event{Kind: EventAuctionResolved, Payload: p}
}

func auctionFailedEvent(asset ir.AssetID) Event {
	return Event{Kind: EventAuctionFailed, Payload: assetPayload(asset)}
}

func feeRateSetEvent(fee uint8) Event {
	return Event{Kind: EventFeeRateSet, Payload: ir.IRObject{"fee": ir.IRInt(int64(fee))}}
}

func feesWithdrawnEvent(to string, amount uint64) Event {
	return Event{Kind: EventFeesWithdrawn, Payload: ir.IRObject{
		"to":     ir.IRString(to),
		"amount": ir.Balance(amount),
	}}
}
