package auction

import (
	"cmp"
	"slices"

	"github.com/roach88/gavel/internal/ir"
)

// SweepReport describes what one OnInitialize call did.
type SweepReport struct {
	Block    int64
	Resolved []ir.AssetID
	Failed   []ir.AssetID

	// Deferred auctions were overdue but over the per-block cap. They stay
	// active and come first in the next sweep.
	Deferred []ir.AssetID
}

// Stats returns the counts recorded in the block.
func (r SweepReport) Stats() ir.SweepStats {
	return ir.SweepStats{
		Resolved: len(r.Resolved),
		Failed:   len(r.Failed),
		Deferred: len(r.Deferred),
	}
}

// overdue returns the active auctions whose deadline is at or before block,
// ordered by (deadline, asset).
func (e *Engine) overdue(block int64) []ir.AssetID {
	type due struct {
		asset    ir.AssetID
		deadline int64
	}
	var list []due
	for _, asset := range e.store.active() {
		rec, _ := e.store.record(asset)
		if d := rec.Deadline(e.cfg.TimeoutBlocks); d <= block {
			list = append(list, due{asset: asset, deadline: d})
		}
	}
	slices.SortFunc(list, func(a, b due) int {
		if c := cmp.Compare(a.deadline, b.deadline); c != 0 {
			return c
		}
		return a.asset.Compare(b.asset)
	})
	out := make([]ir.AssetID, len(list))
	for i, d := range list {
		out[i] = d.asset
	}
	return out
}

// OnInitialize runs the timeout sweep for block. It must be called once per
// block, before any call of that block is applied.
//
// Each overdue auction is settled with its highest bidder, then with the
// other book entries in descending order. When no one can pay, the auction
// fails: escrow is released and the asset is thawed for its owner. A failure
// on one asset never affects the others.
func (e *Engine) OnInitialize(block int64) SweepReport {
	report := SweepReport{Block: block}
	due := e.overdue(block)
	limit := len(due)
	if n := e.cfg.MaxSettlementsPerBlock; n > 0 && n < limit {
		limit = n
	}
	for _, asset := range due[:limit] {
		if e.autoResolve(asset) {
			report.Resolved = append(report.Resolved, asset)
		} else {
			report.Failed = append(report.Failed, asset)
		}
	}
	report.Deferred = slices.Clone(due[limit:])

	if len(due) > 0 {
		e.logger.Info("sweep",
			"block", block,
			"resolved", len(report.Resolved),
			"failed", len(report.Failed),
			"deferred", len(report.Deferred),
		)
	}
	return report
}

func (e *Engine) autoResolve(asset ir.AssetID) bool {
	rec, _ := e.store.record(asset)
	if rec.HasBidder() {
		err := e.finalize(asset, rec.HighestBidder, rec.HighestBid)
		if err == nil {
			return true
		}
		e.logger.Warn("settlement with highest bidder failed",
			"asset", asset.String(),
			"bidder", rec.HighestBidder,
			"error", err,
		)
		for _, entry := range e.store.book(asset).Entries() {
			if entry.Bidder == rec.HighestBidder {
				continue
			}
			err := e.finalize(asset, entry.Bidder, entry.Amount)
			if err == nil {
				return true
			}
			e.logger.Debug("fallback settlement failed",
				"asset", asset.String(),
				"bidder", entry.Bidder,
				"error", err,
			)
		}
	}
	e.fail(asset)
	return false
}

// fail ends an auction without a sale.
func (e *Engine) fail(asset ir.AssetID) {
	rec, _ := e.store.record(asset)
	failed := *rec
	if failed.HasBidder() {
		e.currency.Unreserve(failed.HighestBidder, failed.HighestBid)
	}
	if err := e.ownership.Thaw(asset); err != nil {
		e.logger.Error("thaw after failed auction", "asset", asset.String(), "error", err)
	}
	failed.HighestBidder = ""
	failed.ClearingPrice = 0
	e.store.close(asset, failed)
	e.events = append(e.events, auctionFailedEvent(asset))
	e.logger.Info("auction failed", "asset", asset.String())
}
