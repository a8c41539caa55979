package auction

import (
	"maps"
	"slices"

	"github.com/roach88/gavel/internal/ir"
)

// auctionStore holds the per-asset state of the engine. Every iteration goes
// through sortedAssets so that results never depend on map order.
type auctionStore struct {
	records   map[ir.AssetID]*AuctionRecord
	inAuction map[ir.AssetID]struct{}
	books     map[ir.AssetID]*BidBook
	history   map[ir.AssetID][]AuctionRecord
}

func newAuctionStore() *auctionStore {
	return &auctionStore{
		records:   make(map[ir.AssetID]*AuctionRecord),
		inAuction: make(map[ir.AssetID]struct{}),
		books:     make(map[ir.AssetID]*BidBook),
		history:   make(map[ir.AssetID][]AuctionRecord),
	}
}

func sortedAssets[V any](m map[ir.AssetID]V) []ir.AssetID {
	return slices.SortedFunc(maps.Keys(m), ir.AssetID.Compare)
}

func (s *auctionStore) record(asset ir.AssetID) (*AuctionRecord, bool) {
	r, ok := s.records[asset]
	return r, ok
}

func (s *auctionStore) isInAuction(asset ir.AssetID) bool {
	_, ok := s.inAuction[asset]
	return ok
}

// open stores a fresh record, moving an ended predecessor to history.
func (s *auctionStore) open(asset ir.AssetID, rec AuctionRecord, capacity int) {
	if prev, ok := s.records[asset]; ok {
		s.history[asset] = append(s.history[asset], *prev)
	}
	s.records[asset] = &rec
	s.inAuction[asset] = struct{}{}
	s.books[asset] = NewBidBook(capacity)
}

// close marks an auction ended and drops its book and index entry.
func (s *auctionStore) close(asset ir.AssetID, rec AuctionRecord) {
	rec.Ended = true
	s.records[asset] = &rec
	delete(s.inAuction, asset)
	if book, ok := s.books[asset]; ok {
		book.Clear()
	}
}

func (s *auctionStore) book(asset ir.AssetID) *BidBook {
	return s.books[asset]
}

// active returns the assets currently in auction, ordered by asset.
func (s *auctionStore) active() []ir.AssetID {
	return sortedAssets(s.inAuction)
}

func (s *auctionStore) snapshot() ir.IRObject {
	records := ir.IRObject{}
	for _, asset := range sortedAssets(s.records) {
		records[asset.String()] = s.records[asset].Object()
	}
	books := ir.IRObject{}
	for _, asset := range sortedAssets(s.books) {
		entries := s.books[asset].Entries()
		if len(entries) == 0 {
			continue
		}
		arr := make(ir.IRArray, len(entries))
		for i, e := range entries {
			arr[i] = e.Object()
		}
		books[asset.String()] = arr
	}
	active := ir.IRArray{}
	for _, asset := range s.active() {
		active = append(active, ir.IRString(asset.String()))
	}
	history := ir.IRObject{}
	for _, asset := range sortedAssets(s.history) {
		arr := make(ir.IRArray, len(s.history[asset]))
		for i, r := range s.history[asset] {
			arr[i] = r.Object()
		}
		history[asset.String()] = arr
	}
	return ir.IRObject{
		"auctions":   records,
		"bids":       books,
		"in_auction": active,
		"history":    history,
	}
}
