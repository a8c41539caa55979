package auction

import (
	"slices"
)

// BidBook is a bounded list of offers sorted by amount, highest first.
// A bidder appears at most once. Among equal amounts the earlier bid ranks
// higher.
type BidBook struct {
	capacity int
	entries  []BidEntry
}

// NewBidBook returns an empty book holding at most capacity entries.
func NewBidBook(capacity int) *BidBook {
	return &BidBook{capacity: capacity}
}

// Len returns the number of entries.
func (b *BidBook) Len() int {
	return len(b.entries)
}

// Capacity returns the maximum number of entries.
func (b *BidBook) Capacity() int {
	return b.capacity
}

// Entries returns a copy of the entries, highest first.
func (b *BidBook) Entries() []BidEntry {
	return slices.Clone(b.entries)
}

func (b *BidBook) indexOf(bidder string) int {
	return slices.IndexFunc(b.entries, func(e BidEntry) bool { return e.Bidder == bidder })
}

// rank is the position a new entry of amount takes: after every entry of at
// least that amount.
func (b *BidBook) rank(amount uint64) int {
	i, _ := slices.BinarySearchFunc(b.entries, amount, func(e BidEntry, target uint64) int {
		if e.Amount >= target {
			return -1
		}
		return 1
	})
	return i
}

// Insert places e at its rank, replacing any earlier entry by the same
// bidder. When the book is full the lowest entry is evicted and returned,
// unless e would itself rank outside the capacity, which is ErrBidTooLow.
// The book is unchanged on error.
func (b *BidBook) Insert(e BidEntry) (evicted *BidEntry, err error) {
	if b.capacity < 1 {
		return nil, newError(CodeTooManyBids, "bid book has no capacity")
	}
	next := &BidBook{capacity: b.capacity, entries: slices.Clone(b.entries)}
	if i := next.indexOf(e.Bidder); i >= 0 {
		next.entries = slices.Delete(next.entries, i, i+1)
	}
	pos := next.rank(e.Amount)
	if len(next.entries) >= b.capacity {
		if pos >= b.capacity {
			return nil, newError(CodeBidTooLow, "bid %d ranks outside the top %d", e.Amount, b.capacity)
		}
		last := next.entries[len(next.entries)-1]
		evicted = &last
		next.entries = next.entries[:len(next.entries)-1]
	}
	b.entries = slices.Insert(next.entries, pos, e)
	return evicted, nil
}

// Clear drops every entry.
func (b *BidBook) Clear() {
	b.entries = nil
}

// Clone returns an independent copy of the book.
func (b *BidBook) Clone() *BidBook {
	return &BidBook{capacity: b.capacity, entries: slices.Clone(b.entries)}
}
