package auction

import (
	"math/bits"
)

// treasury tracks the marketplace fee rate and the fees collected so far.
// The collected balance itself sits in the ledger under account.
type treasury struct {
	account     string
	feePercent  uint8
	accumulated uint64
}

// percentOf returns floor(amount * percent / 100) without intermediate
// overflow. percent must not exceed 100.
func percentOf(amount uint64, percent uint8) uint64 {
	hi, lo := bits.Mul64(amount, uint64(percent))
	q, _ := bits.Div64(hi, lo, 100)
	return q
}

// split divides a sale into the marketplace fee and the seller payout.
func (t *treasury) split(amount uint64) (fee, payout uint64) {
	fee = percentOf(amount, t.feePercent)
	return fee, amount - fee
}
