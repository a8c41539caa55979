// Package ledger is the in-memory currency ledger used by the auction chain.
//
// Every account has a free and a reserved balance. Reserved funds are escrow:
// they cannot be spent until unreserved. The ledger fails only on
// insufficient funds or arithmetic overflow, and every failing call leaves
// balances untouched.
//
// Memory is not safe for concurrent use; the chain's block producer is its
// only writer.
package ledger
