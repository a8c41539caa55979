// Package auction implements the marketplace engine: listing assets,
// escrowed bidding, manual and timed resolution, and atomic settlement.
//
// The engine is a deterministic state machine. It holds no clock of its own;
// the current block comes from the injected Clock, and the timeout sweep runs
// when the host calls OnInitialize at the start of each block. Funds and asset
// custody live in collaborators (Currency and Ownership) that the engine only
// drives through their interfaces.
//
// Escrow model:
//   - The highest bidder's bid is reserved in the ledger while the auction runs.
//   - Outbid entries stay in the bid book as fallback offers without escrow.
//   - Settlement charges the buyer from escrow plus free balance.
//
// Every multi-step mutation runs inside a journal of compensating actions, so
// a failure at any step leaves ledger, registry and engine state untouched.
package auction
