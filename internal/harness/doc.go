// Package harness runs scripted chain scenarios as executable tests.
//
// A scenario configures a chain, applies a list of blocks and then checks the
// resulting event trace and final state. Every call goes through the real
// chain and auction engine; nothing is simulated.
//
// # Scenario Format
//
//	name: resolve_by_owner
//	description: "Owner settles with the highest bidder"
//	config:
//	  auction: { fee_percent: 5 }
//	  genesis:
//	    accounts: [{ id: alice, balance: 100 }]
//	    collections:
//	      - { id: 1, owner: creator, items: [{ id: 1, owner: owner }] }
//	blocks:
//	  - calls:
//	      - { origin: owner, kind: list, args: { collection: 1, item: 1 }, expect: Ok }
//	  - number: 5
//	    calls:
//	      - { origin: alice, kind: bid, args: { collection: 1, item: 1, amount: 40 } }
//	assertions:
//	  - type: event_emitted
//	    kind: BidPlaced
//	    payload: { bidder: alice }
//	  - type: final_state
//	    path: ledger.accounts.alice
//	    expect: { free: 60, reserved: 40 }
//
// A block without a number follows the previous one. An expect on a call is
// the receipt outcome: "Ok" or an error code such as "BidTooLow".
//
// # Assertion Types
//
//   - event_emitted: an event of kind whose payload contains the given fields
//   - event_order: first occurrences of the kinds appear in the given order
//   - event_count: exactly count events of kind
//   - final_state: the snapshot value at path matches expect, or is absent
//
// # Determinism
//
// Each run uses a fresh in-memory SQLite store. When the last block is
// applied, the stored log is replayed on a second chain and any divergence
// in state roots, events or outcomes fails the scenario. Traces are compared
// against golden files with goldie.
package harness
