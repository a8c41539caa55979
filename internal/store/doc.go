// Package store provides SQLite-backed durable storage for the block log.
//
// The log is append-only:
//   - Meta: genesis and engine version of the chain
//   - Blocks: state root, events hash and sweep counts per block
//   - Calls: every included call with its receipt
//   - Events: every emitted event, positioned in its block
//
// # Ordering
//
// Block numbers and in-block indices are the only ordering keys; there are
// no timestamps. Every read ends in an ORDER BY on those keys so results are
// identical across nodes and replays.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Args and payloads are stored as RFC 8785 canonical JSON produced by the ir
// package.
package store
