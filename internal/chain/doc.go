// Package chain is a single-node block producer around the auction engine.
//
// A block is applied in a fixed order: the clock advances to the block
// number, the engine's timeout sweep runs, then the block's calls are
// dispatched one at a time. The chain hashes the resulting state into a
// state root and hands the block to a BlockStore. Replaying the stored calls
// from the same genesis must reproduce every state root; that is the
// determinism check behind `gavel replay`.
//
// Thread-safety model:
//   - Submit: safe from any goroutine
//   - ProduceBlock, ApplyBlock, Run: exactly one goroutine
package chain
