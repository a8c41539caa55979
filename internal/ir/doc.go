// Package ir provides the canonical record types shared by the chain, the
// store and the harness.
//
// ir imports nothing internal. Everything that is hashed or persisted passes
// through this package so that two nodes fed the same calls produce the same
// bytes.
//
// Constraints:
//   - NO float types anywhere; balances travel as decimal strings, small
//     integers as int64
//   - Block numbers are the only clock; never wall-clock timestamps
//   - All JSON tags use snake_case
//   - Canonical JSON (RFC 8785) is the only encoding used for hashing
package ir
