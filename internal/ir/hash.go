package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Domain prefixes for content hashing. The version suffix allows a future
// algorithm change without ambiguity.
const (
	DomainState = "gavel/state/v1"
	DomainEvent = "gavel/event/v1"
)

// CallNamespace is the UUID namespace for name-based call IDs.
var CallNamespace = uuid.MustParse("6f1d3c52-8a4e-4b7e-9b1a-2f0c5d7e9a10")

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StateRoot hashes a canonical state snapshot. Two nodes agree on state iff
// their roots are equal.
func StateRoot(snapshot IRObject) (string, error) {
	canonical, err := MarshalCanonical(snapshot)
	if err != nil {
		return "", fmt.Errorf("StateRoot: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainState, canonical), nil
}

// EventsHash hashes an ordered event list; replay compares it per block.
func EventsHash(events []EventRecord) (string, error) {
	arr := make(IRArray, len(events))
	for i, ev := range events {
		arr[i] = ev.Object()
	}
	canonical, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("EventsHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEvent, canonical), nil
}

// CallID computes the identity of a call included at (block, index).
// It is a name-based (SHA-1) UUID over the canonical call body, so every node
// derives the same ID.
func CallID(block int64, index int, origin, kind string, args IRObject) (string, error) {
	if args == nil {
		args = IRObject{}
	}
	obj := IRObject{
		"block":  IRInt(block),
		"index":  IRInt(int64(index)),
		"origin": IRString(origin),
		"kind":   IRString(kind),
		"args":   args,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("CallID: failed to marshal: %w", err)
	}
	return uuid.NewSHA1(CallNamespace, canonical).String(), nil
}

// MustCallID is like CallID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCallID(block int64, index int, origin, kind string, args IRObject) string {
	id, err := CallID(block, index, origin, kind, args)
	if err != nil {
		panic(err)
	}
	return id
}
