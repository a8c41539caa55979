package ir

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallIDDeterminism(t *testing.T) {
	args := IRObject{"collection": IRInt(1), "item": IRInt(7), "amount": IRInt(50)}

	id1, err := CallID(3, 0, "alice", "bid", args)
	require.NoError(t, err)
	id2, err := CallID(3, 0, "alice", "bid", args)
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "CallID must be deterministic")

	parsed, err := uuid.Parse(id1)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())
}

func TestCallIDChangesWithInput(t *testing.T) {
	args := IRObject{"collection": IRInt(1), "item": IRInt(7)}

	base := MustCallID(1, 0, "alice", "list", args)
	assert.NotEqual(t, base, MustCallID(2, 0, "alice", "list", args))
	assert.NotEqual(t, base, MustCallID(1, 1, "alice", "list", args))
	assert.NotEqual(t, base, MustCallID(1, 0, "bob", "list", args))
	assert.NotEqual(t, base, MustCallID(1, 0, "alice", "resolve", args))
	assert.NotEqual(t, base, MustCallID(1, 0, "alice", "list", IRObject{"collection": IRInt(1), "item": IRInt(8)}))
}

func TestCallIDNilArgs(t *testing.T) {
	assert.Equal(t, MustCallID(1, 0, "root", "withdraw_fees", nil), MustCallID(1, 0, "root", "withdraw_fees", IRObject{}))
}

func TestStateRootKeyOrderIndependent(t *testing.T) {
	a := IRObject{"fees": IRObject{"percent": IRInt(5)}, "auctions": IRObject{}}
	b := IRObject{"auctions": IRObject{}, "fees": IRObject{"percent": IRInt(5)}}

	ra, err := StateRoot(a)
	require.NoError(t, err)
	rb, err := StateRoot(b)
	require.NoError(t, err)

	assert.Equal(t, ra, rb)
	assert.Len(t, ra, 64, "SHA-256 hex is 64 characters")
}

func TestStateRootDomainSeparation(t *testing.T) {
	snap := IRObject{"x": IRInt(1)}
	root, err := StateRoot(snap)
	require.NoError(t, err)

	canonical, err := MarshalCanonical(snap)
	require.NoError(t, err)
	assert.NotEqual(t, hashWithDomain(DomainEvent, canonical), root)
	assert.Equal(t, hashWithDomain(DomainState, canonical), root)
}

func TestEventsHashOrderSensitive(t *testing.T) {
	e1 := EventRecord{Block: 1, Index: 0, Kind: "Listed", Payload: IRObject{"owner": IRString("o")}}
	e2 := EventRecord{Block: 1, Index: 1, Kind: "BidPlaced", Payload: IRObject{"bidder": IRString("a")}}

	h1, err := EventsHash([]EventRecord{e1, e2})
	require.NoError(t, err)
	h2, err := EventsHash([]EventRecord{e2, e1})
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
