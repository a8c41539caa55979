package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gavel/internal/ir"
)

func funded(t *testing.T, balances map[string]uint64) *Memory {
	t.Helper()
	m := NewMemory()
	for who, amount := range balances {
		require.NoError(t, m.Deposit(who, amount))
	}
	return m
}

func TestReserveAndUnreserve(t *testing.T) {
	m := funded(t, map[string]uint64{"alice": 100})

	require.NoError(t, m.Reserve("alice", 60))
	assert.Equal(t, uint64(40), m.FreeBalance("alice"))
	assert.Equal(t, uint64(60), m.ReservedBalance("alice"))

	moved := m.Unreserve("alice", 100)
	assert.Equal(t, uint64(60), moved, "unreserve is capped at the reserved balance")
	assert.Equal(t, uint64(100), m.FreeBalance("alice"))
	assert.Equal(t, uint64(0), m.ReservedBalance("alice"))
}

func TestReserveInsufficient(t *testing.T) {
	m := funded(t, map[string]uint64{"alice": 10})

	err := m.Reserve("alice", 11)
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, uint64(10), m.FreeBalance("alice"))
	assert.Equal(t, uint64(0), m.ReservedBalance("alice"))
}

func TestWithdrawBurnsIssuance(t *testing.T) {
	m := funded(t, map[string]uint64{"alice": 100, "bob": 50})
	assert.Equal(t, uint64(150), m.TotalIssuance())

	require.NoError(t, m.Withdraw("alice", 30))
	assert.Equal(t, uint64(70), m.FreeBalance("alice"))
	assert.Equal(t, uint64(120), m.TotalIssuance())

	require.ErrorIs(t, m.Withdraw("bob", 51), ErrInsufficientBalance)
	assert.Equal(t, uint64(120), m.TotalIssuance())
}

func TestWithdrawIgnoresReserved(t *testing.T) {
	m := funded(t, map[string]uint64{"alice": 100})
	require.NoError(t, m.Reserve("alice", 80))

	require.ErrorIs(t, m.Withdraw("alice", 30), ErrInsufficientBalance)
}

func TestDepositOverflow(t *testing.T) {
	m := funded(t, map[string]uint64{"alice": math.MaxUint64})

	err := m.Deposit("alice", 1)
	require.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, uint64(math.MaxUint64), m.FreeBalance("alice"))

	err = m.Deposit("bob", 1)
	require.ErrorIs(t, err, ErrOverflow, "issuance overflow")
	assert.Equal(t, uint64(0), m.FreeBalance("bob"))
}

func TestTransfer(t *testing.T) {
	m := funded(t, map[string]uint64{"alice": 100})

	require.NoError(t, m.Transfer("alice", "bob", 40))
	assert.Equal(t, uint64(60), m.FreeBalance("alice"))
	assert.Equal(t, uint64(40), m.FreeBalance("bob"))
	assert.Equal(t, uint64(100), m.TotalIssuance())

	require.ErrorIs(t, m.Transfer("bob", "alice", 41), ErrInsufficientBalance)
	assert.Equal(t, uint64(40), m.FreeBalance("bob"))

	require.NoError(t, m.Transfer("alice", "alice", 60))
	assert.Equal(t, uint64(60), m.FreeBalance("alice"))
}

func TestEmptyAccountsAreDropped(t *testing.T) {
	m := funded(t, map[string]uint64{"alice": 10, "bob": 5})
	require.NoError(t, m.Withdraw("alice", 10))

	assert.Equal(t, []string{"bob"}, m.Accounts())
}

func TestSnapshot(t *testing.T) {
	m := funded(t, map[string]uint64{"alice": 10})
	require.NoError(t, m.Reserve("alice", 4))

	assert.Equal(t, ir.IRObject{
		"accounts": ir.IRObject{
			"alice": ir.IRObject{"free": ir.IRString("6"), "reserved": ir.IRString("4")},
		},
		"issuance": ir.IRString("10"),
	}, m.Snapshot())
}
