package ledger

import (
	"errors"
	"fmt"
	"math/bits"
	"slices"

	"github.com/roach88/gavel/internal/ir"
)

var (
	// ErrInsufficientBalance is returned when the free balance cannot cover
	// a reserve, withdraw or transfer.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrOverflow is returned when a credit would overflow a balance or the
	// total issuance.
	ErrOverflow = errors.New("balance overflow")
)

type account struct {
	free     uint64
	reserved uint64
}

// Memory is a map-backed ledger.
type Memory struct {
	accounts map[string]*account
	issuance uint64
}

// NewMemory returns an empty ledger.
func NewMemory() *Memory {
	return &Memory{accounts: make(map[string]*account)}
}

func (m *Memory) get(who string) *account {
	if a, ok := m.accounts[who]; ok {
		return a
	}
	return &account{}
}

func (m *Memory) put(who string, a *account) {
	if a.free == 0 && a.reserved == 0 {
		delete(m.accounts, who)
		return
	}
	m.accounts[who] = a
}

// FreeBalance returns the spendable balance of who.
func (m *Memory) FreeBalance(who string) uint64 {
	return m.get(who).free
}

// ReservedBalance returns the escrowed balance of who.
func (m *Memory) ReservedBalance(who string) uint64 {
	return m.get(who).reserved
}

// TotalIssuance returns the sum of all free and reserved balances.
func (m *Memory) TotalIssuance() uint64 {
	return m.issuance
}

// Reserve moves amount from free to reserved.
func (m *Memory) Reserve(who string, amount uint64) error {
	a := m.get(who)
	if a.free < amount {
		return fmt.Errorf("reserve %d from %s (free %d): %w", amount, who, a.free, ErrInsufficientBalance)
	}
	reserved, carry := bits.Add64(a.reserved, amount, 0)
	if carry != 0 {
		return fmt.Errorf("reserve %d for %s: %w", amount, who, ErrOverflow)
	}
	m.put(who, &account{free: a.free - amount, reserved: reserved})
	return nil
}

// Unreserve moves up to amount from reserved back to free and returns the
// amount actually moved. It never fails.
func (m *Memory) Unreserve(who string, amount uint64) uint64 {
	a := m.get(who)
	moved := min(amount, a.reserved)
	if moved == 0 {
		return 0
	}
	// free+reserved never exceeds issuance, so this cannot overflow.
	m.put(who, &account{free: a.free + moved, reserved: a.reserved - moved})
	return moved
}

// Withdraw burns amount from the free balance of who.
func (m *Memory) Withdraw(who string, amount uint64) error {
	a := m.get(who)
	if a.free < amount {
		return fmt.Errorf("withdraw %d from %s (free %d): %w", amount, who, a.free, ErrInsufficientBalance)
	}
	m.put(who, &account{free: a.free - amount, reserved: a.reserved})
	m.issuance -= amount
	return nil
}

// Deposit mints amount into the free balance of who, creating the account
// if needed.
func (m *Memory) Deposit(who string, amount uint64) error {
	a := m.get(who)
	free, carry := bits.Add64(a.free, amount, 0)
	if carry != 0 {
		return fmt.Errorf("deposit %d to %s: %w", amount, who, ErrOverflow)
	}
	issuance, carry := bits.Add64(m.issuance, amount, 0)
	if carry != 0 {
		return fmt.Errorf("deposit %d to %s: issuance: %w", amount, who, ErrOverflow)
	}
	m.put(who, &account{free: free, reserved: a.reserved})
	m.issuance = issuance
	return nil
}

// Transfer moves amount of free balance from one account to another.
func (m *Memory) Transfer(from, to string, amount uint64) error {
	src := m.get(from)
	if src.free < amount {
		return fmt.Errorf("transfer %d from %s (free %d): %w", amount, from, src.free, ErrInsufficientBalance)
	}
	if from == to {
		return nil
	}
	dst := m.get(to)
	free, carry := bits.Add64(dst.free, amount, 0)
	if carry != 0 {
		return fmt.Errorf("transfer %d to %s: %w", amount, to, ErrOverflow)
	}
	m.put(from, &account{free: src.free - amount, reserved: src.reserved})
	m.put(to, &account{free: free, reserved: dst.reserved})
	return nil
}

// Accounts returns every account with a non-zero balance, sorted.
func (m *Memory) Accounts() []string {
	ids := make([]string, 0, len(m.accounts))
	for id := range m.accounts {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Snapshot returns the canonical form of all balances for the state root.
func (m *Memory) Snapshot() ir.IRObject {
	accounts := make(ir.IRObject, len(m.accounts))
	for id, a := range m.accounts {
		accounts[id] = ir.IRObject{
			"free":     ir.Balance(a.free),
			"reserved": ir.Balance(a.reserved),
		}
	}
	return ir.IRObject{
		"accounts": accounts,
		"issuance": ir.Balance(m.issuance),
	}
}
