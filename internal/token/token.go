// Package token defines the fungible deposit asset consumed by the ledger.
// The production asset lives outside this service; only its transfer
// interface is depended on. Bank is an in-memory implementation used by the
// binary in demo mode and by the tests.
package token

import (
	"fmt"
	"sync"

	"TermVault/internal/model"
)

// Asset moves deposit-asset balances between accounts.
type Asset interface {
	// TransferFrom pulls amount from the holder's account into the vault
	// account. Fails when the holder's balance cannot cover it.
	TransferFrom(from, to string, amount int64) error
	// Transfer pays amount out of the vault account.
	Transfer(from, to string, amount int64) error
}

// Bank is an in-memory Asset with per-account balances.
type Bank struct {
	mu       sync.Mutex
	balances map[string]int64
}

// NewBank creates an empty bank.
func NewBank() *Bank {
	return &Bank{balances: make(map[string]int64)}
}

// Mint credits an account out of thin air. Test and demo setup only.
func (b *Bank) Mint(account string, amount int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[account] += amount
}

// BalanceOf returns the account's current balance.
func (b *Bank) BalanceOf(account string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[account]
}

func (b *Bank) TransferFrom(from, to string, amount int64) error {
	return b.move(from, to, amount)
}

func (b *Bank) Transfer(from, to string, amount int64) error {
	return b.move(from, to, amount)
}

func (b *Bank) move(from, to string, amount int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if amount < 0 {
		return fmt.Errorf("transfer amount must not be negative: %w", model.ErrInvalidParameters)
	}
	if b.balances[from] < amount {
		return fmt.Errorf("account %q balance %d below %d: %w", from, b.balances[from], amount, model.ErrTransferFailed)
	}
	b.balances[from] -= amount
	b.balances[to] += amount
	return nil
}
