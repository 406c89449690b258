package relay

import (
	"sync"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

var ErrInsufficientCycles = errors.New("cycle budget exhausted")

// Budget is the cycle balance the gateway pays metered requests from. It never goes negative.
type Budget struct {
	mu      sync.Mutex
	balance *uint256.Int
	spent   *uint256.Int
}

func NewBudget(cycles *uint256.Int) *Budget {
	return &Budget{
		balance: new(uint256.Int).Set(cycles),
		spent:   new(uint256.Int),
	}
}

// Withdraw debits amount or fails without changing the balance.
func (b *Budget) Withdraw(amount *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.balance.Lt(amount) {
		return errors.Wrapf(ErrInsufficientCycles, "balance %s, required %s", b.balance.Dec(), amount.Dec())
	}

	b.balance.Sub(b.balance, amount)
	b.spent.Add(b.spent, amount)

	return nil
}

// Refund credits amount back, e.g. for a request that was never sent.
func (b *Budget) Refund(amount *uint256.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.balance.Add(b.balance, amount)
	b.spent.Sub(b.spent, amount)
}

func (b *Budget) Balance() *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return new(uint256.Int).Set(b.balance)
}

func (b *Budget) Spent() *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return new(uint256.Int).Set(b.spent)
}
