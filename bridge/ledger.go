package bridge

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger is the fungible token collaborator of a bridge instance. Errors are
// returned to the bridge caller unchanged.
type Ledger interface {
	// Debit removes amount from the holder balance (burn).
	Debit(ctx context.Context, holder common.Address, amount *big.Int) error
	// Credit adds amount to the recipient balance (mint).
	Credit(ctx context.Context, recipient common.Address, amount *big.Int) error
}

var ErrInsufficientBalance = errors.New("insufficient balance")

// MemoryLedger keeps balances in memory, used by local simulations and tests.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[common.Address]*big.Int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[common.Address]*big.Int),
	}
}

func (l *MemoryLedger) BalanceOf(holder common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.balances[holder]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (l *MemoryLedger) Debit(_ context.Context, holder common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	balance, ok := l.balances[holder]
	if !ok || balance.Cmp(amount) < 0 {
		return fmt.Errorf("can't debit %s from %s: %w", amount, holder, ErrInsufficientBalance)
	}
	l.balances[holder] = new(big.Int).Sub(balance, amount)
	return nil
}

func (l *MemoryLedger) Credit(_ context.Context, recipient common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	balance, ok := l.balances[recipient]
	if !ok {
		balance = new(big.Int)
	}
	l.balances[recipient] = new(big.Int).Add(balance, amount)
	return nil
}
