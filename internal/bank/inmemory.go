package bank

import (
	"context"
	"sync"
)

type inMemoryBank struct {
	mu           sync.RWMutex
	balances     map[string]int64
	transactions map[string]TransactionResult
	movements    map[string]MovementResult
}

// NewInMemory creates a concurrency-safe in-memory bank useful for unit tests
// and for running the service without a database.
func NewInMemory() Bank {
	return &inMemoryBank{
		balances:     make(map[string]int64),
		transactions: make(map[string]TransactionResult),
		movements:    make(map[string]MovementResult),
	}
}

func (b *inMemoryBank) EnsureAccount(_ context.Context, code string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.balances[code]; !exists {
		b.balances[code] = 0
	}
	return nil
}

func (b *inMemoryBank) Balance(_ context.Context, code string) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	balance, exists := b.balances[code]
	if !exists {
		return 0, nil
	}
	return balance, nil
}

func (b *inMemoryBank) Transfer(_ context.Context, fromCode, toCode, kind, clientTxID string, amount int64) (TransactionResult, error) {
	if amount <= 0 {
		return TransactionResult{}, ErrInsufficientFunds
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if res, exists := b.transactions[kind+":"+clientTxID]; exists {
		return res, ErrDuplicateTransaction
	}

	fromBalance := b.balances[fromCode]
	toBalance := b.balances[toCode]

	if fromBalance < amount {
		return TransactionResult{}, ErrInsufficientFunds
	}

	fromBalance -= amount
	toBalance += amount

	b.balances[fromCode] = fromBalance
	b.balances[toCode] = toBalance

	res := TransactionResult{
		TransactionID: kind + ":" + clientTxID,
		FromBalance:   fromBalance,
		ToBalance:     toBalance,
	}

	b.transactions[kind+":"+clientTxID] = res
	return res, nil
}

func (b *inMemoryBank) ExternalIn(_ context.Context, code, clientTxID string, amount int64) (MovementResult, error) {
	if amount <= 0 {
		return MovementResult{}, ErrInsufficientFunds
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := "external_in:" + clientTxID
	if res, exists := b.movements[key]; exists {
		return res, ErrDuplicateTransaction
	}

	balance := b.balances[code] + amount
	b.balances[code] = balance
	b.balances[ExternalSuspenseAccountCode] -= amount

	res := MovementResult{
		TransactionID:  key,
		AccountBalance: balance,
		Status:         StatusPendingSettlement,
	}
	b.movements[key] = res
	return res, nil
}

func (b *inMemoryBank) ExternalOut(_ context.Context, code, clientTxID string, amount int64) (MovementResult, error) {
	if amount <= 0 {
		return MovementResult{}, ErrInsufficientFunds
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := "external_out:" + clientTxID
	if res, exists := b.movements[key]; exists {
		return res, ErrDuplicateTransaction
	}

	balance := b.balances[code]
	if balance < amount {
		return MovementResult{}, ErrInsufficientFunds
	}

	balance -= amount
	b.balances[code] = balance
	b.balances[ExternalSuspenseAccountCode] += amount

	res := MovementResult{
		TransactionID:  key,
		AccountBalance: balance,
		Status:         StatusPendingSettlement,
	}
	b.movements[key] = res
	return res, nil
}
