package wallet

import (
	"context"
	"errors"
	"sync"

	"github.com/hyperwallet/hyperwallet/internal/chain"
)

type permKey struct {
	wallet chain.Address
	module chain.Address
}

type delegKey struct {
	wallet   chain.Address
	module   chain.Address
	delegate chain.Address
}

type memoryRepository struct {
	mu          sync.RWMutex
	wallets     map[chain.Address]Wallet
	modules     map[permKey]bool
	delegations map[delegKey]bool
}

// NewMemoryRepository constructs an in-memory repository for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		wallets:     make(map[chain.Address]Wallet),
		modules:     make(map[permKey]bool),
		delegations: make(map[delegKey]bool),
	}
}

func (r *memoryRepository) Create(_ context.Context, w Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.wallets[w.ID]; exists {
		return errors.New("wallet exists")
	}
	r.wallets[w.ID] = w
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id chain.Address) (Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return w, nil
}

func (r *memoryRepository) IsModuleEnabled(_ context.Context, id, module chain.Address) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.wallets[id]; !ok {
		return false, ErrWalletNotFound
	}
	return r.modules[permKey{id, module}], nil
}

func (r *memoryRepository) SetModuleEnabled(_ context.Context, id, module chain.Address, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wallets[id]; !ok {
		return ErrWalletNotFound
	}
	if enabled {
		r.modules[permKey{id, module}] = true
	} else {
		delete(r.modules, permKey{id, module})
	}
	return nil
}

func (r *memoryRepository) IsDelegateAllowed(_ context.Context, id, module, delegate chain.Address) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.wallets[id]; !ok {
		return false, ErrWalletNotFound
	}
	return r.delegations[delegKey{id, module, delegate}], nil
}

func (r *memoryRepository) SetDelegateAllowed(_ context.Context, id, module, delegate chain.Address, allowed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wallets[id]; !ok {
		return ErrWalletNotFound
	}
	if allowed {
		r.delegations[delegKey{id, module, delegate}] = true
	} else {
		delete(r.delegations, delegKey{id, module, delegate})
	}
	return nil
}

func (r *memoryRepository) UseBlock(_ context.Context, id chain.Address, height uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[id]
	if !ok {
		return ErrWalletNotFound
	}
	if height < w.NextActionBlock {
		return ErrBlockAlreadyUsed
	}
	w.NextActionBlock = height + 1
	r.wallets[id] = w
	return nil
}

func (r *memoryRepository) ReleaseBlock(_ context.Context, id chain.Address, height, prev uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[id]
	if !ok {
		return ErrWalletNotFound
	}
	if w.NextActionBlock == height+1 {
		w.NextActionBlock = prev
		r.wallets[id] = w
	}
	return nil
}
