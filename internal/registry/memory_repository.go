package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/hyperwallet/hyperwallet/internal/chain"
)

type memoryRepository struct {
	mu        sync.RWMutex
	nextToken uint64
	byToken   map[uint64]Account
	byWallet  map[chain.Address]uint64
	allowlist map[chain.Address]bool
}

// NewMemoryRepository constructs an in-memory repository for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		nextToken: 1,
		byToken:   make(map[uint64]Account),
		byWallet:  make(map[chain.Address]uint64),
		allowlist: make(map[chain.Address]bool),
	}
}

func (r *memoryRepository) NextTokenID(_ context.Context) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextToken
	r.nextToken++
	return id, nil
}

func (r *memoryRepository) CreateAccount(_ context.Context, acct Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byToken[acct.TokenID]; exists {
		return errors.New("token exists")
	}
	r.byToken[acct.TokenID] = acct
	r.byWallet[acct.WalletID] = acct.TokenID
	return nil
}

func (r *memoryRepository) AccountByToken(_ context.Context, tokenID uint64) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acct, ok := r.byToken[tokenID]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return acct, nil
}

func (r *memoryRepository) AccountByWallet(_ context.Context, walletID chain.Address) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tokenID, ok := r.byWallet[walletID]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return r.byToken[tokenID], nil
}

func (r *memoryRepository) SetController(_ context.Context, tokenID uint64, controller chain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.byToken[tokenID]
	if !ok {
		return ErrAccountNotFound
	}
	acct.Controller = controller
	r.byToken[tokenID] = acct
	return nil
}

func (r *memoryRepository) AllowModule(_ context.Context, module chain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allowlist[module] = true
	return nil
}

func (r *memoryRepository) DisallowModule(_ context.Context, module chain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.allowlist, module)
	return nil
}

func (r *memoryRepository) IsModuleAllowed(_ context.Context, module chain.Address) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.allowlist[module], nil
}
