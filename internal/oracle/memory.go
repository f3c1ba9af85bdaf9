package oracle

import (
	"context"
	"sync"

	"github.com/hyperwallet/hyperwallet/internal/chain"
)

type spotKey struct {
	account chain.Address
	token   uint64
}

type vaultKey struct {
	account chain.Address
	vault   chain.Address
}

// Memory is a settable in-memory oracle for tests and local development.
type Memory struct {
	mu           sync.RWMutex
	spot         map[spotKey]SpotBalance
	withdrawable map[chain.Address]uint64
	vaults       map[vaultKey]VaultEquity
	users        map[chain.Address]bool
}

// NewMemory creates an empty in-memory oracle.
func NewMemory() *Memory {
	return &Memory{
		spot:         make(map[spotKey]SpotBalance),
		withdrawable: make(map[chain.Address]uint64),
		vaults:       make(map[vaultKey]VaultEquity),
		users:        make(map[chain.Address]bool),
	}
}

func (m *Memory) SpotBalance(_ context.Context, account chain.Address, token uint64) (SpotBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.spot[spotKey{account, token}], nil
}

func (m *Memory) Withdrawable(_ context.Context, account chain.Address) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.withdrawable[account], nil
}

func (m *Memory) VaultEquity(_ context.Context, account, vault chain.Address) (VaultEquity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.vaults[vaultKey{account, vault}], nil
}

func (m *Memory) UserExists(_ context.Context, account chain.Address) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[account], nil
}

// SetSpotBalance snapshots a spot balance row.
func (m *Memory) SetSpotBalance(account chain.Address, token uint64, b SpotBalance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spot[spotKey{account, token}] = b
}

// SetWithdrawable snapshots the withdrawable amount for an account.
func (m *Memory) SetWithdrawable(account chain.Address, wei uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.withdrawable[account] = wei
}

// SetVaultEquity snapshots a vault equity row.
func (m *Memory) SetVaultEquity(account, vault chain.Address, e VaultEquity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vaults[vaultKey{account, vault}] = e
}

// SetUserExists snapshots settlement-layer presence for an account.
func (m *Memory) SetUserExists(account chain.Address, exists bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[account] = exists
}

// UpsertSpotBalance matches the Postgres ingest surface.
func (m *Memory) UpsertSpotBalance(_ context.Context, account chain.Address, token uint64, b SpotBalance) error {
	m.SetSpotBalance(account, token, b)
	return nil
}

// UpsertWithdrawable matches the Postgres ingest surface.
func (m *Memory) UpsertWithdrawable(_ context.Context, account chain.Address, amount uint64) error {
	m.SetWithdrawable(account, amount)
	return nil
}

// UpsertVaultEquity matches the Postgres ingest surface.
func (m *Memory) UpsertVaultEquity(_ context.Context, account, vault chain.Address, e VaultEquity) error {
	m.SetVaultEquity(account, vault, e)
	return nil
}

// UpsertUser matches the Postgres ingest surface.
func (m *Memory) UpsertUser(_ context.Context, account chain.Address) error {
	m.SetUserExists(account, true)
	return nil
}
