package wallet

import (
	"context"
	"errors"

	"github.com/hyperwallet/hyperwallet/internal/chain"
)

var (
	// ErrWalletNotFound indicates the wallet id is unknown.
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrBlockAlreadyUsed indicates a state-mutating action was already
	// accepted for this wallet at the current block height.
	ErrBlockAlreadyUsed = errors.New("block already used")
)

// Repository persists wallet permission and rate-limit state.
type Repository interface {
	Create(ctx context.Context, w Wallet) error
	Get(ctx context.Context, id chain.Address) (Wallet, error)
	IsModuleEnabled(ctx context.Context, id, module chain.Address) (bool, error)
	SetModuleEnabled(ctx context.Context, id, module chain.Address, enabled bool) error
	IsDelegateAllowed(ctx context.Context, id, module, delegate chain.Address) (bool, error)
	SetDelegateAllowed(ctx context.Context, id, module, delegate chain.Address, allowed bool) error
	// UseBlock atomically claims the given height for the wallet. It fails
	// with ErrBlockAlreadyUsed unless height is at or past the wallet's
	// NextActionBlock.
	UseBlock(ctx context.Context, id chain.Address, height uint64) error
	// ReleaseBlock undoes a UseBlock claim at the given height, restoring
	// NextActionBlock to prev. It is a no-op if the slot was claimed again
	// in the meantime.
	ReleaseBlock(ctx context.Context, id chain.Address, height, prev uint64) error
}
