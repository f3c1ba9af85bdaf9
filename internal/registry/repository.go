package registry

import (
	"context"
	"errors"

	"github.com/hyperwallet/hyperwallet/internal/chain"
)

var (
	// ErrAccountNotFound indicates an unknown token or wallet id.
	ErrAccountNotFound = errors.New("account not found")
	// ErrNotTokenOwner indicates the caller does not hold the ownership token.
	ErrNotTokenOwner = errors.New("caller does not own the token")
)

// Repository persists the ownership index and the global module allowlist.
type Repository interface {
	NextTokenID(ctx context.Context) (uint64, error)
	CreateAccount(ctx context.Context, acct Account) error
	AccountByToken(ctx context.Context, tokenID uint64) (Account, error)
	AccountByWallet(ctx context.Context, walletID chain.Address) (Account, error)
	SetController(ctx context.Context, tokenID uint64, controller chain.Address) error
	AllowModule(ctx context.Context, module chain.Address) error
	DisallowModule(ctx context.Context, module chain.Address) error
	IsModuleAllowed(ctx context.Context, module chain.Address) (bool, error)
}
