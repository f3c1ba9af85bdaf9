package bank

import (
	"context"
	"errors"

	"github.com/hyperwallet/hyperwallet/internal/chain"
)

var (
	// ErrInsufficientFunds occurs when the source account lacks available balance
	// to cover a requested posting.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicateTransaction indicates the provided client transaction identifier
	// already exists and therefore the operation should be treated as idempotent.
	ErrDuplicateTransaction = errors.New("duplicate transaction")
)

const (
	// StatusPendingSettlement marks an external movement awaiting confirmation.
	StatusPendingSettlement = "pending_settlement"
	// StatusCompleted marks a settled posting.
	StatusCompleted = "completed"
	// ExternalSuspenseAccountCode parks value entering or leaving the EVM side.
	ExternalSuspenseAccountCode = "suspense:external"
)

// AccountCode derives the bank account code for a holder's balance of an asset.
func AccountCode(asset, holder chain.Address) string {
	return string(asset) + ":" + string(holder)
}

// TransactionResult captures the outcome of a bank posting.
type TransactionResult struct {
	TransactionID string
	FromBalance   int64
	ToBalance     int64
}

// MovementResult captures the outcome of an external in/out movement.
type MovementResult struct {
	TransactionID  string
	AccountBalance int64
	Status         string
}

// Bank defines the contract implemented by EVM-side balance backends
// (e.g. Postgres).
type Bank interface {
	EnsureAccount(ctx context.Context, code string) error
	Balance(ctx context.Context, code string) (int64, error)
	Transfer(ctx context.Context, fromCode, toCode, kind, clientTxID string, amount int64) (TransactionResult, error)
	ExternalIn(ctx context.Context, code, clientTxID string, amount int64) (MovementResult, error)
	ExternalOut(ctx context.Context, code, clientTxID string, amount int64) (MovementResult, error)
}
