package ledgerbook

import (
	"context"
	"errors"

	"github.com/hyperwallet/hyperwallet/internal/chain"
)

// ErrTokenNotAdded indicates the asset has no registered settlement mapping.
var ErrTokenNotAdded = errors.New("token not added")

// Token maps an EVM-side asset to its settlement-layer identity: the core
// token index and the system bridge address value must be routed through.
type Token struct {
	Asset         chain.Address // EVM-side asset identifier
	SystemAddress chain.Address // bridge address on both layers
	CoreToken     uint64        // settlement-layer token index
	Name          string
}

// Book is the token registry consulted before any cross-layer movement.
type Book interface {
	Add(ctx context.Context, token Token) error
	InfoFor(ctx context.Context, asset chain.Address) (Token, error)
}
