// Package module holds the authorization primitives shared by every concrete
// capability module. These are composable guards, not full operations: each
// module operation applies the subset it needs before routing anything.
package module

import (
	"context"
	"errors"

	"github.com/hyperwallet/hyperwallet/internal/chain"
	"github.com/hyperwallet/hyperwallet/internal/oracle"
	"github.com/hyperwallet/hyperwallet/internal/wallet"
)

var (
	// ErrOnlyOwnerOrAllowed indicates the caller is neither the wallet's
	// controller nor a delegate allowed for this module.
	ErrOnlyOwnerOrAllowed = errors.New("only wallet owner or allowed delegate")
	// ErrWalletNotEnabled indicates the wallet has no settlement-layer
	// presence yet.
	ErrWalletNotEnabled = errors.New("wallet not enabled on settlement layer")
)

// Guard bundles the lookups the checks need.
type Guard struct {
	wallets  *wallet.Service
	registry wallet.Registry
	oracle   oracle.Oracle
}

// NewGuard builds a guard over the wallet core, registry, and oracle.
func NewGuard(wallets *wallet.Service, registry wallet.Registry, o oracle.Oracle) *Guard {
	return &Guard{wallets: wallets, registry: registry, oracle: o}
}

// RequireOwnerOrAllowed passes when the caller is the wallet's current
// controller (resolved via the registry, never cached) or a delegate
// explicitly allowed for the module on that wallet.
func (g *Guard) RequireOwnerOrAllowed(ctx context.Context, walletID, moduleID, caller chain.Address) error {
	controller, err := g.registry.ControllerOfWallet(ctx, walletID)
	if err != nil {
		return err
	}
	if caller == controller {
		return nil
	}
	allowed, err := g.wallets.IsDelegateAllowed(ctx, walletID, moduleID, caller)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrOnlyOwnerOrAllowed
	}
	return nil
}

// RequireCoreUser passes when the wallet already exists on the settlement
// layer, per the oracle's last observed state.
func (g *Guard) RequireCoreUser(ctx context.Context, walletID chain.Address) error {
	exists, err := g.oracle.UserExists(ctx, walletID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrWalletNotEnabled
	}
	return nil
}
