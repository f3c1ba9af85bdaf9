package wallet

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/hyperwallet/hyperwallet/internal/bank"
	"github.com/hyperwallet/hyperwallet/internal/chain"
	"github.com/hyperwallet/hyperwallet/internal/events"
	"github.com/hyperwallet/hyperwallet/internal/ledgerbook"
)

var (
	// ErrModuleNotEnabled indicates the calling module is not in the wallet's
	// enabled set.
	ErrModuleNotEnabled = errors.New("module not enabled")
	// ErrModuleNotActive indicates the module is absent from the registry's
	// global allowlist at enable time.
	ErrModuleNotActive = errors.New("module not active")
	// ErrNotOwner indicates the caller is not the wallet's current controller.
	ErrNotOwner = errors.New("caller is not the wallet owner")
	// ErrActionFailed indicates a routed downstream call failed; the whole
	// operation is aborted.
	ErrActionFailed = errors.New("action failed")
	// ErrTokenNotSupported indicates a cross-layer transfer of an asset with
	// no registered settlement mapping.
	ErrTokenNotSupported = errors.New("token not supported")
	// ErrAmountTooLarge indicates an amount outside the bank's posting range.
	ErrAmountTooLarge = errors.New("amount too large")
)

// Registry is the slice of the registry surface the wallet core consumes.
// Controller resolution goes through here on every call, never cached.
type Registry interface {
	ControllerOfWallet(ctx context.Context, wallet chain.Address) (chain.Address, error)
	IsModuleAllowed(ctx context.Context, module chain.Address) (bool, error)
}

// Clock reports the block height used by the one-action-per-block guard.
type Clock interface {
	Height(ctx context.Context) (uint64, error)
}

// Target is a destination a wallet can route a payload to.
type Target interface {
	Call(ctx context.Context, payload []byte) error
}

// TargetFunc adapts a function to the Target interface.
type TargetFunc func(ctx context.Context, payload []byte) error

// Call invokes the function.
func (f TargetFunc) Call(ctx context.Context, payload []byte) error { return f(ctx, payload) }

// Service is the wallet permission and routing core. Every downstream call a
// module issues on a wallet's behalf passes through here.
type Service struct {
	repo      Repository
	registry  Registry
	clock     Clock
	bank      bank.Bank
	book      ledgerbook.Book
	emitter   events.Emitter
	targets   map[chain.Address]Target
	hypeAsset chain.Address
}

// NewService builds the wallet core.
func NewService(repo Repository, registry Registry, clock Clock, bk bank.Bank, book ledgerbook.Book, emitter events.Emitter, hypeAsset chain.Address) *Service {
	return &Service{
		repo:      repo,
		registry:  registry,
		clock:     clock,
		bank:      bk,
		book:      book,
		emitter:   emitter,
		targets:   make(map[chain.Address]Target),
		hypeAsset: hypeAsset,
	}
}

// RegisterTarget wires a callable destination address. The relay sits at the
// core-writer address; test rigs register recording targets.
func (s *Service) RegisterTarget(destination chain.Address, target Target) {
	s.targets[destination] = target
}

// Get returns wallet state.
func (s *Service) Get(ctx context.Context, id chain.Address) (Wallet, error) {
	return s.repo.Get(ctx, id)
}

// IsModuleEnabled reports whether a module is enabled on a wallet.
func (s *Service) IsModuleEnabled(ctx context.Context, id, module chain.Address) (bool, error) {
	return s.repo.IsModuleEnabled(ctx, id, module)
}

// IsDelegateAllowed reports whether a delegate may act through a module.
func (s *Service) IsDelegateAllowed(ctx context.Context, id, module, delegate chain.Address) (bool, error) {
	return s.repo.IsDelegateAllowed(ctx, id, module, delegate)
}

// DoAction routes one payload to a destination on behalf of the wallet. The
// calling module must be enabled and the wallet must not have used the current
// block yet.
func (s *Service) DoAction(ctx context.Context, id, module, destination chain.Address, payload []byte) error {
	return s.DoActions(ctx, id, module, destination, [][]byte{payload})
}

// DoActions routes a batch of payloads as one logical action: the batch claims
// a single block slot and is dispatched all-or-nothing in sequence order.
func (s *Service) DoActions(ctx context.Context, id, module, destination chain.Address, payloads [][]byte) error {
	if len(payloads) == 0 {
		return fmt.Errorf("%w: empty batch", ErrActionFailed)
	}

	// Resolve the destination before touching any state so a bad address
	// costs the wallet nothing.
	target, ok := s.targets[destination]
	if !ok {
		return fmt.Errorf("%w: no target at %s", ErrActionFailed, destination)
	}

	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	enabled, err := s.repo.IsModuleEnabled(ctx, id, module)
	if err != nil {
		return err
	}
	if !enabled {
		return ErrModuleNotEnabled
	}

	height, err := s.clock.Height(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.UseBlock(ctx, id, height); err != nil {
		return err
	}

	for i, payload := range payloads {
		if err := target.Call(ctx, payload); err != nil {
			if i == 0 {
				// Nothing reached the relay: hand the block slot back.
				_ = s.repo.ReleaseBlock(ctx, id, height, w.NextActionBlock)
			}
			return fmt.Errorf("%w: payload %d: %v", ErrActionFailed, i, err)
		}
		s.emitter.Emit(ctx, events.Event{
			Kind:   events.KindActionExecuted,
			Wallet: string(id),
			Module: string(module),
			Attrs:  map[string]any{"destination": string(destination), "bytes": len(payload), "block": height},
		})
	}
	return nil
}

// ToggleModule enables or disables a module for the wallet. Controller only;
// enabling additionally requires the module to be on the registry allowlist.
// Disabling is never blocked by the allowlist, so a de-listed module can
// always be removed.
func (s *Service) ToggleModule(ctx context.Context, id, caller, module chain.Address, enabled bool) error {
	controller, err := s.registry.ControllerOfWallet(ctx, id)
	if err != nil {
		return err
	}
	if caller != controller {
		return ErrNotOwner
	}
	if enabled {
		allowed, err := s.registry.IsModuleAllowed(ctx, module)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrModuleNotActive
		}
	}
	if err := s.repo.SetModuleEnabled(ctx, id, module, enabled); err != nil {
		return err
	}
	s.emitter.Emit(ctx, events.Event{
		Kind:   events.KindModuleToggled,
		Wallet: string(id),
		Module: string(module),
		Attrs:  map[string]any{"enabled": enabled},
	})
	return nil
}

// ToggleAllowance marks a delegate as allowed (or not) to act through a module
// on this wallet. Controller only.
func (s *Service) ToggleAllowance(ctx context.Context, id, caller, module, delegate chain.Address, allowed bool) error {
	controller, err := s.registry.ControllerOfWallet(ctx, id)
	if err != nil {
		return err
	}
	if caller != controller {
		return ErrNotOwner
	}
	if err := s.repo.SetDelegateAllowed(ctx, id, module, delegate, allowed); err != nil {
		return err
	}
	s.emitter.Emit(ctx, events.Event{
		Kind:   events.KindAllowanceToggled,
		Wallet: string(id),
		Module: string(module),
		Attrs:  map[string]any{"delegate": string(delegate), "allowed": allowed},
	})
	return nil
}

// TransferHypeToCoreSpot moves the caller's native-asset balance toward the
// wallet's settlement-layer account. Open to any caller: funding a wallet's
// core balance extracts nothing.
func (s *Service) TransferHypeToCoreSpot(ctx context.Context, id, caller chain.Address, amount uint64) error {
	return s.bridgeToCore(ctx, id, caller, s.hypeAsset, amount)
}

// TransferTokenToCoreSpot moves a token balance toward the wallet's
// settlement-layer account. Open to any caller.
func (s *Service) TransferTokenToCoreSpot(ctx context.Context, id, caller, asset chain.Address, amount uint64) error {
	return s.bridgeToCore(ctx, id, caller, asset, amount)
}

func (s *Service) bridgeToCore(ctx context.Context, id, caller, asset chain.Address, amount uint64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	token, err := s.book.InfoFor(ctx, asset)
	if err != nil {
		if errors.Is(err, ledgerbook.ErrTokenNotAdded) {
			return ErrTokenNotSupported
		}
		return err
	}
	posting, err := postingAmount(amount)
	if err != nil {
		return err
	}
	_, err = s.bank.Transfer(ctx,
		bank.AccountCode(asset, caller),
		bank.AccountCode(asset, token.SystemAddress),
		"bridge_to_core:"+string(id), uuid.NewString(), posting)
	return err
}

// Withdraw is the controller's unconditional EVM-side exit, independent of the
// module system.
func (s *Service) Withdraw(ctx context.Context, id, caller, asset chain.Address, amount uint64) error {
	controller, err := s.registry.ControllerOfWallet(ctx, id)
	if err != nil {
		return err
	}
	if caller != controller {
		return ErrNotOwner
	}
	posting, err := postingAmount(amount)
	if err != nil {
		return err
	}
	_, err = s.bank.Transfer(ctx,
		bank.AccountCode(asset, id),
		bank.AccountCode(asset, controller),
		"withdraw", uuid.NewString(), posting)
	return err
}

func postingAmount(amount uint64) (int64, error) {
	if amount > math.MaxInt64 {
		return 0, ErrAmountTooLarge
	}
	return int64(amount), nil
}
