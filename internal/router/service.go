package router

import (
	"context"
	"errors"
	"time"

	"github.com/hyperwallet/hyperwallet/internal/action"
	"github.com/hyperwallet/hyperwallet/internal/chain"
	"github.com/hyperwallet/hyperwallet/internal/module"
	"github.com/hyperwallet/hyperwallet/internal/oracle"
	"github.com/hyperwallet/hyperwallet/internal/wallet"
)

var (
	// ErrRawActionDisabled indicates the raw entry points are closed for this
	// variant.
	ErrRawActionDisabled = errors.New("raw actions disabled for this variant")
	// ErrTypedActionDisabled indicates typed operations are not part of this
	// variant's capability set.
	ErrTypedActionDisabled = errors.New("typed actions disabled for this variant")
	// ErrTifNotSupported indicates an out-of-range time-in-force code.
	ErrTifNotSupported = errors.New("encoded tif not supported")
	// ErrVariantNotSupported indicates an out-of-range finalize variant code.
	ErrVariantNotSupported = errors.New("finalize variant not supported")
	// ErrNotEnoughAmount indicates a pre-flight balance or equity check failed.
	ErrNotEnoughAmount = errors.New("not enough amount")
	// ErrAmountLocked indicates vault equity is still inside its lock window.
	ErrAmountLocked = errors.New("amount locked")
)

// Config fixes the router module's identity and settlement constants at
// construction.
type Config struct {
	ModuleID   chain.Address // this module's address
	CoreWriter chain.Address // destination the wallet routes payloads to
	UsdcToken  uint64        // core token index used for usd-denominated checks
	HypeToken  uint64        // core token index of the native staking asset
}

// Service routes high-level intents into encoded settlement-layer actions
// through the wallet core. One instance per deployed variant.
type Service struct {
	cfg     Config
	variant Variant
	guard   *module.Guard
	wallets *wallet.Service
	oracle  oracle.Oracle
	now     func() time.Time
}

// NewService builds a router module of the given variant.
func NewService(cfg Config, variant Variant, guard *module.Guard, wallets *wallet.Service, o oracle.Oracle) *Service {
	return &Service{cfg: cfg, variant: variant, guard: guard, wallets: wallets, oracle: o, now: time.Now}
}

// ModuleID returns the module's address identity.
func (s *Service) ModuleID() chain.Address { return s.cfg.ModuleID }

// Variant returns the capability profile.
func (s *Service) Variant() Variant { return s.variant }

// DoAction forwards an arbitrary opaque payload through the wallet to the
// core writer. No semantic validation of payload contents: this is the
// maximally trusted primitive, available only on the raw variant.
func (s *Service) DoAction(ctx context.Context, walletID, caller chain.Address, payload []byte) error {
	if !s.variant.rawEnabled() {
		return ErrRawActionDisabled
	}
	if err := s.guard.RequireOwnerOrAllowed(ctx, walletID, s.cfg.ModuleID, caller); err != nil {
		return err
	}
	return s.wallets.DoAction(ctx, walletID, s.cfg.ModuleID, s.cfg.CoreWriter, payload)
}

// DoActions forwards a batch of opaque payloads as one wallet-level action.
func (s *Service) DoActions(ctx context.Context, walletID, caller chain.Address, payloads [][]byte) error {
	if !s.variant.rawEnabled() {
		return ErrRawActionDisabled
	}
	if err := s.guard.RequireOwnerOrAllowed(ctx, walletID, s.cfg.ModuleID, caller); err != nil {
		return err
	}
	return s.wallets.DoActions(ctx, walletID, s.cfg.ModuleID, s.cfg.CoreWriter, payloads)
}

// DoActionParts is the structured three-part constructor over the raw path.
func (s *Service) DoActionParts(ctx context.Context, walletID, caller chain.Address, version byte, kind action.Kind, args []byte) error {
	return s.DoAction(ctx, walletID, caller, action.Encode(version, kind, args))
}

// route applies the shared owner-or-allowed guard and sends one encoded
// payload through the wallet. All typed operations end here.
func (s *Service) route(ctx context.Context, walletID, caller chain.Address, payload []byte) error {
	if !s.variant.typedEnabled() {
		return ErrTypedActionDisabled
	}
	if err := s.guard.RequireOwnerOrAllowed(ctx, walletID, s.cfg.ModuleID, caller); err != nil {
		return err
	}
	return s.wallets.DoAction(ctx, walletID, s.cfg.ModuleID, s.cfg.CoreWriter, payload)
}

// PlaceLimitOrder encodes and routes an order placement. The hardened variant
// validates the time-in-force code; balance sufficiency for the order itself
// is deliberately not checked, full margin simulation is out of reach here.
func (s *Service) PlaceLimitOrder(ctx context.Context, walletID, caller chain.Address, asset uint32, isBuy bool, limitPx, size uint64, reduceOnly bool, tif uint8, cloid action.Cloid) error {
	if !s.variant.typedEnabled() {
		return ErrTypedActionDisabled
	}
	if s.variant.hardened() {
		if tif < 1 || tif > 3 {
			return ErrTifNotSupported
		}
	}
	return s.route(ctx, walletID, caller, action.LimitOrder(asset, isBuy, limitPx, size, reduceOnly, tif, cloid))
}

// TransferVault encodes and routes a vault deposit or withdrawal. Hardened
// pre-flight: deposits need spot usd coverage, withdrawals need equity
// coverage and an expired lock.
func (s *Service) TransferVault(ctx context.Context, walletID, caller, vault chain.Address, isDeposit bool, usd uint64) error {
	if !s.variant.typedEnabled() {
		return ErrTypedActionDisabled
	}
	if s.variant.hardened() {
		if isDeposit {
			balance, err := s.oracle.SpotBalance(ctx, walletID, s.cfg.UsdcToken)
			if err != nil {
				return err
			}
			if balance.Total < usd {
				return ErrNotEnoughAmount
			}
		} else {
			equity, err := s.oracle.VaultEquity(ctx, walletID, vault)
			if err != nil {
				return err
			}
			if equity.Equity < usd {
				return ErrNotEnoughAmount
			}
			if uint64(s.now().UnixMilli()) < equity.LockedUntil {
				return ErrAmountLocked
			}
		}
	}
	return s.route(ctx, walletID, caller, action.VaultTransfer(vault, isDeposit, usd))
}

// DelegateStake encodes and routes a validator delegate or undelegate.
func (s *Service) DelegateStake(ctx context.Context, walletID, caller, validator chain.Address, wei uint64, isUndelegate bool) error {
	return s.route(ctx, walletID, caller, action.TokenDelegate(validator, wei, isUndelegate))
}

// DepositStake encodes and routes a staking deposit. Hardened pre-flight:
// spot balance of the native asset must cover the amount.
func (s *Service) DepositStake(ctx context.Context, walletID, caller chain.Address, wei uint64) error {
	if err := s.requireSpot(ctx, walletID, s.cfg.HypeToken, wei); err != nil {
		return err
	}
	return s.route(ctx, walletID, caller, action.StakingDeposit(wei))
}

// WithdrawStake encodes and routes a staking withdrawal. Hardened pre-flight
// mirrors DepositStake.
func (s *Service) WithdrawStake(ctx context.Context, walletID, caller chain.Address, wei uint64) error {
	if err := s.requireSpot(ctx, walletID, s.cfg.HypeToken, wei); err != nil {
		return err
	}
	return s.route(ctx, walletID, caller, action.StakingWithdraw(wei))
}

// SendSpot encodes and routes a spot send to another settlement account.
// Hardened pre-flight: spot balance of the sent token must cover the amount.
func (s *Service) SendSpot(ctx context.Context, walletID, caller, destination chain.Address, token, wei uint64) error {
	if err := s.requireSpot(ctx, walletID, token, wei); err != nil {
		return err
	}
	return s.route(ctx, walletID, caller, action.SpotSend(destination, token, wei))
}

// TransferUsdClass encodes and routes a balance-class transfer between spot
// and perp. Hardened pre-flight: toward perp needs spot coverage, away from
// perp needs withdrawable coverage.
func (s *Service) TransferUsdClass(ctx context.Context, walletID, caller chain.Address, ntl uint64, toPerp bool) error {
	if !s.variant.typedEnabled() {
		return ErrTypedActionDisabled
	}
	if s.variant.hardened() {
		if toPerp {
			balance, err := s.oracle.SpotBalance(ctx, walletID, s.cfg.UsdcToken)
			if err != nil {
				return err
			}
			if balance.Total < ntl {
				return ErrNotEnoughAmount
			}
		} else {
			withdrawable, err := s.oracle.Withdrawable(ctx, walletID)
			if err != nil {
				return err
			}
			if withdrawable < ntl {
				return ErrNotEnoughAmount
			}
		}
	}
	return s.route(ctx, walletID, caller, action.UsdClassTransfer(ntl, toPerp))
}

// FinalizeEVMContract encodes and routes a contract-deployment finalization.
// The hardened variant validates the finalize variant code.
func (s *Service) FinalizeEVMContract(ctx context.Context, walletID, caller chain.Address, token uint64, variant uint8, createNonce uint64) error {
	if !s.variant.typedEnabled() {
		return ErrTypedActionDisabled
	}
	if s.variant.hardened() {
		if variant < 1 || variant > 3 {
			return ErrVariantNotSupported
		}
	}
	return s.route(ctx, walletID, caller, action.FinalizeEVMContract(token, variant, createNonce))
}

// AddAPIWallet encodes and routes an API-credential registration.
func (s *Service) AddAPIWallet(ctx context.Context, walletID, caller, apiWallet chain.Address, name string) error {
	payload, err := action.AddAPIWallet(apiWallet, name)
	if err != nil {
		return err
	}
	return s.route(ctx, walletID, caller, payload)
}

// CancelOrderByOid encodes and routes a cancellation by exchange order id.
func (s *Service) CancelOrderByOid(ctx context.Context, walletID, caller chain.Address, asset uint32, oid uint64) error {
	return s.route(ctx, walletID, caller, action.CancelOrderByOid(asset, oid))
}

// CancelOrderByCloid encodes and routes a cancellation by client order id.
func (s *Service) CancelOrderByCloid(ctx context.Context, walletID, caller chain.Address, asset uint32, cloid action.Cloid) error {
	return s.route(ctx, walletID, caller, action.CancelOrderByCloid(asset, cloid))
}

// requireSpot is the hardened spot-coverage pre-flight shared by the staking
// and send operations. Advisory only: settlement state can move between this
// read and the cross-layer application.
func (s *Service) requireSpot(ctx context.Context, walletID chain.Address, token, wei uint64) error {
	if !s.variant.typedEnabled() {
		return ErrTypedActionDisabled
	}
	if !s.variant.hardened() {
		return nil
	}
	balance, err := s.oracle.SpotBalance(ctx, walletID, token)
	if err != nil {
		return err
	}
	if balance.Total < wei {
		return ErrNotEnoughAmount
	}
	return nil
}
