// Package activation implements the one-shot account bootstrapper: it gives a
// wallet its first settlement-layer presence by sending it a small amount of
// the activation asset, funded by a fixed caller fee and the module's own
// pre-funded balances.
package activation

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hyperwallet/hyperwallet/internal/action"
	"github.com/hyperwallet/hyperwallet/internal/bank"
	"github.com/hyperwallet/hyperwallet/internal/chain"
	"github.com/hyperwallet/hyperwallet/internal/events"
	"github.com/hyperwallet/hyperwallet/internal/oracle"
	"github.com/hyperwallet/hyperwallet/internal/relay"
	"github.com/hyperwallet/hyperwallet/internal/wallet"
)

var (
	// ErrWalletAlreadyEnabled indicates the account already exists on the
	// settlement layer.
	ErrWalletAlreadyEnabled = errors.New("wallet already enabled")
	// ErrWrongHypeAmount indicates the caller did not pay the exact fee.
	ErrWrongHypeAmount = errors.New("wrong hype amount")
	// ErrNotEnoughAmount indicates the module's pre-funded settlement
	// balances are below the configured minimums.
	ErrNotEnoughAmount = errors.New("not enough amount")
	// ErrNotAllowed indicates a non-administrator called an admin operation.
	ErrNotAllowed = errors.New("not allowed")
)

// Config fixes the module's addresses, assets and amounts at construction.
type Config struct {
	ModuleID  chain.Address
	Admin     chain.Address
	Operator  chain.Address
	HypeAsset chain.Address // EVM-side native asset identifier
	UsdcAsset chain.Address // EVM-side stablecoin identifier
	HypeToken uint64        // core token index of the native asset
	UsdcToken uint64        // core token index of the stablecoin

	ActivationHypeWei uint64 // exact fee the caller must pay
	ActivationUsdcWei uint64 // stablecoin amount pulled from the caller
	ActivationSendWei uint64 // amount of the activation asset sent to the wallet
	MinHypeWei        uint64 // minimum pre-funded module core balance
	MinUsdcWei        uint64 // minimum pre-funded module core balance
	RelayFeeWei       uint64 // fee deducted per reclaim send
}

// Service is the activation bootstrapper module.
type Service struct {
	cfg     Config
	gate    Gate
	clock   wallet.Clock
	oracle  oracle.Oracle
	bank    bank.Bank
	relay   relay.Relay
	book    systemAddressResolver
	emitter events.Emitter
}

type systemAddressResolver interface {
	SystemAddressFor(ctx context.Context, asset chain.Address) (chain.Address, error)
}

// NewService builds the activation module.
func NewService(cfg Config, gate Gate, clock wallet.Clock, o oracle.Oracle, bk bank.Bank, rl relay.Relay, book systemAddressResolver, emitter events.Emitter) *Service {
	return &Service{cfg: cfg, gate: gate, clock: clock, oracle: o, bank: bk, relay: rl, book: book, emitter: emitter}
}

// ModuleID returns the module's address identity.
func (s *Service) ModuleID() chain.Address { return s.cfg.ModuleID }

// Activate bootstraps the wallet's settlement-layer presence. One shot per
// account, one call per block module-wide regardless of caller.
func (s *Service) Activate(ctx context.Context, caller, walletID chain.Address, paidWei uint64) error {
	exists, err := s.oracle.UserExists(ctx, walletID)
	if err != nil {
		return err
	}
	if exists {
		return ErrWalletAlreadyEnabled
	}
	if paidWei != s.cfg.ActivationHypeWei {
		return ErrWrongHypeAmount
	}

	hypeBalance, err := s.oracle.SpotBalance(ctx, s.cfg.ModuleID, s.cfg.HypeToken)
	if err != nil {
		return err
	}
	usdcBalance, err := s.oracle.SpotBalance(ctx, s.cfg.ModuleID, s.cfg.UsdcToken)
	if err != nil {
		return err
	}
	if hypeBalance.Total < s.cfg.MinHypeWei || usdcBalance.Total < s.cfg.MinUsdcWei {
		return ErrNotEnoughAmount
	}

	height, err := s.clock.Height(ctx)
	if err != nil {
		return err
	}
	if err := s.gate.Use(ctx, height); err != nil {
		return err
	}

	// The relay submission is the commit point. Until it succeeds, every
	// completed posting is journaled so an abort can reverse them and hand
	// the block slot back.
	var done []posting
	post := func(from, to, kind string, amount int64) error {
		if _, err := s.bank.Transfer(ctx, from, to, kind, uuid.NewString(), amount); err != nil {
			return err
		}
		done = append(done, posting{from: from, to: to, kind: kind, amount: amount})
		return nil
	}
	abort := func(cause error) error {
		for i := len(done) - 1; i >= 0; i-- {
			p := done[i]
			// The reversing leg moves funds the module already holds; it
			// can only fail if the bank itself is down.
			_, _ = s.bank.Transfer(ctx, p.to, p.from, p.kind+":reversal", uuid.NewString(), p.amount)
		}
		_ = s.gate.Release(ctx, height)
		return cause
	}

	// Collect the fee and the stablecoin from the caller.
	if err := post(
		bank.AccountCode(s.cfg.HypeAsset, caller),
		bank.AccountCode(s.cfg.HypeAsset, s.cfg.ModuleID),
		"activation_fee:"+string(walletID), int64(paidWei)); err != nil {
		return abort(err)
	}
	if err := post(
		bank.AccountCode(s.cfg.UsdcAsset, caller),
		bank.AccountCode(s.cfg.UsdcAsset, s.cfg.ModuleID),
		"activation_usdc:"+string(walletID), int64(s.cfg.ActivationUsdcWei)); err != nil {
		return abort(err)
	}

	// Forward both assets toward the settlement layer through their bridges.
	if err := s.forwardToBridge(ctx, post, s.cfg.HypeAsset, walletID, int64(paidWei)); err != nil {
		return abort(err)
	}
	if err := s.forwardToBridge(ctx, post, s.cfg.UsdcAsset, walletID, int64(s.cfg.ActivationUsdcWei)); err != nil {
		return abort(err)
	}

	// Exactly one cross-layer send of the activation asset creates the account.
	if err := s.relay.Submit(ctx, action.SpotSend(walletID, s.cfg.UsdcToken, s.cfg.ActivationSendWei)); err != nil {
		return abort(err)
	}

	s.emitter.Emit(ctx, events.Event{
		Kind:   events.KindActivation,
		Wallet: string(walletID),
		Module: string(s.cfg.ModuleID),
		Attrs:  map[string]any{"caller": string(caller), "block": height},
	})
	return nil
}

// Reclaim sweeps the module's settlement-layer balances back to the system
// addresses, net of the relay fee. Administrator only. Assets whose balance
// does not cover the fee are skipped.
func (s *Service) Reclaim(ctx context.Context, caller chain.Address) error {
	if caller != s.cfg.Admin {
		return ErrNotAllowed
	}
	assets := []struct {
		asset chain.Address
		token uint64
	}{
		{s.cfg.HypeAsset, s.cfg.HypeToken},
		{s.cfg.UsdcAsset, s.cfg.UsdcToken},
	}
	for _, a := range assets {
		balance, err := s.oracle.SpotBalance(ctx, s.cfg.ModuleID, a.token)
		if err != nil {
			return err
		}
		if balance.Total <= s.cfg.RelayFeeWei {
			continue
		}
		system, err := s.book.SystemAddressFor(ctx, a.asset)
		if err != nil {
			return err
		}
		if err := s.relay.Submit(ctx, action.SpotSend(system, a.token, balance.Total-s.cfg.RelayFeeWei)); err != nil {
			return err
		}
	}
	return nil
}

// SweepToOperator forwards any EVM-side balances the module is holding to the
// fixed operator address. Unrestricted: the destination is pre-wired, never
// caller-chosen.
func (s *Service) SweepToOperator(ctx context.Context) error {
	for _, asset := range []chain.Address{s.cfg.HypeAsset, s.cfg.UsdcAsset} {
		code := bank.AccountCode(asset, s.cfg.ModuleID)
		balance, err := s.bank.Balance(ctx, code)
		if err != nil {
			return err
		}
		if balance <= 0 {
			continue
		}
		if _, err := s.bank.Transfer(ctx, code,
			bank.AccountCode(asset, s.cfg.Operator),
			"sweep_to_operator", uuid.NewString(), balance); err != nil {
			return err
		}
	}
	return nil
}

// posting is one journaled bank movement, kept so an aborted activation can
// replay it in reverse.
type posting struct {
	from, to, kind string
	amount         int64
}

func (s *Service) forwardToBridge(ctx context.Context, post func(from, to, kind string, amount int64) error, asset chain.Address, walletID chain.Address, amount int64) error {
	system, err := s.book.SystemAddressFor(ctx, asset)
	if err != nil {
		return err
	}
	return post(
		bank.AccountCode(asset, s.cfg.ModuleID),
		bank.AccountCode(asset, system),
		"activation_bridge:"+string(walletID), amount)
}
