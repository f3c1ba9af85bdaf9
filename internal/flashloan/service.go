// Package flashloan implements the cross-layer flash-loan module: immediate
// EVM-side fund release against the wallet's settlement-layer collateral,
// with the settlement-side return landing in a later block rather than the
// same unit of work.
package flashloan

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"

	"github.com/hyperwallet/hyperwallet/internal/action"
	"github.com/hyperwallet/hyperwallet/internal/bank"
	"github.com/hyperwallet/hyperwallet/internal/chain"
	"github.com/hyperwallet/hyperwallet/internal/events"
	"github.com/hyperwallet/hyperwallet/internal/ledgerbook"
	"github.com/hyperwallet/hyperwallet/internal/module"
	"github.com/hyperwallet/hyperwallet/internal/oracle"
	"github.com/hyperwallet/hyperwallet/internal/relay"
	"github.com/hyperwallet/hyperwallet/internal/wallet"
)

var (
	// ErrNotAllowed indicates the feasibility check failed: insufficient
	// wallet collateral on the settlement layer, or insufficient module
	// liquidity here.
	ErrNotAllowed = errors.New("not allowed")
	// ErrAmountTooLarge indicates an amount outside the bank's posting range.
	ErrAmountTooLarge = errors.New("amount too large")
)

// ErrTokenNotAdded is returned for assets with no settlement mapping.
var ErrTokenNotAdded = ledgerbook.ErrTokenNotAdded

// Config fixes the module's identity and routing constants.
type Config struct {
	ModuleID   chain.Address
	CoreWriter chain.Address // destination the wallet routes payloads to
}

// Service is the flash-loan module.
type Service struct {
	cfg     Config
	guard   *module.Guard
	wallets *wallet.Service
	oracle  oracle.Oracle
	bank    bank.Bank
	book    ledgerbook.Book
	relay   relay.Relay
	ledger  DepositLedger
	emitter events.Emitter
}

// NewService builds the flash-loan module.
func NewService(cfg Config, guard *module.Guard, wallets *wallet.Service, o oracle.Oracle, bk bank.Bank, book ledgerbook.Book, rl relay.Relay, ledger DepositLedger, emitter events.Emitter) *Service {
	return &Service{cfg: cfg, guard: guard, wallets: wallets, oracle: o, bank: bk, book: book, relay: rl, ledger: ledger, emitter: emitter}
}

// ModuleID returns the module's address identity.
func (s *Service) ModuleID() chain.Address { return s.cfg.ModuleID }

// CanFlashLoan is the read-only feasibility probe. It is true exactly when
// FlashLoan, given identical balances, would not abort with ErrNotAllowed.
func (s *Service) CanFlashLoan(ctx context.Context, walletID, asset chain.Address, amount uint64) (bool, error) {
	token, err := s.book.InfoFor(ctx, asset)
	if err != nil {
		return false, err
	}
	return s.feasible(ctx, walletID, asset, token, amount)
}

func (s *Service) feasible(ctx context.Context, walletID, asset chain.Address, token ledgerbook.Token, amount uint64) (bool, error) {
	spot, err := s.oracle.SpotBalance(ctx, walletID, token.CoreToken)
	if err != nil {
		return false, err
	}
	if spot.Total < amount {
		return false, nil
	}
	local, err := s.bank.Balance(ctx, bank.AccountCode(asset, s.cfg.ModuleID))
	if err != nil {
		return false, err
	}
	if local < 0 || uint64(local) < amount {
		return false, nil
	}
	return true, nil
}

// FlashLoan releases the requested amount to the recipient immediately on the
// EVM side, backed by an equivalent settlement-layer move out of the wallet.
// The settlement-side return to this module lands in a later block; there is
// no outstanding-loan ledger, so future solvency rests on the settlement
// layer debiting the wallet and on module liquidity at each new request.
func (s *Service) FlashLoan(ctx context.Context, caller, walletID, asset chain.Address, amount uint64, recipient chain.Address) error {
	if amount > math.MaxInt64 {
		return ErrAmountTooLarge
	}
	token, err := s.book.InfoFor(ctx, asset)
	if err != nil {
		return err
	}
	if err := s.guard.RequireCoreUser(ctx, walletID); err != nil {
		return err
	}
	if err := s.guard.RequireOwnerOrAllowed(ctx, walletID, s.cfg.ModuleID, caller); err != nil {
		return err
	}
	ok, err := s.feasible(ctx, walletID, asset, token, amount)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAllowed
	}

	// Move the wallet's settlement collateral into the module's settlement
	// account. Routed through the wallet core so the enabled-module and
	// one-action-per-block guards apply; a failure here aborts before any
	// funds move.
	if err := s.wallets.DoAction(ctx, walletID, s.cfg.ModuleID, s.cfg.CoreWriter,
		action.SpotSend(s.cfg.ModuleID, token.CoreToken, amount)); err != nil {
		return err
	}

	// Release the loan on this layer.
	if _, err := s.bank.Transfer(ctx,
		bank.AccountCode(asset, s.cfg.ModuleID),
		bank.AccountCode(asset, recipient),
		"flash_loan:"+string(walletID), uuid.NewString(), int64(amount)); err != nil {
		return err
	}

	// Re-route the settlement-side amount to the system address, which
	// returns the asset to this module on the EVM side in a later block.
	if err := s.relay.Submit(ctx, action.SpotSend(token.SystemAddress, token.CoreToken, amount)); err != nil {
		return err
	}

	s.emitter.Emit(ctx, events.Event{
		Kind:   events.KindFlashLoan,
		Wallet: string(walletID),
		Module: string(s.cfg.ModuleID),
		Attrs: map[string]any{
			"caller":    string(caller),
			"asset":     string(asset),
			"amount":    amount,
			"recipient": string(recipient),
		},
	})
	return nil
}

// Deposit pulls liquidity from the depositor into the module and credits
// their ledger entry.
func (s *Service) Deposit(ctx context.Context, depositor, asset chain.Address, amount uint64) error {
	if amount > math.MaxInt64 {
		return ErrAmountTooLarge
	}
	if _, err := s.bank.Transfer(ctx,
		bank.AccountCode(asset, depositor),
		bank.AccountCode(asset, s.cfg.ModuleID),
		"flashloan_deposit", uuid.NewString(), int64(amount)); err != nil {
		return err
	}
	return s.ledger.Credit(ctx, asset, depositor, amount)
}

// Withdraw debits the depositor's ledger entry and returns funds. A
// withdrawal above the entry fails with ErrInsufficientDeposit.
func (s *Service) Withdraw(ctx context.Context, depositor, asset chain.Address, amount uint64) error {
	if amount > math.MaxInt64 {
		return ErrAmountTooLarge
	}
	if err := s.ledger.Debit(ctx, asset, depositor, amount); err != nil {
		return err
	}
	if _, err := s.bank.Transfer(ctx,
		bank.AccountCode(asset, s.cfg.ModuleID),
		bank.AccountCode(asset, depositor),
		"flashloan_withdraw", uuid.NewString(), int64(amount)); err != nil {
		// Put the ledger entry back; the module could not fund the exit.
		_ = s.ledger.Credit(ctx, asset, depositor, amount)
		return err
	}
	return nil
}

// DepositOf reports the current ledger entry for a depositor.
func (s *Service) DepositOf(ctx context.Context, depositor, asset chain.Address) (uint64, error) {
	return s.ledger.Amount(ctx, asset, depositor)
}
