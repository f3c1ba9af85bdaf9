package registry

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hyperwallet/hyperwallet/internal/chain"
	"github.com/hyperwallet/hyperwallet/internal/events"
	"github.com/hyperwallet/hyperwallet/internal/ledgerbook"
	"github.com/hyperwallet/hyperwallet/internal/wallet"
)

// ErrTokenNotSupported indicates an asset with no registered system address.
var ErrTokenNotSupported = errors.New("token not supported")

// Service is the process-wide wallet factory and authority: it mints one
// wallet per creation request, tracks ownership, and maintains the global
// module allowlist.
type Service struct {
	repo    Repository
	wallets wallet.Repository
	book    ledgerbook.Book
	emitter events.Emitter
}

// NewService builds a registry service.
func NewService(repo Repository, wallets wallet.Repository, book ledgerbook.Book, emitter events.Emitter) *Service {
	return &Service{repo: repo, wallets: wallets, book: book, emitter: emitter}
}

// CreateWallet mints a new wallet for the owner: a fresh ownership token, a
// derived wallet address, and an empty permission table.
func (s *Service) CreateWallet(ctx context.Context, owner chain.Address) (Account, error) {
	tokenID, err := s.repo.NextTokenID(ctx)
	if err != nil {
		return Account{}, err
	}

	acct := Account{
		TokenID:    tokenID,
		WalletID:   deriveWalletAddress(tokenID),
		Controller: owner,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.wallets.Create(ctx, wallet.Wallet{
		ID:        acct.WalletID,
		TokenID:   tokenID,
		CreatedAt: acct.CreatedAt,
	}); err != nil {
		return Account{}, err
	}
	if err := s.repo.CreateAccount(ctx, acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

// TransferOwnership moves the token (and with it control of the wallet) to a
// new holder. Only the current holder may transfer. The wallet's enabled
// modules and delegations are untouched: permission state travels with the
// wallet, not the controller.
func (s *Service) TransferOwnership(ctx context.Context, tokenID uint64, caller, to chain.Address) error {
	acct, err := s.repo.AccountByToken(ctx, tokenID)
	if err != nil {
		return err
	}
	if acct.Controller != caller {
		return ErrNotTokenOwner
	}
	if err := s.repo.SetController(ctx, tokenID, to); err != nil {
		return err
	}
	s.emitter.Emit(ctx, events.Event{
		Kind:   events.KindOwnershipTransferred,
		Wallet: string(acct.WalletID),
		Attrs:  map[string]any{"token_id": tokenID, "from": string(caller), "to": string(to)},
	})
	return nil
}

// ControllerOf resolves the current holder of an ownership token.
func (s *Service) ControllerOf(ctx context.Context, tokenID uint64) (chain.Address, error) {
	acct, err := s.repo.AccountByToken(ctx, tokenID)
	if err != nil {
		return "", err
	}
	return acct.Controller, nil
}

// ControllerOfWallet resolves the current controller of a wallet address.
func (s *Service) ControllerOfWallet(ctx context.Context, walletID chain.Address) (chain.Address, error) {
	acct, err := s.repo.AccountByWallet(ctx, walletID)
	if err != nil {
		return "", err
	}
	return acct.Controller, nil
}

// AccountByToken returns the account bound to the token.
func (s *Service) AccountByToken(ctx context.Context, tokenID uint64) (Account, error) {
	return s.repo.AccountByToken(ctx, tokenID)
}

// AllowModule adds a module to the global allowlist (administrator only; the
// HTTP edge enforces that).
func (s *Service) AllowModule(ctx context.Context, module chain.Address) error {
	return s.repo.AllowModule(ctx, module)
}

// DisallowModule removes a module from the allowlist. Already-enabled wallets
// are unaffected; only future enabling is blocked.
func (s *Service) DisallowModule(ctx context.Context, module chain.Address) error {
	return s.repo.DisallowModule(ctx, module)
}

// IsModuleAllowed reports global allowlist membership.
func (s *Service) IsModuleAllowed(ctx context.Context, module chain.Address) (bool, error) {
	return s.repo.IsModuleAllowed(ctx, module)
}

// SystemAddressFor resolves the settlement bridge address for an asset.
func (s *Service) SystemAddressFor(ctx context.Context, asset chain.Address) (chain.Address, error) {
	token, err := s.book.InfoFor(ctx, asset)
	if err != nil {
		if errors.Is(err, ledgerbook.ErrTokenNotAdded) {
			return "", ErrTokenNotSupported
		}
		return "", err
	}
	return token.SystemAddress, nil
}

// deriveWalletAddress produces a unique wallet address from the token id and
// fresh randomness.
func deriveWalletAddress(tokenID uint64) chain.Address {
	seed := make([]byte, 8, 8+36)
	binary.BigEndian.PutUint64(seed, tokenID)
	seed = append(seed, uuid.NewString()...)
	sum := sha256.Sum256(seed)
	return chain.Address("0x" + hex.EncodeToString(sum[:chain.AddressLen]))
}
