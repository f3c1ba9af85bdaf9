package flashloan

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperwallet/hyperwallet/internal/bank"
	"github.com/hyperwallet/hyperwallet/internal/chain"
	"github.com/hyperwallet/hyperwallet/internal/events"
	"github.com/hyperwallet/hyperwallet/internal/ledgerbook"
	"github.com/hyperwallet/hyperwallet/internal/logging"
	"github.com/hyperwallet/hyperwallet/internal/module"
	"github.com/hyperwallet/hyperwallet/internal/oracle"
	"github.com/hyperwallet/hyperwallet/internal/relay"
	"github.com/hyperwallet/hyperwallet/internal/wallet"
)

var (
	testWallet, _    = chain.ParseAddress("0x00000000000000000000000000000000000000aa")
	testOwner, _     = chain.ParseAddress("0x00000000000000000000000000000000000000bb")
	testStranger, _  = chain.ParseAddress("0x00000000000000000000000000000000000000cc")
	testRecipient, _ = chain.ParseAddress("0x00000000000000000000000000000000000000dd")
	testWriter, _    = chain.ParseAddress("0x3333333333333333333333333333333333333333")
	testModuleID, _  = chain.ParseAddress("0x0000000000000000000000000000000000000b05")
	testAsset, _     = chain.ParseAddress("0x2222222222222222222222222222222222222222")
	testBridge, _    = chain.ParseAddress("0x2000000000000000000000000000000000000099")
)

const coreToken = uint64(150)

type stubRegistry struct {
	controller chain.Address
}

func (s *stubRegistry) ControllerOfWallet(_ context.Context, _ chain.Address) (chain.Address, error) {
	return s.controller, nil
}

func (s *stubRegistry) IsModuleAllowed(_ context.Context, _ chain.Address) (bool, error) {
	return true, nil
}

type rig struct {
	svc    *Service
	oracle *oracle.Memory
	bank   bank.Bank
	clock  *chain.ManualClock
	relay  *relay.Recording
}

func newRig(t *testing.T) *rig {
	t.Helper()
	ctx := context.Background()

	repo := wallet.NewMemoryRepository()
	reg := &stubRegistry{controller: testOwner}
	clock := chain.NewManualClock(1)
	o := oracle.NewMemory()
	bk := bank.NewInMemory()
	book := ledgerbook.NewMemory()
	rl := relay.NewRecording()
	emitter := events.NewLoggerEmitter(logging.Discard())

	if err := book.Add(ctx, ledgerbook.Token{Asset: testAsset, SystemAddress: testBridge, CoreToken: coreToken, Name: "HYPE"}); err != nil {
		t.Fatalf("add token: %v", err)
	}

	wallets := wallet.NewService(repo, reg, clock, bk, book, emitter, testAsset)
	wallets.RegisterTarget(testWriter, wallet.TargetFunc(rl.Submit))

	if err := repo.Create(ctx, wallet.Wallet{ID: testWallet, TokenID: 1}); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if err := repo.SetModuleEnabled(ctx, testWallet, testModuleID, true); err != nil {
		t.Fatalf("enable module: %v", err)
	}
	o.SetUserExists(testWallet, true)

	guard := module.NewGuard(wallets, reg, o)
	svc := NewService(Config{ModuleID: testModuleID, CoreWriter: testWriter},
		guard, wallets, o, bk, book, rl, NewMemoryLedger(), emitter)

	return &rig{svc: svc, oracle: o, bank: bk, clock: clock, relay: rl}
}

func (r *rig) seed(spot, local uint64) {
	r.oracle.SetSpotBalance(testWallet, coreToken, oracle.SpotBalance{Total: spot})
	bank.SeedBalance(r.bank, bank.AccountCode(testAsset, testModuleID), int64(local))
}

func TestProbeMatchesExecution(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	cases := []struct {
		name        string
		spot, local uint64
		want        bool
	}{
		{"both cover", 100, 100, true},
		{"spot short", 50, 100, false},
		{"local short", 100, 50, false},
		{"both short", 0, 0, false},
	}
	for _, tc := range cases {
		r.seed(tc.spot, tc.local)
		ok, err := r.svc.CanFlashLoan(ctx, testWallet, testAsset, 100)
		if err != nil {
			t.Fatalf("%s: probe: %v", tc.name, err)
		}
		if ok != tc.want {
			t.Fatalf("%s: probe=%v want %v", tc.name, ok, tc.want)
		}

		err = r.svc.FlashLoan(ctx, testOwner, testWallet, testAsset, 100, testRecipient)
		if tc.want && err != nil {
			t.Fatalf("%s: execution should succeed: %v", tc.name, err)
		}
		if !tc.want && !errors.Is(err, ErrNotAllowed) {
			t.Fatalf("%s: expected ErrNotAllowed, got %v", tc.name, err)
		}
		r.clock.Advance(1)
	}
}

func TestFlashLoanAbortsBeforeAnyTransfer(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	// Settlement collateral covers the loan, local liquidity does not.
	r.seed(100, 0)

	err := r.svc.FlashLoan(ctx, testOwner, testWallet, testAsset, 100, testRecipient)
	if !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("expected ErrNotAllowed, got %v", err)
	}

	got, _ := r.bank.Balance(ctx, bank.AccountCode(testAsset, testRecipient))
	if got != 0 {
		t.Fatalf("recipient credited despite abort: %d", got)
	}
	if len(r.relay.Submitted()) != 0 {
		t.Fatalf("settlement actions submitted despite abort: %d", len(r.relay.Submitted()))
	}
}

func TestFlashLoanMovesAllThreeLegs(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	r.seed(500, 500)

	if err := r.svc.FlashLoan(ctx, testOwner, testWallet, testAsset, 200, testRecipient); err != nil {
		t.Fatalf("flash loan: %v", err)
	}

	got, _ := r.bank.Balance(ctx, bank.AccountCode(testAsset, testRecipient))
	if got != 200 {
		t.Fatalf("expected recipient balance 200, got %d", got)
	}
	moduleBalance, _ := r.bank.Balance(ctx, bank.AccountCode(testAsset, testModuleID))
	if moduleBalance != 300 {
		t.Fatalf("expected module balance 300, got %d", moduleBalance)
	}
	// One wallet-routed collateral move plus one return-leg submission.
	if len(r.relay.Submitted()) != 2 {
		t.Fatalf("expected 2 settlement submissions, got %d", len(r.relay.Submitted()))
	}
}

func TestFlashLoanRequiresCoreUser(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	r.seed(100, 100)
	r.oracle.SetUserExists(testWallet, false)

	err := r.svc.FlashLoan(ctx, testOwner, testWallet, testAsset, 50, testRecipient)
	if !errors.Is(err, module.ErrWalletNotEnabled) {
		t.Fatalf("expected ErrWalletNotEnabled, got %v", err)
	}
}

func TestFlashLoanRejectsStrangers(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	r.seed(100, 100)
	err := r.svc.FlashLoan(ctx, testStranger, testWallet, testAsset, 50, testRecipient)
	if !errors.Is(err, module.ErrOnlyOwnerOrAllowed) {
		t.Fatalf("expected ErrOnlyOwnerOrAllowed, got %v", err)
	}
}

func TestFlashLoanUnknownAsset(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	unknown, _ := chain.ParseAddress("0x4444444444444444444444444444444444444444")
	if _, err := r.svc.CanFlashLoan(ctx, testWallet, unknown, 10); !errors.Is(err, ErrTokenNotAdded) {
		t.Fatalf("expected ErrTokenNotAdded from probe, got %v", err)
	}
	if err := r.svc.FlashLoan(ctx, testOwner, testWallet, unknown, 10, testRecipient); !errors.Is(err, ErrTokenNotAdded) {
		t.Fatalf("expected ErrTokenNotAdded from execution, got %v", err)
	}
}

func TestDepositLedgerRoundTrip(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	bank.SeedBalance(r.bank, bank.AccountCode(testAsset, testStranger), 1_000)

	if err := r.svc.Deposit(ctx, testStranger, testAsset, 100); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	amount, err := r.svc.DepositOf(ctx, testStranger, testAsset)
	if err != nil || amount != 100 {
		t.Fatalf("expected deposit 100, got %d err=%v", amount, err)
	}

	err = r.svc.Withdraw(ctx, testStranger, testAsset, 150)
	if !errors.Is(err, ErrInsufficientDeposit) {
		t.Fatalf("expected ErrInsufficientDeposit, got %v", err)
	}

	if err := r.svc.Withdraw(ctx, testStranger, testAsset, 100); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	amount, _ = r.svc.DepositOf(ctx, testStranger, testAsset)
	if amount != 0 {
		t.Fatalf("expected zero deposit after withdraw, got %d", amount)
	}

	got, _ := r.bank.Balance(ctx, bank.AccountCode(testAsset, testStranger))
	if got != 1_000 {
		t.Fatalf("expected depositor made whole, got %d", got)
	}
}
