package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hyperwallet/hyperwallet/internal/action"
	"github.com/hyperwallet/hyperwallet/internal/bank"
	"github.com/hyperwallet/hyperwallet/internal/chain"
	"github.com/hyperwallet/hyperwallet/internal/events"
	"github.com/hyperwallet/hyperwallet/internal/ledgerbook"
	"github.com/hyperwallet/hyperwallet/internal/logging"
	"github.com/hyperwallet/hyperwallet/internal/module"
	"github.com/hyperwallet/hyperwallet/internal/oracle"
	"github.com/hyperwallet/hyperwallet/internal/wallet"
)

var (
	testWallet, _   = chain.ParseAddress("0x00000000000000000000000000000000000000aa")
	testOwner, _    = chain.ParseAddress("0x00000000000000000000000000000000000000bb")
	testDelegate, _ = chain.ParseAddress("0x00000000000000000000000000000000000000cc")
	testStranger, _ = chain.ParseAddress("0x00000000000000000000000000000000000000dd")
	testVault, _    = chain.ParseAddress("0x00000000000000000000000000000000000000ee")
	testWriter, _   = chain.ParseAddress("0x3333333333333333333333333333333333333333")
	testModuleID, _ = chain.ParseAddress("0x0000000000000000000000000000000000000b03")
)

const (
	usdcToken = uint64(0)
	hypeToken = uint64(150)
)

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
	clock  *chain.ManualClock
	sent   *[][]byte
}

func newRig(t *testing.T, variant Variant) *rig {
	t.Helper()
	ctx := context.Background()

	repo := wallet.NewMemoryRepository()
	reg := &stubRegistry{controller: testOwner}
	clock := chain.NewManualClock(1)
	o := oracle.NewMemory()
	emitter := events.NewLoggerEmitter(logging.Discard())

	wallets := wallet.NewService(repo, reg, clock, bank.NewInMemory(), ledgerbook.NewMemory(), emitter, "")
	var sent [][]byte
	wallets.RegisterTarget(testWriter, wallet.TargetFunc(func(_ context.Context, payload []byte) error {
		sent = append(sent, payload)
		return nil
	}))

	if err := repo.Create(ctx, wallet.Wallet{ID: testWallet, TokenID: 1}); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if err := repo.SetModuleEnabled(ctx, testWallet, testModuleID, true); err != nil {
		t.Fatalf("enable module: %v", err)
	}

	guard := module.NewGuard(wallets, reg, o)
	svc := NewService(Config{
		ModuleID:   testModuleID,
		CoreWriter: testWriter,
		UsdcToken:  usdcToken,
		HypeToken:  hypeToken,
	}, variant, guard, wallets, o)

	return &rig{svc: svc, oracle: o, clock: clock, sent: &sent}
}

func TestRawVariantClosesTypedSurface(t *testing.T) {
	r := newRig(t, VariantRaw)
	ctx := context.Background()

	err := r.svc.DelegateStake(ctx, testWallet, testOwner, testVault, 100, false)
	if !errors.Is(err, ErrTypedActionDisabled) {
		t.Fatalf("expected ErrTypedActionDisabled, got %v", err)
	}

	if err := r.svc.DoAction(ctx, testWallet, testOwner, action.StakingDeposit(100)); err != nil {
		t.Fatalf("raw action on raw variant: %v", err)
	}
	if len(*r.sent) != 1 {
		t.Fatalf("expected 1 routed payload, got %d", len(*r.sent))
	}
}

func TestStructuredVariantClosesRawSurface(t *testing.T) {
	r := newRig(t, VariantStructured)
	ctx := context.Background()

	err := r.svc.DoAction(ctx, testWallet, testOwner, action.StakingDeposit(100))
	if !errors.Is(err, ErrRawActionDisabled) {
		t.Fatalf("expected ErrRawActionDisabled, got %v", err)
	}
	err = r.svc.DoActionParts(ctx, testWallet, testOwner, action.Version, action.KindStakingDeposit, nil)
	if !errors.Is(err, ErrRawActionDisabled) {
		t.Fatalf("expected ErrRawActionDisabled for parts, got %v", err)
	}

	if err := r.svc.DepositStake(ctx, testWallet, testOwner, 100); err != nil {
		t.Fatalf("typed action on structured variant: %v", err)
	}
}

func TestGuardRejectsStrangers(t *testing.T) {
	r := newRig(t, VariantStructured)
	ctx := context.Background()

	err := r.svc.DepositStake(ctx, testWallet, testStranger, 100)
	if !errors.Is(err, module.ErrOnlyOwnerOrAllowed) {
		t.Fatalf("expected ErrOnlyOwnerOrAllowed, got %v", err)
	}
}

func TestAllowedDelegateMayRoute(t *testing.T) {
	r := newRig(t, VariantStructured)
	ctx := context.Background()

	if err := r.svc.wallets.ToggleAllowance(ctx, testWallet, testOwner, testModuleID, testDelegate, true); err != nil {
		t.Fatalf("allow delegate: %v", err)
	}
	if err := r.svc.DepositStake(ctx, testWallet, testDelegate, 100); err != nil {
		t.Fatalf("delegate action: %v", err)
	}
}

func TestHardenedLimitOrderTifRange(t *testing.T) {
	r := newRig(t, VariantHardened)
	ctx := context.Background()

	var cloid action.Cloid
	for _, tif := range []uint8{0, 4, 255} {
		err := r.svc.PlaceLimitOrder(ctx, testWallet, testOwner, 1, true, 10, 1, false, tif, cloid)
		if !errors.Is(err, ErrTifNotSupported) {
			t.Fatalf("tif %d: expected ErrTifNotSupported, got %v", tif, err)
		}
	}

	for i, tif := range []uint8{1, 2, 3} {
		r.clock.Set(uint64(10 + i))
		if err := r.svc.PlaceLimitOrder(ctx, testWallet, testOwner, 1, true, 10, 1, false, tif, cloid); err != nil {
			t.Fatalf("tif %d: %v", tif, err)
		}
	}
}

func TestHardenedVaultDepositNeedsSpotCoverage(t *testing.T) {
	r := newRig(t, VariantHardened)
	ctx := context.Background()

	r.oracle.SetSpotBalance(testWallet, usdcToken, oracle.SpotBalance{Total: 50})
	err := r.svc.TransferVault(ctx, testWallet, testOwner, testVault, true, 100)
	if !errors.Is(err, ErrNotEnoughAmount) {
		t.Fatalf("expected ErrNotEnoughAmount, got %v", err)
	}

	r.oracle.SetSpotBalance(testWallet, usdcToken, oracle.SpotBalance{Total: 100})
	if err := r.svc.TransferVault(ctx, testWallet, testOwner, testVault, true, 100); err != nil {
		t.Fatalf("deposit with coverage: %v", err)
	}
}

func TestHardenedVaultWithdrawChecksEquityAndLock(t *testing.T) {
	r := newRig(t, VariantHardened)
	ctx := context.Background()

	r.oracle.SetVaultEquity(testWallet, testVault, oracle.VaultEquity{Equity: 50})
	err := r.svc.TransferVault(ctx, testWallet, testOwner, testVault, false, 100)
	if !errors.Is(err, ErrNotEnoughAmount) {
		t.Fatalf("expected ErrNotEnoughAmount, got %v", err)
	}

	locked := uint64(time.Now().Add(time.Hour).UnixMilli())
	r.oracle.SetVaultEquity(testWallet, testVault, oracle.VaultEquity{Equity: 200, LockedUntil: locked})
	err = r.svc.TransferVault(ctx, testWallet, testOwner, testVault, false, 100)
	if !errors.Is(err, ErrAmountLocked) {
		t.Fatalf("expected ErrAmountLocked, got %v", err)
	}

	r.oracle.SetVaultEquity(testWallet, testVault, oracle.VaultEquity{Equity: 200, LockedUntil: 0})
	if err := r.svc.TransferVault(ctx, testWallet, testOwner, testVault, false, 100); err != nil {
		t.Fatalf("withdraw with expired lock: %v", err)
	}
}

func TestHardenedUsdClassTransferChecks(t *testing.T) {
	r := newRig(t, VariantHardened)
	ctx := context.Background()

	r.oracle.SetSpotBalance(testWallet, usdcToken, oracle.SpotBalance{Total: 10})
	err := r.svc.TransferUsdClass(ctx, testWallet, testOwner, 100, true)
	if !errors.Is(err, ErrNotEnoughAmount) {
		t.Fatalf("toPerp: expected ErrNotEnoughAmount, got %v", err)
	}

	r.oracle.SetWithdrawable(testWallet, 10)
	err = r.svc.TransferUsdClass(ctx, testWallet, testOwner, 100, false)
	if !errors.Is(err, ErrNotEnoughAmount) {
		t.Fatalf("fromPerp: expected ErrNotEnoughAmount, got %v", err)
	}

	r.oracle.SetWithdrawable(testWallet, 100)
	if err := r.svc.TransferUsdClass(ctx, testWallet, testOwner, 100, false); err != nil {
		t.Fatalf("fromPerp with coverage: %v", err)
	}
}

func TestHardenedFinalizeVariantRange(t *testing.T) {
	r := newRig(t, VariantHardened)
	ctx := context.Background()

	for _, v := range []uint8{0, 4} {
		err := r.svc.FinalizeEVMContract(ctx, testWallet, testOwner, 1, v, 7)
		if !errors.Is(err, ErrVariantNotSupported) {
			t.Fatalf("variant %d: expected ErrVariantNotSupported, got %v", v, err)
		}
	}
	if err := r.svc.FinalizeEVMContract(ctx, testWallet, testOwner, 1, 2, 7); err != nil {
		t.Fatalf("variant 2: %v", err)
	}
}

func TestHardenedSpotSendNeedsCoverage(t *testing.T) {
	r := newRig(t, VariantHardened)
	ctx := context.Background()

	r.oracle.SetSpotBalance(testWallet, hypeToken, oracle.SpotBalance{Total: 10})
	err := r.svc.SendSpot(ctx, testWallet, testOwner, testStranger, hypeToken, 100)
	if !errors.Is(err, ErrNotEnoughAmount) {
		t.Fatalf("expected ErrNotEnoughAmount, got %v", err)
	}

	r.oracle.SetSpotBalance(testWallet, hypeToken, oracle.SpotBalance{Total: 100})
	if err := r.svc.SendSpot(ctx, testWallet, testOwner, testStranger, hypeToken, 100); err != nil {
		t.Fatalf("send with coverage: %v", err)
	}
}

func TestStructuredVariantSkipsPreflight(t *testing.T) {
	r := newRig(t, VariantStructured)
	ctx := context.Background()

	// No oracle state seeded; the structured variant routes anyway.
	if err := r.svc.TransferVault(ctx, testWallet, testOwner, testVault, true, 1_000_000); err != nil {
		t.Fatalf("structured vault deposit: %v", err)
	}
}
