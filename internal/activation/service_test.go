package activation

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperwallet/hyperwallet/internal/bank"
	"github.com/hyperwallet/hyperwallet/internal/chain"
	"github.com/hyperwallet/hyperwallet/internal/events"
	"github.com/hyperwallet/hyperwallet/internal/logging"
	"github.com/hyperwallet/hyperwallet/internal/oracle"
	"github.com/hyperwallet/hyperwallet/internal/relay"
)

var (
	testWalletA, _  = chain.ParseAddress("0x00000000000000000000000000000000000000aa")
	testWalletB, _  = chain.ParseAddress("0x00000000000000000000000000000000000000ab")
	testCaller, _   = chain.ParseAddress("0x00000000000000000000000000000000000000bb")
	testAdmin, _    = chain.ParseAddress("0x0000000000000000000000000000000000000a01")
	testOperator, _ = chain.ParseAddress("0x0000000000000000000000000000000000000a02")
	testModuleID, _ = chain.ParseAddress("0x0000000000000000000000000000000000000b04")
	testHype, _     = chain.ParseAddress("0x2222222222222222222222222222222222222222")
	testUsdc, _     = chain.ParseAddress("0x1111111111111111111111111111111111111111")
	hypeBridge, _   = chain.ParseAddress("0x2000000000000000000000000000000000000096")
	usdcBridge, _   = chain.ParseAddress("0x2000000000000000000000000000000000000000")
)

const (
	hypeToken = uint64(150)
	usdcToken = uint64(0)

	feeWei      = uint64(1_000)
	usdcWei     = uint64(2_000)
	sendWei     = uint64(100)
	minHypeWei  = uint64(10_000)
	minUsdcWei  = uint64(10_000)
	relayFeeWei = uint64(10)
)

type stubResolver struct{}

func (stubResolver) SystemAddressFor(_ context.Context, asset chain.Address) (chain.Address, error) {
	switch asset {
	case testHype:
		return hypeBridge, nil
	case testUsdc:
		return usdcBridge, nil
	default:
		return "", errors.New("unknown asset")
	}
}

// flakyRelay records submissions but can be told to fail.
type flakyRelay struct {
	rec  *relay.Recording
	fail error
}

func (f *flakyRelay) Submit(ctx context.Context, payload []byte) error {
	if f.fail != nil {
		return f.fail
	}
	return f.rec.Submit(ctx, payload)
}

type rig struct {
	svc    *Service
	oracle *oracle.Memory
	bank   bank.Bank
	clock  *chain.ManualClock
	relay  *relay.Recording
	flaky  *flakyRelay
}

func newRig(t *testing.T) *rig {
	t.Helper()
	clock := chain.NewManualClock(1)
	o := oracle.NewMemory()
	bk := bank.NewInMemory()
	rl := relay.NewRecording()
	flaky := &flakyRelay{rec: rl}

	cfg := Config{
		ModuleID:          testModuleID,
		Admin:             testAdmin,
		Operator:          testOperator,
		HypeAsset:         testHype,
		UsdcAsset:         testUsdc,
		HypeToken:         hypeToken,
		UsdcToken:         usdcToken,
		ActivationHypeWei: feeWei,
		ActivationUsdcWei: usdcWei,
		ActivationSendWei: sendWei,
		MinHypeWei:        minHypeWei,
		MinUsdcWei:        minUsdcWei,
		RelayFeeWei:       relayFeeWei,
	}
	svc := NewService(cfg, NewMemoryGate(), clock, o, bk, flaky, stubResolver{}, events.NewLoggerEmitter(logging.Discard()))

	// Module pre-funded on the settlement layer, caller funded locally.
	o.SetSpotBalance(testModuleID, hypeToken, oracle.SpotBalance{Total: minHypeWei})
	o.SetSpotBalance(testModuleID, usdcToken, oracle.SpotBalance{Total: minUsdcWei})
	bank.SeedBalance(bk, bank.AccountCode(testHype, testCaller), int64(10*feeWei))
	bank.SeedBalance(bk, bank.AccountCode(testUsdc, testCaller), int64(10*usdcWei))

	return &rig{svc: svc, oracle: o, bank: bk, clock: clock, relay: rl, flaky: flaky}
}

func TestActivateAbortRestoresFundsAndSlot(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	r.flaky.fail = errors.New("relay unavailable")

	hypeBefore, _ := r.bank.Balance(ctx, bank.AccountCode(testHype, testCaller))
	usdcBefore, _ := r.bank.Balance(ctx, bank.AccountCode(testUsdc, testCaller))

	if err := r.svc.Activate(ctx, testCaller, testWalletA, feeWei); err == nil {
		t.Fatal("expected activation to fail with the relay down")
	}

	hypeAfter, _ := r.bank.Balance(ctx, bank.AccountCode(testHype, testCaller))
	usdcAfter, _ := r.bank.Balance(ctx, bank.AccountCode(testUsdc, testCaller))
	if hypeAfter != hypeBefore || usdcAfter != usdcBefore {
		t.Fatalf("caller not made whole: hype %d->%d, usdc %d->%d",
			hypeBefore, hypeAfter, usdcBefore, usdcAfter)
	}
	if len(r.relay.Submitted()) != 0 {
		t.Fatalf("expected no settlement send, got %d", len(r.relay.Submitted()))
	}

	// The block slot was handed back: the same block can activate once the
	// relay recovers.
	r.flaky.fail = nil
	if err := r.svc.Activate(ctx, testCaller, testWalletA, feeWei); err != nil {
		t.Fatalf("activate in same block after aborted attempt: %v", err)
	}
}

func TestActivateGenesisBlockUsable(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	r.clock.Set(0)

	if err := r.svc.Activate(ctx, testCaller, testWalletA, feeWei); err != nil {
		t.Fatalf("activate at height 0: %v", err)
	}
	err := r.svc.Activate(ctx, testCaller, testWalletB, feeWei)
	if !errors.Is(err, ErrOneActionPerBlock) {
		t.Fatalf("expected ErrOneActionPerBlock at height 0, got %v", err)
	}
}

func TestActivateHappyPath(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	if err := r.svc.Activate(ctx, testCaller, testWalletA, feeWei); err != nil {
		t.Fatalf("activate: %v", err)
	}

	if len(r.relay.Submitted()) != 1 {
		t.Fatalf("expected exactly one settlement send, got %d", len(r.relay.Submitted()))
	}

	// Both pulled amounts were forwarded to the bridges, nothing stuck on the module.
	hypeAtBridge, _ := r.bank.Balance(ctx, bank.AccountCode(testHype, hypeBridge))
	if hypeAtBridge != int64(feeWei) {
		t.Fatalf("expected %d hype at bridge, got %d", feeWei, hypeAtBridge)
	}
	usdcAtBridge, _ := r.bank.Balance(ctx, bank.AccountCode(testUsdc, usdcBridge))
	if usdcAtBridge != int64(usdcWei) {
		t.Fatalf("expected %d usdc at bridge, got %d", usdcWei, usdcAtBridge)
	}
}

func TestActivateRejectsExistingAccount(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	r.oracle.SetUserExists(testWalletA, true)
	err := r.svc.Activate(ctx, testCaller, testWalletA, feeWei)
	if !errors.Is(err, ErrWalletAlreadyEnabled) {
		t.Fatalf("expected ErrWalletAlreadyEnabled, got %v", err)
	}
}

func TestActivateRequiresExactFee(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	for _, paid := range []uint64{0, feeWei - 1, feeWei + 1} {
		err := r.svc.Activate(ctx, testCaller, testWalletA, paid)
		if !errors.Is(err, ErrWrongHypeAmount) {
			t.Fatalf("paid %d: expected ErrWrongHypeAmount, got %v", paid, err)
		}
	}
}

func TestActivateRequiresPreFundedModule(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	r.oracle.SetSpotBalance(testModuleID, hypeToken, oracle.SpotBalance{Total: minHypeWei - 1})
	err := r.svc.Activate(ctx, testCaller, testWalletA, feeWei)
	if !errors.Is(err, ErrNotEnoughAmount) {
		t.Fatalf("expected ErrNotEnoughAmount, got %v", err)
	}
}

func TestActivateOnePerBlockModuleWide(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	if err := r.svc.Activate(ctx, testCaller, testWalletA, feeWei); err != nil {
		t.Fatalf("first activation: %v", err)
	}

	// A different wallet in the same block is still rejected: the gate is
	// module-wide, not per account.
	err := r.svc.Activate(ctx, testCaller, testWalletB, feeWei)
	if !errors.Is(err, ErrOneActionPerBlock) {
		t.Fatalf("expected ErrOneActionPerBlock, got %v", err)
	}

	r.clock.Advance(1)
	if err := r.svc.Activate(ctx, testCaller, testWalletB, feeWei); err != nil {
		t.Fatalf("activation in next block: %v", err)
	}
}

func TestReclaimAdminOnly(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	err := r.svc.Reclaim(ctx, testCaller)
	if !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("expected ErrNotAllowed, got %v", err)
	}

	if err := r.svc.Reclaim(ctx, testAdmin); err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	// Both assets had balances above the relay fee, so two sends.
	if len(r.relay.Submitted()) != 2 {
		t.Fatalf("expected 2 settlement sends, got %d", len(r.relay.Submitted()))
	}
}

func TestReclaimSkipsDustBalances(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	r.oracle.SetSpotBalance(testModuleID, hypeToken, oracle.SpotBalance{Total: relayFeeWei})
	r.oracle.SetSpotBalance(testModuleID, usdcToken, oracle.SpotBalance{Total: relayFeeWei + 1})

	if err := r.svc.Reclaim(ctx, testAdmin); err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if len(r.relay.Submitted()) != 1 {
		t.Fatalf("expected 1 settlement send, got %d", len(r.relay.Submitted()))
	}
}

func TestSweepToOperator(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	bank.SeedBalance(r.bank, bank.AccountCode(testHype, testModuleID), 500)
	bank.SeedBalance(r.bank, bank.AccountCode(testUsdc, testModuleID), 700)

	if err := r.svc.SweepToOperator(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	hypeAtOperator, _ := r.bank.Balance(ctx, bank.AccountCode(testHype, testOperator))
	usdcAtOperator, _ := r.bank.Balance(ctx, bank.AccountCode(testUsdc, testOperator))
	if hypeAtOperator != 500 || usdcAtOperator != 700 {
		t.Fatalf("expected 500/700 at operator, got %d/%d", hypeAtOperator, usdcAtOperator)
	}
}
