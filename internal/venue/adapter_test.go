package venue

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"tokenlaunch/internal/token"
)

var (
	venueAddr   = common.HexToAddress("0x9999999999999999999999999999999999999999")
	custodyAddr = common.HexToAddress("0x8888888888888888888888888888888888888888")
	deployer    = common.HexToAddress("0x1000000000000000000000000000000000000001")
)

func testSetup(t *testing.T) (*Adapter, *SimVenue, token.Asset, token.Asset) {
	t.Helper()

	book := token.NewBook()
	tokA := token.NewStandardToken(deployer, 1, "Token A", "TA", 18)
	tokB := token.NewStandardToken(deployer, 2, "Wrapped Quote", "WQ", 18)
	book.Register(tokA)
	book.Register(tokB)

	sim := NewSimVenue(venueAddr, nil)
	adapter := NewAdapter(sim, book, custodyAddr, nil)
	return adapter, sim, tokA, tokB
}

func fund(t *testing.T, asset token.Asset, owner common.Address, amount uint64) {
	t.Helper()
	if err := asset.Mint(owner, uint256.NewInt(amount)); err != nil {
		t.Fatalf("mint %s: %v", asset.Symbol(), err)
	}
}

func fullRangeParams(t *testing.T, tokA, tokB token.Asset, amountA, amountB uint64) MintParams {
	t.Helper()
	lower, upper, err := FullRange(FeeLow)
	if err != nil {
		t.Fatalf("full range: %v", err)
	}
	return MintParams{
		TokenA:       tokA.Address(),
		TokenB:       tokB.Address(),
		Fee:          FeeLow,
		TickLower:    lower,
		TickUpper:    upper,
		AmountA:      uint256.NewInt(amountA),
		AmountB:      uint256.NewInt(amountB),
		Recipient:    custodyAddr,
		SqrtPriceX96: new(uint256.Int).Lsh(uint256.NewInt(1), 96),
	}
}

func TestEnsurePoolIdempotent(t *testing.T) {
	adapter, _, tokA, tokB := testSetup(t)
	ctx := context.Background()
	sqrtPrice := new(uint256.Int).Lsh(uint256.NewInt(1), 96)

	first, err := adapter.EnsurePool(ctx, tokA.Address(), tokB.Address(), FeeLow, sqrtPrice)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := adapter.EnsurePool(ctx, tokA.Address(), tokB.Address(), FeeLow, sqrtPrice)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if first != second {
		t.Fatalf("pool address changed: %s != %s", first.Hex(), second.Hex())
	}

	// Argument order does not matter.
	third, err := adapter.EnsurePool(ctx, tokB.Address(), tokA.Address(), FeeLow, sqrtPrice)
	if err != nil {
		t.Fatalf("reversed create: %v", err)
	}
	if third != first {
		t.Fatalf("reversed order created a new pool")
	}
}

func TestMintPositionMovesAssets(t *testing.T) {
	adapter, sim, tokA, tokB := testSetup(t)
	ctx := context.Background()

	fund(t, tokA, custodyAddr, 1000)
	fund(t, tokB, custodyAddr, 1000)

	params := fullRangeParams(t, tokA, tokB, 400, 900)
	if _, err := adapter.EnsurePool(ctx, params.TokenA, params.TokenB, params.Fee, params.SqrtPriceX96); err != nil {
		t.Fatalf("ensure pool: %v", err)
	}

	result, err := adapter.MintPosition(ctx, params)
	if err != nil {
		t.Fatalf("mint position: %v", err)
	}
	if result.PositionID == 0 {
		t.Fatalf("zero position id")
	}
	// sqrt(400*900) = 600
	if !result.Liquidity.Eq(uint256.NewInt(600)) {
		t.Fatalf("liquidity = %s, want 600", result.Liquidity.Dec())
	}

	if !tokA.BalanceOf(venueAddr).Eq(uint256.NewInt(400)) {
		t.Fatalf("venue A balance = %s", tokA.BalanceOf(venueAddr).Dec())
	}
	if !tokB.BalanceOf(venueAddr).Eq(uint256.NewInt(900)) {
		t.Fatalf("venue B balance = %s", tokB.BalanceOf(venueAddr).Dec())
	}

	record, ok := adapter.Position(result.PositionID)
	if !ok {
		t.Fatalf("position record missing")
	}
	if record.TokenA != tokA.Address() || record.TokenB != tokB.Address() {
		t.Fatalf("position record tokens mismatch")
	}

	if _, ok := sim.PositionInfo(result.PositionID); !ok {
		t.Fatalf("venue position missing")
	}
}

func TestMintPositionRollsBackOnVenueFailure(t *testing.T) {
	adapter, _, tokA, tokB := testSetup(t)
	ctx := context.Background()

	fund(t, tokA, custodyAddr, 1000)
	fund(t, tokB, custodyAddr, 1000)

	// No venue pool created: the mint fails after both transfers.
	params := fullRangeParams(t, tokA, tokB, 400, 900)
	if _, err := adapter.MintPosition(ctx, params); !errors.Is(err, ErrUnknownPool) {
		t.Fatalf("err = %v, want ErrUnknownPool", err)
	}

	if !tokA.BalanceOf(custodyAddr).Eq(uint256.NewInt(1000)) {
		t.Fatalf("custody A balance = %s after rollback", tokA.BalanceOf(custodyAddr).Dec())
	}
	if !tokB.BalanceOf(custodyAddr).Eq(uint256.NewInt(1000)) {
		t.Fatalf("custody B balance = %s after rollback", tokB.BalanceOf(custodyAddr).Dec())
	}
	if !tokA.BalanceOf(venueAddr).IsZero() || !tokB.BalanceOf(venueAddr).IsZero() {
		t.Fatalf("venue kept assets after failed mint")
	}
}

func TestMintPositionRollsBackOnMissingFunds(t *testing.T) {
	adapter, _, tokA, tokB := testSetup(t)
	ctx := context.Background()

	// Custody holds asset A but not asset B.
	fund(t, tokA, custodyAddr, 1000)

	params := fullRangeParams(t, tokA, tokB, 400, 900)
	if _, err := adapter.EnsurePool(ctx, params.TokenA, params.TokenB, params.Fee, params.SqrtPriceX96); err != nil {
		t.Fatalf("ensure pool: %v", err)
	}

	if _, err := adapter.MintPosition(ctx, params); !errors.Is(err, token.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if !tokA.BalanceOf(custodyAddr).Eq(uint256.NewInt(1000)) {
		t.Fatalf("custody A balance = %s after rollback", tokA.BalanceOf(custodyAddr).Dec())
	}
}

func TestCollectFeesRepeatable(t *testing.T) {
	adapter, sim, tokA, tokB := testSetup(t)
	ctx := context.Background()

	fund(t, tokA, custodyAddr, 1000)
	fund(t, tokB, custodyAddr, 1000)

	params := fullRangeParams(t, tokA, tokB, 400, 900)
	if _, err := adapter.EnsurePool(ctx, params.TokenA, params.TokenB, params.Fee, params.SqrtPriceX96); err != nil {
		t.Fatalf("ensure pool: %v", err)
	}
	result, err := adapter.MintPosition(ctx, params)
	if err != nil {
		t.Fatalf("mint position: %v", err)
	}

	// Nothing accrued yet: zero amounts, no error.
	amountA, amountB, err := adapter.CollectFees(ctx, result.PositionID, nil, nil)
	if err != nil {
		t.Fatalf("collect with nothing accrued: %v", err)
	}
	if !amountA.IsZero() || !amountB.IsZero() {
		t.Fatalf("expected zero fees, got (%s, %s)", amountA.Dec(), amountB.Dec())
	}

	// Accrue and back the fees with venue-held funds.
	if err := sim.AccrueFees(result.PositionID, uint256.NewInt(30), uint256.NewInt(50)); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	fund(t, tokA, venueAddr, 30)
	fund(t, tokB, venueAddr, 50)

	amountA, amountB, err = adapter.CollectFees(ctx, result.PositionID, nil, nil)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if !amountA.Eq(uint256.NewInt(30)) || !amountB.Eq(uint256.NewInt(50)) {
		t.Fatalf("collected (%s, %s), want (30, 50)", amountA.Dec(), amountB.Dec())
	}

	// Immediate second collect transfers zero and still succeeds.
	amountA, amountB, err = adapter.CollectFees(ctx, result.PositionID, nil, nil)
	if err != nil {
		t.Fatalf("repeat collect: %v", err)
	}
	if !amountA.IsZero() || !amountB.IsZero() {
		t.Fatalf("repeat collect yielded (%s, %s)", amountA.Dec(), amountB.Dec())
	}
}

func TestCollectFeesUnknownPosition(t *testing.T) {
	adapter, _, _, _ := testSetup(t)
	if _, _, err := adapter.CollectFees(context.Background(), 42, nil, nil); !errors.Is(err, ErrUnknownPosition) {
		t.Fatalf("err = %v, want ErrUnknownPosition", err)
	}
}

func TestSqrtPriceX96FromReserves(t *testing.T) {
	// Equal reserves price at exactly 1.0, i.e. 2^96.
	one := new(uint256.Int).Lsh(uint256.NewInt(1), 96)
	got, err := SqrtPriceX96FromReserves(uint256.NewInt(1000), uint256.NewInt(1000))
	if err != nil {
		t.Fatalf("sqrt price: %v", err)
	}
	if !got.Eq(one) {
		t.Fatalf("sqrt price = %s, want %s", got.Dec(), one.Dec())
	}

	// 4x reserves double the square-root price.
	got, err = SqrtPriceX96FromReserves(uint256.NewInt(1000), uint256.NewInt(4000))
	if err != nil {
		t.Fatalf("sqrt price: %v", err)
	}
	want := new(uint256.Int).Lsh(uint256.NewInt(2), 96)
	if !got.Eq(want) {
		t.Fatalf("sqrt price = %s, want %s", got.Dec(), want.Dec())
	}

	if _, err := SqrtPriceX96FromReserves(uint256.NewInt(0), uint256.NewInt(1)); err == nil {
		t.Fatalf("expected error for zero reserve")
	}
}

func TestFullRangeTicks(t *testing.T) {
	lower, upper, err := FullRange(FeeMedium)
	if err != nil {
		t.Fatalf("full range: %v", err)
	}
	if lower != -887220 || upper != 887220 {
		t.Fatalf("medium fee range = (%d, %d)", lower, upper)
	}

	if _, _, err := FullRange(1234); !errors.Is(err, ErrUnknownFeeTier) {
		t.Fatalf("err = %v, want ErrUnknownFeeTier", err)
	}
}
