package venue

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// Fee tiers and their tick spacings, hundredths of a basis point.
const (
	FeeLowest uint32 = 100
	FeeLow    uint32 = 500
	FeeMedium uint32 = 3000
	FeeHigh   uint32 = 10000
)

const tickBound = 887272

var tickSpacings = map[uint32]int32{
	FeeLowest: 10,
	FeeLow:    10,
	FeeMedium: 60,
	FeeHigh:   200,
}

// ErrUnknownFeeTier is returned for fee values outside the supported tiers.
var ErrUnknownFeeTier = errors.New("unknown fee tier")

// TickSpacing returns the tick spacing for a fee tier.
func TickSpacing(fee uint32) (int32, error) {
	spacing, ok := tickSpacings[fee]
	if !ok {
		return 0, ErrUnknownFeeTier
	}
	return spacing, nil
}

// MinTick is the lowest usable tick for a spacing.
func MinTick(spacing int32) int32 {
	return -(tickBound / spacing) * spacing
}

// MaxTick is the highest usable tick for a spacing.
func MaxTick(spacing int32) int32 {
	return (tickBound / spacing) * spacing
}

// FullRange returns the widest usable tick range for a fee tier.
func FullRange(fee uint32) (int32, int32, error) {
	spacing, err := TickSpacing(fee)
	if err != nil {
		return 0, 0, err
	}
	return MinTick(spacing), MaxTick(spacing), nil
}

// SqrtPriceX96FromReserves derives the Q64.96 square-root price of assetB
// per assetA from pool reserves: sqrt(reserveB/reserveA) << 96.
func SqrtPriceX96FromReserves(reserveA, reserveB *uint256.Int) (*uint256.Int, error) {
	if reserveA == nil || reserveB == nil || reserveA.IsZero() || reserveB.IsZero() {
		return nil, errors.New("reserves must be nonzero")
	}

	// sqrt(B/A) << 96 == sqrt(B << 192 / A); keep the shift wide in big.Int.
	num := new(big.Int).Lsh(reserveB.ToBig(), 192)
	num.Div(num, reserveA.ToBig())
	num.Sqrt(num)

	out, overflow := uint256.FromBig(num)
	if overflow {
		return nil, errors.New("sqrt price exceeds 256 bits")
	}
	return out, nil
}
