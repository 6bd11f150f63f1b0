package amm

import (
	"github.com/holiman/uint256"
)

// Precision is the fixed-point scale shared by reserves, shares, and prices.
var Precision = uint256.NewInt(1e18)

// BaseShares is the share allocation minted to a pool's first depositor,
// 100 units at fixed-point scale.
var BaseShares = mustParse("100000000000000000000")

// shareTolerance bounds the rounding drift allowed between the share amounts
// implied by each side of a paired deposit.
var shareTolerance = uint256.NewInt(1000)

func mustParse(dec string) *uint256.Int {
	v, err := uint256.FromDecimal(dec)
	if err != nil {
		panic(err)
	}
	return v
}

// mulDiv computes a*b/den with overflow checking. A zero denominator is an
// overflow, not a panic.
func mulDiv(a, b, den *uint256.Int) (*uint256.Int, error) {
	if den.IsZero() {
		return nil, ErrOverflow
	}
	prod, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return prod.Div(prod, den), nil
}

// mulDivStrict is mulDiv that rejects results rounding to zero for nonzero inputs.
func mulDivStrict(a, b, den *uint256.Int) (*uint256.Int, error) {
	out, err := mulDiv(a, b, den)
	if err != nil {
		return nil, err
	}
	if out.IsZero() && !a.IsZero() && !b.IsZero() {
		return nil, ErrPrecisionLoss
	}
	return out, nil
}

// scaledProduct computes a*b/Precision, the invariant K representation.
func scaledProduct(a, b *uint256.Int) (*uint256.Int, error) {
	return mulDiv(a, b, Precision)
}

func checkedAdd(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return sum, nil
}

func checkedSub(a, b *uint256.Int) (*uint256.Int, error) {
	if a.Lt(b) {
		return nil, ErrOverflow
	}
	return new(uint256.Int).Sub(a, b), nil
}

// withinTolerance reports whether |a-b| <= shareTolerance.
func withinTolerance(a, b *uint256.Int) bool {
	var diff uint256.Int
	if a.Lt(b) {
		diff.Sub(b, a)
	} else {
		diff.Sub(a, b)
	}
	return !diff.Gt(shareTolerance)
}

func clone(v *uint256.Int) *uint256.Int {
	return new(uint256.Int).Set(v)
}
