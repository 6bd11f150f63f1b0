package pricing

import (
	"errors"
	"math/big"
)

// USDDecimals is the decimal precision of USD-denominated outputs,
// matching the oracle feed convention.
const USDDecimals = 8

var (
	// precision is the fixed-point scale of pool prices and token amounts.
	precision = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	usdScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(USDDecimals), nil)

	// ErrInvalidPrice is returned for nil or negative price inputs.
	ErrInvalidPrice = errors.New("invalid price input")
)

// TokenPriceUSD converts a pool spot price (quote per token, 1e18 scale) and
// an oracle quote price into a USD token price at 8 decimals. Intermediate
// products stay wide; descaling happens once at the end.
func TokenPriceUSD(priceInQuote, oraclePrice *big.Int, oracleDecimals uint8) (*big.Int, error) {
	if priceInQuote == nil || oraclePrice == nil || priceInQuote.Sign() < 0 || oraclePrice.Sign() < 0 {
		return nil, ErrInvalidPrice
	}

	num := new(big.Int).Mul(priceInQuote, oraclePrice)
	num.Mul(num, usdScale)

	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(oracleDecimals)), nil)
	denom.Mul(denom, precision)

	return num.Div(num, denom), nil
}

// MarketCapUSD multiplies an 8-decimal USD price by a fixed-point total
// supply, descaled back to 8 decimals.
func MarketCapUSD(priceUSD, totalSupply *big.Int) (*big.Int, error) {
	if priceUSD == nil || totalSupply == nil || priceUSD.Sign() < 0 || totalSupply.Sign() < 0 {
		return nil, ErrInvalidPrice
	}
	cap := new(big.Int).Mul(priceUSD, totalSupply)
	return cap.Div(cap, precision), nil
}

// BondingProgress reports market cap as a whole percentage of the migration
// threshold: 0 at zero cap, 100 at or past the threshold, floor in between.
func BondingProgress(marketCapUSD, thresholdUSD *big.Int) uint8 {
	if marketCapUSD == nil || marketCapUSD.Sign() <= 0 {
		return 0
	}
	if thresholdUSD == nil || thresholdUSD.Sign() <= 0 {
		return 100
	}
	if marketCapUSD.Cmp(thresholdUSD) >= 0 {
		return 100
	}
	pct := new(big.Int).Mul(marketCapUSD, big.NewInt(100))
	pct.Div(pct, thresholdUSD)
	return uint8(pct.Uint64())
}
