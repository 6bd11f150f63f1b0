package main

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"tokenlaunch/internal/amm"
	"tokenlaunch/internal/config"
)

// runQuote prices a single swap from reserves supplied on the command
// line, without building the engine. With --bootstrap-rate set it prices
// at the fixed bootstrap rate instead of the constant product.
func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	amountIn, err := uint256.FromDecimal(cfg.AmountIn)
	if err != nil {
		return fmt.Errorf("parse amount-in: %w", err)
	}
	if amountIn.IsZero() {
		return fmt.Errorf("amount-in must be greater than zero")
	}

	var out *uint256.Int
	switch {
	case cfg.BootstrapRate != "":
		if cfg.Direction != "buy" {
			return fmt.Errorf("bootstrap pools only quote buys")
		}
		rate, err := uint256.FromDecimal(cfg.BootstrapRate)
		if err != nil {
			return fmt.Errorf("parse bootstrap-rate: %w", err)
		}
		out = new(uint256.Int).Mul(amountIn, rate)
		out.Div(out, amm.Precision)
	default:
		resToken, err := uint256.FromDecimal(cfg.ReserveToken)
		if err != nil {
			return fmt.Errorf("parse reserve-token: %w", err)
		}
		resQuote, err := uint256.FromDecimal(cfg.ReserveQuote)
		if err != nil {
			return fmt.Errorf("parse reserve-quote: %w", err)
		}
		resIn, resOut := resQuote, resToken
		if cfg.Direction == "sell" {
			resIn, resOut = resToken, resQuote
		}
		if resIn.IsZero() || resOut.IsZero() {
			return fmt.Errorf("both reserves must be greater than zero")
		}
		denom := new(uint256.Int).Add(resIn, amountIn)
		out = new(uint256.Int).Mul(resOut, amountIn)
		out.Div(out, denom)
	}

	scale := -int32(cfg.Decimals)
	humanIn := decimal.NewFromBigInt(amountIn.ToBig(), scale)
	humanOut := decimal.NewFromBigInt(out.ToBig(), scale)

	fmt.Fprintf(cmd.OutOrStdout(), "amount in:  %s\n", humanIn.String())
	fmt.Fprintf(cmd.OutOrStdout(), "amount out: %s\n", humanOut.String())
	if !humanOut.IsZero() {
		fmt.Fprintf(cmd.OutOrStdout(), "avg price:  %s\n", humanIn.DivRound(humanOut, 18).String())
	}
	return nil
}
