package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "launchd",
		Short:        "Token launch and market-making engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a launch scenario end to end",
		RunE:  runScenario,
	}

	runCmd.Flags().String("token-supply", "1000000000000000000000000000", "minted supply per token (wei)")
	runCmd.Flags().String("bootstrap-rate", "10000000000000000000000000", "bootstrap tokens per quote, 1e18 fixed point")
	runCmd.Flags().String("threshold-usd", "6900000000000", "migration market cap threshold, 8-decimal USD")
	runCmd.Flags().Uint32("migration-fraction-bps", 8000, "liquidity fraction moved on migration")
	runCmd.Flags().Uint32("venue-fee", 3000, "venue pool fee tier")
	runCmd.Flags().Uint32("creator-fee-bps", 2500, "creator share of venue fees")
	runCmd.Flags().StringSlice("whitelist", nil, "creator addresses allowed to launch (comma-separated)")
	runCmd.Flags().String("oracle-price-usd", "300000000000", "quote asset USD price, 8 decimals")
	runCmd.Flags().Duration("oracle-max-age", time.Hour, "maximum oracle price age")
	runCmd.Flags().String("out", "./data/events.jsonl", "output JSONL path for events")
	runCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for archival")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a swap against given reserves without running the engine",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("reserve-token", "", "token-side reserve (wei)")
	quoteCmd.Flags().String("reserve-quote", "", "quote-side reserve (wei)")
	quoteCmd.Flags().String("amount-in", "", "input amount (wei)")
	quoteCmd.Flags().String("direction", "buy", "buy (quote in) or sell (token in)")
	quoteCmd.Flags().String("bootstrap-rate", "", "price at a fixed bootstrap rate instead of reserves")
	quoteCmd.Flags().Uint("decimals", 18, "decimals used to render amounts")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
