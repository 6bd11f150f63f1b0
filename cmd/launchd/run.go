package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tokenlaunch/internal/amm"
	"tokenlaunch/internal/config"
	"tokenlaunch/internal/event"
	"tokenlaunch/internal/launch"
	"tokenlaunch/internal/pricing"
	"tokenlaunch/internal/storage/postgres"
	"tokenlaunch/internal/token"
	"tokenlaunch/internal/venue"
)

var (
	deployerAddr = common.HexToAddress("0x00000000000000000000000000000000000000d0")
	custodyAddr  = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	treasuryAddr = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	venueAddr    = common.HexToAddress("0x00000000000000000000000000000000000000e0")
	creatorAddr  = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	buyerAddr    = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

func runScenario(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	supply, err := uint256.FromDecimal(cfg.TokenSupply)
	if err != nil {
		return fmt.Errorf("parse token-supply: %w", err)
	}
	rate, err := uint256.FromDecimal(cfg.BootstrapRate)
	if err != nil {
		return fmt.Errorf("parse bootstrap-rate: %w", err)
	}
	threshold, ok := new(big.Int).SetString(cfg.ThresholdUSD, 10)
	if !ok {
		return fmt.Errorf("parse threshold-usd: %q", cfg.ThresholdUSD)
	}
	oraclePrice, ok := new(big.Int).SetString(cfg.OraclePriceUSD, 10)
	if !ok {
		return fmt.Errorf("parse oracle-price-usd: %q", cfg.OraclePriceUSD)
	}

	book := token.NewBook()
	quote := token.NewStandardToken(deployerAddr, 1, "Wrapped Native", "WNAT", 18)
	book.Register(quote)
	if err := quote.Mint(buyerAddr, new(uint256.Int).Mul(amm.Precision, uint256.NewInt(100))); err != nil {
		return fmt.Errorf("fund buyer: %w", err)
	}

	sinks := []event.Sink{event.NewJSONLSink(cfg.Out)}

	var store *postgres.Store
	if cfg.PgDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PgDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, store.Sink(ctx))
	}

	whitelist := launch.NewWhitelist(creatorAddr)
	for _, addr := range cfg.Whitelist {
		whitelist.Add(common.HexToAddress(addr))
	}

	ledger := amm.NewLedger(amm.NewGuard(), logger)
	sim := venue.NewSimVenue(venueAddr, logger)
	adapter := venue.NewAdapter(sim, book, custodyAddr, logger)
	oracle := pricing.NewFixedOracle(oraclePrice, pricing.USDDecimals)
	emitter := event.NewEmitter(logger, sinks...)

	controller := launch.NewController(launch.Config{
		Quote:                 quote.Address(),
		TokenSupply:           supply,
		BootstrapRate:         rate,
		MigrationThresholdUSD: threshold,
		MigrationFractionBps:  cfg.MigrationFractionBps,
		VenueFee:              cfg.VenueFee,
		CreatorFeeBps:         cfg.CreatorFeeBps,
		OracleMaxAge:          cfg.OracleMaxAge,
	}, ledger, book, adapter, oracle, emitter, whitelist, custodyAddr, treasuryAddr, logger)

	logger.Info("launch scenario start",
		zap.String("supply", supply.Dec()),
		zap.String("bootstrap_rate", rate.Dec()),
		zap.String("threshold_usd", threshold.String()),
		zap.Uint32("migration_fraction_bps", cfg.MigrationFractionBps),
		zap.String("out", cfg.Out),
	)

	tokenAddr, err := controller.CreateTokenAndPool(ctx, creatorAddr, "Scenario Token", "SCN")
	if err != nil {
		return fmt.Errorf("launch token: %w", err)
	}

	buySize := amm.Precision.Clone() // 1 quote per buy
	for i := 0; i < 50; i++ {
		if err := quote.Approve(buyerAddr, custodyAddr, buySize); err != nil {
			return fmt.Errorf("approve: %w", err)
		}
		out, err := controller.BuyToken(ctx, buyerAddr, tokenAddr, buySize)
		if err != nil {
			return fmt.Errorf("buy %d: %w", i+1, err)
		}

		info, err := controller.Info(tokenAddr)
		if err != nil {
			return err
		}
		progress, _ := controller.Progress(ctx, tokenAddr)
		logger.Info("buy executed",
			zap.Int("n", i+1),
			zap.String("tokens_out", out.Dec()),
			zap.Stringer("state", info.State),
			zap.Uint8("progress", progress),
		)
		if info.State == launch.StateMigrated {
			break
		}
	}

	info, err := controller.Info(tokenAddr)
	if err != nil {
		return err
	}
	if info.State != launch.StateMigrated {
		return fmt.Errorf("scenario ended without migration, state %s", info.State)
	}
	logger.Info("liquidity migrated",
		zap.String("venue_pool", info.PoolAddress.Hex()),
		zap.Uint64("position_id", info.PositionID),
	)

	// Stand in for venue trading activity, then pay the creator out.
	tokenAsset, _ := book.Asset(tokenAddr)
	feeToken := new(uint256.Int).Lsh(uint256.NewInt(1), 60)
	feeQuote := new(uint256.Int).Lsh(uint256.NewInt(1), 40)
	if err := sim.AccrueFees(info.PositionID, feeToken, feeQuote); err != nil {
		return fmt.Errorf("accrue fees: %w", err)
	}
	if err := tokenAsset.Mint(venueAddr, feeToken); err != nil {
		return err
	}
	if err := quote.Mint(venueAddr, feeQuote); err != nil {
		return err
	}
	creatorToken, creatorQuote, err := controller.WithdrawFees(ctx, creatorAddr, tokenAddr)
	if err != nil {
		return fmt.Errorf("withdraw fees: %w", err)
	}
	logger.Info("fees withdrawn",
		zap.String("creator_token", creatorToken.Dec()),
		zap.String("creator_quote", creatorQuote.Dec()),
	)

	if store != nil {
		row := postgres.LaunchRow{
			TokenAddress: info.Token.Hex(),
			Creator:      info.Creator.Hex(),
			Name:         info.Name,
			Symbol:       info.Symbol,
			State:        info.State.String(),
			PairID:       info.Pair.Hex(),
			PositionID:   info.PositionID,
			PoolAddress:  info.PoolAddress.Hex(),
		}
		if err := store.UpsertLaunches(ctx, []postgres.LaunchRow{row}); err != nil {
			return fmt.Errorf("persist launch: %w", err)
		}
	}

	logger.Info("launch scenario complete", zap.String("token", tokenAddr.Hex()))
	return nil
}
