package launch

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"tokenlaunch/internal/event"
	"tokenlaunch/internal/token"
	"tokenlaunch/internal/venue"
)

const bpsDenominator = 10000

// overThreshold reports whether the token's market cap has reached the
// migration threshold. An unavailable or stale oracle defers migration
// to a later buy rather than failing the trade.
func (c *Controller) overThreshold(ctx context.Context, rec *Launch) bool {
	if c.cfg.MigrationThresholdUSD == nil || c.cfg.MigrationThresholdUSD.Sign() <= 0 {
		return false
	}
	mcap, err := c.marketCapUSD(ctx, rec)
	if err != nil {
		c.logger.Warn("market cap unavailable, deferring migration check",
			zap.String("token", rec.Token.Hex()),
			zap.Error(err),
		)
		return false
	}
	return mcap.Cmp(c.cfg.MigrationThresholdUSD) >= 0
}

// migrateLocked moves the configured fraction of internal liquidity into
// a full-range venue position. The caller must hold the pair guard. On
// any failure the ledger and token balances are left exactly as before;
// the caller decides whether to roll back the surrounding trade.
func (c *Controller) migrateLocked(ctx context.Context, rec *Launch) error {
	restore, err := c.ledger.Snapshot(rec.Token, c.cfg.Quote)
	if err != nil {
		return err
	}

	custodyShares, _, err := c.ledger.ShareOf(rec.Token, c.cfg.Quote, c.custody)
	if err != nil {
		return err
	}
	migShares := new(uint256.Int).Mul(custodyShares, uint256.NewInt(uint64(c.cfg.MigrationFractionBps)))
	migShares.Div(migShares, uint256.NewInt(bpsDenominator))
	if migShares.IsZero() {
		return fmt.Errorf("nothing to migrate: custody holds %s shares", custodyShares.Dec())
	}

	amountToken, amountQuote, err := c.ledger.RemoveLiquidity(ctx, c.custody, rec.Token, c.cfg.Quote, migShares)
	if err != nil {
		return fmt.Errorf("withdraw internal liquidity: %w", err)
	}

	sqrtPrice, err := venue.SqrtPriceX96FromReserves(amountToken, amountQuote)
	if err != nil {
		restore()
		return fmt.Errorf("venue pool price: %w", err)
	}
	poolAddr, err := c.venue.EnsurePool(ctx, rec.Token, c.cfg.Quote, c.cfg.VenueFee, sqrtPrice)
	if err != nil {
		restore()
		return err
	}

	tickLower, tickUpper, err := venue.FullRange(c.cfg.VenueFee)
	if err != nil {
		restore()
		return err
	}
	result, err := c.venue.MintPosition(ctx, venue.MintParams{
		TokenA:       rec.Token,
		TokenB:       c.cfg.Quote,
		Fee:          c.cfg.VenueFee,
		TickLower:    tickLower,
		TickUpper:    tickUpper,
		AmountA:      amountToken,
		AmountB:      amountQuote,
		Recipient:    c.custody,
		SqrtPriceX96: sqrtPrice,
	})
	if err != nil {
		restore()
		return fmt.Errorf("open venue position: %w", err)
	}

	c.mu.Lock()
	rec.PositionID = result.PositionID
	rec.PoolAddress = poolAddr
	c.mu.Unlock()

	c.emitter.Emit(event.NameLiquidityRemoved, event.LiquidityRemovedData{
		Pair:    rec.Pair.Hex(),
		Owner:   c.custody.Hex(),
		AmountA: amountToken.Dec(),
		AmountB: amountQuote.Dec(),
		Shares:  migShares.Dec(),
	})
	c.emitter.Emit(event.NameLiquidityMigrated, event.LiquidityMigratedData{
		Token:       rec.Token.Hex(),
		Pair:        rec.Pair.Hex(),
		PoolAddress: poolAddr.Hex(),
		PositionID:  result.PositionID,
		AmountA:     amountToken.Dec(),
		AmountB:     amountQuote.Dec(),
		Liquidity:   result.Liquidity.Dec(),
	})
	return nil
}

// CollectFees claims the accrued fees of a venue position into custody.
// Whitelist-gated; a position with nothing accrued yields zeros.
func (c *Controller) CollectFees(ctx context.Context, caller common.Address, positionID uint64) (*uint256.Int, *uint256.Int, error) {
	if err := c.whitelist.Require(caller); err != nil {
		return nil, nil, err
	}
	return c.collectPosition(ctx, positionID)
}

func (c *Controller) collectPosition(ctx context.Context, positionID uint64) (*uint256.Int, *uint256.Int, error) {
	amountA, amountB, err := c.venue.CollectFees(ctx, positionID, nil, nil)
	if err != nil {
		return nil, nil, err
	}
	c.emitter.Emit(event.NameFeesCollected, event.FeesCollectedData{
		PositionID: positionID,
		AmountA:    amountA.Dec(),
		AmountB:    amountB.Dec(),
	})
	return amountA, amountB, nil
}

// WithdrawFees collects the accrued venue fees for a migrated token and
// pays the creator's share out of custody, sending the remainder to the
// treasury. A call with nothing accrued succeeds and moves nothing.
func (c *Controller) WithdrawFees(ctx context.Context, caller, tokenAddr common.Address) (*uint256.Int, *uint256.Int, error) {
	rec, err := c.launch(tokenAddr)
	if err != nil {
		return nil, nil, err
	}
	if err := c.requireCreatorOrListed(caller, rec); err != nil {
		return nil, nil, err
	}
	if c.state(rec) != StateMigrated {
		return nil, nil, ErrNotMigrated
	}

	amountA, amountB, err := c.collectPosition(ctx, c.positionID(rec))
	if err != nil {
		return nil, nil, err
	}

	tokenAsset, err := c.asset(rec.Token)
	if err != nil {
		return nil, nil, err
	}
	quoteAsset, err := c.asset(c.cfg.Quote)
	if err != nil {
		return nil, nil, err
	}

	creatorA, protocolA := c.splitFee(amountA)
	creatorB, protocolB := c.splitFee(amountB)

	if err := c.payOut(tokenAsset, rec.Creator, creatorA); err != nil {
		return nil, nil, err
	}
	if err := c.payOut(tokenAsset, c.treasury, protocolA); err != nil {
		return nil, nil, err
	}
	if err := c.payOut(quoteAsset, rec.Creator, creatorB); err != nil {
		return nil, nil, err
	}
	if err := c.payOut(quoteAsset, c.treasury, protocolB); err != nil {
		return nil, nil, err
	}

	c.emitter.Emit(event.NameFeesWithdrawn, event.FeesWithdrawnData{
		Token:           rec.Token.Hex(),
		Creator:         rec.Creator.Hex(),
		CreatorAmountA:  creatorA.Dec(),
		CreatorAmountB:  creatorB.Dec(),
		ProtocolAmountA: protocolA.Dec(),
		ProtocolAmountB: protocolB.Dec(),
	})
	return creatorA, creatorB, nil
}

func (c *Controller) requireCreatorOrListed(caller common.Address, rec *Launch) error {
	if caller == rec.Creator {
		return nil
	}
	return c.whitelist.Require(caller)
}

func (c *Controller) positionID(rec *Launch) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return rec.PositionID
}

func (c *Controller) splitFee(amount *uint256.Int) (creator, protocol *uint256.Int) {
	creator = new(uint256.Int).Mul(amount, uint256.NewInt(uint64(c.cfg.CreatorFeeBps)))
	creator.Div(creator, uint256.NewInt(bpsDenominator))
	protocol = new(uint256.Int).Sub(amount, creator)
	return creator, protocol
}

func (c *Controller) payOut(asset token.Asset, to common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	return asset.Transfer(c.custody, to, amount)
}
