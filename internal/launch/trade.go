package launch

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"tokenlaunch/internal/event"
)

// BuyToken swaps an exact amount of quote for the launch token. The buyer
// must have approved custody for at least quoteIn. A buy that lifts the
// market cap past the migration threshold also migrates the pool; if any
// step fails, the whole call rolls back and the buyer keeps their quote.
func (c *Controller) BuyToken(ctx context.Context, buyer, tokenAddr common.Address, quoteIn *uint256.Int) (*uint256.Int, error) {
	rec, err := c.launch(tokenAddr)
	if err != nil {
		return nil, err
	}
	if c.state(rec) == StateMigrated {
		return nil, ErrAlreadyMigrated
	}

	tokenAsset, err := c.asset(tokenAddr)
	if err != nil {
		return nil, err
	}
	quoteAsset, err := c.asset(c.cfg.Quote)
	if err != nil {
		return nil, err
	}

	ctx, release, err := c.ledger.Guard().Enter(ctx, rec.Pair)
	if err != nil {
		return nil, err
	}
	defer release()

	restore, err := c.ledger.Snapshot(tokenAddr, c.cfg.Quote)
	if err != nil {
		return nil, err
	}
	prevState := c.state(rec)
	j := newJournal(c.logger)

	if err := quoteAsset.TransferFrom(c.custody, buyer, c.custody, quoteIn); err != nil {
		return nil, fmt.Errorf("collect quote: %w", err)
	}
	j.record(func() error { return quoteAsset.Transfer(c.custody, buyer, quoteIn) })

	out, err := c.ledger.SwapExactBForA(ctx, tokenAddr, c.cfg.Quote, quoteIn)
	if err != nil {
		j.revert()
		return nil, err
	}

	if err := tokenAsset.Transfer(c.custody, buyer, out); err != nil {
		restore()
		j.revert()
		return nil, fmt.Errorf("deliver token: %w", err)
	}
	j.record(func() error { return tokenAsset.Transfer(buyer, c.custody, out) })

	// The first quote-side buy clears bootstrap mode.
	view, err := c.ledger.PoolState(tokenAddr, c.cfg.Quote)
	if err != nil {
		restore()
		j.revert()
		return nil, err
	}
	wasBootstrap := prevState == StateTradingBootstrap
	flipped := wasBootstrap && !view.ZeroPriceActive
	openNow := prevState == StateTradingOpen || flipped

	migrated := false
	if openNow && c.overThreshold(ctx, rec) {
		if err := c.migrateLocked(ctx, rec); err != nil {
			restore()
			j.revert()
			return nil, fmt.Errorf("migrate on threshold: %w", err)
		}
		migrated = true
	}

	// State transitions commit only once nothing can fail anymore.
	if flipped {
		c.setState(rec, StateTradingOpen)
	}
	if migrated {
		c.setState(rec, StateMigrated)
		c.logger.Info("buy triggered migration",
			zap.String("token", tokenAddr.Hex()),
			zap.String("buyer", buyer.Hex()),
		)
	}

	c.emitter.Emit(event.NameTradeExecuted, event.TradeExecutedData{
		Pair:      rec.Pair.Hex(),
		Trader:    buyer.Hex(),
		AssetIn:   c.cfg.Quote.Hex(),
		AssetOut:  tokenAddr.Hex(),
		AmountIn:  quoteIn.Dec(),
		AmountOut: out.Dec(),
		Bootstrap: wasBootstrap,
	})
	return out, nil
}

// SellToken swaps an exact amount of the launch token back into quote.
// Selling needs quote-side liquidity, so it fails while the pool is still
// in bootstrap mode. The internal pool keeps its residual reserves after
// migration, so selling stays available alongside the venue market.
func (c *Controller) SellToken(ctx context.Context, seller, tokenAddr common.Address, tokenIn *uint256.Int) (*uint256.Int, error) {
	rec, err := c.launch(tokenAddr)
	if err != nil {
		return nil, err
	}

	tokenAsset, err := c.asset(tokenAddr)
	if err != nil {
		return nil, err
	}
	quoteAsset, err := c.asset(c.cfg.Quote)
	if err != nil {
		return nil, err
	}

	ctx, release, err := c.ledger.Guard().Enter(ctx, rec.Pair)
	if err != nil {
		return nil, err
	}
	defer release()

	restore, err := c.ledger.Snapshot(tokenAddr, c.cfg.Quote)
	if err != nil {
		return nil, err
	}
	j := newJournal(c.logger)

	if err := tokenAsset.TransferFrom(c.custody, seller, c.custody, tokenIn); err != nil {
		return nil, fmt.Errorf("collect token: %w", err)
	}
	j.record(func() error { return tokenAsset.Transfer(c.custody, seller, tokenIn) })

	out, err := c.ledger.SwapExactAForB(ctx, tokenAddr, c.cfg.Quote, tokenIn)
	if err != nil {
		j.revert()
		return nil, err
	}

	if err := quoteAsset.Transfer(c.custody, seller, out); err != nil {
		restore()
		j.revert()
		return nil, fmt.Errorf("deliver quote: %w", err)
	}

	c.emitter.Emit(event.NameTradeExecuted, event.TradeExecutedData{
		Pair:      rec.Pair.Hex(),
		Trader:    seller.Hex(),
		AssetIn:   tokenAddr.Hex(),
		AssetOut:  c.cfg.Quote.Hex(),
		AmountIn:  tokenIn.Dec(),
		AmountOut: out.Dec(),
	})
	return out, nil
}

// QuoteBuy previews the token output of BuyToken without touching state.
func (c *Controller) QuoteBuy(tokenAddr common.Address, quoteIn *uint256.Int) (*uint256.Int, error) {
	if _, err := c.launch(tokenAddr); err != nil {
		return nil, err
	}
	return c.ledger.QuoteBForA(tokenAddr, c.cfg.Quote, quoteIn)
}

// QuoteSell previews the quote output of SellToken without touching state.
func (c *Controller) QuoteSell(tokenAddr common.Address, tokenIn *uint256.Int) (*uint256.Int, error) {
	if _, err := c.launch(tokenAddr); err != nil {
		return nil, err
	}
	return c.ledger.QuoteAForB(tokenAddr, c.cfg.Quote, tokenIn)
}
