package venue

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"tokenlaunch/internal/token"
)

// PositionRecord is the adapter-side view of a minted venue position.
type PositionRecord struct {
	ID          uint64
	PoolAddress common.Address
	TokenA      common.Address
	TokenB      common.Address
	Fee         uint32
	TickLower   int32
	TickUpper   int32
	Liquidity   *uint256.Int
}

// Adapter moves liquidity between the engine's custody account and the
// external venue. Venue-side failures roll back every transfer made within
// the same call: no partial liquidity transfer persists.
type Adapter struct {
	venue   Venue
	assets  token.Registry
	custody common.Address
	logger  *zap.Logger

	mu        sync.RWMutex
	positions map[uint64]PositionRecord
}

func NewAdapter(v Venue, assets token.Registry, custody common.Address, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		venue:     v,
		assets:    assets,
		custody:   custody,
		logger:    logger,
		positions: make(map[uint64]PositionRecord),
	}
}

// EnsurePool creates and initializes the venue pool if it does not exist
// yet; an existing pool is returned as-is.
func (a *Adapter) EnsurePool(ctx context.Context, assetA, assetB common.Address, fee uint32, sqrtPriceX96 *uint256.Int) (common.Address, error) {
	addr, err := a.venue.CreateAndInitializePoolIfNecessary(ctx, assetA, assetB, fee, sqrtPriceX96)
	if err != nil {
		return common.Address{}, fmt.Errorf("create venue pool: %w", err)
	}
	return addr, nil
}

// MintPosition transfers both assets to the venue and opens a position.
// If the venue rejects the mint, the transfers are reversed before the
// error is returned; surplus amounts the venue did not consume are refunded.
func (a *Adapter) MintPosition(ctx context.Context, params MintParams) (MintResult, error) {
	assetA, ok := a.assets.Asset(params.TokenA)
	if !ok {
		return MintResult{}, fmt.Errorf("unknown asset %s", params.TokenA.Hex())
	}
	assetB, ok := a.assets.Asset(params.TokenB)
	if !ok {
		return MintResult{}, fmt.Errorf("unknown asset %s", params.TokenB.Hex())
	}

	venueAddr := a.venue.Address()
	if err := assetA.Transfer(a.custody, venueAddr, params.AmountA); err != nil {
		return MintResult{}, fmt.Errorf("transfer %s to venue: %w", assetA.Symbol(), err)
	}
	if err := assetB.Transfer(a.custody, venueAddr, params.AmountB); err != nil {
		a.mustReturn(assetA, params.AmountA)
		return MintResult{}, fmt.Errorf("transfer %s to venue: %w", assetB.Symbol(), err)
	}

	result, err := a.venue.Mint(ctx, params)
	if err != nil {
		a.mustReturn(assetA, params.AmountA)
		a.mustReturn(assetB, params.AmountB)
		return MintResult{}, fmt.Errorf("venue mint: %w", err)
	}

	if refund := surplus(params.AmountA, result.UsedA); !refund.IsZero() {
		a.mustReturn(assetA, refund)
	}
	if refund := surplus(params.AmountB, result.UsedB); !refund.IsZero() {
		a.mustReturn(assetB, refund)
	}

	pool, _ := a.venue.GetPool(params.TokenA, params.TokenB, params.Fee)
	record := PositionRecord{
		ID:          result.PositionID,
		PoolAddress: pool,
		TokenA:      params.TokenA,
		TokenB:      params.TokenB,
		Fee:         params.Fee,
		TickLower:   params.TickLower,
		TickUpper:   params.TickUpper,
		Liquidity:   new(uint256.Int).Set(result.Liquidity),
	}
	a.mu.Lock()
	a.positions[result.PositionID] = record
	a.mu.Unlock()

	a.logger.Info("liquidity bundled into venue",
		zap.Uint64("position_id", result.PositionID),
		zap.String("pool", pool.Hex()),
		zap.String("amount_a", result.UsedA.Dec()),
		zap.String("amount_b", result.UsedB.Dec()),
	)
	return result, nil
}

// CollectFees claims accrued fees for a position into the custody account.
// A position with nothing accrued yields zero amounts and no error.
func (a *Adapter) CollectFees(ctx context.Context, positionID uint64, maxA, maxB *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	a.mu.RLock()
	record, ok := a.positions[positionID]
	a.mu.RUnlock()
	if !ok {
		return nil, nil, ErrUnknownPosition
	}

	amountA, amountB, err := a.venue.Collect(ctx, positionID, a.custody, maxA, maxB)
	if err != nil {
		return nil, nil, fmt.Errorf("venue collect: %w", err)
	}

	venueAddr := a.venue.Address()
	if !amountA.IsZero() {
		assetA, ok := a.assets.Asset(record.TokenA)
		if !ok {
			return nil, nil, fmt.Errorf("unknown asset %s", record.TokenA.Hex())
		}
		if err := assetA.Transfer(venueAddr, a.custody, amountA); err != nil {
			return nil, nil, fmt.Errorf("transfer collected %s: %w", assetA.Symbol(), err)
		}
	}
	if !amountB.IsZero() {
		assetB, ok := a.assets.Asset(record.TokenB)
		if !ok {
			return nil, nil, fmt.Errorf("unknown asset %s", record.TokenB.Hex())
		}
		if err := assetB.Transfer(venueAddr, a.custody, amountB); err != nil {
			return nil, nil, fmt.Errorf("transfer collected %s: %w", assetB.Symbol(), err)
		}
	}

	return amountA, amountB, nil
}

// Position returns the adapter's record for a minted position.
func (a *Adapter) Position(positionID uint64) (PositionRecord, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	record, ok := a.positions[positionID]
	return record, ok
}

// mustReturn reverses a custody->venue transfer made earlier in the same
// call. The venue balance already holds the amount, so failure here means
// inconsistent balances.
func (a *Adapter) mustReturn(asset token.Asset, amount *uint256.Int) {
	if err := asset.Transfer(a.venue.Address(), a.custody, amount); err != nil {
		a.logger.Error("rollback transfer failed",
			zap.String("asset", asset.Symbol()),
			zap.String("amount", amount.Dec()),
			zap.Error(err),
		)
	}
}

func surplus(provided, used *uint256.Int) *uint256.Int {
	if used == nil || provided.Lt(used) {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Sub(provided, used)
}
