package launch

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"tokenlaunch/internal/event"
	"tokenlaunch/internal/venue"
)

// CreatePool creates and initializes a venue pool directly, outside the
// launch lifecycle. Whitelist-gated; repeat calls return the existing pool.
func (c *Controller) CreatePool(ctx context.Context, caller, assetA, assetB common.Address, fee uint32, sqrtPriceX96 *uint256.Int) (common.Address, error) {
	if err := c.whitelist.Require(caller); err != nil {
		return common.Address{}, err
	}
	addr, err := c.venue.EnsurePool(ctx, assetA, assetB, fee, sqrtPriceX96)
	if err != nil {
		return common.Address{}, err
	}

	c.emitter.Emit(event.NamePoolCreated, event.PoolCreatedData{
		Pair:   addr.Hex(),
		AssetA: assetA.Hex(),
		AssetB: assetB.Hex(),
	})
	return addr, nil
}

// MintPosition opens a venue position funded from custody. Whitelist-gated;
// the venue pool must already exist.
func (c *Controller) MintPosition(ctx context.Context, caller common.Address, params venue.MintParams) (venue.MintResult, error) {
	if err := c.whitelist.Require(caller); err != nil {
		return venue.MintResult{}, err
	}
	result, err := c.venue.MintPosition(ctx, params)
	if err != nil {
		return venue.MintResult{}, err
	}

	c.emitter.Emit(event.NameLiquidityAdded, event.LiquidityAddedData{
		Pair:    params.TokenA.Hex() + "/" + params.TokenB.Hex(),
		Owner:   params.Recipient.Hex(),
		AmountA: result.UsedA.Dec(),
		AmountB: result.UsedB.Dec(),
		Shares:  result.Liquidity.Dec(),
	})
	return result, nil
}

// BundleLiquidity is the manual migration path: it creates the venue pool
// if needed and mints a position in one call. Whitelist-gated.
func (c *Controller) BundleLiquidity(ctx context.Context, caller common.Address, params venue.MintParams) (uint64, error) {
	if err := c.whitelist.Require(caller); err != nil {
		return 0, err
	}
	if _, err := c.CreatePool(ctx, caller, params.TokenA, params.TokenB, params.Fee, params.SqrtPriceX96); err != nil {
		return 0, err
	}
	result, err := c.MintPosition(ctx, caller, params)
	if err != nil {
		return 0, err
	}
	return result.PositionID, nil
}
