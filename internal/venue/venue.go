package venue

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	// ErrUnknownPosition is returned for operations on a position id the
	// venue never minted.
	ErrUnknownPosition = errors.New("unknown position")

	// ErrUnknownPool is returned when minting into a venue pool that was
	// never created.
	ErrUnknownPool = errors.New("venue pool does not exist")

	// ErrInvalidTickRange is returned when tickLower/tickUpper are not a
	// valid ordered range on the fee tier's spacing.
	ErrInvalidTickRange = errors.New("invalid tick range")

	// ErrZeroLiquidity is returned when the deposited amounts produce no
	// position liquidity.
	ErrZeroLiquidity = errors.New("zero position liquidity")
)

// MintParams describes a concentrated-liquidity position to open.
type MintParams struct {
	TokenA       common.Address
	TokenB       common.Address
	Fee          uint32
	TickLower    int32
	TickUpper    int32
	AmountA      *uint256.Int
	AmountB      *uint256.Int
	AmountAMin   *uint256.Int
	AmountBMin   *uint256.Int
	Recipient    common.Address
	SqrtPriceX96 *uint256.Int
}

// MintResult reports the opened position and the amounts the venue consumed.
type MintResult struct {
	PositionID uint64
	Liquidity  *uint256.Int
	UsedA      *uint256.Int
	UsedB      *uint256.Int
}

// Position is the venue-side record of a minted range position. Positions
// are never destroyed; fees accrue and can be collected repeatedly.
type Position struct {
	PoolAddress common.Address
	TokenA      common.Address
	TokenB      common.Address
	Fee         uint32
	TickLower   int32
	TickUpper   int32
	Liquidity   *uint256.Int
	FeesOwedA   *uint256.Int
	FeesOwedB   *uint256.Int
}

// Venue is the narrow interface onto an external concentrated-liquidity
// market: pool creation, position minting, and fee collection.
type Venue interface {
	// CreateAndInitializePoolIfNecessary is idempotent: an existing pool is
	// returned rather than treated as an error.
	CreateAndInitializePoolIfNecessary(ctx context.Context, a, b common.Address, fee uint32, sqrtPriceX96 *uint256.Int) (common.Address, error)
	Mint(ctx context.Context, params MintParams) (MintResult, error)
	// Collect claims accrued fees up to the given maxima. Nothing accrued
	// yields zero amounts, not an error.
	Collect(ctx context.Context, positionID uint64, recipient common.Address, maxA, maxB *uint256.Int) (*uint256.Int, *uint256.Int, error)
	GetPool(a, b common.Address, fee uint32) (common.Address, bool)
	// Address is where the venue holds transferred liquidity.
	Address() common.Address
}
