package amm

import "errors"

var (
	// ErrPoolNotFound is returned when no pool exists for the pair.
	ErrPoolNotFound = errors.New("pool not found")

	// ErrZeroAmount is returned when an operation receives a zero amount.
	ErrZeroAmount = errors.New("amount must be greater than zero")

	// ErrNoCounterLiquidity is returned for a token->quote swap while the
	// pool is still in bootstrap mode and holds no quote-side reserve.
	ErrNoCounterLiquidity = errors.New("no counter liquidity in pool")

	// ErrRatioMismatch is returned when a deposit does not match the pool price.
	ErrRatioMismatch = errors.New("deposit ratio does not match pool reserves")

	// ErrInsufficientShares is returned when a holder burns more shares than owned.
	ErrInsufficientShares = errors.New("insufficient share balance")

	// ErrInsufficientLiquidity is returned when a swap would drain a reserve.
	ErrInsufficientLiquidity = errors.New("insufficient pool liquidity")

	// ErrOverflow is returned when a fixed-point operation exceeds 256 bits.
	ErrOverflow = errors.New("arithmetic overflow")

	// ErrPrecisionLoss is returned when a nonzero input rounds to a zero output.
	ErrPrecisionLoss = errors.New("amount too small, result rounds to zero")

	// ErrInvariantViolated is returned when a swap would decrease the pool invariant.
	ErrInvariantViolated = errors.New("constant-product invariant violated")

	// ErrReentrantCall is returned when an operation re-enters a pool it already holds.
	ErrReentrantCall = errors.New("reentrant call into locked pool")

	// ErrPoolExists is returned when seeding a pool that already exists.
	ErrPoolExists = errors.New("pool already exists")
)
