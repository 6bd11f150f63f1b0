package venue

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

type poolKey struct {
	token0 common.Address
	token1 common.Address
	fee    uint32
}

func keyFor(a, b common.Address, fee uint32) poolKey {
	if a.Hex() > b.Hex() {
		a, b = b, a
	}
	return poolKey{token0: a, token1: b, fee: fee}
}

// SimVenue is an in-memory concentrated-liquidity venue used by tests and
// the scenario driver. It tracks pools and positions and accrues fees on
// demand; asset custody is handled by the caller.
type SimVenue struct {
	addr   common.Address
	logger *zap.Logger

	mu        sync.Mutex
	pools     map[poolKey]common.Address
	positions map[uint64]*Position
	nextID    uint64
	nonce     uint64
}

func NewSimVenue(addr common.Address, logger *zap.Logger) *SimVenue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimVenue{
		addr:      addr,
		logger:    logger,
		pools:     make(map[poolKey]common.Address),
		positions: make(map[uint64]*Position),
		nextID:    1,
	}
}

func (s *SimVenue) Address() common.Address {
	return s.addr
}

func (s *SimVenue) CreateAndInitializePoolIfNecessary(_ context.Context, a, b common.Address, fee uint32, sqrtPriceX96 *uint256.Int) (common.Address, error) {
	if _, err := TickSpacing(fee); err != nil {
		return common.Address{}, err
	}
	if sqrtPriceX96 == nil || sqrtPriceX96.IsZero() {
		return common.Address{}, ErrZeroLiquidity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := keyFor(a, b, fee)
	if addr, ok := s.pools[key]; ok {
		return addr, nil
	}

	s.nonce++
	addr := crypto.CreateAddress(s.addr, s.nonce)
	s.pools[key] = addr
	s.logger.Debug("venue pool created",
		zap.String("pool", addr.Hex()),
		zap.Uint32("fee", fee),
	)
	return addr, nil
}

func (s *SimVenue) GetPool(a, b common.Address, fee uint32) (common.Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	addr, ok := s.pools[keyFor(a, b, fee)]
	return addr, ok
}

func (s *SimVenue) Mint(_ context.Context, params MintParams) (MintResult, error) {
	spacing, err := TickSpacing(params.Fee)
	if err != nil {
		return MintResult{}, err
	}
	if params.TickLower >= params.TickUpper ||
		params.TickLower < MinTick(spacing) || params.TickUpper > MaxTick(spacing) ||
		params.TickLower%spacing != 0 || params.TickUpper%spacing != 0 {
		return MintResult{}, ErrInvalidTickRange
	}
	if params.AmountA == nil || params.AmountB == nil || params.AmountA.IsZero() || params.AmountB.IsZero() {
		return MintResult{}, ErrZeroLiquidity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	poolAddr, ok := s.pools[keyFor(params.TokenA, params.TokenB, params.Fee)]
	if !ok {
		return MintResult{}, ErrUnknownPool
	}

	liquidity := positionLiquidity(params.AmountA, params.AmountB)
	if liquidity.IsZero() {
		return MintResult{}, ErrZeroLiquidity
	}

	id := s.nextID
	s.nextID++
	s.positions[id] = &Position{
		PoolAddress: poolAddr,
		TokenA:      params.TokenA,
		TokenB:      params.TokenB,
		Fee:         params.Fee,
		TickLower:   params.TickLower,
		TickUpper:   params.TickUpper,
		Liquidity:   liquidity,
		FeesOwedA:   uint256.NewInt(0),
		FeesOwedB:   uint256.NewInt(0),
	}

	s.logger.Debug("position minted",
		zap.Uint64("position_id", id),
		zap.String("pool", poolAddr.Hex()),
		zap.String("liquidity", liquidity.Dec()),
	)
	return MintResult{
		PositionID: id,
		Liquidity:  liquidity,
		UsedA:      new(uint256.Int).Set(params.AmountA),
		UsedB:      new(uint256.Int).Set(params.AmountB),
	}, nil
}

func (s *SimVenue) Collect(_ context.Context, positionID uint64, _ common.Address, maxA, maxB *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.positions[positionID]
	if !ok {
		return nil, nil, ErrUnknownPosition
	}

	amountA := minOf(pos.FeesOwedA, maxA)
	amountB := minOf(pos.FeesOwedB, maxB)
	pos.FeesOwedA = new(uint256.Int).Sub(pos.FeesOwedA, amountA)
	pos.FeesOwedB = new(uint256.Int).Sub(pos.FeesOwedB, amountB)

	return amountA, amountB, nil
}

// AccrueFees adds pending fees to a position, standing in for trading
// activity on the venue.
func (s *SimVenue) AccrueFees(positionID uint64, feeA, feeB *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.positions[positionID]
	if !ok {
		return ErrUnknownPosition
	}
	pos.FeesOwedA = new(uint256.Int).Add(pos.FeesOwedA, feeA)
	pos.FeesOwedB = new(uint256.Int).Add(pos.FeesOwedB, feeB)
	return nil
}

// PositionInfo returns a copy of the position record.
func (s *SimVenue) PositionInfo(positionID uint64) (Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.positions[positionID]
	if !ok {
		return Position{}, false
	}
	cp := *pos
	cp.Liquidity = new(uint256.Int).Set(pos.Liquidity)
	cp.FeesOwedA = new(uint256.Int).Set(pos.FeesOwedA)
	cp.FeesOwedB = new(uint256.Int).Set(pos.FeesOwedB)
	return cp, true
}

// positionLiquidity approximates range liquidity as sqrt(amountA*amountB).
func positionLiquidity(amountA, amountB *uint256.Int) *uint256.Int {
	prod := new(big.Int).Mul(amountA.ToBig(), amountB.ToBig())
	prod.Sqrt(prod)
	out, _ := uint256.FromBig(prod)
	return out
}

func minOf(a, b *uint256.Int) *uint256.Int {
	if b == nil {
		return new(uint256.Int).Set(a)
	}
	if a.Lt(b) {
		return new(uint256.Int).Set(a)
	}
	return new(uint256.Int).Set(b)
}
