package amm

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// Ledger owns all pool and share state. It is a pure state machine: no
// external calls are made from here, and every operation either commits all
// of its writes or none of them.
type Ledger struct {
	guard  *Guard
	logger *zap.Logger

	mu     sync.RWMutex
	pools  map[PairID]*Pool
	shares map[PairID]map[common.Address]*uint256.Int
}

// NewLedger builds an empty ledger. The guard may be shared with callers
// that serialize multi-step operations around ledger calls.
func NewLedger(guard *Guard, logger *zap.Logger) *Ledger {
	if guard == nil {
		guard = NewGuard()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		guard:  guard,
		logger: logger,
		pools:  make(map[PairID]*Pool),
		shares: make(map[PairID]map[common.Address]*uint256.Int),
	}
}

// Guard exposes the pool guard so orchestration layers can hold a pool
// across several ledger calls.
func (l *Ledger) Guard() *Guard {
	return l.guard
}

// withPool serializes fn against other operations on the pair. If the
// surrounding operation already holds the pair, fn runs directly.
func (l *Ledger) withPool(ctx context.Context, pair PairID, fn func() error) error {
	if l.guard.Held(ctx, pair) {
		return fn()
	}
	_, release, err := l.guard.Enter(ctx, pair)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func (l *Ledger) pool(pair PairID) (*Pool, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.pools[pair]
	return p, ok
}

func (l *Ledger) shareMap(pair PairID) map[common.Address]*uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.shares[pair]
	if !ok {
		m = make(map[common.Address]*uint256.Int)
		l.shares[pair] = m
	}
	return m
}

// AddLiquidity deposits a paired amount of both assets. The first deposit
// creates the pool, fixes its price, and mints the base share allocation.
// Later deposits must match the pool ratio and mint proportional shares.
func (l *Ledger) AddLiquidity(ctx context.Context, provider, assetA, assetB common.Address, amountA, amountB *uint256.Int) (*uint256.Int, error) {
	if amountA == nil || amountB == nil || amountA.IsZero() || amountB.IsZero() {
		return nil, ErrZeroAmount
	}

	pair := PairIDFor(assetA, assetB)
	var minted *uint256.Int

	err := l.withPool(ctx, pair, func() error {
		p, ok := l.pool(pair)
		if !ok {
			p = l.createPool(pair, assetA, assetB)
			p.setReserves(assetA, clone(amountA), clone(amountB))
			if err := p.recomputeK(); err != nil {
				l.dropPool(pair)
				return err
			}
			minted = clone(BaseShares)
			return l.mintShares(p, provider, minted)
		}

		if p.ZeroPriceActive {
			// Bootstrap pools have no quote reserve, so no paired deposit
			// can match their ratio.
			return ErrRatioMismatch
		}

		resA, resB := p.reserves(assetA)
		sharesFromA, err := mulDivStrict(amountA, p.TotalShares, resA)
		if err != nil {
			return err
		}
		sharesFromB, err := mulDivStrict(amountB, p.TotalShares, resB)
		if err != nil {
			return err
		}
		if !withinTolerance(sharesFromA, sharesFromB) {
			return ErrRatioMismatch
		}

		newResA, err := checkedAdd(resA, amountA)
		if err != nil {
			return err
		}
		newResB, err := checkedAdd(resB, amountB)
		if err != nil {
			return err
		}

		p.setReserves(assetA, newResA, newResB)
		if err := p.recomputeK(); err != nil {
			return err
		}
		minted = sharesFromA
		return l.mintShares(p, provider, minted)
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("liquidity added",
		zap.String("pool", pair.Hex()),
		zap.String("provider", provider.Hex()),
		zap.String("shares", minted.Dec()),
	)
	return minted, nil
}

// SeedZeroPrice creates a pool holding only the launched asset, priced at a
// fixed bootstrap rate until the first quote-side buy arrives.
func (l *Ledger) SeedZeroPrice(ctx context.Context, provider, asset, quote common.Address, amount, bootstrapRate *uint256.Int) (*uint256.Int, error) {
	if amount == nil || amount.IsZero() || bootstrapRate == nil || bootstrapRate.IsZero() {
		return nil, ErrZeroAmount
	}

	pair := PairIDFor(asset, quote)
	var minted *uint256.Int

	err := l.withPool(ctx, pair, func() error {
		if _, ok := l.pool(pair); ok {
			return ErrPoolExists
		}
		p := l.createPool(pair, asset, quote)
		p.setReserves(asset, clone(amount), uint256.NewInt(0))
		p.ZeroPriceActive = true
		p.BootstrapRate = clone(bootstrapRate)
		p.BootstrapAsset = asset
		minted = clone(BaseShares)
		return l.mintShares(p, provider, minted)
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("pool seeded at zero price",
		zap.String("pool", pair.Hex()),
		zap.String("asset", asset.Hex()),
		zap.String("reserve", amount.Dec()),
	)
	return minted, nil
}

// RemoveLiquidity burns shares for a proportional cut of both reserves.
func (l *Ledger) RemoveLiquidity(ctx context.Context, provider, assetA, assetB common.Address, shareAmount *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	if shareAmount == nil || shareAmount.IsZero() {
		return nil, nil, ErrZeroAmount
	}

	pair := PairIDFor(assetA, assetB)
	var outA, outB *uint256.Int

	err := l.withPool(ctx, pair, func() error {
		p, ok := l.pool(pair)
		if !ok {
			return ErrPoolNotFound
		}

		held := l.shareBalance(pair, provider)
		if held.Lt(shareAmount) {
			return ErrInsufficientShares
		}

		resA, resB := p.reserves(assetA)
		amountA, err := mulDiv(shareAmount, resA, p.TotalShares)
		if err != nil {
			return err
		}
		amountB, err := mulDiv(shareAmount, resB, p.TotalShares)
		if err != nil {
			return err
		}

		newResA, err := checkedSub(resA, amountA)
		if err != nil {
			return err
		}
		newResB, err := checkedSub(resB, amountB)
		if err != nil {
			return err
		}

		p.setReserves(assetA, newResA, newResB)
		if err := p.recomputeK(); err != nil {
			return err
		}
		if err := l.burnShares(p, provider, shareAmount); err != nil {
			return err
		}
		outA, outB = amountA, amountB
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	l.logger.Debug("liquidity removed",
		zap.String("pool", pair.Hex()),
		zap.String("provider", provider.Hex()),
		zap.String("shares", shareAmount.Dec()),
	)
	return outA, outB, nil
}

// SwapExactAForB trades an exact amount of assetA for assetB.
func (l *Ledger) SwapExactAForB(ctx context.Context, assetA, assetB common.Address, amountAIn *uint256.Int) (*uint256.Int, error) {
	return l.swap(ctx, assetA, assetB, amountAIn)
}

// SwapExactBForA trades an exact amount of assetB for assetA.
func (l *Ledger) SwapExactBForA(ctx context.Context, assetA, assetB common.Address, amountBIn *uint256.Int) (*uint256.Int, error) {
	return l.swap(ctx, assetB, assetA, amountBIn)
}

func (l *Ledger) swap(ctx context.Context, assetIn, assetOut common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	if amountIn == nil || amountIn.IsZero() {
		return nil, ErrZeroAmount
	}

	pair := PairIDFor(assetIn, assetOut)
	var amountOut *uint256.Int

	err := l.withPool(ctx, pair, func() error {
		p, ok := l.pool(pair)
		if !ok {
			return ErrPoolNotFound
		}
		if p.ZeroPriceActive {
			return l.bootstrapSwap(p, assetIn, assetOut, amountIn, &amountOut)
		}
		return l.constantProductSwap(p, assetIn, assetOut, amountIn, &amountOut)
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("swap executed",
		zap.String("pool", pair.Hex()),
		zap.String("asset_in", assetIn.Hex()),
		zap.String("amount_in", amountIn.Dec()),
		zap.String("amount_out", amountOut.Dec()),
	)
	return amountOut, nil
}

// bootstrapSwap prices the first buy at the fixed bootstrap rate and flips
// the pool into constant-product mode. The flip happens at most once.
func (l *Ledger) bootstrapSwap(p *Pool, assetIn, assetOut common.Address, amountIn *uint256.Int, amountOut **uint256.Int) error {
	if assetOut != p.BootstrapAsset {
		return ErrNoCounterLiquidity
	}

	out, err := mulDivStrict(amountIn, p.BootstrapRate, Precision)
	if err != nil {
		return err
	}

	resOut, resIn := p.reserves(assetOut)
	if out.Gt(resOut) {
		out = clone(resOut)
	}

	newResOut, err := checkedSub(resOut, out)
	if err != nil {
		return err
	}
	newResIn, err := checkedAdd(resIn, amountIn)
	if err != nil {
		return err
	}

	p.setReserves(assetOut, newResOut, newResIn)
	p.ZeroPriceActive = false
	if err := p.recomputeK(); err != nil {
		return err
	}
	*amountOut = out
	return nil
}

func (l *Ledger) constantProductSwap(p *Pool, assetIn, assetOut common.Address, amountIn *uint256.Int, amountOut **uint256.Int) error {
	resIn, resOut := p.reserves(assetIn)
	if resIn.IsZero() || resOut.IsZero() {
		return ErrInsufficientLiquidity
	}

	denom, err := checkedAdd(resIn, amountIn)
	if err != nil {
		return err
	}
	out, err := mulDivStrict(resOut, amountIn, denom)
	if err != nil {
		return err
	}
	if !out.Lt(resOut) {
		return ErrInsufficientLiquidity
	}

	newResIn := denom
	newResOut, err := checkedSub(resOut, out)
	if err != nil {
		return err
	}

	prevK := clone(p.K)
	p.setReserves(assetIn, newResIn, newResOut)
	if err := p.recomputeK(); err != nil {
		return err
	}
	// Rounding may only favor the pool, never drain it.
	if p.K.Lt(prevK) {
		return ErrInvariantViolated
	}
	*amountOut = out
	return nil
}

// QuoteAForB returns the output of SwapExactAForB without touching state.
func (l *Ledger) QuoteAForB(assetA, assetB common.Address, amountAIn *uint256.Int) (*uint256.Int, error) {
	return l.quote(assetA, assetB, amountAIn)
}

// QuoteBForA returns the output of SwapExactBForA without touching state.
func (l *Ledger) QuoteBForA(assetA, assetB common.Address, amountBIn *uint256.Int) (*uint256.Int, error) {
	return l.quote(assetB, assetA, amountBIn)
}

func (l *Ledger) quote(assetIn, assetOut common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	if amountIn == nil || amountIn.IsZero() {
		return nil, ErrZeroAmount
	}
	p, ok := l.pool(PairIDFor(assetIn, assetOut))
	if !ok {
		return nil, ErrPoolNotFound
	}

	if p.ZeroPriceActive {
		if assetOut != p.BootstrapAsset {
			return nil, ErrNoCounterLiquidity
		}
		out, err := mulDivStrict(amountIn, p.BootstrapRate, Precision)
		if err != nil {
			return nil, err
		}
		resOut, _ := p.reserves(assetOut)
		if out.Gt(resOut) {
			out = clone(resOut)
		}
		return out, nil
	}

	resIn, resOut := p.reserves(assetIn)
	if resIn.IsZero() || resOut.IsZero() {
		return nil, ErrInsufficientLiquidity
	}
	denom, err := checkedAdd(resIn, amountIn)
	if err != nil {
		return nil, err
	}
	return mulDivStrict(resOut, amountIn, denom)
}

// RequiredDepositB returns the assetB amount that pairs with amountA at the
// current pool price.
func (l *Ledger) RequiredDepositB(assetA, assetB common.Address, amountA *uint256.Int) (*uint256.Int, error) {
	return l.requiredDeposit(assetA, assetB, amountA)
}

// RequiredDepositA returns the assetA amount that pairs with amountB at the
// current pool price.
func (l *Ledger) RequiredDepositA(assetA, assetB common.Address, amountB *uint256.Int) (*uint256.Int, error) {
	return l.requiredDeposit(assetB, assetA, amountB)
}

func (l *Ledger) requiredDeposit(haveAsset, wantAsset common.Address, haveAmount *uint256.Int) (*uint256.Int, error) {
	if haveAmount == nil || haveAmount.IsZero() {
		return nil, ErrZeroAmount
	}
	p, ok := l.pool(PairIDFor(haveAsset, wantAsset))
	if !ok {
		return nil, ErrPoolNotFound
	}
	resHave, resWant := p.reserves(haveAsset)
	if resHave.IsZero() {
		return nil, ErrInsufficientLiquidity
	}
	return mulDiv(haveAmount, resWant, resHave)
}

// PoolState returns a read-only view oriented to the caller's asset order.
func (l *Ledger) PoolState(assetA, assetB common.Address) (PoolView, error) {
	p, ok := l.pool(PairIDFor(assetA, assetB))
	if !ok {
		return PoolView{}, ErrPoolNotFound
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return p.view(assetA, assetB), nil
}

// ShareOf returns the holder's share balance and the pool's total shares.
func (l *Ledger) ShareOf(assetA, assetB common.Address, holder common.Address) (*uint256.Int, *uint256.Int, error) {
	pair := PairIDFor(assetA, assetB)
	p, ok := l.pool(pair)
	if !ok {
		return nil, nil, ErrPoolNotFound
	}
	return l.shareBalance(pair, holder), clone(p.TotalShares), nil
}

// SpotPrice returns the pool price in both directions at fixed-point scale.
func (l *Ledger) SpotPrice(assetA, assetB common.Address) (*uint256.Int, *uint256.Int, error) {
	p, ok := l.pool(PairIDFor(assetA, assetB))
	if !ok {
		return nil, nil, ErrPoolNotFound
	}
	resA, resB := p.reserves(assetA)
	if resA.IsZero() || resB.IsZero() {
		return nil, nil, ErrInsufficientLiquidity
	}
	priceAinB, err := mulDiv(resB, Precision, resA)
	if err != nil {
		return nil, nil, err
	}
	priceBinA, err := mulDiv(resA, Precision, resB)
	if err != nil {
		return nil, nil, err
	}
	return priceAinB, priceBinA, nil
}

// Snapshot captures the pool and its share records, returning a restore
// function that rolls both back. Callers must hold the pool for the whole
// snapshot/restore window.
func (l *Ledger) Snapshot(assetA, assetB common.Address) (func(), error) {
	pair := PairIDFor(assetA, assetB)
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.pools[pair]
	if !ok {
		return nil, ErrPoolNotFound
	}
	poolCopy := p.snapshot()
	sharesCopy := make(map[common.Address]*uint256.Int, len(l.shares[pair]))
	for holder, bal := range l.shares[pair] {
		sharesCopy[holder] = clone(bal)
	}

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.pools[pair] = poolCopy
		l.shares[pair] = sharesCopy
	}, nil
}

func (l *Ledger) createPool(pair PairID, assetA, assetB common.Address) *Pool {
	a0, a1 := SortAssets(assetA, assetB)
	p := newPool(pair, a0, a1)
	l.mu.Lock()
	l.pools[pair] = p
	l.mu.Unlock()
	return p
}

func (l *Ledger) dropPool(pair PairID) {
	l.mu.Lock()
	delete(l.pools, pair)
	delete(l.shares, pair)
	l.mu.Unlock()
}

func (l *Ledger) shareBalance(pair PairID, holder common.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if bal, ok := l.shares[pair][holder]; ok {
		return clone(bal)
	}
	return uint256.NewInt(0)
}

func (l *Ledger) mintShares(p *Pool, holder common.Address, amount *uint256.Int) error {
	total, err := checkedAdd(p.TotalShares, amount)
	if err != nil {
		return err
	}
	m := l.shareMap(p.ID)

	l.mu.Lock()
	defer l.mu.Unlock()
	bal, ok := m[holder]
	if !ok {
		bal = uint256.NewInt(0)
	}
	m[holder] = new(uint256.Int).Add(bal, amount)
	p.TotalShares = total
	return nil
}

func (l *Ledger) burnShares(p *Pool, holder common.Address, amount *uint256.Int) error {
	total, err := checkedSub(p.TotalShares, amount)
	if err != nil {
		return err
	}
	m := l.shareMap(p.ID)

	l.mu.Lock()
	defer l.mu.Unlock()
	bal, ok := m[holder]
	if !ok || bal.Lt(amount) {
		return ErrInsufficientShares
	}
	m[holder] = new(uint256.Int).Sub(bal, amount)
	p.TotalShares = total
	return nil
}
