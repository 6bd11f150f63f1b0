package amm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Pool holds reserves and share accounting for one asset pair. Assets are
// stored in canonical order; callers address the pool with either order and
// amounts are oriented per call.
type Pool struct {
	ID       PairID
	Asset0   common.Address
	Asset1   common.Address
	Reserve0 *uint256.Int
	Reserve1 *uint256.Int

	// K is Reserve0*Reserve1 at fixed-point scale, recomputed after every
	// state-changing operation. Zero while the pool is in bootstrap mode.
	K *uint256.Int

	TotalShares *uint256.Int

	// ZeroPriceActive is true while BootstrapAsset has reserve but the quote
	// side is empty. It clears permanently on the first quote-side deposit.
	ZeroPriceActive bool

	// BootstrapRate is the fixed amount of BootstrapAsset paid per unit of
	// quote at fixed-point scale. Only meaningful while ZeroPriceActive.
	BootstrapRate  *uint256.Int
	BootstrapAsset common.Address
}

func newPool(id PairID, a0, a1 common.Address) *Pool {
	return &Pool{
		ID:            id,
		Asset0:        a0,
		Asset1:        a1,
		Reserve0:      uint256.NewInt(0),
		Reserve1:      uint256.NewInt(0),
		K:             uint256.NewInt(0),
		TotalShares:   uint256.NewInt(0),
		BootstrapRate: uint256.NewInt(0),
	}
}

// reserves returns the reserve pointers oriented so the first value belongs
// to assetA. The pointers alias pool state; mutations write through.
func (p *Pool) reserves(assetA common.Address) (*uint256.Int, *uint256.Int) {
	if assetA == p.Asset0 {
		return p.Reserve0, p.Reserve1
	}
	return p.Reserve1, p.Reserve0
}

func (p *Pool) setReserves(assetA common.Address, resA, resB *uint256.Int) {
	if assetA == p.Asset0 {
		p.Reserve0, p.Reserve1 = resA, resB
	} else {
		p.Reserve0, p.Reserve1 = resB, resA
	}
}

// recomputeK refreshes the scaled invariant from current reserves.
func (p *Pool) recomputeK() error {
	k, err := scaledProduct(p.Reserve0, p.Reserve1)
	if err != nil {
		return err
	}
	p.K = k
	return nil
}

func (p *Pool) snapshot() *Pool {
	cp := *p
	cp.Reserve0 = clone(p.Reserve0)
	cp.Reserve1 = clone(p.Reserve1)
	cp.K = clone(p.K)
	cp.TotalShares = clone(p.TotalShares)
	cp.BootstrapRate = clone(p.BootstrapRate)
	return &cp
}

// PoolView is a read-only copy of pool state oriented to the caller's order.
type PoolView struct {
	ID              PairID
	AssetA          common.Address
	AssetB          common.Address
	ReserveA        *uint256.Int
	ReserveB        *uint256.Int
	K               *uint256.Int
	TotalShares     *uint256.Int
	ZeroPriceActive bool
	BootstrapRate   *uint256.Int
}

func (p *Pool) view(assetA, assetB common.Address) PoolView {
	resA, resB := p.reserves(assetA)
	return PoolView{
		ID:              p.ID,
		AssetA:          assetA,
		AssetB:          assetB,
		ReserveA:        clone(resA),
		ReserveB:        clone(resB),
		K:               clone(p.K),
		TotalShares:     clone(p.TotalShares),
		ZeroPriceActive: p.ZeroPriceActive,
		BootstrapRate:   clone(p.BootstrapRate),
	}
}
