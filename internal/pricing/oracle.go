package pricing

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"
)

// ErrStalePrice is returned when the latest oracle answer is older than the
// caller's tolerance.
var ErrStalePrice = errors.New("oracle price is stale")

// Oracle supplies the quote-asset price in USD.
type Oracle interface {
	LatestPrice(ctx context.Context) (price *big.Int, decimals uint8, updatedAt time.Time, err error)
}

// FixedOracle serves a settable price, the shape of a mock feed. The answer
// timestamp refreshes on every SetPrice.
type FixedOracle struct {
	mu        sync.RWMutex
	price     *big.Int
	decimals  uint8
	updatedAt time.Time
}

func NewFixedOracle(price *big.Int, decimals uint8) *FixedOracle {
	return &FixedOracle{
		price:     new(big.Int).Set(price),
		decimals:  decimals,
		updatedAt: time.Now().UTC(),
	}
}

func (o *FixedOracle) SetPrice(price *big.Int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.price = new(big.Int).Set(price)
	o.updatedAt = time.Now().UTC()
}

func (o *FixedOracle) LatestPrice(_ context.Context) (*big.Int, uint8, time.Time, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return new(big.Int).Set(o.price), o.decimals, o.updatedAt, nil
}

// CheckFreshness rejects answers older than maxAge. A zero maxAge disables
// the check.
func CheckFreshness(updatedAt time.Time, maxAge time.Duration, now time.Time) error {
	if maxAge <= 0 {
		return nil
	}
	if now.Sub(updatedAt) > maxAge {
		return ErrStalePrice
	}
	return nil
}
