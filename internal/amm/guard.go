package amm

import (
	"context"
	"sync"
)

type guardCtxKey struct{}

// heldPairs is the set of pool ids already reserved by the current operation,
// carried through context so nested calls can be told apart from concurrent ones.
type heldPairs map[PairID]struct{}

// Guard serializes operations per pool. Concurrent operations on the same
// pool block until the holder finishes; a call that re-enters a pool its own
// operation already holds is rejected instead of deadlocking.
type Guard struct {
	mu    sync.Mutex
	locks map[PairID]*sync.Mutex
}

func NewGuard() *Guard {
	return &Guard{locks: make(map[PairID]*sync.Mutex)}
}

func (g *Guard) lockFor(pair PairID) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.locks[pair]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[pair] = lock
	}
	return lock
}

// Enter reserves the pool for the calling operation. The returned context
// marks the pool as held and must be passed to nested calls; the release
// function must be called when the operation finishes.
func (g *Guard) Enter(ctx context.Context, pair PairID) (context.Context, func(), error) {
	if g.Held(ctx, pair) {
		return nil, nil, ErrReentrantCall
	}

	lock := g.lockFor(pair)
	lock.Lock()

	held := make(heldPairs)
	if prev, ok := ctx.Value(guardCtxKey{}).(heldPairs); ok {
		for id := range prev {
			held[id] = struct{}{}
		}
	}
	held[pair] = struct{}{}

	return context.WithValue(ctx, guardCtxKey{}, held), lock.Unlock, nil
}

// Held reports whether the current operation already reserved the pool.
func (g *Guard) Held(ctx context.Context, pair PairID) bool {
	held, ok := ctx.Value(guardCtxKey{}).(heldPairs)
	if !ok {
		return false
	}
	_, ok = held[pair]
	return ok
}
