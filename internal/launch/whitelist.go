package launch

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Whitelist gates launch creation to approved addresses. An empty
// whitelist allows everyone.
type Whitelist struct {
	mu      sync.RWMutex
	allowed map[common.Address]struct{}
}

func NewWhitelist(addrs ...common.Address) *Whitelist {
	w := &Whitelist{allowed: make(map[common.Address]struct{}, len(addrs))}
	for _, addr := range addrs {
		w.allowed[addr] = struct{}{}
	}
	return w
}

func (w *Whitelist) Add(addr common.Address) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.allowed[addr] = struct{}{}
}

func (w *Whitelist) Remove(addr common.Address) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.allowed, addr)
}

func (w *Whitelist) Allowed(addr common.Address) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if len(w.allowed) == 0 {
		return true
	}
	_, ok := w.allowed[addr]
	return ok
}

// Require returns ErrUnauthorized unless addr is allowed.
func (w *Whitelist) Require(addr common.Address) error {
	if !w.Allowed(addr) {
		return ErrUnauthorized
	}
	return nil
}
