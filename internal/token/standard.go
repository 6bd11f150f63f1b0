package token

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// StandardToken is an in-memory fungible token with the usual
// balance/allowance semantics. Safe for concurrent use.
type StandardToken struct {
	addr     common.Address
	name     string
	symbol   string
	decimals uint8

	mu          sync.RWMutex
	totalSupply *uint256.Int
	balances    map[common.Address]*uint256.Int
	allowances  map[common.Address]map[common.Address]*uint256.Int
}

// NewStandardToken creates a token whose address is derived from the
// deployer address and nonce, the way contract addresses are.
func NewStandardToken(deployer common.Address, nonce uint64, name, symbol string, decimals uint8) *StandardToken {
	return &StandardToken{
		addr:        crypto.CreateAddress(deployer, nonce),
		name:        name,
		symbol:      symbol,
		decimals:    decimals,
		totalSupply: uint256.NewInt(0),
		balances:    make(map[common.Address]*uint256.Int),
		allowances:  make(map[common.Address]map[common.Address]*uint256.Int),
	}
}

func (t *StandardToken) Address() common.Address { return t.addr }
func (t *StandardToken) Name() string            { return t.name }
func (t *StandardToken) Symbol() string          { return t.symbol }
func (t *StandardToken) Decimals() uint8         { return t.decimals }

func (t *StandardToken) TotalSupply() *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return new(uint256.Int).Set(t.totalSupply)
}

func (t *StandardToken) BalanceOf(owner common.Address) *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if bal, ok := t.balances[owner]; ok {
		return new(uint256.Int).Set(bal)
	}
	return uint256.NewInt(0)
}

func (t *StandardToken) Allowance(owner, spender common.Address) *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if m, ok := t.allowances[owner]; ok {
		if a, ok := m[spender]; ok {
			return new(uint256.Int).Set(a)
		}
	}
	return uint256.NewInt(0)
}

func (t *StandardToken) Mint(to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalSupply = new(uint256.Int).Add(t.totalSupply, amount)
	t.credit(to, amount)
	return nil
}

func (t *StandardToken) Transfer(from, to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(from, to, amount)
}

func (t *StandardToken) TransferFrom(spender, from, to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	allowed := t.allowanceLocked(from, spender)
	if allowed.Lt(amount) {
		return ErrInsufficientAllowance
	}
	if err := t.move(from, to, amount); err != nil {
		return err
	}
	t.allowances[from][spender] = new(uint256.Int).Sub(allowed, amount)
	return nil
}

func (t *StandardToken) Approve(owner, spender common.Address, amount *uint256.Int) error {
	if spender == (common.Address{}) {
		return ErrZeroAddress
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.allowances[owner]; !ok {
		t.allowances[owner] = make(map[common.Address]*uint256.Int)
	}
	t.allowances[owner][spender] = new(uint256.Int).Set(amount)
	return nil
}

func (t *StandardToken) allowanceLocked(owner, spender common.Address) *uint256.Int {
	if m, ok := t.allowances[owner]; ok {
		if a, ok := m[spender]; ok {
			return a
		}
	}
	return uint256.NewInt(0)
}

func (t *StandardToken) move(from, to common.Address, amount *uint256.Int) error {
	bal, ok := t.balances[from]
	if !ok || bal.Lt(amount) {
		return ErrInsufficientBalance
	}
	t.balances[from] = new(uint256.Int).Sub(bal, amount)
	t.credit(to, amount)
	return nil
}

func (t *StandardToken) credit(to common.Address, amount *uint256.Int) {
	bal, ok := t.balances[to]
	if !ok {
		bal = uint256.NewInt(0)
	}
	t.balances[to] = new(uint256.Int).Add(bal, amount)
}

// Book is an in-memory asset registry.
type Book struct {
	mu     sync.RWMutex
	assets map[common.Address]Asset
}

func NewBook() *Book {
	return &Book{assets: make(map[common.Address]Asset)}
}

func (b *Book) Register(a Asset) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.assets[a.Address()] = a
}

func (b *Book) Asset(addr common.Address) (Asset, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	a, ok := b.assets[addr]
	return a, ok
}
