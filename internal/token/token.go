package token

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	// ErrInsufficientBalance is returned when a transfer exceeds the sender's funds.
	ErrInsufficientBalance = errors.New("insufficient token balance")

	// ErrInsufficientAllowance is returned when a spender exceeds its approval.
	ErrInsufficientAllowance = errors.New("insufficient token allowance")

	// ErrZeroAddress is returned for operations against the zero address.
	ErrZeroAddress = errors.New("zero address")
)

// Asset is the narrow fungible-token capability consumed by the engine.
// Caller identity is explicit: there is no ambient transaction sender.
type Asset interface {
	Address() common.Address
	Name() string
	Symbol() string
	Decimals() uint8
	TotalSupply() *uint256.Int
	BalanceOf(owner common.Address) *uint256.Int
	Allowance(owner, spender common.Address) *uint256.Int
	Mint(to common.Address, amount *uint256.Int) error
	Transfer(from, to common.Address, amount *uint256.Int) error
	TransferFrom(spender, from, to common.Address, amount *uint256.Int) error
	Approve(owner, spender common.Address, amount *uint256.Int) error
}

// Registry resolves asset handles by address.
type Registry interface {
	Asset(addr common.Address) (Asset, bool)
}
