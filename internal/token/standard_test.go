package token

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	deployer = common.HexToAddress("0x1000000000000000000000000000000000000001")
	holder   = common.HexToAddress("0x2000000000000000000000000000000000000002")
	spender  = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

func TestStandardTokenMintAndTransfer(t *testing.T) {
	tok := NewStandardToken(deployer, 0, "Sad Ethereum", "SADETH", 18)
	if tok.Address() == (common.Address{}) {
		t.Fatalf("empty token address")
	}

	amount := uint256.NewInt(1000)
	if err := tok.Mint(holder, amount); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if !tok.TotalSupply().Eq(amount) {
		t.Fatalf("total supply = %s", tok.TotalSupply().Dec())
	}

	if err := tok.Transfer(holder, spender, uint256.NewInt(400)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if !tok.BalanceOf(holder).Eq(uint256.NewInt(600)) {
		t.Fatalf("holder balance = %s", tok.BalanceOf(holder).Dec())
	}
	if !tok.BalanceOf(spender).Eq(uint256.NewInt(400)) {
		t.Fatalf("spender balance = %s", tok.BalanceOf(spender).Dec())
	}
}

func TestStandardTokenTransferInsufficient(t *testing.T) {
	tok := NewStandardToken(deployer, 1, "T", "T", 18)
	if err := tok.Transfer(holder, spender, uint256.NewInt(1)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
}

func TestStandardTokenTransferFrom(t *testing.T) {
	tok := NewStandardToken(deployer, 2, "T", "T", 18)
	if err := tok.Mint(holder, uint256.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := tok.TransferFrom(spender, holder, deployer, uint256.NewInt(10)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("err = %v, want ErrInsufficientAllowance", err)
	}

	if err := tok.Approve(holder, spender, uint256.NewInt(50)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := tok.TransferFrom(spender, holder, deployer, uint256.NewInt(30)); err != nil {
		t.Fatalf("transfer from: %v", err)
	}
	if !tok.Allowance(holder, spender).Eq(uint256.NewInt(20)) {
		t.Fatalf("allowance = %s", tok.Allowance(holder, spender).Dec())
	}
	if !tok.BalanceOf(deployer).Eq(uint256.NewInt(30)) {
		t.Fatalf("recipient balance = %s", tok.BalanceOf(deployer).Dec())
	}
}

func TestBookRegisterAndLookup(t *testing.T) {
	book := NewBook()
	tok := NewStandardToken(deployer, 3, "T", "T", 18)
	book.Register(tok)

	got, ok := book.Asset(tok.Address())
	if !ok {
		t.Fatalf("asset not found")
	}
	if got.Address() != tok.Address() {
		t.Fatalf("address mismatch")
	}
	if _, ok := book.Asset(common.Address{}); ok {
		t.Fatalf("unexpected asset for zero address")
	}
}
