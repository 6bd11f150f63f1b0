package amm

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// PairID identifies a pool independently of asset argument order.
type PairID common.Hash

// Hex returns the pair id as a 0x-prefixed hex string.
func (p PairID) Hex() string {
	return common.Hash(p).Hex()
}

// SortAssets returns the two assets in canonical order, lower address first.
func SortAssets(a, b common.Address) (common.Address, common.Address) {
	if bytes.Compare(a.Bytes(), b.Bytes()) < 0 {
		return a, b
	}
	return b, a
}

// PairIDFor derives the canonical pool id for two assets. Both argument
// orders map to the same id.
func PairIDFor(a, b common.Address) PairID {
	lo, hi := SortAssets(a, b)
	return PairID(crypto.Keccak256Hash(lo.Bytes(), hi.Bytes()))
}
