package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PairInfo is a snapshot of one AMM pair: constituent tokens, reserves,
// LP total supply, and token metadata.
type PairInfo struct {
	Address     common.Address `json:"address"`
	Token0      common.Address `json:"token0"`
	Token1      common.Address `json:"token1"`
	Reserve0    *big.Int       `json:"reserve0"`
	Reserve1    *big.Int       `json:"reserve1"`
	TotalSupply *big.Int       `json:"total_supply"`
	Token0Meta  TokenMeta      `json:"token0_meta"`
	Token1Meta  TokenMeta      `json:"token1_meta"`
}

// Symbol renders the conventional "SYM0-SYM1" pair label.
func (p PairInfo) Symbol() string {
	return p.Token0Meta.Symbol + "-" + p.Token1Meta.Symbol
}

// Contains reports whether token is one of the pair's legs.
func (p PairInfo) Contains(token common.Address) bool {
	return p.Token0 == token || p.Token1 == token
}

// CounterToken returns the other leg of the pair relative to token.
func (p PairInfo) CounterToken(token common.Address) common.Address {
	if p.Token0 == token {
		return p.Token1
	}
	return p.Token0
}
