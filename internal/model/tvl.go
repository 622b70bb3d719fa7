package model

import "math/big"

// TVLBreakdown splits a pool's total value between legacy (V1) liquidity
// and liquidity staked in the current (V2) staking contract.
type TVLBreakdown struct {
	TotalUSD    *big.Rat
	V1USD       *big.Rat
	V2StakedUSD *big.Rat
	// StakedRatio is totalStaked/totalSupply, carried as an exact ratio
	// derived from integer math scaled by 1e6.
	StakedRatio *big.Rat
}
