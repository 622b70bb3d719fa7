package tvl

import (
	"math/big"

	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/model"
	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/pricing"
)

// ratioScale fixes the staked-ratio precision: the ratio is computed as an
// integer numerator over totalSupply scaled by 1e6, and divided back out
// only at the USD boundary. Keeps relative error under 1e-6 even for
// 10^24-magnitude raw balances, where float division would drift.
const ratioScale = 1_000_000

// Breakdown computes a pool's total value and its split between liquidity
// staked in the current staking contract (V2) and everything else (V1,
// still fee-earning but not emission-earning).
func Breakdown(pair model.PairInfo, pool model.Pool, graph *pricing.Graph) (model.TVLBreakdown, error) {
	usd0, err := graph.USDValue(pair.Token0, pair.Reserve0)
	if err != nil {
		return model.TVLBreakdown{}, err
	}
	usd1, err := graph.USDValue(pair.Token1, pair.Reserve1)
	if err != nil {
		return model.TVLBreakdown{}, err
	}

	total := new(big.Rat).Add(usd0, usd1)
	ratio := StakedRatio(pool.TotalStaked, pair.TotalSupply)

	v2 := new(big.Rat).Mul(total, ratio)
	v1 := new(big.Rat).Sub(total, v2)

	return model.TVLBreakdown{
		TotalUSD:    total,
		V1USD:       v1,
		V2StakedUSD: v2,
		StakedRatio: ratio,
	}, nil
}

// StakedRatio computes totalStaked/totalSupply as scaled integer math:
// floor(staked * 1e6 / supply) / 1e6. Clamped to [0, 1].
func StakedRatio(totalStaked, totalSupply *big.Int) *big.Rat {
	if totalStaked == nil || totalSupply == nil || totalSupply.Sign() == 0 || totalStaked.Sign() <= 0 {
		return new(big.Rat)
	}

	scaled := new(big.Int).Mul(totalStaked, big.NewInt(ratioScale))
	scaled.Div(scaled, totalSupply)
	if scaled.Cmp(big.NewInt(ratioScale)) > 0 {
		scaled.SetInt64(ratioScale)
	}
	return new(big.Rat).SetFrac(scaled, big.NewInt(ratioScale))
}
