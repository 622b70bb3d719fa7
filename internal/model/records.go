package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// VolumeRecord aggregates one pair's swap activity over a time window.
// USD sums stay in big.Rat until the display boundary.
type VolumeRecord struct {
	Pair      common.Address
	SwapCount uint64
	VolumeUSD *big.Rat
	FeesUSD   *big.Rat
	// SkippedEvents counts logs dropped due to decode failures.
	SkippedEvents uint64
}

// EmissionRecord aggregates reward-mint events attributed to one pool
// over a time window.
type EmissionRecord struct {
	PoolID      uint64
	EventCount  uint64
	RewardToken common.Address
	RewardsRaw  *big.Int
	RewardsUSD  *big.Rat
}
