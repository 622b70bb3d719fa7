package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Pool is an immutable snapshot of one staking pool taken at discovery time.
type Pool struct {
	PoolID          uint64         `json:"pool_id"`
	LPToken         common.Address `json:"lp_token"`
	AllocPoint      *big.Int       `json:"alloc_point"`
	LastRewardBlock uint64         `json:"last_reward_block"`
	TotalStaked     *big.Int       `json:"total_staked"`

	// Degraded marks a pool whose info call failed during discovery. The
	// pool is still reported so batch callers can surface it instead of
	// losing the slot.
	Degraded       bool   `json:"degraded,omitempty"`
	DegradedReason string `json:"degraded_reason,omitempty"`
}
