package garden

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/contracts"
	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/model"
)

// Registry enumerates staking pools directly from the staking contract.
type Registry struct {
	caller      contracts.Caller
	address     common.Address
	concurrency int
	logger      *zap.Logger
}

// NewRegistry builds a Registry for the staking contract at address.
// concurrency bounds parallel poolInfo calls to stay within RPC rate limits.
func NewRegistry(caller contracts.Caller, address common.Address, concurrency int, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Registry{
		caller:      caller,
		address:     address,
		concurrency: concurrency,
		logger:      logger,
	}
}

// PoolCount returns the number of staking pools.
func (r *Registry) PoolCount(ctx context.Context) (uint64, error) {
	gardenerABI, err := contracts.GardenerABI()
	if err != nil {
		return 0, fmt.Errorf("parse gardener abi: %w", err)
	}
	values, err := contracts.Call(ctx, r.caller, r.address, gardenerABI, "poolLength", nil)
	if err != nil {
		return 0, fmt.Errorf("poolLength: %w", err)
	}
	length, err := contracts.AsBigInt(values[0])
	if err != nil {
		return 0, fmt.Errorf("poolLength: %w", err)
	}
	return length.Uint64(), nil
}

// PoolInfo returns one pool's snapshot.
func (r *Registry) PoolInfo(ctx context.Context, pid uint64) (model.Pool, error) {
	gardenerABI, err := contracts.GardenerABI()
	if err != nil {
		return model.Pool{}, fmt.Errorf("parse gardener abi: %w", err)
	}
	values, err := contracts.Call(ctx, r.caller, r.address, gardenerABI, "poolInfo", nil, new(big.Int).SetUint64(pid))
	if err != nil {
		return model.Pool{}, fmt.Errorf("poolInfo(%d): %w", pid, err)
	}
	if len(values) < 5 {
		return model.Pool{}, fmt.Errorf("poolInfo(%d) returned %d values", pid, len(values))
	}

	lpToken, err := contracts.AsAddress(values[0])
	if err != nil {
		return model.Pool{}, fmt.Errorf("lpToken: %w", err)
	}
	allocPoint, err := contracts.AsBigInt(values[1])
	if err != nil {
		return model.Pool{}, fmt.Errorf("allocPoint: %w", err)
	}
	lastRewardBlock, err := contracts.AsBigInt(values[2])
	if err != nil {
		return model.Pool{}, fmt.Errorf("lastRewardBlock: %w", err)
	}
	totalStaked, err := contracts.AsBigInt(values[4])
	if err != nil {
		return model.Pool{}, fmt.Errorf("totalStaked: %w", err)
	}

	return model.Pool{
		PoolID:          pid,
		LPToken:         lpToken,
		AllocPoint:      allocPoint,
		LastRewardBlock: lastRewardBlock.Uint64(),
		TotalStaked:     totalStaked,
	}, nil
}

// DiscoverPools fetches every pool's info with bounded parallelism and
// returns them ordered by pid. A failed length call aborts discovery; a
// failed pool is reported degraded so the rest of the batch stays usable.
func (r *Registry) DiscoverPools(ctx context.Context) ([]model.Pool, error) {
	count, err := r.PoolCount(ctx)
	if err != nil {
		return nil, err
	}

	pools := make([]model.Pool, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for pid := uint64(0); pid < count; pid++ {
		pid := pid
		g.Go(func() error {
			pool, err := r.PoolInfo(gctx, pid)
			if err != nil {
				r.logger.Warn("pool info fetch failed", zap.Uint64("pid", pid), zap.Error(err))
				pools[pid] = model.Pool{
					PoolID:         pid,
					Degraded:       true,
					DegradedReason: err.Error(),
				}
				return nil
			}
			pools[pid] = pool
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pools, nil
}

// TotalAllocPoint reads the staking contract's total allocation weight.
func (r *Registry) TotalAllocPoint(ctx context.Context) (*big.Int, error) {
	gardenerABI, err := contracts.GardenerABI()
	if err != nil {
		return nil, fmt.Errorf("parse gardener abi: %w", err)
	}
	values, err := contracts.Call(ctx, r.caller, r.address, gardenerABI, "totalAllocPoint", nil)
	if err != nil {
		return nil, fmt.Errorf("totalAllocPoint: %w", err)
	}
	return contracts.AsBigInt(values[0])
}

// PendingRewards returns the unharvested reward balance for an account in a
// pool. Exposed for the bot layer; not used by the analytics pipeline.
func (r *Registry) PendingRewards(ctx context.Context, pid uint64, account common.Address) (*big.Int, error) {
	gardenerABI, err := contracts.GardenerABI()
	if err != nil {
		return nil, fmt.Errorf("parse gardener abi: %w", err)
	}
	values, err := contracts.Call(ctx, r.caller, r.address, gardenerABI, "pendingReward", nil, new(big.Int).SetUint64(pid), account)
	if err != nil {
		return nil, fmt.Errorf("pendingReward(%d): %w", pid, err)
	}
	return contracts.AsBigInt(values[0])
}
