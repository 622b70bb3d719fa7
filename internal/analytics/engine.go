package analytics

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/emission"
	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/model"
	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/pricing"
	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/quest"
	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/tvl"
	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/volume"
)

// PoolSource enumerates staking pools. Satisfied by *garden.Registry.
type PoolSource interface {
	DiscoverPools(ctx context.Context) ([]model.Pool, error)
	TotalAllocPoint(ctx context.Context) (*big.Int, error)
}

// PairResolver resolves LP token addresses. Satisfied by *pair.Resolver.
type PairResolver interface {
	Resolve(ctx context.Context, address common.Address) (model.PairInfo, error)
}

// GraphBuilder builds the token price graph. Satisfied by
// *pricing.Enumerator.
type GraphBuilder interface {
	BuildGraph(ctx context.Context, anchor common.Address) (*pricing.Graph, error)
}

// WindowResolver resolves the previous UTC day to a block range. Satisfied
// by *window.Resolver.
type WindowResolver interface {
	BlockRange(ctx context.Context, now time.Time) (model.TimeWindow, error)
}

// VolumeSource aggregates swap volume. Satisfied by *volume.Aggregator.
type VolumeSource interface {
	PairVolume(ctx context.Context, pair model.PairInfo, win model.TimeWindow, graph *pricing.Graph) (model.VolumeRecord, error)
}

// EmissionSource aggregates reward emissions. Satisfied by
// *emission.Aggregator.
type EmissionSource interface {
	PoolEmissions(ctx context.Context, poolID uint64, win model.TimeWindow, graph *pricing.Graph) (model.EmissionRecord, error)
}

// SharedContext is a caller-supplied snapshot of the batch-wide pipeline
// steps. When present, pool discovery and graph construction are skipped
// and the snapshot is reused verbatim. This is the engine's only caching
// mechanism; there is no implicit cross-call state.
type SharedContext struct {
	Pools            []model.Pool
	Graph            *pricing.Graph
	RewardTokenPrice *big.Rat
	TotalAllocPoint  *big.Int
}

// Config holds engine-level settings.
type Config struct {
	AnchorToken common.Address
	RewardToken common.Address
	Concurrency int
	// Now is the clock used for window resolution; nil means time.Now.
	Now func() time.Time
}

// Engine composes the analytics pipeline per pool or batch-wide.
type Engine struct {
	cfg       Config
	pools     PoolSource
	pairs     PairResolver
	graphs    GraphBuilder
	windows   WindowResolver
	volumes   VolumeSource
	emissions EmissionSource
	logger    *zap.Logger
}

// NewEngine wires the pipeline stages together. emissions may be nil when
// no quest contract is configured; emission and quest metrics then stay
// unavailable rather than reading as zero.
func NewEngine(cfg Config, pools PoolSource, pairs PairResolver, graphs GraphBuilder, windows WindowResolver, volumes VolumeSource, emissions EmissionSource, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{
		cfg:       cfg,
		pools:     pools,
		pairs:     pairs,
		graphs:    graphs,
		windows:   windows,
		volumes:   volumes,
		emissions: emissions,
		logger:    logger,
	}
}

// BuildSharedContext runs the batch-wide pipeline steps once: pool
// discovery, price graph construction, reward token pricing, and total
// allocation weight. Failures here are fatal since everything downstream
// depends on them.
func (e *Engine) BuildSharedContext(ctx context.Context) (*SharedContext, error) {
	pools, err := e.pools.DiscoverPools(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover pools: %w", err)
	}

	graph, err := e.graphs.BuildGraph(ctx, e.cfg.AnchorToken)
	if err != nil {
		return nil, fmt.Errorf("build price graph: %w", err)
	}

	totalAlloc, err := e.pools.TotalAllocPoint(ctx)
	if err != nil {
		return nil, fmt.Errorf("total alloc point: %w", err)
	}

	shared := &SharedContext{
		Pools:           pools,
		Graph:           graph,
		TotalAllocPoint: totalAlloc,
	}
	if price, ok := graph.Price(e.cfg.RewardToken); ok {
		shared.RewardTokenPrice = price
	} else {
		e.logger.Warn("reward token unpriced", zap.String("token", e.cfg.RewardToken.Hex()))
	}
	return shared, nil
}

// GetPoolAnalytics computes the full analytics snapshot for one pool.
// Passing a shared context skips pool discovery and graph construction.
func (e *Engine) GetPoolAnalytics(ctx context.Context, poolID uint64, shared *SharedContext) (model.PoolAnalytics, error) {
	if shared == nil {
		var err error
		shared, err = e.BuildSharedContext(ctx)
		if err != nil {
			return model.PoolAnalytics{}, err
		}
	}

	var pool *model.Pool
	for i := range shared.Pools {
		if shared.Pools[i].PoolID == poolID {
			pool = &shared.Pools[i]
			break
		}
	}
	if pool == nil {
		return model.PoolAnalytics{}, fmt.Errorf("unknown pool id %d", poolID)
	}

	win, err := e.windows.BlockRange(ctx, e.cfg.Now())
	if err != nil {
		return model.PoolAnalytics{}, fmt.Errorf("resolve window: %w", err)
	}

	return e.computePool(ctx, *pool, shared, win), nil
}

// GetAllPoolAnalytics computes analytics for every pool with bounded
// concurrency. Per-pool failures degrade that pool only; results are
// sorted by descending total APR (fee + emission + best quest boost).
func (e *Engine) GetAllPoolAnalytics(ctx context.Context, shared *SharedContext) ([]model.PoolAnalytics, error) {
	if shared == nil {
		var err error
		shared, err = e.BuildSharedContext(ctx)
		if err != nil {
			return nil, err
		}
	}

	win, err := e.windows.BlockRange(ctx, e.cfg.Now())
	if err != nil {
		return nil, fmt.Errorf("resolve window: %w", err)
	}

	results := make([]model.PoolAnalytics, len(shared.Pools))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)

	for i, pool := range shared.Pools {
		i, pool := i, pool
		g.Go(func() error {
			results[i] = e.computePool(gctx, pool, shared, win)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		ti, tj := results[i].TotalApr(), results[j].TotalApr()
		if ti != tj {
			return ti > tj
		}
		return results[i].PoolID < results[j].PoolID
	})
	return results, nil
}

func (e *Engine) computePool(ctx context.Context, pool model.Pool, shared *SharedContext, win model.TimeWindow) model.PoolAnalytics {
	out := model.PoolAnalytics{
		PoolID: pool.PoolID,
		Window: win,
	}

	if pool.Degraded {
		out.Degraded = true
		out.DegradedReason = pool.DegradedReason
		return out
	}

	pairInfo, err := e.pairs.Resolve(ctx, pool.LPToken)
	if err != nil {
		e.logger.Warn("pair resolve failed", zap.Uint64("pid", pool.PoolID), zap.Error(err))
		out.Degraded = true
		out.DegradedReason = err.Error()
		return out
	}
	out.PairAddress = pairInfo.Address
	out.PairSymbol = pairInfo.Symbol()
	out.TokenPrices = e.pairPrices(pairInfo, shared.Graph)

	breakdown, tvlErr := tvl.Breakdown(pairInfo, pool, shared.Graph)
	if tvlErr != nil {
		// Unpriced leg: USD metrics stay nil, which downstream consumers
		// must render as "no data", not zero.
		e.logger.Warn("tvl unavailable", zap.Uint64("pid", pool.PoolID), zap.Error(tvlErr))
		out.Degraded = true
		out.DegradedReason = tvlErr.Error()
		return out
	}
	out.TotalTVLUSD = ratPtr(breakdown.TotalUSD)
	out.V1TVLUSD = ratPtr(breakdown.V1USD)
	out.V2TVLUSD = ratPtr(breakdown.V2StakedUSD)

	vol, err := e.volumes.PairVolume(ctx, pairInfo, win, shared.Graph)
	if err != nil {
		e.logger.Warn("volume unavailable", zap.Uint64("pid", pool.PoolID), zap.Error(err))
		out.Degraded = true
		out.DegradedReason = err.Error()
	} else {
		out.Volume24hUSD = ratPtr(vol.VolumeUSD)
		out.Fees24hUSD = ratPtr(vol.FeesUSD)
		feeApr := volume.FeeAPR(vol.FeesUSD, breakdown.TotalUSD)
		out.FeeAprPct = &feeApr
	}

	if e.emissions == nil {
		// No quest contract configured: emission and quest metrics stay
		// nil, never zero.
		return out
	}

	em, err := e.emissions.PoolEmissions(ctx, pool.PoolID, win, shared.Graph)
	if err != nil {
		e.logger.Warn("emissions unavailable", zap.Uint64("pid", pool.PoolID), zap.Error(err))
		out.Degraded = true
		out.DegradedReason = err.Error()
	} else {
		out.Rewards24hUSD = ratPtr(em.RewardsUSD)
		emissionApr := emission.EmissionAPR(em.RewardsUSD, breakdown.V2StakedUSD)
		out.EmissionAprPct = &emissionApr

		worst, best := quest.AprRange(emissionApr)
		out.QuestBoostAprMin = &worst
		out.QuestBoostAprMax = &best
	}

	return out
}

func (e *Engine) pairPrices(pairInfo model.PairInfo, graph *pricing.Graph) map[common.Address]float64 {
	prices := make(map[common.Address]float64, 3)
	for _, token := range []common.Address{pairInfo.Token0, pairInfo.Token1, e.cfg.RewardToken} {
		if price, ok := graph.Price(token); ok {
			v, _ := price.Float64()
			prices[token] = v
		}
	}
	return prices
}

func ratPtr(r *big.Rat) *float64 {
	if r == nil {
		return nil
	}
	v, _ := r.Float64()
	return &v
}
