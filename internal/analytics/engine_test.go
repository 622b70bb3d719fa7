package analytics

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/model"
	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/pricing"
)

var (
	anchorToken = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	rewardTok   = common.HexToAddress("0x0000000000000000000000000000000000000a02")
	farmToken   = common.HexToAddress("0x0000000000000000000000000000000000000a03")
)

func lpToken(pid uint64) common.Address {
	return common.BigToAddress(new(big.Int).SetUint64(0xf000 + pid))
}

type fakePoolSource struct {
	mu            sync.Mutex
	pools         []model.Pool
	discoverCalls int
	err           error
}

func (f *fakePoolSource) DiscoverPools(context.Context) ([]model.Pool, error) {
	f.mu.Lock()
	f.discoverCalls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.pools, nil
}

func (f *fakePoolSource) TotalAllocPoint(context.Context) (*big.Int, error) {
	return big.NewInt(100), nil
}

type fakePairResolver struct {
	mu    sync.Mutex
	pairs map[common.Address]model.PairInfo
	fail  map[common.Address]bool
	calls int
}

func (f *fakePairResolver) Resolve(_ context.Context, address common.Address) (model.PairInfo, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fail[address] {
		return model.PairInfo{}, fmt.Errorf("pair call reverted")
	}
	p, ok := f.pairs[address]
	if !ok {
		return model.PairInfo{}, fmt.Errorf("unknown lp token %s", address.Hex())
	}
	return p, nil
}

type fakeGraphBuilder struct {
	mu    sync.Mutex
	graph *pricing.Graph
	calls int
}

func (f *fakeGraphBuilder) BuildGraph(_ context.Context, _ common.Address) (*pricing.Graph, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.graph, nil
}

type fakeWindowResolver struct{ win model.TimeWindow }

func (f *fakeWindowResolver) BlockRange(context.Context, time.Time) (model.TimeWindow, error) {
	return f.win, nil
}

type fakeVolumeSource struct {
	// volume in whole USD per pair address
	usd  map[common.Address]int64
	fail map[common.Address]bool
}

func (f *fakeVolumeSource) PairVolume(_ context.Context, pair model.PairInfo, _ model.TimeWindow, _ *pricing.Graph) (model.VolumeRecord, error) {
	if f.fail[pair.Address] {
		return model.VolumeRecord{}, &model.UnpricedTokenError{Token: pair.Token1}
	}
	vol := big.NewRat(f.usd[pair.Address], 1)
	return model.VolumeRecord{
		Pair:      pair.Address,
		SwapCount: 1,
		VolumeUSD: vol,
		FeesUSD:   new(big.Rat).Mul(vol, big.NewRat(25, 10_000)),
	}, nil
}

type fakeEmissionSource struct {
	usd map[uint64]int64
}

func (f *fakeEmissionSource) PoolEmissions(_ context.Context, poolID uint64, _ model.TimeWindow, _ *pricing.Graph) (model.EmissionRecord, error) {
	return model.EmissionRecord{
		PoolID:     poolID,
		EventCount: 1,
		RewardsUSD: big.NewRat(f.usd[poolID], 1),
	}, nil
}

// harness wires an engine over n pools, each an anchor/farm-token pair with
// $200 of reserves and half the LP supply staked.
type harness struct {
	engine    *Engine
	cfg       Config
	pools     *fakePoolSource
	pairs     *fakePairResolver
	graphs    *fakeGraphBuilder
	windows   *fakeWindowResolver
	volumes   *fakeVolumeSource
	emissions *fakeEmissionSource
}

func newHarness(t *testing.T, n uint64) *harness {
	t.Helper()

	supply := units(100, 18)
	staked := units(50, 18)

	pools := make([]model.Pool, 0, n)
	pairs := make(map[common.Address]model.PairInfo, n)
	graphPairs := make([]model.PairInfo, 0, n+1)

	// One reward-token pair so the reward token gets a price.
	rewardPair := model.PairInfo{
		Address:    common.BigToAddress(big.NewInt(0xe001)),
		Token0:     anchorToken,
		Token1:     rewardTok,
		Reserve0:   units(100, 18),
		Reserve1:   units(50, 18),
		Token0Meta: model.TokenMeta{Address: anchorToken, Decimals: 18, Symbol: "USDC"},
		Token1Meta: model.TokenMeta{Address: rewardTok, Decimals: 18, Symbol: "CRYSTAL"},
	}
	graphPairs = append(graphPairs, rewardPair)

	for pid := uint64(0); pid < n; pid++ {
		lp := lpToken(pid)
		pools = append(pools, model.Pool{
			PoolID:      pid,
			LPToken:     lp,
			AllocPoint:  big.NewInt(10),
			TotalStaked: staked,
		})
		info := model.PairInfo{
			Address:     lp,
			Token0:      anchorToken,
			Token1:      farmToken,
			Reserve0:    units(100, 18),
			Reserve1:    units(100, 18),
			TotalSupply: supply,
			Token0Meta:  model.TokenMeta{Address: anchorToken, Decimals: 18, Symbol: "USDC"},
			Token1Meta:  model.TokenMeta{Address: farmToken, Decimals: 18, Symbol: "JEWEL"},
		}
		pairs[lp] = info
		graphPairs = append(graphPairs, info)
	}

	h := &harness{
		pools:     &fakePoolSource{pools: pools},
		pairs:     &fakePairResolver{pairs: pairs, fail: map[common.Address]bool{}},
		graphs:    &fakeGraphBuilder{graph: pricing.BuildGraph(graphPairs, anchorToken)},
		volumes:   &fakeVolumeSource{usd: map[common.Address]int64{}, fail: map[common.Address]bool{}},
		emissions: &fakeEmissionSource{usd: map[uint64]int64{}},
	}

	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	h.windows = &fakeWindowResolver{win: model.TimeWindow{
		FromBlock:     100,
		ToBlock:       200,
		FromTimestamp: time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC),
		ToTimestamp:   time.Date(2024, 5, 9, 23, 59, 59, 0, time.UTC),
	}}

	h.cfg = Config{
		AnchorToken: anchorToken,
		RewardToken: rewardTok,
		Concurrency: 4,
		Now:         func() time.Time { return now },
	}
	h.engine = NewEngine(h.cfg, h.pools, h.pairs, h.graphs, h.windows, h.volumes, h.emissions, nil)
	return h
}

func units(n int64, decimals uint) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Int).Mul(big.NewInt(n), scale)
}

func TestBuildSharedContext(t *testing.T) {
	h := newHarness(t, 3)

	shared, err := h.engine.BuildSharedContext(context.Background())
	require.NoError(t, err)

	assert.Len(t, shared.Pools, 3)
	require.NotNil(t, shared.RewardTokenPrice)
	assert.Zero(t, shared.RewardTokenPrice.Cmp(big.NewRat(2, 1)))
	assert.Zero(t, shared.TotalAllocPoint.Cmp(big.NewInt(100)))
}

func TestGetPoolAnalytics(t *testing.T) {
	h := newHarness(t, 2)
	h.volumes.usd[lpToken(1)] = 10_000
	h.emissions.usd[1] = 100

	result, err := h.engine.GetPoolAnalytics(context.Background(), 1, nil)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), result.PoolID)
	assert.Equal(t, "USDC-JEWEL", result.PairSymbol)
	assert.False(t, result.Degraded)

	// Pair holds 100 USDC + 100 JEWEL at $1 each.
	require.NotNil(t, result.TotalTVLUSD)
	assert.InDelta(t, 200, *result.TotalTVLUSD, 1e-9)
	require.NotNil(t, result.V2TVLUSD)
	assert.InDelta(t, 100, *result.V2TVLUSD, 1e-9)
	require.NotNil(t, result.V1TVLUSD)
	assert.InDelta(t, 100, *result.V1TVLUSD, 1e-9)

	// $10k volume -> $25 fees -> 25*365*100/200 = 4562.5% fee APR.
	require.NotNil(t, result.FeeAprPct)
	assert.InDelta(t, 4562.5, *result.FeeAprPct, 1e-6)

	// $100/day emissions on $100 staked -> 36500% emission APR.
	require.NotNil(t, result.EmissionAprPct)
	assert.InDelta(t, 36500, *result.EmissionAprPct, 1e-6)

	require.NotNil(t, result.QuestBoostAprMin)
	require.NotNil(t, result.QuestBoostAprMax)
	assert.Zero(t, *result.QuestBoostAprMin)
	assert.Greater(t, *result.QuestBoostAprMax, 0.0)

	assert.Contains(t, result.TokenPrices, anchorToken)
	assert.Contains(t, result.TokenPrices, farmToken)
	assert.Contains(t, result.TokenPrices, rewardTok)
}

func TestGetPoolAnalyticsUnknownPool(t *testing.T) {
	h := newHarness(t, 2)

	_, err := h.engine.GetPoolAnalytics(context.Background(), 99, nil)
	assert.Error(t, err)
}

func TestGetAllPoolAnalyticsSortedByTotalApr(t *testing.T) {
	h := newHarness(t, 4)
	h.volumes.usd[lpToken(0)] = 1000
	h.volumes.usd[lpToken(1)] = 50_000
	h.volumes.usd[lpToken(2)] = 10_000
	h.emissions.usd[3] = 500

	results, err := h.engine.GetAllPoolAnalytics(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].TotalApr(), results[i].TotalApr())
	}
	// Emission-heavy pool 3 dominates: $500/day on $100 staked.
	assert.Equal(t, uint64(3), results[0].PoolID)
	assert.Equal(t, uint64(1), results[1].PoolID)
}

func TestGetAllPoolAnalyticsSharedContextReused(t *testing.T) {
	h := newHarness(t, 3)

	shared, err := h.engine.BuildSharedContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, h.pools.discoverCalls)
	assert.Equal(t, 1, h.graphs.calls)

	_, err = h.engine.GetAllPoolAnalytics(context.Background(), shared)
	require.NoError(t, err)
	_, err = h.engine.GetPoolAnalytics(context.Background(), 0, shared)
	require.NoError(t, err)

	// Batch steps ran exactly once, in BuildSharedContext.
	assert.Equal(t, 1, h.pools.discoverCalls)
	assert.Equal(t, 1, h.graphs.calls)
}

func TestGetAllPoolAnalyticsIsolatesPoolFailures(t *testing.T) {
	h := newHarness(t, 3)
	h.pairs.fail[lpToken(1)] = true

	results, err := h.engine.GetAllPoolAnalytics(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	byPid := make(map[uint64]model.PoolAnalytics, len(results))
	for _, r := range results {
		byPid[r.PoolID] = r
	}

	assert.True(t, byPid[1].Degraded)
	assert.NotEmpty(t, byPid[1].DegradedReason)
	assert.Nil(t, byPid[1].TotalTVLUSD)
	assert.False(t, byPid[0].Degraded)
	assert.False(t, byPid[2].Degraded)
}

func TestGetAllPoolAnalyticsDegradedPoolPassthrough(t *testing.T) {
	h := newHarness(t, 2)
	h.pools.pools[0].Degraded = true
	h.pools.pools[0].DegradedReason = "poolInfo(0): execution reverted"

	results, err := h.engine.GetAllPoolAnalytics(context.Background(), nil)
	require.NoError(t, err)

	byPid := make(map[uint64]model.PoolAnalytics, len(results))
	for _, r := range results {
		byPid[r.PoolID] = r
	}
	assert.True(t, byPid[0].Degraded)
	assert.Equal(t, "poolInfo(0): execution reverted", byPid[0].DegradedReason)
	assert.False(t, byPid[1].Degraded)
	// No pair resolution happens for a degraded pool.
	assert.Equal(t, 1, h.pairs.calls)
}

func TestNoEmissionSourceLeavesEmissionMetricsNil(t *testing.T) {
	h := newHarness(t, 1)
	h.volumes.usd[lpToken(0)] = 10_000

	// Deployment without a quest contract: the engine runs with no
	// emission source at all.
	engine := NewEngine(h.cfg, h.pools, h.pairs, h.graphs, h.windows, h.volumes, nil, nil)

	result, err := engine.GetPoolAnalytics(context.Background(), 0, nil)
	require.NoError(t, err)

	assert.False(t, result.Degraded)
	require.NotNil(t, result.TotalTVLUSD)
	require.NotNil(t, result.FeeAprPct)

	// Unavailable, not zero.
	assert.Nil(t, result.EmissionAprPct)
	assert.Nil(t, result.Rewards24hUSD)
	assert.Nil(t, result.QuestBoostAprMin)
	assert.Nil(t, result.QuestBoostAprMax)
}

func TestGetAllPoolAnalyticsVolumeFailureKeepsEmissions(t *testing.T) {
	h := newHarness(t, 1)
	h.volumes.fail[lpToken(0)] = true
	h.emissions.usd[0] = 100

	results, err := h.engine.GetAllPoolAnalytics(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.True(t, r.Degraded)
	assert.Nil(t, r.FeeAprPct)
	assert.Nil(t, r.Volume24hUSD)
	// TVL and emissions survive a volume failure.
	require.NotNil(t, r.TotalTVLUSD)
	require.NotNil(t, r.EmissionAprPct)
	assert.InDelta(t, 36500, *r.EmissionAprPct, 1e-6)
}
