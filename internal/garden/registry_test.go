package garden

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/contracts"
)

var gardenerAddr = common.HexToAddress("0x0000000000000000000000000000000000000d01")

// fakeGardener answers gardener view calls by dispatching on the packed
// method selector, the way the real contract would.
type fakeGardener struct {
	mu         sync.Mutex
	pools      map[uint64]poolState
	totalAlloc *big.Int
	failPids   map[uint64]bool
	failLength bool
	calls      int
}

type poolState struct {
	lpToken     common.Address
	allocPoint  *big.Int
	totalStaked *big.Int
}

func (f *fakeGardener) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	gardenerABI, err := contracts.GardenerABI()
	if err != nil {
		return nil, err
	}

	switch {
	case matchesMethod(gardenerABI.Methods["poolLength"].ID, msg.Data):
		if f.failLength {
			return nil, fmt.Errorf("rpc timeout")
		}
		return gardenerABI.Methods["poolLength"].Outputs.Pack(big.NewInt(int64(len(f.pools))))

	case matchesMethod(gardenerABI.Methods["poolInfo"].ID, msg.Data):
		args, err := gardenerABI.Methods["poolInfo"].Inputs.Unpack(msg.Data[4:])
		if err != nil {
			return nil, err
		}
		pid := args[0].(*big.Int).Uint64()
		if f.failPids[pid] {
			return nil, fmt.Errorf("execution reverted")
		}
		p, ok := f.pools[pid]
		if !ok {
			return nil, fmt.Errorf("no pool %d", pid)
		}
		return gardenerABI.Methods["poolInfo"].Outputs.Pack(
			p.lpToken, p.allocPoint, big.NewInt(1000), big.NewInt(0), p.totalStaked,
		)

	case matchesMethod(gardenerABI.Methods["totalAllocPoint"].ID, msg.Data):
		return gardenerABI.Methods["totalAllocPoint"].Outputs.Pack(f.totalAlloc)

	case matchesMethod(gardenerABI.Methods["pendingReward"].ID, msg.Data):
		return gardenerABI.Methods["pendingReward"].Outputs.Pack(big.NewInt(42))

	default:
		return nil, fmt.Errorf("unexpected call data %x", msg.Data)
	}
}

func matchesMethod(id, data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == string(id)
}

func lpAddr(i uint64) common.Address {
	return common.BigToAddress(new(big.Int).SetUint64(0xe000 + i))
}

func newFakeGardener(n uint64) *fakeGardener {
	pools := make(map[uint64]poolState, n)
	for i := uint64(0); i < n; i++ {
		pools[i] = poolState{
			lpToken:     lpAddr(i),
			allocPoint:  big.NewInt(int64(10 * (i + 1))),
			totalStaked: big.NewInt(int64(1000 * (i + 1))),
		}
	}
	return &fakeGardener{
		pools:      pools,
		totalAlloc: big.NewInt(500),
		failPids:   map[uint64]bool{},
	}
}

func TestPoolCount(t *testing.T) {
	registry := NewRegistry(newFakeGardener(3), gardenerAddr, 4, nil)

	count, err := registry.PoolCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestPoolInfo(t *testing.T) {
	registry := NewRegistry(newFakeGardener(3), gardenerAddr, 4, nil)

	pool, err := registry.PoolInfo(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), pool.PoolID)
	assert.Equal(t, lpAddr(1), pool.LPToken)
	assert.Zero(t, pool.AllocPoint.Cmp(big.NewInt(20)))
	assert.Equal(t, uint64(1000), pool.LastRewardBlock)
	assert.Zero(t, pool.TotalStaked.Cmp(big.NewInt(2000)))
	assert.False(t, pool.Degraded)
}

func TestDiscoverPoolsOrderedByPid(t *testing.T) {
	registry := NewRegistry(newFakeGardener(10), gardenerAddr, 4, nil)

	pools, err := registry.DiscoverPools(context.Background())
	require.NoError(t, err)
	require.Len(t, pools, 10)

	for i, pool := range pools {
		assert.Equal(t, uint64(i), pool.PoolID)
		assert.Equal(t, lpAddr(uint64(i)), pool.LPToken)
	}
}

func TestDiscoverPoolsIsolatesFailedPool(t *testing.T) {
	fake := newFakeGardener(5)
	fake.failPids[2] = true
	registry := NewRegistry(fake, gardenerAddr, 4, nil)

	pools, err := registry.DiscoverPools(context.Background())
	require.NoError(t, err)
	require.Len(t, pools, 5)

	assert.True(t, pools[2].Degraded)
	assert.NotEmpty(t, pools[2].DegradedReason)
	for _, i := range []int{0, 1, 3, 4} {
		assert.False(t, pools[i].Degraded, "pool %d", i)
		assert.Equal(t, lpAddr(uint64(i)), pools[i].LPToken)
	}
}

func TestDiscoverPoolsFailedLengthIsFatal(t *testing.T) {
	fake := newFakeGardener(5)
	fake.failLength = true
	registry := NewRegistry(fake, gardenerAddr, 4, nil)

	_, err := registry.DiscoverPools(context.Background())
	assert.Error(t, err)
}

func TestTotalAllocPoint(t *testing.T) {
	registry := NewRegistry(newFakeGardener(3), gardenerAddr, 4, nil)

	total, err := registry.TotalAllocPoint(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total.Cmp(big.NewInt(500)))
}

func TestPendingRewards(t *testing.T) {
	registry := NewRegistry(newFakeGardener(3), gardenerAddr, 4, nil)

	pending, err := registry.PendingRewards(context.Background(), 0, common.HexToAddress("0xdead"))
	require.NoError(t, err)
	assert.Zero(t, pending.Cmp(big.NewInt(42)))
}
