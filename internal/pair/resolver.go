package pair

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/contracts"
	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/model"
)

// Resolver loads AMM pair state and token metadata, caching by pair address.
// The cache lives for one analytics run: a pair that shows up both in the
// staking registry and in the price graph is fetched once.
type Resolver struct {
	caller contracts.Caller
	logger *zap.Logger

	mu     sync.RWMutex
	pairs  map[common.Address]model.PairInfo
	tokens map[common.Address]model.TokenMeta
}

// NewResolver builds a Resolver. One Resolver per analytics run.
func NewResolver(caller contracts.Caller, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		caller: caller,
		logger: logger,
		pairs:  make(map[common.Address]model.PairInfo),
		tokens: make(map[common.Address]model.TokenMeta),
	}
}

// Resolve returns the pair's tokens, reserves, total supply, and token
// metadata, fetching from chain on first use.
func (r *Resolver) Resolve(ctx context.Context, address common.Address) (model.PairInfo, error) {
	r.mu.RLock()
	info, ok := r.pairs[address]
	r.mu.RUnlock()
	if ok {
		return info, nil
	}

	info, err := r.fetchPair(ctx, address)
	if err != nil {
		return model.PairInfo{}, err
	}

	r.mu.Lock()
	r.pairs[address] = info
	r.mu.Unlock()
	return info, nil
}

func (r *Resolver) fetchPair(ctx context.Context, address common.Address) (model.PairInfo, error) {
	pairABI, err := contracts.PairABI()
	if err != nil {
		return model.PairInfo{}, fmt.Errorf("parse pair abi: %w", err)
	}

	values, err := contracts.Call(ctx, r.caller, address, pairABI, "token0", nil)
	if err != nil {
		return model.PairInfo{}, fmt.Errorf("token0: %w", err)
	}
	token0, err := contracts.AsAddress(values[0])
	if err != nil {
		return model.PairInfo{}, fmt.Errorf("token0: %w", err)
	}

	values, err = contracts.Call(ctx, r.caller, address, pairABI, "token1", nil)
	if err != nil {
		return model.PairInfo{}, fmt.Errorf("token1: %w", err)
	}
	token1, err := contracts.AsAddress(values[0])
	if err != nil {
		return model.PairInfo{}, fmt.Errorf("token1: %w", err)
	}

	values, err = contracts.Call(ctx, r.caller, address, pairABI, "getReserves", nil)
	if err != nil {
		return model.PairInfo{}, fmt.Errorf("getReserves: %w", err)
	}
	if len(values) < 2 {
		return model.PairInfo{}, fmt.Errorf("getReserves returned %d values", len(values))
	}
	reserve0, err := contracts.AsBigInt(values[0])
	if err != nil {
		return model.PairInfo{}, fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err := contracts.AsBigInt(values[1])
	if err != nil {
		return model.PairInfo{}, fmt.Errorf("reserve1: %w", err)
	}

	values, err = contracts.Call(ctx, r.caller, address, pairABI, "totalSupply", nil)
	if err != nil {
		return model.PairInfo{}, fmt.Errorf("totalSupply: %w", err)
	}
	totalSupply, err := contracts.AsBigInt(values[0])
	if err != nil {
		return model.PairInfo{}, fmt.Errorf("totalSupply: %w", err)
	}

	meta0, err := r.tokenMeta(ctx, token0)
	if err != nil {
		return model.PairInfo{}, fmt.Errorf("token0 meta: %w", err)
	}
	meta1, err := r.tokenMeta(ctx, token1)
	if err != nil {
		return model.PairInfo{}, fmt.Errorf("token1 meta: %w", err)
	}

	return model.PairInfo{
		Address:     address,
		Token0:      token0,
		Token1:      token1,
		Reserve0:    reserve0,
		Reserve1:    reserve1,
		TotalSupply: totalSupply,
		Token0Meta:  meta0,
		Token1Meta:  meta1,
	}, nil
}

func (r *Resolver) tokenMeta(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	r.mu.RLock()
	meta, ok := r.tokens[token]
	r.mu.RUnlock()
	if ok {
		return meta, nil
	}

	meta, err := r.fetchTokenMeta(ctx, token)
	if err != nil {
		return model.TokenMeta{}, err
	}

	r.mu.Lock()
	r.tokens[token] = meta
	r.mu.Unlock()
	return meta, nil
}

func (r *Resolver) fetchTokenMeta(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token}

	stringABI, err := contracts.ERC20StringABI()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := contracts.ERC20Bytes32ABI()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := contracts.Call(ctx, r.caller, token, stringABI, "decimals", nil)
	if err != nil {
		return meta, fmt.Errorf("decimals: %w", err)
	}
	decimals, err := contracts.AsUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	// Some legacy tokens report symbol/name as bytes32.
	if values, err := contracts.Call(ctx, r.caller, token, stringABI, "symbol", nil); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := contracts.Call(ctx, r.caller, token, bytes32ABI, "symbol", nil); err == nil {
		if symbol, ok := contracts.Bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else {
		r.logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	if values, err := contracts.Call(ctx, r.caller, token, stringABI, "name", nil); err == nil {
		if name, ok := values[0].(string); ok {
			meta.Name = name
		}
	} else if values, err := contracts.Call(ctx, r.caller, token, bytes32ABI, "name", nil); err == nil {
		if name, ok := contracts.Bytes32ToString(values[0]); ok {
			meta.Name = name
		}
	} else {
		r.logger.Debug("name call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}
