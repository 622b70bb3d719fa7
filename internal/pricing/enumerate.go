package pricing

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

// PairResolver resolves a pair address to its full state. Satisfied by
// *pair.Resolver.
type PairResolver interface {
	Resolve(ctx context.Context, address common.Address) (model.PairInfo, error)
}

// Enumerator walks the AMM factory's full pair list. All pairs are
// considered, not only staked ones, so tokens that are merely tradable
// still receive a price.
type Enumerator struct {
	caller      contracts.Caller
	factory     common.Address
	resolver    PairResolver
	concurrency int
	logger      *zap.Logger
}

// NewEnumerator builds an Enumerator over the factory at address.
func NewEnumerator(caller contracts.Caller, factory common.Address, resolver PairResolver, concurrency int, logger *zap.Logger) *Enumerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Enumerator{
		caller:      caller,
		factory:     factory,
		resolver:    resolver,
		concurrency: concurrency,
		logger:      logger,
	}
}

// AllPairs enumerates and resolves every factory pair, preserving factory
// index order. A single unresolvable pair is skipped with a warning; the
// tokens it would have priced simply stay unpriced.
func (e *Enumerator) AllPairs(ctx context.Context) ([]model.PairInfo, error) {
	factoryABI, err := contracts.FactoryABI()
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}

	values, err := contracts.Call(ctx, e.caller, e.factory, factoryABI, "allPairsLength", nil)
	if err != nil {
		return nil, fmt.Errorf("allPairsLength: %w", err)
	}
	length, err := contracts.AsBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("allPairsLength: %w", err)
	}
	count := length.Uint64()

	resolved := make([]*model.PairInfo, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i := uint64(0); i < count; i++ {
		i := i
		g.Go(func() error {
			values, err := contracts.Call(gctx, e.caller, e.factory, factoryABI, "allPairs", nil, new(big.Int).SetUint64(i))
			if err != nil {
				e.logger.Warn("allPairs fetch failed", zap.Uint64("index", i), zap.Error(err))
				return nil
			}
			addr, err := contracts.AsAddress(values[0])
			if err != nil {
				e.logger.Warn("allPairs address decode failed", zap.Uint64("index", i), zap.Error(err))
				return nil
			}

			info, err := e.resolver.Resolve(gctx, addr)
			if err != nil {
				e.logger.Warn("pair resolve failed", zap.String("pair", addr.Hex()), zap.Error(err))
				return nil
			}
			resolved[i] = &info
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	pairs := make([]model.PairInfo, 0, count)
	for _, info := range resolved {
		if info != nil {
			pairs = append(pairs, *info)
		}
	}
	return pairs, nil
}

// BuildGraph enumerates all pairs and runs the BFS from the anchor token.
func (e *Enumerator) BuildGraph(ctx context.Context, anchor common.Address) (*Graph, error) {
	pairs, err := e.AllPairs(ctx)
	if err != nil {
		return nil, err
	}
	graph := BuildGraph(pairs, anchor)
	e.logger.Info("price graph built",
		zap.Int("pairs", len(pairs)),
		zap.Int("priced_tokens", graph.Len()),
		zap.String("anchor", anchor.Hex()),
	)
	return graph, nil
}
