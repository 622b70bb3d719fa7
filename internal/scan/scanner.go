package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LogFilterer is the slice of the chain client needed for log scans.
type LogFilterer interface {
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topics [][]common.Hash) ([]types.Log, error)
}

// Config controls chunking and retry behavior for one scanner.
type Config struct {
	ChunkSize    uint64
	Concurrency  int
	MaxRetries   int
	RetryBackoff time.Duration
}

// Scanner fetches event logs over a block window in fixed-size chunks.
// Chunks are fetched with bounded parallelism and concatenated in block
// order so event sums stay deterministic.
type Scanner struct {
	cfg      Config
	filterer LogFilterer
	logger   *zap.Logger
}

// NewScanner builds a Scanner with its dependencies.
func NewScanner(cfg Config, filterer LogFilterer, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = 2000
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Scanner{cfg: cfg, filterer: filterer, logger: logger}
}

// Scan returns all logs for the addresses/topics in [fromBlock, toBlock],
// in block order.
func (s *Scanner) Scan(ctx context.Context, addresses []common.Address, topics [][]common.Hash, fromBlock, toBlock uint64) ([]types.Log, error) {
	if s.filterer == nil {
		return nil, fmt.Errorf("log filterer is nil")
	}

	ranges, err := SplitRange(fromBlock, toBlock, s.cfg.ChunkSize)
	if err != nil {
		return nil, err
	}

	chunks := make([][]types.Log, len(ranges))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for i, blockRange := range ranges {
		i, blockRange := i, blockRange
		g.Go(func() error {
			var logs []types.Log
			err := WithRetry(gctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
				var err error
				logs, err = s.filterer.FilterLogs(ctx, blockRange.From, blockRange.To, addresses, topics)
				if err != nil {
					s.logger.Warn("filter logs failed",
						zap.Error(err),
						zap.Uint64("from", blockRange.From),
						zap.Uint64("to", blockRange.To),
					)
				}
				return err
			})
			if err != nil {
				return fmt.Errorf("scan blocks [%d,%d]: %w", blockRange.From, blockRange.To, err)
			}
			chunks[i] = logs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, chunk := range chunks {
		total += len(chunk)
	}
	out := make([]types.Log, 0, total)
	for _, chunk := range chunks {
		out = append(out, chunk...)
	}
	return out, nil
}
