package volume

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/contracts"
	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/model"
	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/pricing"
)

// LPFeeShare is the liquidity-provider share of swap notional: 0.25% of
// each trade, i.e. the LP cut of the 0.30% total swap fee. This is the one
// authoritative constant for fee revenue; it is never re-derived per event.
var LPFeeShare = big.NewRat(25, 10_000)

// daysPerYear extrapolates a one-day observation to an annual rate.
const daysPerYear = 365

// LogSource fetches event logs over a block window. Satisfied by
// *scan.Scanner.
type LogSource interface {
	Scan(ctx context.Context, addresses []common.Address, topics [][]common.Hash, fromBlock, toBlock uint64) ([]types.Log, error)
}

// Aggregator sums a pair's swap volume over a time window and derives LP
// fee revenue from it.
type Aggregator struct {
	source LogSource
	logger *zap.Logger
}

// NewAggregator builds an Aggregator.
func NewAggregator(source LogSource, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{source: source, logger: logger}
}

// PairVolume scans Swap events for the pair in the window and converts the
// notional to USD. The output leg's price is canonical for each swap.
// Malformed events are skipped and counted; an unpriced output token makes
// the whole metric unavailable rather than partially wrong.
func (a *Aggregator) PairVolume(ctx context.Context, pair model.PairInfo, win model.TimeWindow, graph *pricing.Graph) (model.VolumeRecord, error) {
	pairABI, err := contracts.PairABI()
	if err != nil {
		return model.VolumeRecord{}, fmt.Errorf("parse pair abi: %w", err)
	}
	swapTopic := pairABI.Events["Swap"].ID

	logs, err := a.source.Scan(ctx, []common.Address{pair.Address}, [][]common.Hash{{swapTopic}}, win.FromBlock, win.ToBlock)
	if err != nil {
		return model.VolumeRecord{}, err
	}

	record := model.VolumeRecord{
		Pair:      pair.Address,
		VolumeUSD: new(big.Rat),
		FeesUSD:   new(big.Rat),
	}

	for _, log := range logs {
		outToken, outAmount, err := decodeSwapOutput(pairABI, pair, log)
		if err != nil {
			record.SkippedEvents++
			a.logger.Warn("skip swap event",
				zap.String("pair", pair.Address.Hex()),
				zap.String("tx", log.TxHash.Hex()),
				zap.Error(err),
			)
			continue
		}

		usd, err := graph.USDValue(outToken, outAmount)
		if err != nil {
			return model.VolumeRecord{Pair: pair.Address}, err
		}

		record.VolumeUSD.Add(record.VolumeUSD, usd)
		record.SwapCount++
	}

	record.FeesUSD = new(big.Rat).Mul(record.VolumeUSD, LPFeeShare)
	return record, nil
}

// decodeSwapOutput returns the swapped-out token and amount. Exactly one of
// amount0Out/amount1Out is nonzero for a well-formed V2 swap; the nonzero
// leg is the canonical notional.
func decodeSwapOutput(pairABI abi.ABI, pair model.PairInfo, log types.Log) (common.Address, *big.Int, error) {
	values, err := pairABI.Unpack("Swap", log.Data)
	if err != nil {
		return common.Address{}, nil, &model.DecodeError{TxHash: log.TxHash.Hex(), LogIndex: log.Index, Err: err}
	}
	if len(values) < 4 {
		return common.Address{}, nil, &model.DecodeError{
			TxHash:   log.TxHash.Hex(),
			LogIndex: log.Index,
			Err:      fmt.Errorf("swap data has %d values", len(values)),
		}
	}

	amount0Out, err := contracts.AsBigInt(values[2])
	if err != nil {
		return common.Address{}, nil, &model.DecodeError{TxHash: log.TxHash.Hex(), LogIndex: log.Index, Err: err}
	}
	amount1Out, err := contracts.AsBigInt(values[3])
	if err != nil {
		return common.Address{}, nil, &model.DecodeError{TxHash: log.TxHash.Hex(), LogIndex: log.Index, Err: err}
	}

	switch {
	case amount0Out.Sign() > 0:
		return pair.Token0, amount0Out, nil
	case amount1Out.Sign() > 0:
		return pair.Token1, amount1Out, nil
	default:
		return common.Address{}, nil, &model.DecodeError{
			TxHash:   log.TxHash.Hex(),
			LogIndex: log.Index,
			Err:      fmt.Errorf("swap with no output amount"),
		}
	}
}

// FeeAPR annualizes one day of fee revenue against total pool TVL, as a
// percentage. Zero TVL or zero fees yields 0, never a division error.
func FeeAPR(feesUSD, totalTVLUSD *big.Rat) float64 {
	if feesUSD == nil || totalTVLUSD == nil || feesUSD.Sign() == 0 || totalTVLUSD.Sign() == 0 {
		return 0
	}
	apr := new(big.Rat).Mul(feesUSD, big.NewRat(daysPerYear*100, 1))
	apr.Quo(apr, totalTVLUSD)
	out, _ := apr.Float64()
	return out
}
