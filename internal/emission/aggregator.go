package emission

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/contracts"
	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/model"
	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/pricing"
)

const daysPerYear = 365

// LogSource fetches event logs over a block window. Satisfied by
// *scan.Scanner.
type LogSource interface {
	Scan(ctx context.Context, addresses []common.Address, topics [][]common.Hash, fromBlock, toBlock uint64) ([]types.Log, error)
}

// Aggregator sums reward-mint events from the quest distribution contract.
// Emissions come from the quest contract, not the staking contract.
type Aggregator struct {
	source      LogSource
	questAddr   common.Address
	rewardToken common.Address
	logger      *zap.Logger
}

// NewAggregator builds an Aggregator for the quest contract at questAddr,
// counting only mints of rewardToken.
func NewAggregator(source LogSource, questAddr, rewardToken common.Address, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		source:      source,
		questAddr:   questAddr,
		rewardToken: rewardToken,
		logger:      logger,
	}
}

// PoolEmissions sums the reward tokens minted for the pool in the window
// and converts the total to USD through the reward token's graph price.
// Raw amounts are accumulated as big.Int; the USD conversion happens once
// at the end.
func (a *Aggregator) PoolEmissions(ctx context.Context, poolID uint64, win model.TimeWindow, graph *pricing.Graph) (model.EmissionRecord, error) {
	questABI, err := contracts.QuestABI()
	if err != nil {
		return model.EmissionRecord{}, fmt.Errorf("parse quest abi: %w", err)
	}
	event := questABI.Events["RewardMinted"]
	poolTopic := common.BigToHash(new(big.Int).SetUint64(poolID))

	logs, err := a.source.Scan(ctx,
		[]common.Address{a.questAddr},
		[][]common.Hash{{event.ID}, {poolTopic}},
		win.FromBlock, win.ToBlock,
	)
	if err != nil {
		return model.EmissionRecord{}, err
	}

	record := model.EmissionRecord{
		PoolID:      poolID,
		RewardToken: a.rewardToken,
		RewardsRaw:  new(big.Int),
	}

	for _, log := range logs {
		values, err := questABI.Unpack("RewardMinted", log.Data)
		if err != nil || len(values) < 2 {
			a.logger.Warn("skip reward event",
				zap.Uint64("pool", poolID),
				zap.String("tx", log.TxHash.Hex()),
				zap.Error(err),
			)
			continue
		}

		reward, err := contracts.AsAddress(values[0])
		if err != nil {
			a.logger.Warn("skip reward event", zap.Uint64("pool", poolID), zap.Error(err))
			continue
		}
		if reward != a.rewardToken {
			continue
		}

		amount, err := contracts.AsBigInt(values[1])
		if err != nil {
			a.logger.Warn("skip reward event", zap.Uint64("pool", poolID), zap.Error(err))
			continue
		}

		record.RewardsRaw.Add(record.RewardsRaw, amount)
		record.EventCount++
	}

	usd, err := graph.USDValue(a.rewardToken, record.RewardsRaw)
	if err != nil {
		return model.EmissionRecord{}, err
	}
	record.RewardsUSD = usd
	return record, nil
}

// EmissionAPR annualizes one day of emissions against V2-staked TVL only:
// legacy V1 deposits still earn swap fees but receive no emissions. A zero
// denominator yields 0.
func EmissionAPR(rewardsUSD, v2StakedTVLUSD *big.Rat) float64 {
	if rewardsUSD == nil || v2StakedTVLUSD == nil || rewardsUSD.Sign() == 0 || v2StakedTVLUSD.Sign() == 0 {
		return 0
	}
	apr := new(big.Rat).Mul(rewardsUSD, big.NewRat(daysPerYear*100, 1))
	apr.Quo(apr, v2StakedTVLUSD)
	out, _ := apr.Float64()
	return out
}
