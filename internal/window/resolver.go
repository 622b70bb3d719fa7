package window

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/model"
)

// BlockReader is the slice of the chain client the resolver needs. Block
// timestamps must be non-decreasing in block number.
type BlockReader interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}

// Resolver converts "previous UTC calendar day" into a concrete block range
// by binary search on block timestamps.
type Resolver struct {
	reader BlockReader
	logger *zap.Logger
}

// NewResolver builds a Resolver.
func NewResolver(reader BlockReader, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{reader: reader, logger: logger}
}

// PreviousUTCDay returns [00:00:00, 23:59:59] of the UTC day before now.
// The window is a function of the calendar date, not "now minus 24h": every
// caller on the same UTC day gets the identical bounds.
func PreviousUTCDay(now time.Time) (time.Time, time.Time) {
	yesterday := now.UTC().AddDate(0, 0, -1)
	dayStart := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24*time.Hour - time.Second)
	return dayStart, dayEnd
}

// BlockRange resolves the previous UTC day into [fromBlock, toBlock]:
// the first block at or after 00:00:00 and the last block at or before
// 23:59:59. O(log N) timestamp lookups per bound.
func (r *Resolver) BlockRange(ctx context.Context, now time.Time) (model.TimeWindow, error) {
	dayStart, dayEnd := PreviousUTCDay(now)
	startTs := uint64(dayStart.Unix())
	endTs := uint64(dayEnd.Unix())

	latest, err := r.reader.LatestBlockNumber(ctx)
	if err != nil {
		return model.TimeWindow{}, fmt.Errorf("resolve chain tip: %w", err)
	}
	if latest == 0 {
		return model.TimeWindow{}, fmt.Errorf("chain has no blocks")
	}

	tipTs, err := r.reader.BlockTimestamp(ctx, latest)
	if err != nil {
		return model.TimeWindow{}, fmt.Errorf("resolve chain tip: %w", err)
	}
	if tipTs < startTs {
		return model.TimeWindow{}, fmt.Errorf("chain tip %d predates window start %s", latest, dayStart.Format(time.RFC3339))
	}

	fromBlock, err := r.firstAtOrAfter(ctx, latest, startTs)
	if err != nil {
		return model.TimeWindow{}, err
	}

	var toBlock uint64
	if tipTs <= endTs {
		toBlock = latest
	} else {
		block, ok, err := r.lastAtOrBefore(ctx, latest, endTs)
		if err != nil {
			return model.TimeWindow{}, err
		}
		if !ok {
			// Chain genesis postdates the window: every block is newer
			// than the day being measured.
			return model.TimeWindow{}, fmt.Errorf("no blocks in window [%s, %s]", dayStart.Format(time.RFC3339), dayEnd.Format(time.RFC3339))
		}
		toBlock = block
	}

	if toBlock < fromBlock {
		return model.TimeWindow{}, fmt.Errorf("no blocks in window [%s, %s]", dayStart.Format(time.RFC3339), dayEnd.Format(time.RFC3339))
	}

	r.logger.Debug("resolved block window",
		zap.Uint64("from_block", fromBlock),
		zap.Uint64("to_block", toBlock),
		zap.Time("day_start", dayStart),
		zap.Time("day_end", dayEnd),
	)

	return model.TimeWindow{
		FromBlock:     fromBlock,
		ToBlock:       toBlock,
		FromTimestamp: dayStart,
		ToTimestamp:   dayEnd,
	}, nil
}

// firstAtOrAfter finds the lowest block whose timestamp is >= target.
func (r *Resolver) firstAtOrAfter(ctx context.Context, latest, target uint64) (uint64, error) {
	lo, hi := uint64(1), latest
	for lo < hi {
		mid := lo + (hi-lo)/2
		ts, err := r.reader.BlockTimestamp(ctx, mid)
		if err != nil {
			return 0, err
		}
		if ts >= target {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo, nil
}

// lastAtOrBefore finds the highest block whose timestamp is <= target.
// When even the earliest block is newer than target the search converges on
// block 1 regardless, so the result is verified; ok is false when no block
// qualifies.
func (r *Resolver) lastAtOrBefore(ctx context.Context, latest, target uint64) (uint64, bool, error) {
	lo, hi := uint64(1), latest
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		ts, err := r.reader.BlockTimestamp(ctx, mid)
		if err != nil {
			return 0, false, err
		}
		if ts <= target {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	ts, err := r.reader.BlockTimestamp(ctx, lo)
	if err != nil {
		return 0, false, err
	}
	if ts > target {
		return 0, false, nil
	}
	return lo, true, nil
}
