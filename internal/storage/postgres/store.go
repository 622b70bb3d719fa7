package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/model"
)

// Store persists analytics snapshots for batch jobs. The engine itself
// never writes here; only cmd wires it in.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertSnapshots inserts or updates one batch of pool analytics, keyed by
// (pool, window start). Rerunning within the same UTC day overwrites in
// place since the window is identical.
func (s *Store) UpsertSnapshots(ctx context.Context, snapshots []model.PoolAnalytics) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		batch.Queue(`
			INSERT INTO pool_analytics (
				pool_id, pair_address, pair_symbol, window_start, window_end,
				fee_apr_pct, emission_apr_pct, quest_boost_apr_min, quest_boost_apr_max,
				total_tvl_usd, v1_tvl_usd, v2_tvl_usd,
				volume_24h_usd, fees_24h_usd, rewards_24h_usd,
				degraded, degraded_reason, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,now(),now())
			ON CONFLICT (pool_id, window_start)
			DO UPDATE SET
				pair_address = EXCLUDED.pair_address,
				pair_symbol = EXCLUDED.pair_symbol,
				window_end = EXCLUDED.window_end,
				fee_apr_pct = EXCLUDED.fee_apr_pct,
				emission_apr_pct = EXCLUDED.emission_apr_pct,
				quest_boost_apr_min = EXCLUDED.quest_boost_apr_min,
				quest_boost_apr_max = EXCLUDED.quest_boost_apr_max,
				total_tvl_usd = EXCLUDED.total_tvl_usd,
				v1_tvl_usd = EXCLUDED.v1_tvl_usd,
				v2_tvl_usd = EXCLUDED.v2_tvl_usd,
				volume_24h_usd = EXCLUDED.volume_24h_usd,
				fees_24h_usd = EXCLUDED.fees_24h_usd,
				rewards_24h_usd = EXCLUDED.rewards_24h_usd,
				degraded = EXCLUDED.degraded,
				degraded_reason = EXCLUDED.degraded_reason,
				updated_at = now()
		`,
			int64(snap.PoolID),
			snap.PairAddress.Hex(),
			snap.PairSymbol,
			snap.Window.FromTimestamp,
			snap.Window.ToTimestamp,
			snap.FeeAprPct,
			snap.EmissionAprPct,
			snap.QuestBoostAprMin,
			snap.QuestBoostAprMax,
			snap.TotalTVLUSD,
			snap.V1TVLUSD,
			snap.V2TVLUSD,
			snap.Volume24hUSD,
			snap.Fees24hUSD,
			snap.Rewards24hUSD,
			snap.Degraded,
			snap.DegradedReason,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snapshots {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LatestSnapshotDay returns the most recent window start stored, if any.
func (s *Store) LatestSnapshotDay(ctx context.Context) (time.Time, bool, error) {
	var day *time.Time
	row := s.pool.QueryRow(ctx, `SELECT max(window_start) FROM pool_analytics`)
	if err := row.Scan(&day); err != nil {
		if err == pgx.ErrNoRows {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	if day == nil {
		return time.Time{}, false, nil
	}
	return *day, true, nil
}
