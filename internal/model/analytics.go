package model

import "github.com/ethereum/go-ethereum/common"

// PoolAnalytics is the composed per-pool result. Metric fields are pointers:
// nil means "no data available" (for example an unpriced token leg), which is
// deliberately distinct from a zero value.
type PoolAnalytics struct {
	PoolID      uint64         `json:"pool_id"`
	PairAddress common.Address `json:"pair_address"`
	PairSymbol  string         `json:"pair_symbol"`

	FeeAprPct        *float64 `json:"fee_apr_pct"`
	EmissionAprPct   *float64 `json:"emission_apr_pct"`
	QuestBoostAprMin *float64 `json:"quest_boost_apr_min"`
	QuestBoostAprMax *float64 `json:"quest_boost_apr_max"`

	TotalTVLUSD *float64 `json:"total_tvl_usd"`
	V1TVLUSD    *float64 `json:"v1_tvl_usd"`
	V2TVLUSD    *float64 `json:"v2_tvl_usd"`

	Volume24hUSD  *float64 `json:"volume_24h_usd"`
	Fees24hUSD    *float64 `json:"fees_24h_usd"`
	Rewards24hUSD *float64 `json:"rewards_24h_usd"`

	TokenPrices map[common.Address]float64 `json:"token_prices"`
	Window      TimeWindow                 `json:"window"`

	Degraded       bool   `json:"degraded,omitempty"`
	DegradedReason string `json:"degraded_reason,omitempty"`
}

// TotalApr ranks a pool by fee APR + emission APR + best quest boost.
// Unavailable components count as zero for ranking purposes only.
func (a PoolAnalytics) TotalApr() float64 {
	var total float64
	if a.FeeAprPct != nil {
		total += *a.FeeAprPct
	}
	if a.EmissionAprPct != nil {
		total += *a.EmissionAprPct
	}
	if a.QuestBoostAprMax != nil {
		total += *a.QuestBoostAprMax
	}
	return total
}
