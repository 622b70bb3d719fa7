package model

import "time"

// TimeWindow is a closed block range covering exactly one UTC calendar day.
// All callers querying within the same UTC day resolve to the same window,
// which keeps APR figures reproducible.
type TimeWindow struct {
	FromBlock     uint64    `json:"from_block"`
	ToBlock       uint64    `json:"to_block"`
	FromTimestamp time.Time `json:"from_timestamp"`
	ToTimestamp   time.Time `json:"to_timestamp"`
}
