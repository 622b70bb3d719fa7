package model

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// RPCError wraps a failed provider call. Retryable at the call site; fatal
// only when it hits a batch-wide step such as pool-length or graph build.
type RPCError struct {
	Op  string
	Err error
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc %s: %v", e.Op, e.Err)
}

func (e *RPCError) Unwrap() error { return e.Err }

// UnpricedTokenError reports a token the price graph never reached. Callers
// degrade the affected USD metrics to unavailable instead of fabricating a
// price.
type UnpricedTokenError struct {
	Token common.Address
}

func (e *UnpricedTokenError) Error() string {
	return fmt.Sprintf("token %s has no path to the anchor in the price graph", e.Token.Hex())
}

// IsUnpriced reports whether err carries an UnpricedTokenError.
func IsUnpriced(err error) bool {
	var unpriced *UnpricedTokenError
	return errors.As(err, &unpriced)
}

// DecodeError reports a single malformed event log. Aggregators skip the
// event and continue.
type DecodeError struct {
	TxHash   string
	LogIndex uint
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode log %s[%d]: %v", e.TxHash, e.LogIndex, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
