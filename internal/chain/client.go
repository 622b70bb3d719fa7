package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/model"
)

// Client wraps go-ethereum RPC access. Every failed provider call comes
// back as a model.RPCError naming the JSON-RPC method, so callers add
// domain context without re-wrapping the transport failure.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu      sync.RWMutex
	tsCache map[uint64]uint64
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, &model.RPCError{Op: "dial", Err: err}
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		tsCache:   make(map[uint64]uint64),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	number, err := c.ethClient.BlockNumber(ctx)
	if err != nil {
		return 0, &model.RPCError{Op: "eth_blockNumber", Err: err}
	}
	return number, nil
}

// HeaderByNumber returns the block header by number, nil meaning latest.
func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	header, err := c.ethClient.HeaderByNumber(ctx, number)
	if err != nil {
		return nil, &model.RPCError{Op: fmt.Sprintf("eth_getBlockByNumber(%v)", number), Err: err}
	}
	return header, nil
}

// BlockTimestamp returns the block timestamp, using an in-memory cache.
// The cache keeps the window binary search cheap: the same pivot blocks
// come up repeatedly across calls within a day.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	c.mu.RLock()
	ts, ok := c.tsCache[number]
	c.mu.RUnlock()
	if ok {
		return ts, nil
	}

	header, err := c.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, err
	}

	ts = header.Time
	c.mu.Lock()
	c.tsCache[number] = ts
	c.mu.Unlock()

	return ts, nil
}

// FilterLogs returns logs in the given range for addresses and topic filters.
func (c *Client) FilterLogs(
	ctx context.Context,
	fromBlock uint64,
	toBlock uint64,
	addresses []common.Address,
	topics [][]common.Hash,
) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: addresses,
	}
	if len(topics) > 0 {
		query.Topics = topics
	}
	logs, err := c.ethClient.FilterLogs(ctx, query)
	if err != nil {
		return nil, &model.RPCError{Op: fmt.Sprintf("eth_getLogs[%d,%d]", fromBlock, toBlock), Err: err}
	}
	return logs, nil
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	out, err := c.ethClient.CallContract(ctx, msg, blockNumber)
	if err != nil {
		to := ""
		if msg.To != nil {
			to = msg.To.Hex()
		}
		return nil, &model.RPCError{Op: "eth_call " + to, Err: err}
	}
	return out, nil
}
