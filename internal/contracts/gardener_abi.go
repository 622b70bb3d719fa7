package contracts

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const gardenerABIJSON = `[
  {
    "inputs": [],
    "name": "poolLength",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "uint256", "name": "_pid", "type": "uint256"}],
    "name": "poolInfo",
    "outputs": [
      {"internalType": "address", "name": "lpToken", "type": "address"},
      {"internalType": "uint256", "name": "allocPoint", "type": "uint256"},
      {"internalType": "uint256", "name": "lastRewardBlock", "type": "uint256"},
      {"internalType": "uint256", "name": "accRewardPerShare", "type": "uint256"},
      {"internalType": "uint256", "name": "totalStaked", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "totalAllocPoint",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "uint256", "name": "_pid", "type": "uint256"},
      {"internalType": "address", "name": "_user", "type": "address"}
    ],
    "name": "pendingReward",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	gardenerABI     abi.ABI
	gardenerABIOnce sync.Once
	gardenerABIErr  error
)

// GardenerABI returns the parsed staking contract ABI.
func GardenerABI() (abi.ABI, error) {
	gardenerABIOnce.Do(func() {
		gardenerABI, gardenerABIErr = abi.JSON(strings.NewReader(gardenerABIJSON))
	})
	return gardenerABI, gardenerABIErr
}
