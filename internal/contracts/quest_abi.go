package contracts

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// RewardMinted is emitted by the quest reward distributor, not the staking
// contract. poolId attributes the emission to a garden; reward is the token
// minted.
const questABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "poolId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "player", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "reward", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"}
    ],
    "name": "RewardMinted",
    "type": "event"
  }
]`

var (
	questABI     abi.ABI
	questABIOnce sync.Once
	questABIErr  error
)

// QuestABI returns the parsed quest reward contract ABI.
func QuestABI() (abi.ABI, error) {
	questABIOnce.Do(func() {
		questABI, questABIErr = abi.JSON(strings.NewReader(questABIJSON))
	})
	return questABI, questABIErr
}
