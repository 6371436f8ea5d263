package omen

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	gnosisChainID = int64(100)

	// wxDAI collateral on Gnosis Chain
	wxDaiAddress = "0xe91D153E0b41518A2Ce8Dd3D7944Fa863463a97d"

	// Conditional Tokens contract holding the outcome tokens (ERC1155)
	conditionalTokensAddress = "0xCeAfDD6bc0bEF976fdCd1112955828E00543c0Ce"

	// Gas limits (conservative upper bounds)
	tradeGasLimit    = uint64(400_000)
	approvalGasLimit = uint64(80_000)
)

// Contract ABIs
var (
	fpmmABI    abi.ABI
	erc20ABI   abi.ABI
	erc1155ABI abi.ABI
)

func init() {
	var err error

	fpmmABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "calcBuyAmount",
			"type": "function",
			"stateMutability": "view",
			"inputs": [
				{"name": "investmentAmount", "type": "uint256"},
				{"name": "outcomeIndex", "type": "uint256"}
			],
			"outputs": [{"name": "", "type": "uint256"}]
		},
		{
			"name": "calcSellAmount",
			"type": "function",
			"stateMutability": "view",
			"inputs": [
				{"name": "returnAmount", "type": "uint256"},
				{"name": "outcomeIndex", "type": "uint256"}
			],
			"outputs": [{"name": "outcomeTokenSellAmount", "type": "uint256"}]
		},
		{
			"name": "buy",
			"type": "function",
			"inputs": [
				{"name": "investmentAmount", "type": "uint256"},
				{"name": "outcomeIndex", "type": "uint256"},
				{"name": "minOutcomeTokensToBuy", "type": "uint256"}
			],
			"outputs": []
		},
		{
			"name": "sell",
			"type": "function",
			"inputs": [
				{"name": "returnAmount", "type": "uint256"},
				{"name": "outcomeIndex", "type": "uint256"},
				{"name": "maxOutcomeTokensToSell", "type": "uint256"}
			],
			"outputs": []
		}
	]`))
	if err != nil {
		panic("fpmm abi parse: " + err.Error())
	}

	erc20ABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "balanceOf",
			"type": "function",
			"stateMutability": "view",
			"inputs": [{"name": "account", "type": "address"}],
			"outputs": [{"name": "", "type": "uint256"}]
		},
		{
			"name": "approve",
			"type": "function",
			"inputs": [
				{"name": "spender", "type": "address"},
				{"name": "amount", "type": "uint256"}
			],
			"outputs": [{"name": "", "type": "bool"}]
		},
		{
			"name": "allowance",
			"type": "function",
			"stateMutability": "view",
			"inputs": [
				{"name": "owner", "type": "address"},
				{"name": "spender", "type": "address"}
			],
			"outputs": [{"name": "", "type": "uint256"}]
		}
	]`))
	if err != nil {
		panic("erc20 abi parse: " + err.Error())
	}

	erc1155ABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "setApprovalForAll",
			"type": "function",
			"inputs": [
				{"name": "operator", "type": "address"},
				{"name": "approved", "type": "bool"}
			],
			"outputs": []
		},
		{
			"name": "isApprovedForAll",
			"type": "function",
			"stateMutability": "view",
			"inputs": [
				{"name": "account", "type": "address"},
				{"name": "operator", "type": "address"}
			],
			"outputs": [{"name": "", "type": "bool"}]
		}
	]`))
	if err != nil {
		panic("erc1155 abi parse: " + err.Error())
	}
}
