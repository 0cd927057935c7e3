package abis

import "github.com/ethereum/go-ethereum/accounts/abi"

// GetPoolABI returns the Aave V3 Pool methods used for lending and account queries.
func GetPoolABI() (*abi.ABI, error) {
	return ParseABI(`[
		{
			"inputs": [
				{"name": "asset", "type": "address"},
				{"name": "amount", "type": "uint256"},
				{"name": "onBehalfOf", "type": "address"},
				{"name": "referralCode", "type": "uint16"}
			],
			"name": "supply",
			"outputs": [],
			"stateMutability": "nonpayable",
			"type": "function"
		},
		{
			"inputs": [
				{"name": "asset", "type": "address"},
				{"name": "amount", "type": "uint256"},
				{"name": "interestRateMode", "type": "uint256"},
				{"name": "referralCode", "type": "uint16"},
				{"name": "onBehalfOf", "type": "address"}
			],
			"name": "borrow",
			"outputs": [],
			"stateMutability": "nonpayable",
			"type": "function"
		},
		{
			"inputs": [
				{"name": "asset", "type": "address"},
				{"name": "amount", "type": "uint256"},
				{"name": "to", "type": "address"}
			],
			"name": "withdraw",
			"outputs": [{"name": "", "type": "uint256"}],
			"stateMutability": "nonpayable",
			"type": "function"
		},
		{
			"inputs": [
				{"name": "asset", "type": "address"},
				{"name": "amount", "type": "uint256"},
				{"name": "interestRateMode", "type": "uint256"},
				{"name": "onBehalfOf", "type": "address"}
			],
			"name": "repay",
			"outputs": [{"name": "", "type": "uint256"}],
			"stateMutability": "nonpayable",
			"type": "function"
		},
		{
			"inputs": [{"name": "user", "type": "address"}],
			"name": "getUserAccountData",
			"outputs": [
				{"name": "totalCollateralBase", "type": "uint256"},
				{"name": "totalDebtBase", "type": "uint256"},
				{"name": "availableBorrowsBase", "type": "uint256"},
				{"name": "currentLiquidationThreshold", "type": "uint256"},
				{"name": "ltv", "type": "uint256"},
				{"name": "healthFactor", "type": "uint256"}
			],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [{"name": "user", "type": "address"}],
			"name": "getUserConfiguration",
			"outputs": [{"components": [{"name": "data", "type": "uint256"}], "name": "", "type": "tuple"}],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [{"name": "asset", "type": "address"}],
			"name": "getReserveData",
			"outputs": [
				{
					"components": [
						{"name": "configuration", "type": "uint256"},
						{"name": "liquidityIndex", "type": "uint128"},
						{"name": "currentLiquidityRate", "type": "uint128"},
						{"name": "variableBorrowIndex", "type": "uint128"},
						{"name": "currentVariableBorrowRate", "type": "uint128"},
						{"name": "currentStableBorrowRate", "type": "uint128"},
						{"name": "lastUpdateTimestamp", "type": "uint40"},
						{"name": "id", "type": "uint16"},
						{"name": "aTokenAddress", "type": "address"},
						{"name": "stableDebtTokenAddress", "type": "address"},
						{"name": "variableDebtTokenAddress", "type": "address"},
						{"name": "interestRateStrategyAddress", "type": "address"},
						{"name": "accruedToTreasury", "type": "uint128"},
						{"name": "unbacked", "type": "uint128"},
						{"name": "isolationModeTotalDebt", "type": "uint128"}
					],
					"name": "",
					"type": "tuple"
				}
			],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [],
			"name": "getReservesList",
			"outputs": [{"name": "", "type": "address[]"}],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [],
			"name": "ADDRESSES_PROVIDER",
			"outputs": [{"name": "", "type": "address"}],
			"stateMutability": "view",
			"type": "function"
		}
	]`)
}
