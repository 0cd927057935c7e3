package abis

import "github.com/ethereum/go-ethereum/accounts/abi"

// GetAaveOracleABI returns the ABI for the Aave V3 Oracle contract.
// Prices are quoted in the base currency; BASE_CURRENCY_UNIT is its scale.
func GetAaveOracleABI() (*abi.ABI, error) {
	return ParseABI(`[
		{
			"inputs": [{"name": "asset", "type": "address"}],
			"name": "getAssetPrice",
			"outputs": [{"name": "", "type": "uint256"}],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [],
			"name": "BASE_CURRENCY_UNIT",
			"outputs": [{"name": "", "type": "uint256"}],
			"stateMutability": "view",
			"type": "function"
		}
	]`)
}
