package abis

import "github.com/ethereum/go-ethereum/accounts/abi"

// GetPoolAddressesProviderABI returns the ABI for the Aave PoolAddressesProvider contract.
// Used to resolve the pool via getPool() and the oracle via getPriceOracle().
func GetPoolAddressesProviderABI() (*abi.ABI, error) {
	return ParseABI(`[
		{
			"inputs": [],
			"name": "getPool",
			"outputs": [{"name": "", "type": "address"}],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [],
			"name": "getPriceOracle",
			"outputs": [{"name": "", "type": "address"}],
			"stateMutability": "view",
			"type": "function"
		}
	]`)
}
