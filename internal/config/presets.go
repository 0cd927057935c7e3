package config

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/lendpool/internal/domain/entity"
	"github.com/archon-research/lendpool/internal/pkg/blockchain"
)

// Aave v3 Ethereum mainnet.
var (
	mainnetPoolAddressesProvider = common.HexToAddress("0x2f39d218133AFaB8F2B819B1066c7E434Ad94E9e")
	mainnetWETH                  = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
)

var presets = map[string]entity.Network{
	"hardhat": {
		ChainID:       31337,
		RPCURL:        "http://127.0.0.1:8545",
		Local:         true,
		GasLimit:      blockchain.DefaultGasLimit,
		Confirmations: 1,
	},
	"ganache": {
		ChainID:       1337,
		RPCURL:        "http://127.0.0.1:7545",
		Local:         true,
		GasLimit:      blockchain.DefaultGasLimit,
		Confirmations: 1,
	},
	"development": {
		ChainID:       1337,
		RPCURL:        "http://127.0.0.1:8545",
		Local:         true,
		GasLimit:      blockchain.DefaultGasLimit,
		Confirmations: 1,
	},
	"mainnet-fork": {
		ChainID:       1,
		RPCURL:        "http://127.0.0.1:8545",
		Local:         true,
		GasLimit:      blockchain.DefaultGasLimit,
		Confirmations: 1,
		Contracts: entity.Contracts{
			PoolAddressesProvider: mainnetPoolAddressesProvider,
			WETH:                  mainnetWETH,
		},
	},
	"sepolia": {
		ChainID:       11155111,
		GasLimit:      blockchain.DefaultGasLimit,
		Confirmations: 1,
	},
	"mainnet": {
		ChainID:       1,
		GasLimit:      blockchain.DefaultGasLimit,
		Confirmations: 2,
	},
}
