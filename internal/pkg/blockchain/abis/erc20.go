package abis

import "github.com/ethereum/go-ethereum/accounts/abi"

const erc20JSON = `[
	{"inputs": [], "name": "decimals", "outputs": [{"name": "", "type": "uint8"}], "stateMutability": "view", "type": "function"},
	{"inputs": [], "name": "symbol", "outputs": [{"name": "", "type": "string"}], "stateMutability": "view", "type": "function"},
	{"inputs": [], "name": "name", "outputs": [{"name": "", "type": "string"}], "stateMutability": "view", "type": "function"},
	{"inputs": [{"name": "account", "type": "address"}], "name": "balanceOf", "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
	{"inputs": [{"name": "owner", "type": "address"}, {"name": "spender", "type": "address"}], "name": "allowance", "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
	{"inputs": [{"name": "spender", "type": "address"}, {"name": "amount", "type": "uint256"}], "name": "approve", "outputs": [{"name": "", "type": "bool"}], "stateMutability": "nonpayable", "type": "function"},
	{"inputs": [{"name": "to", "type": "address"}, {"name": "amount", "type": "uint256"}], "name": "transfer", "outputs": [{"name": "", "type": "bool"}], "stateMutability": "nonpayable", "type": "function"}
]`

const wethJSON = `[
	{"inputs": [], "name": "deposit", "outputs": [], "stateMutability": "payable", "type": "function"},
	{"inputs": [{"name": "wad", "type": "uint256"}], "name": "withdraw", "outputs": [], "stateMutability": "nonpayable", "type": "function"}
]`

// GetERC20ABI returns the ERC-20 subset used for balances, approvals and metadata.
func GetERC20ABI() (*abi.ABI, error) {
	return ParseABI(erc20JSON)
}

// GetWETHABI returns the ERC-20 ABI extended with WETH9 deposit/withdraw.
func GetWETHABI() (*abi.ABI, error) {
	erc20, err := ParseABI(erc20JSON)
	if err != nil {
		return nil, err
	}
	weth, err := ParseABI(wethJSON)
	if err != nil {
		return nil, err
	}
	for name, m := range weth.Methods {
		erc20.Methods[name] = m
	}
	return erc20, nil
}
