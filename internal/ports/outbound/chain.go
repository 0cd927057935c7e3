// Package outbound defines the outbound port interfaces.
package outbound

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainClient is the subset of the JSON-RPC API used by the tooling.
// *ethclient.Client satisfies it.
type ChainClient interface {
	ethereum.ContractCaller

	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	BlockNumber(ctx context.Context) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Account is a signing credential.
type Account interface {
	Address() common.Address
	SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// ErrAccountNotConfigured is returned by an AccountSource that has no
// credential of the requested kind.
var ErrAccountNotConfigured = errors.New("account not configured")

// AccountSource loads signing accounts from the places a network can provide them.
type AccountSource interface {
	// Preloaded returns the node's development accounts in node order.
	Preloaded() ([]Account, error)

	// Keystore loads the key file identified by id (address or file name).
	Keystore(id string) (Account, error)

	// Configured returns the account derived from configuration (wallets.from_key).
	Configured() (Account, error)
}
