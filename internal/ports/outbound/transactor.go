package outbound

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TxRequest describes a state-changing call. A nil To creates a contract.
type TxRequest struct {
	// Action names the operation for logs, metrics and the journal (e.g. "supply").
	Action string
	From   Account
	To     *common.Address
	Data   []byte
	Value  *big.Int

	// GasLimit overrides the network's configured limit when non-zero.
	// Contract creations without one are estimated.
	GasLimit uint64
}

// Transactor submits transactions and waits for them to be mined.
//
// Callers must WaitMined a transaction before issuing any call that depends
// on its effects.
type Transactor interface {
	Send(ctx context.Context, req TxRequest) (*types.Transaction, error)
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}
