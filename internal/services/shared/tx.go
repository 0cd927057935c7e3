// Package shared provides helpers used by more than one application service.
package shared

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/archon-research/lendpool/internal/ports/outbound"
)

// SendAndWait submits req and blocks until the transaction is mined.
// Every state-changing service call goes through here so that no dependent
// call can start before its predecessor is final.
func SendAndWait(ctx context.Context, transactor outbound.Transactor, req outbound.TxRequest) (*types.Receipt, error) {
	tx, err := transactor.Send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("sending %s: %w", req.Action, err)
	}
	receipt, err := transactor.WaitMined(ctx, tx)
	if err != nil {
		return receipt, fmt.Errorf("waiting for %s %s: %w", req.Action, tx.Hash().Hex(), err)
	}
	return receipt, nil
}
