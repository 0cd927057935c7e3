package entity

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// TxStatus is the lifecycle state of a submitted transaction.
type TxStatus string

const (
	TxStatusPending   TxStatus = "pending"
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusReverted  TxStatus = "reverted"
)

// Valid reports whether s is a known status.
func (s TxStatus) Valid() bool {
	switch s {
	case TxStatusPending, TxStatusConfirmed, TxStatusReverted:
		return true
	}
	return false
}

// TransactionRecord is a journal entry for a transaction sent by the tooling.
type TransactionRecord struct {
	ID          uuid.UUID
	Network     string
	ChainID     int64
	Action      string
	From        common.Address
	To          *common.Address // nil for contract creation
	Hash        common.Hash
	Status      TxStatus
	GasUsed     uint64
	BlockNumber uint64
	SubmittedAt time.Time
	ConfirmedAt *time.Time
}

// NewTransactionRecord creates a pending record for a just-submitted transaction.
func NewTransactionRecord(network string, chainID int64, action string, from common.Address, to *common.Address, hash common.Hash, submittedAt time.Time) (*TransactionRecord, error) {
	r := &TransactionRecord{
		ID:          uuid.New(),
		Network:     network,
		ChainID:     chainID,
		Action:      action,
		From:        from,
		To:          to,
		Hash:        hash,
		Status:      TxStatusPending,
		SubmittedAt: submittedAt,
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *TransactionRecord) validate() error {
	if r.Network == "" {
		return fmt.Errorf("network must not be empty")
	}
	if r.ChainID <= 0 {
		return fmt.Errorf("chainID must be positive, got %d", r.ChainID)
	}
	if r.Action == "" {
		return fmt.Errorf("action must not be empty")
	}
	if r.Hash == (common.Hash{}) {
		return fmt.Errorf("hash must not be empty")
	}
	if !r.Status.Valid() {
		return fmt.Errorf("invalid status %q", r.Status)
	}
	return nil
}

// Settle marks the record as mined with the given outcome.
func (r *TransactionRecord) Settle(status TxStatus, gasUsed, blockNumber uint64, at time.Time) error {
	if status == TxStatusPending || !status.Valid() {
		return fmt.Errorf("cannot settle with status %q", status)
	}
	r.Status = status
	r.GasUsed = gasUsed
	r.BlockNumber = blockNumber
	r.ConfirmedAt = &at
	return nil
}
