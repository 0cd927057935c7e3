package filestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/archon-research/lendpool/internal/domain/entity"
	"github.com/archon-research/lendpool/internal/ports/outbound"
)

var _ outbound.TransactionJournal = (*TransactionJournal)(nil)

type transactionRow struct {
	ID          uuid.UUID       `json:"id"`
	Network     string          `json:"network"`
	ChainID     int64           `json:"chain_id"`
	Action      string          `json:"action"`
	From        common.Address  `json:"from"`
	To          *common.Address `json:"to,omitempty"`
	Hash        common.Hash     `json:"tx_hash"`
	Status      entity.TxStatus `json:"status"`
	GasUsed     uint64          `json:"gas_used,omitempty"`
	BlockNumber uint64          `json:"block_number,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
	ConfirmedAt *time.Time      `json:"confirmed_at,omitempty"`
}

func (r transactionRow) entity() *entity.TransactionRecord {
	return &entity.TransactionRecord{
		ID:          r.ID,
		Network:     r.Network,
		ChainID:     r.ChainID,
		Action:      r.Action,
		From:        r.From,
		To:          r.To,
		Hash:        r.Hash,
		Status:      r.Status,
		GasUsed:     r.GasUsed,
		BlockNumber: r.BlockNumber,
		SubmittedAt: r.SubmittedAt,
		ConfirmedAt: r.ConfirmedAt,
	}
}

// TransactionJournal stores records in <dir>/<network>/transactions.json.
type TransactionJournal struct {
	dir    string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewTransactionJournal creates a journal rooted at dir.
func NewTransactionJournal(dir string, logger *slog.Logger) (*TransactionJournal, error) {
	if dir == "" {
		return nil, errors.New("data directory is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionJournal{
		dir:    dir,
		logger: logger.With("component", "transaction-file-journal"),
	}, nil
}

func (j *TransactionJournal) Record(_ context.Context, r *entity.TransactionRecord) error {
	if r == nil {
		return errors.New("record cannot be nil")
	}
	path, err := networkPath(j.dir, r.Network, transactionsFile)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	rows, err := readRows[transactionRow](path)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if row.Hash == r.Hash {
			return fmt.Errorf("transaction %s already recorded", r.Hash.Hex())
		}
	}
	row := transactionRow{
		ID:          r.ID,
		Network:     r.Network,
		ChainID:     r.ChainID,
		Action:      r.Action,
		From:        r.From,
		To:          r.To,
		Hash:        r.Hash,
		Status:      r.Status,
		GasUsed:     r.GasUsed,
		BlockNumber: r.BlockNumber,
		SubmittedAt: r.SubmittedAt.UTC(),
		ConfirmedAt: r.ConfirmedAt,
	}
	if err := writeRows(path, append(rows, row)); err != nil {
		return fmt.Errorf("recording transaction: %w", err)
	}
	return nil
}

func (j *TransactionJournal) UpdateStatus(_ context.Context, r *entity.TransactionRecord) error {
	if r == nil {
		return errors.New("record cannot be nil")
	}
	path, err := networkPath(j.dir, r.Network, transactionsFile)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	rows, err := readRows[transactionRow](path)
	if err != nil {
		return err
	}
	for i := range rows {
		if rows[i].ID != r.ID {
			continue
		}
		rows[i].Status = r.Status
		rows[i].GasUsed = r.GasUsed
		rows[i].BlockNumber = r.BlockNumber
		rows[i].ConfirmedAt = r.ConfirmedAt
		if err := writeRows(path, rows); err != nil {
			return fmt.Errorf("updating transaction: %w", err)
		}
		j.logger.Debug("transaction status updated", "hash", r.Hash.Hex(), "status", r.Status)
		return nil
	}
	return fmt.Errorf("transaction %s: %w", r.Hash.Hex(), outbound.ErrNotFound)
}

// List returns records newest first; equal timestamps keep the later record first.
func (j *TransactionJournal) List(_ context.Context, network string, limit int) ([]*entity.TransactionRecord, error) {
	path, err := networkPath(j.dir, network, transactionsFile)
	if err != nil {
		return nil, err
	}

	j.mu.Lock()
	rows, err := readRows[transactionRow](path)
	j.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]*entity.TransactionRecord, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Network == network {
			out = append(out, rows[i].entity())
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].SubmittedAt.After(out[b].SubmittedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
