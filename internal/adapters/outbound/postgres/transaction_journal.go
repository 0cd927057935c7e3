package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/archon-research/lendpool/internal/domain/entity"
	"github.com/archon-research/lendpool/internal/ports/outbound"
)

var _ outbound.TransactionJournal = (*TransactionJournal)(nil)

// TransactionJournal is a PostgreSQL implementation of outbound.TransactionJournal.
type TransactionJournal struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewTransactionJournal creates a journal backed by pool.
func NewTransactionJournal(pool *pgxpool.Pool, logger *slog.Logger) (*TransactionJournal, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionJournal{
		pool:   pool,
		logger: logger.With("component", "transaction-journal"),
	}, nil
}

func (j *TransactionJournal) Record(ctx context.Context, r *entity.TransactionRecord) error {
	if r == nil {
		return fmt.Errorf("record cannot be nil")
	}
	var to []byte
	if r.To != nil {
		to = r.To.Bytes()
	}
	_, err := j.pool.Exec(ctx, `
		INSERT INTO transactions (id, network, chain_id, action, from_address, to_address, tx_hash, status, gas_used, block_number, submitted_at, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		r.ID, r.Network, r.ChainID, r.Action, r.From.Bytes(), to, r.Hash.Bytes(), string(r.Status),
		int64(r.GasUsed), int64(r.BlockNumber), r.SubmittedAt.UTC(), r.ConfirmedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", r.Hash.Hex(), err)
	}
	return nil
}

func (j *TransactionJournal) UpdateStatus(ctx context.Context, r *entity.TransactionRecord) error {
	if r == nil {
		return fmt.Errorf("record cannot be nil")
	}

	tx, err := j.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, tx, j.logger)

	tag, err := tx.Exec(ctx, `
		UPDATE transactions
		SET status = $2, gas_used = $3, block_number = $4, confirmed_at = $5
		WHERE id = $1`,
		r.ID, string(r.Status), int64(r.GasUsed), int64(r.BlockNumber), r.ConfirmedAt)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", r.Hash.Hex(), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s: %w", r.ID, outbound.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (j *TransactionJournal) List(ctx context.Context, network string, limit int) ([]*entity.TransactionRecord, error) {
	query := `
		SELECT id, network, chain_id, action, from_address, to_address, tx_hash, status, gas_used, block_number, submitted_at, confirmed_at
		FROM transactions
		WHERE network = $1
		ORDER BY submitted_at DESC`
	args := []any{network}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := j.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var out []*entity.TransactionRecord
	for rows.Next() {
		r, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanTransaction(row pgx.Row) (*entity.TransactionRecord, error) {
	var (
		r           entity.TransactionRecord
		id          uuid.UUID
		from, to    []byte
		hash        []byte
		status      string
		gasUsed     int64
		blockNumber int64
		submittedAt time.Time
		confirmedAt *time.Time
	)
	if err := row.Scan(&id, &r.Network, &r.ChainID, &r.Action, &from, &to, &hash, &status, &gasUsed, &blockNumber, &submittedAt, &confirmedAt); err != nil {
		return nil, err
	}
	r.ID = id
	r.From = common.BytesToAddress(from)
	if to != nil {
		addr := common.BytesToAddress(to)
		r.To = &addr
	}
	r.Hash = common.BytesToHash(hash)
	r.Status = entity.TxStatus(status)
	r.GasUsed = uint64(gasUsed)
	r.BlockNumber = uint64(blockNumber)
	r.SubmittedAt = submittedAt
	r.ConfirmedAt = confirmedAt
	return &r, nil
}
