package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/archon-research/lendpool/internal/domain/entity"
	"github.com/archon-research/lendpool/internal/ports/outbound"
)

var _ outbound.DeploymentRepository = (*DeploymentRepository)(nil)

// DeploymentRepository is a PostgreSQL implementation of outbound.DeploymentRepository.
type DeploymentRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewDeploymentRepository creates a repository backed by pool.
func NewDeploymentRepository(pool *pgxpool.Pool, logger *slog.Logger) (*DeploymentRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DeploymentRepository{
		pool:   pool,
		logger: logger.With("component", "deployment-repository"),
	}, nil
}

func (r *DeploymentRepository) Save(ctx context.Context, d *entity.Deployment) error {
	if d == nil {
		return fmt.Errorf("deployment cannot be nil")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO deployments (network, chain_id, contract_name, address, tx_hash, block_number, deployed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.Network, d.ChainID, d.ContractName, d.Address.Bytes(), d.TxHash.Bytes(), int64(d.BlockNumber), d.DeployedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert deployment: %w", err)
	}
	r.logger.Debug("deployment saved", "network", d.Network, "contract", d.ContractName, "address", d.Address.Hex())
	return nil
}

func (r *DeploymentRepository) Latest(ctx context.Context, network, contractName string) (*entity.Deployment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT network, chain_id, contract_name, address, tx_hash, block_number, deployed_at
		FROM deployments
		WHERE network = $1 AND contract_name = $2
		ORDER BY deployed_at DESC, id DESC
		LIMIT 1`,
		network, contractName)

	d, err := scanDeployment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, outbound.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest deployment: %w", err)
	}
	return d, nil
}

func (r *DeploymentRepository) List(ctx context.Context, network string) ([]*entity.Deployment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT network, chain_id, contract_name, address, tx_hash, block_number, deployed_at
		FROM deployments
		WHERE network = $1
		ORDER BY deployed_at DESC, id DESC`,
		network)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}
	defer rows.Close()

	var out []*entity.Deployment
	for rows.Next() {
		d, err := scanDeployment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deployment: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDeployment(row pgx.Row) (*entity.Deployment, error) {
	var (
		d           entity.Deployment
		address     []byte
		txHash      []byte
		blockNumber int64
		deployedAt  time.Time
	)
	if err := row.Scan(&d.Network, &d.ChainID, &d.ContractName, &address, &txHash, &blockNumber, &deployedAt); err != nil {
		return nil, err
	}
	d.Address = common.BytesToAddress(address)
	d.TxHash = common.BytesToHash(txHash)
	d.BlockNumber = uint64(blockNumber)
	d.DeployedAt = deployedAt
	return &d, nil
}
