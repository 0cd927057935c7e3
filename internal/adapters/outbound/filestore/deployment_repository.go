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

	"github.com/archon-research/lendpool/internal/domain/entity"
	"github.com/archon-research/lendpool/internal/ports/outbound"
)

var _ outbound.DeploymentRepository = (*DeploymentRepository)(nil)

type deploymentRow struct {
	Network      string         `json:"network"`
	ChainID      int64          `json:"chain_id"`
	ContractName string         `json:"contract_name"`
	Address      common.Address `json:"address"`
	TxHash       common.Hash    `json:"tx_hash"`
	BlockNumber  uint64         `json:"block_number"`
	DeployedAt   time.Time      `json:"deployed_at"`
}

func (r deploymentRow) entity() *entity.Deployment {
	return &entity.Deployment{
		Network:      r.Network,
		ChainID:      r.ChainID,
		ContractName: r.ContractName,
		Address:      r.Address,
		TxHash:       r.TxHash,
		BlockNumber:  r.BlockNumber,
		DeployedAt:   r.DeployedAt,
	}
}

// DeploymentRepository stores deployments in <dir>/<network>/deployments.json.
type DeploymentRepository struct {
	dir    string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewDeploymentRepository creates a repository rooted at dir.
func NewDeploymentRepository(dir string, logger *slog.Logger) (*DeploymentRepository, error) {
	if dir == "" {
		return nil, errors.New("data directory is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DeploymentRepository{
		dir:    dir,
		logger: logger.With("component", "deployment-file-repository"),
	}, nil
}

func (r *DeploymentRepository) Save(_ context.Context, d *entity.Deployment) error {
	if d == nil {
		return errors.New("deployment cannot be nil")
	}
	path, err := networkPath(r.dir, d.Network, deploymentsFile)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := readRows[deploymentRow](path)
	if err != nil {
		return err
	}
	rows = append(rows, deploymentRow{
		Network:      d.Network,
		ChainID:      d.ChainID,
		ContractName: d.ContractName,
		Address:      d.Address,
		TxHash:       d.TxHash,
		BlockNumber:  d.BlockNumber,
		DeployedAt:   d.DeployedAt.UTC(),
	})
	if err := writeRows(path, rows); err != nil {
		return fmt.Errorf("saving deployment: %w", err)
	}
	r.logger.Debug("deployment saved", "path", path, "contract", d.ContractName, "address", d.Address.Hex())
	return nil
}

func (r *DeploymentRepository) Latest(ctx context.Context, network, contractName string) (*entity.Deployment, error) {
	list, err := r.List(ctx, network)
	if err != nil {
		return nil, err
	}
	for _, d := range list {
		if d.ContractName == contractName {
			return d, nil
		}
	}
	return nil, outbound.ErrNotFound
}

// List returns deployments newest first; equal timestamps keep the later save first.
func (r *DeploymentRepository) List(_ context.Context, network string) ([]*entity.Deployment, error) {
	path, err := networkPath(r.dir, network, deploymentsFile)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	rows, err := readRows[deploymentRow](path)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]*entity.Deployment, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Network == network {
			out = append(out, rows[i].entity())
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].DeployedAt.After(out[b].DeployedAt)
	})
	return out, nil
}
