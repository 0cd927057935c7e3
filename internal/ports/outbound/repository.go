package outbound

import (
	"context"
	"errors"

	"github.com/archon-research/lendpool/internal/domain/entity"
)

// ErrNotFound is returned by repositories when no matching row exists.
var ErrNotFound = errors.New("not found")

// DeploymentRepository stores contracts created by the deploy command.
type DeploymentRepository interface {
	Save(ctx context.Context, d *entity.Deployment) error

	// Latest returns the most recent deployment of contractName on network,
	// or ErrNotFound.
	Latest(ctx context.Context, network, contractName string) (*entity.Deployment, error)

	// List returns all deployments on network, newest first.
	List(ctx context.Context, network string) ([]*entity.Deployment, error)
}

// TransactionJournal records every transaction the tooling submits.
type TransactionJournal interface {
	Record(ctx context.Context, r *entity.TransactionRecord) error

	// UpdateStatus persists the settled fields of r (status, gas used, block, confirmation time).
	UpdateStatus(ctx context.Context, r *entity.TransactionRecord) error

	// List returns up to limit records for network, newest first. limit <= 0 means no limit.
	List(ctx context.Context, network string, limit int) ([]*entity.TransactionRecord, error)
}
