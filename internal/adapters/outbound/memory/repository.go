// Package memory provides in-memory implementations of the persistence,
// cache and event ports. State lives for the lifetime of the process.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/archon-research/lendpool/internal/domain/entity"
	"github.com/archon-research/lendpool/internal/ports/outbound"
)

var (
	_ outbound.DeploymentRepository = (*DeploymentRepository)(nil)
	_ outbound.TransactionJournal   = (*TransactionJournal)(nil)
)

// DeploymentRepository keeps deployments in insertion order.
type DeploymentRepository struct {
	mu          sync.RWMutex
	deployments []entity.Deployment
}

func NewDeploymentRepository() *DeploymentRepository {
	return &DeploymentRepository{}
}

func (r *DeploymentRepository) Save(_ context.Context, d *entity.Deployment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deployments = append(r.deployments, *d)
	return nil
}

func (r *DeploymentRepository) Latest(_ context.Context, network, contractName string) (*entity.Deployment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.deployments) - 1; i >= 0; i-- {
		d := r.deployments[i]
		if d.Network == network && d.ContractName == contractName {
			return &d, nil
		}
	}
	return nil, outbound.ErrNotFound
}

func (r *DeploymentRepository) List(_ context.Context, network string) ([]*entity.Deployment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.Deployment, 0)
	for i := len(r.deployments) - 1; i >= 0; i-- {
		if r.deployments[i].Network == network {
			d := r.deployments[i]
			out = append(out, &d)
		}
	}
	return out, nil
}

// TransactionJournal keeps records keyed by ID.
type TransactionJournal struct {
	mu      sync.RWMutex
	records map[string]entity.TransactionRecord
}

func NewTransactionJournal() *TransactionJournal {
	return &TransactionJournal{records: make(map[string]entity.TransactionRecord)}
}

func (j *TransactionJournal) Record(_ context.Context, r *entity.TransactionRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records[r.ID.String()] = *r
	return nil
}

func (j *TransactionJournal) UpdateStatus(_ context.Context, r *entity.TransactionRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	existing, ok := j.records[r.ID.String()]
	if !ok {
		return outbound.ErrNotFound
	}
	existing.Status = r.Status
	existing.GasUsed = r.GasUsed
	existing.BlockNumber = r.BlockNumber
	existing.ConfirmedAt = r.ConfirmedAt
	j.records[r.ID.String()] = existing
	return nil
}

func (j *TransactionJournal) List(_ context.Context, network string, limit int) ([]*entity.TransactionRecord, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]*entity.TransactionRecord, 0, len(j.records))
	for _, r := range j.records {
		if r.Network == network {
			rec := r
			out = append(out, &rec)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].SubmittedAt.After(out[b].SubmittedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
