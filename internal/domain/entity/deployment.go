package entity

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Deployment records a contract created by the deploy command. The latest
// deployment of a contract name on a network is what later commands attach to.
type Deployment struct {
	Network      string
	ChainID      int64
	ContractName string
	Address      common.Address
	TxHash       common.Hash
	BlockNumber  uint64
	DeployedAt   time.Time
}

// NewDeployment creates a new Deployment with validation.
func NewDeployment(network string, chainID int64, contractName string, address common.Address, txHash common.Hash, blockNumber uint64, deployedAt time.Time) (*Deployment, error) {
	d := &Deployment{
		Network:      network,
		ChainID:      chainID,
		ContractName: contractName,
		Address:      address,
		TxHash:       txHash,
		BlockNumber:  blockNumber,
		DeployedAt:   deployedAt,
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Deployment) validate() error {
	if d.Network == "" {
		return fmt.Errorf("network must not be empty")
	}
	if d.ChainID <= 0 {
		return fmt.Errorf("chainID must be positive, got %d", d.ChainID)
	}
	if d.ContractName == "" {
		return fmt.Errorf("contract name must not be empty")
	}
	if !IsSet(d.Address) {
		return fmt.Errorf("address must not be zero")
	}
	if d.TxHash == (common.Hash{}) {
		return fmt.Errorf("tx hash must not be empty")
	}
	if d.DeployedAt.IsZero() {
		return fmt.Errorf("deployedAt must be set")
	}
	return nil
}
