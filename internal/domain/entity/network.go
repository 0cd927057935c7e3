// Package entity contains the domain types shared by the lending pool tooling.
// They carry no I/O and depend only on go-ethereum value types.
package entity

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Contracts holds the externally deployed contract addresses known for a network.
// A zero address means "not configured".
type Contracts struct {
	PoolAddressesProvider common.Address
	Pool                  common.Address
	WETH                  common.Address
	Oracle                common.Address
}

// Network describes the chain a command runs against.
type Network struct {
	Name    string
	ChainID int64
	RPCURL  string

	// Local marks local or forked test chains whose node exposes the
	// well-known development accounts.
	Local bool

	// GasLimit is the fixed gas limit for state-changing transactions.
	// Zero means estimate per transaction.
	GasLimit uint64

	// Confirmations is the number of blocks to wait after inclusion.
	Confirmations uint64

	Contracts Contracts
}

// Validate checks that the network can be dialled.
func (n *Network) Validate() error {
	if n.Name == "" {
		return fmt.Errorf("invalid network name")
	}
	if n.RPCURL == "" {
		return fmt.Errorf("network %q: rpc_url is required", n.Name)
	}
	if n.ChainID < 0 {
		return fmt.Errorf("network %q: chain_id must not be negative, got %d", n.Name, n.ChainID)
	}
	return nil
}

// IsSet reports whether addr holds a configured, non-zero address.
func IsSet(addr common.Address) bool {
	return addr != (common.Address{})
}
