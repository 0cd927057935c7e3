package outbound

import (
	"context"
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	EventTypeTransactionConfirmed EventType = "transaction_confirmed"
	EventTypeContractDeployed     EventType = "contract_deployed"
)

// Event is the interface that all event types implement.
type Event interface {
	EventType() EventType
	GetChainID() int64
	GetNetwork() string
}

// TransactionConfirmedEvent is published once a transaction has been mined.
type TransactionConfirmedEvent struct {
	ChainID     int64     `json:"chainId"`
	Network     string    `json:"network"`
	Action      string    `json:"action"`
	TxHash      string    `json:"txHash"`
	From        string    `json:"from"`
	To          string    `json:"to,omitempty"`
	Status      string    `json:"status"`
	BlockNumber uint64    `json:"blockNumber"`
	GasUsed     uint64    `json:"gasUsed"`
	ConfirmedAt time.Time `json:"confirmedAt"`
}

func (e TransactionConfirmedEvent) EventType() EventType { return EventTypeTransactionConfirmed }
func (e TransactionConfirmedEvent) GetChainID() int64    { return e.ChainID }
func (e TransactionConfirmedEvent) GetNetwork() string   { return e.Network }

// ContractDeployedEvent is published after a deployment has been recorded.
type ContractDeployedEvent struct {
	ChainID      int64     `json:"chainId"`
	Network      string    `json:"network"`
	ContractName string    `json:"contractName"`
	Address      string    `json:"address"`
	TxHash       string    `json:"txHash"`
	BlockNumber  uint64    `json:"blockNumber"`
	DeployedAt   time.Time `json:"deployedAt"`
}

func (e ContractDeployedEvent) EventType() EventType { return EventTypeContractDeployed }
func (e ContractDeployedEvent) GetChainID() int64    { return e.ChainID }
func (e ContractDeployedEvent) GetNetwork() string   { return e.Network }

// EventSink publishes transaction lifecycle events.
type EventSink interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
