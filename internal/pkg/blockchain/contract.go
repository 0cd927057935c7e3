package blockchain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/lendpool/internal/ports/outbound"
)

// Contract pairs a deployed address with the ABI used to talk to it.
type Contract struct {
	Address common.Address
	ABI     *abi.ABI
}

func NewContract(address common.Address, parsed *abi.ABI) *Contract {
	return &Contract{Address: address, ABI: parsed}
}

// Pack encodes a call to method.
func (c *Contract) Pack(method string, args ...any) ([]byte, error) {
	data, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", method, err)
	}
	return data, nil
}

// Unpack decodes the return data of method.
func (c *Contract) Unpack(method string, data []byte) ([]any, error) {
	out, err := c.ABI.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("unpacking %s: %w", method, err)
	}
	return out, nil
}

// Call performs a read-only eth_call of method at the latest block.
func (c *Contract) Call(ctx context.Context, caller ethereum.ContractCaller, method string, args ...any) ([]any, error) {
	data, err := c.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	raw, err := caller.CallContract(ctx, ethereum.CallMsg{To: &c.Address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("calling %s on %s: %w", method, c.Address.Hex(), err)
	}
	return c.Unpack(method, raw)
}

// MulticallEntry builds a Multicall3 entry for method.
func (c *Contract) MulticallEntry(allowFailure bool, method string, args ...any) (outbound.Call, error) {
	data, err := c.Pack(method, args...)
	if err != nil {
		return outbound.Call{}, err
	}
	return outbound.Call{Target: c.Address, AllowFailure: allowFailure, CallData: data}, nil
}

// CallOne calls a single-output method and asserts its Go type.
func CallOne[T any](ctx context.Context, caller ethereum.ContractCaller, c *Contract, method string, args ...any) (T, error) {
	var zero T
	out, err := c.Call(ctx, caller, method, args...)
	if err != nil {
		return zero, err
	}
	return firstAs[T](method, out)
}

// UnpackOne decodes single-output return data, typically from a multicall result.
func UnpackOne[T any](c *Contract, method string, data []byte) (T, error) {
	var zero T
	out, err := c.Unpack(method, data)
	if err != nil {
		return zero, err
	}
	return firstAs[T](method, out)
}

func firstAs[T any](method string, out []any) (T, error) {
	var zero T
	if len(out) == 0 {
		return zero, fmt.Errorf("%s returned no values", method)
	}
	v, ok := out[0].(T)
	if !ok {
		return zero, fmt.Errorf("unexpected return type from %s: %T", method, out[0])
	}
	return v, nil
}
