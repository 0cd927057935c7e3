package testutil

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/archon-research/lendpool/internal/pkg/blockchain"
	"github.com/archon-research/lendpool/internal/pkg/blockchain/abis"
	"github.com/archon-research/lendpool/internal/ports/outbound"
)

// MethodFn returns the outputs of a contract method given its decoded inputs.
type MethodFn func(args []any) ([]any, error)

type contractStub struct {
	abi     *abi.ABI
	methods map[string]MethodFn
}

// FakeChain is an in-memory outbound.ChainClient. Contract reads are served
// by ABI-aware stubs registered with Handle; Multicall3 at the canonical
// address fans out to the same stubs. Sent transactions are mined instantly
// into consecutive blocks.
type FakeChain struct {
	mu sync.Mutex

	ChainIDValue int64
	// BaseFee nil makes the head pre-London and the transactor sends legacy txs.
	BaseFee      *big.Int
	GasPrice     *big.Int
	GasTip       *big.Int
	EstimatedGas uint64
	Head         uint64

	// ReceiptDelay is the number of NotFound answers before a receipt appears.
	ReceiptDelay int
	// Revert marks a transaction as failed when it returns true.
	Revert func(tx *types.Transaction) bool
	// SendErr fails every SendTransaction when set.
	SendErr error
	// ReceiptErrs are returned, in order, by the first TransactionReceipt calls.
	ReceiptErrs []error

	Balances  map[common.Address]*big.Int
	Sent      []*types.Transaction
	Estimates []ethereum.CallMsg

	stubs    map[common.Address]*contractStub
	nonces   map[common.Address]uint64
	receipts map[common.Hash]*types.Receipt
	polls    map[common.Hash]int
	mcABI    *abi.ABI
}

var _ outbound.ChainClient = (*FakeChain)(nil)

// NewFakeChain returns a London-enabled chain at block 100.
func NewFakeChain(chainID int64) *FakeChain {
	mcABI, err := abis.GetMulticall3ABI()
	if err != nil {
		panic(err)
	}
	return &FakeChain{
		ChainIDValue: chainID,
		BaseFee:      big.NewInt(1_000_000_000),
		GasPrice:     big.NewInt(2_000_000_000),
		GasTip:       big.NewInt(100_000_000),
		EstimatedGas: 90_000,
		Head:         100,
		Balances:     make(map[common.Address]*big.Int),
		stubs:        make(map[common.Address]*contractStub),
		nonces:       make(map[common.Address]uint64),
		receipts:     make(map[common.Hash]*types.Receipt),
		polls:        make(map[common.Hash]int),
		mcABI:        mcABI,
	}
}

// Handle registers method stubs for the contract at addr. Repeated calls for
// the same address merge the method sets.
func (c *FakeChain) Handle(addr common.Address, parsed *abi.ABI, methods map[string]MethodFn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stub, ok := c.stubs[addr]
	if !ok {
		stub = &contractStub{abi: parsed, methods: make(map[string]MethodFn)}
		c.stubs[addr] = stub
	}
	for name, fn := range methods {
		stub.methods[name] = fn
	}
}

// Returns is a MethodFn that ignores its inputs.
func Returns(values ...any) MethodFn {
	return func([]any) ([]any, error) { return values, nil }
}

// SentTo returns the decoded method names of transactions sent to addr, in order.
func (c *FakeChain) SentTo(addr common.Address) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, tx := range c.Sent {
		if tx.To() == nil || *tx.To() != addr {
			continue
		}
		name := "?"
		if stub, ok := c.stubs[addr]; ok && len(tx.Data()) >= 4 {
			if m, err := stub.abi.MethodById(tx.Data()[:4]); err == nil {
				name = m.Name
			}
		}
		out = append(out, name)
	}
	return out
}

func (c *FakeChain) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(c.ChainIDValue), nil
}

func (c *FakeChain) BalanceAt(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.Balances[account]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (c *FakeChain) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := &types.Header{Number: new(big.Int).SetUint64(c.Head)}
	if c.BaseFee != nil {
		h.BaseFee = new(big.Int).Set(c.BaseFee)
	}
	return h, nil
}

func (c *FakeChain) BlockNumber(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Head, nil
}

// Mine advances the head by n empty blocks.
func (c *FakeChain) Mine(n uint64) {
	c.mu.Lock()
	c.Head += n
	c.mu.Unlock()
}

func (c *FakeChain) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonces[account], nil
}

func (c *FakeChain) SuggestGasPrice(context.Context) (*big.Int, error) { return c.GasPrice, nil }

func (c *FakeChain) SuggestGasTipCap(context.Context) (*big.Int, error) { return c.GasTip, nil }

func (c *FakeChain) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Estimates = append(c.Estimates, msg)
	return c.EstimatedGas, nil
}

func (c *FakeChain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	if c.SendErr != nil {
		return c.SendErr
	}
	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(c.ChainIDValue)), tx)
	if err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if tx.Nonce() != c.nonces[from] {
		return fmt.Errorf("nonce too low: have %d, want %d", tx.Nonce(), c.nonces[from])
	}
	c.nonces[from]++
	c.Head++
	c.Sent = append(c.Sent, tx)

	status := types.ReceiptStatusSuccessful
	if c.Revert != nil && c.Revert(tx) {
		status = types.ReceiptStatusFailed
	}
	receipt := &types.Receipt{
		Status:      status,
		TxHash:      tx.Hash(),
		GasUsed:     21_000,
		BlockNumber: new(big.Int).SetUint64(c.Head),
	}
	if tx.To() == nil {
		receipt.ContractAddress = crypto.CreateAddress(from, tx.Nonce())
	}
	c.receipts[tx.Hash()] = receipt
	return nil
}

func (c *FakeChain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.ReceiptErrs) > 0 {
		err := c.ReceiptErrs[0]
		c.ReceiptErrs = c.ReceiptErrs[1:]
		return nil, err
	}
	receipt, ok := c.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	if c.polls[hash] < c.ReceiptDelay {
		c.polls[hash]++
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (c *FakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if msg.To == nil {
		return nil, errors.New("eth_call without target")
	}
	if *msg.To == blockchain.Multicall3 {
		return c.aggregate(msg.Data)
	}
	return c.call(*msg.To, msg.Data)
}

func (c *FakeChain) call(to common.Address, data []byte) ([]byte, error) {
	c.mu.Lock()
	stub, ok := c.stubs[to]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no contract at %s", to.Hex())
	}
	if len(data) < 4 {
		return nil, errors.New("calldata too short")
	}
	method, err := stub.abi.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	fn, ok := stub.methods[method.Name]
	if !ok {
		return nil, fmt.Errorf("execution reverted: %s not stubbed on %s", method.Name, to.Hex())
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("unpacking %s inputs: %w", method.Name, err)
	}
	outs, err := fn(args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(outs...)
}

type aggregateResult struct {
	Success    bool
	ReturnData []byte
}

func (c *FakeChain) aggregate(data []byte) ([]byte, error) {
	method, err := c.mcABI.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}

	if method.Name == "getEthBalance" {
		bal, _ := c.BalanceAt(context.Background(), args[0].(common.Address), nil)
		return method.Outputs.Pack(bal)
	}

	calls := reflect.ValueOf(args[0])
	results := make([]aggregateResult, calls.Len())
	for i := range results {
		entry := calls.Index(i)
		target := entry.FieldByName("Target").Interface().(common.Address)
		callData := entry.FieldByName("CallData").Bytes()
		allowFailure := entry.FieldByName("AllowFailure").Bool()

		var out []byte
		if target == blockchain.Multicall3 {
			out, err = c.aggregate(callData)
		} else {
			out, err = c.call(target, callData)
		}
		if err != nil {
			if !allowFailure {
				return nil, fmt.Errorf("multicall3: call %d failed: %w", i, err)
			}
			results[i] = aggregateResult{Success: false, ReturnData: []byte{}}
			continue
		}
		results[i] = aggregateResult{Success: true, ReturnData: out}
	}
	return method.Outputs.Pack(results)
}
