package multicall

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/lendpool/internal/pkg/blockchain/abis"
	"github.com/archon-research/lendpool/internal/ports/outbound"
)

type packedResult struct {
	Success    bool
	ReturnData []byte
}

// stubCaller answers aggregate3 with canned results and records the request.
type stubCaller struct {
	results []packedResult
	err     error
	gotTo   common.Address
	gotLen  int
}

func (s *stubCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.gotTo = *msg.To
	// selector(4) + offset(32) + length(32)
	s.gotLen = int(new(big.Int).SetBytes(msg.Data[36:68]).Int64())

	mcABI, err := abis.GetMulticall3ABI()
	if err != nil {
		return nil, err
	}
	return mcABI.Methods["aggregate3"].Outputs.Pack(s.results)
}

func newTestClient(t *testing.T, caller ethereum.ContractCaller) *Client {
	t.Helper()
	c, err := NewClient(caller, common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestExecute_EmptyCalls(t *testing.T) {
	c := newTestClient(t, &stubCaller{err: errors.New("should not be called")})
	results, err := c.Execute(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestExecute_DecodesResults(t *testing.T) {
	stub := &stubCaller{results: []packedResult{
		{Success: true, ReturnData: []byte{0x01}},
		{Success: false, ReturnData: []byte{}},
	}}
	c := newTestClient(t, stub)

	calls := []outbound.Call{
		{Target: common.HexToAddress("0x01"), AllowFailure: false, CallData: []byte{0xaa}},
		{Target: common.HexToAddress("0x02"), AllowFailure: true, CallData: []byte{0xbb}},
	}
	results, err := c.Execute(context.Background(), calls, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stub.gotTo != c.Address() {
		t.Errorf("called %s, want %s", stub.gotTo.Hex(), c.Address().Hex())
	}
	if stub.gotLen != 2 {
		t.Errorf("encoded %d calls, want 2", stub.gotLen)
	}
	if len(results) != 2 || !results[0].Success || results[1].Success {
		t.Fatalf("unexpected results: %+v", results)
	}
	if results[0].ReturnData[0] != 0x01 {
		t.Errorf("ReturnData = %x, want 01", results[0].ReturnData)
	}
}

func TestExecute_RequiredEntryFails(t *testing.T) {
	stub := &stubCaller{results: []packedResult{{Success: false, ReturnData: []byte{}}}}
	c := newTestClient(t, stub)

	_, err := c.Execute(context.Background(), []outbound.Call{
		{Target: common.HexToAddress("0x01"), AllowFailure: false, CallData: []byte{0xaa}},
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "entry 0") {
		t.Fatalf("expected entry failure, got %v", err)
	}
}

func TestExecute_PropagatesCallError(t *testing.T) {
	c := newTestClient(t, &stubCaller{err: errors.New("connection refused")})

	_, err := c.Execute(context.Background(), []outbound.Call{{Target: common.HexToAddress("0x01")}}, big.NewInt(5))
	if err == nil || !strings.Contains(err.Error(), "block=5") {
		t.Fatalf("expected wrapped call error, got %v", err)
	}
}
