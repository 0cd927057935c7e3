package ethereum

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/archon-research/lendpool/internal/adapters/outbound/memory"
	"github.com/archon-research/lendpool/internal/domain/entity"
	"github.com/archon-research/lendpool/internal/pkg/retry"
	"github.com/archon-research/lendpool/internal/ports/outbound"
	"github.com/archon-research/lendpool/internal/testutil"
)

type recordedSettle struct {
	action, status string
}

type fakeMetrics struct {
	submitted []string
	settled   []recordedSettle
}

func (m *fakeMetrics) RecordTransactionSubmitted(_ context.Context, action string) {
	m.submitted = append(m.submitted, action)
}

func (m *fakeMetrics) RecordTransactionSettled(_ context.Context, action, status string, _ time.Duration) {
	m.settled = append(m.settled, recordedSettle{action, status})
}

type harness struct {
	chain   *testutil.FakeChain
	journal *memory.TransactionJournal
	events  *memory.EventSink
	metrics *fakeMetrics
	tx      *Transactor
	account *testutil.KeyAccount
}

func newHarness(t *testing.T, network *entity.Network) *harness {
	t.Helper()
	h := &harness{
		chain:   testutil.NewFakeChain(network.ChainID),
		journal: memory.NewTransactionJournal(),
		events:  memory.NewEventSink(),
		metrics: &fakeMetrics{},
		account: testutil.NewKeyAccount(t, testutil.DevKey0),
	}
	tx, err := NewTransactor(h.chain, TransactorConfig{
		Network:         network,
		PollInterval:    time.Millisecond,
		MaxPollInterval: 2 * time.Millisecond,
		MineTimeout:     time.Second,
		Journal:         h.journal,
		Events:          h.events,
		Metrics:         h.metrics,
		Logger:          testutil.DiscardLogger(),
	})
	if err != nil {
		t.Fatalf("NewTransactor: %v", err)
	}
	h.tx = tx
	return h
}

func hardhat() *entity.Network {
	return &entity.Network{Name: "hardhat", ChainID: 31337, RPCURL: "http://127.0.0.1:8545", Local: true, GasLimit: 2074040, Confirmations: 1}
}

func TestNewTransactor_Validation(t *testing.T) {
	if _, err := NewTransactor(nil, TransactorConfig{Network: hardhat()}); err == nil {
		t.Error("expected error for nil client")
	}
	if _, err := NewTransactor(testutil.NewFakeChain(1), TransactorConfig{}); err == nil {
		t.Error("expected error for missing network")
	}
}

func TestTransactor_SendBuildsDynamicFeeTx(t *testing.T) {
	h := newHarness(t, hardhat())
	to := common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")

	tx, err := h.tx.Send(context.Background(), outbound.TxRequest{
		Action: "wrap",
		From:   h.account,
		To:     &to,
		Data:   []byte{0xd0, 0xe3, 0x0d, 0xb0},
		Value:  big.NewInt(1e17),
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if tx.Type() != types.DynamicFeeTxType {
		t.Errorf("type = %d, want dynamic fee", tx.Type())
	}
	if tx.Gas() != 2074040 {
		t.Errorf("gas = %d, want the configured fixed limit", tx.Gas())
	}
	// tip + 2 * baseFee
	if want := big.NewInt(100_000_000 + 2*1_000_000_000); tx.GasFeeCap().Cmp(want) != 0 {
		t.Errorf("fee cap = %s, want %s", tx.GasFeeCap(), want)
	}
	if tx.Value().Cmp(big.NewInt(1e17)) != 0 {
		t.Errorf("value = %s", tx.Value())
	}

	records, _ := h.journal.List(context.Background(), "hardhat", 0)
	if len(records) != 1 || records[0].Status != entity.TxStatusPending || records[0].Action != "wrap" {
		t.Fatalf("unexpected journal: %+v", records)
	}
	if len(h.metrics.submitted) != 1 {
		t.Errorf("submitted metrics = %v", h.metrics.submitted)
	}
}

func TestTransactor_SendLegacyAndEstimate(t *testing.T) {
	network := hardhat()
	network.GasLimit = 0
	h := newHarness(t, network)
	h.chain.BaseFee = nil
	to := common.HexToAddress("0x01")

	tx, err := h.tx.Send(context.Background(), outbound.TxRequest{Action: "approve", From: h.account, To: &to})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if tx.Type() != types.LegacyTxType {
		t.Errorf("type = %d, want legacy", tx.Type())
	}
	if tx.Gas() != h.chain.EstimatedGas {
		t.Errorf("gas = %d, want estimate %d", tx.Gas(), h.chain.EstimatedGas)
	}
	if tx.GasPrice().Cmp(h.chain.GasPrice) != 0 {
		t.Errorf("gas price = %s", tx.GasPrice())
	}

	// A per-request limit wins over estimation.
	tx, err = h.tx.Send(context.Background(), outbound.TxRequest{Action: "approve", From: h.account, To: &to, GasLimit: 60000})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if tx.Gas() != 60000 || tx.Nonce() != 1 {
		t.Errorf("gas=%d nonce=%d, want 60000 and 1", tx.Gas(), tx.Nonce())
	}
}

func TestTransactor_WaitMinedPollsUntilReceipt(t *testing.T) {
	h := newHarness(t, hardhat())
	h.chain.ReceiptDelay = 3
	to := common.HexToAddress("0x01")

	tx, err := h.tx.Send(context.Background(), outbound.TxRequest{Action: "supply", From: h.account, To: &to})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	receipt, err := h.tx.WaitMined(context.Background(), tx)
	if err != nil {
		t.Fatalf("WaitMined: %v", err)
	}
	if receipt.TxHash != tx.Hash() {
		t.Errorf("receipt hash = %s", receipt.TxHash.Hex())
	}

	records, _ := h.journal.List(context.Background(), "hardhat", 0)
	if records[0].Status != entity.TxStatusConfirmed || records[0].ConfirmedAt == nil {
		t.Errorf("journal not settled: %+v", records[0])
	}

	events := h.events.GetEventsByType(outbound.EventTypeTransactionConfirmed)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	ev := events[0].(outbound.TransactionConfirmedEvent)
	if ev.Action != "supply" || ev.Status != "confirmed" || ev.From != h.account.Address().Hex() {
		t.Errorf("unexpected event %+v", ev)
	}
	if len(h.metrics.settled) != 1 || h.metrics.settled[0] != (recordedSettle{"supply", "confirmed"}) {
		t.Errorf("settled metrics = %+v", h.metrics.settled)
	}
}

func TestTransactor_WaitMinedReverted(t *testing.T) {
	h := newHarness(t, hardhat())
	h.chain.Revert = func(*types.Transaction) bool { return true }
	to := common.HexToAddress("0x01")

	tx, err := h.tx.Send(context.Background(), outbound.TxRequest{Action: "borrow", From: h.account, To: &to})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	receipt, err := h.tx.WaitMined(context.Background(), tx)
	if !errors.Is(err, ErrTransactionReverted) {
		t.Fatalf("expected ErrTransactionReverted, got %v", err)
	}
	if receipt == nil || receipt.Status != types.ReceiptStatusFailed {
		t.Errorf("expected failed receipt, got %+v", receipt)
	}

	records, _ := h.journal.List(context.Background(), "hardhat", 0)
	if records[0].Status != entity.TxStatusReverted {
		t.Errorf("journal status = %s, want reverted", records[0].Status)
	}
}

func TestTransactor_WaitMinedTimesOut(t *testing.T) {
	h := newHarness(t, hardhat())
	h.chain.ReceiptDelay = 1 << 30
	h.tx.config.MineTimeout = 20 * time.Millisecond
	to := common.HexToAddress("0x01")

	tx, err := h.tx.Send(context.Background(), outbound.TxRequest{Action: "supply", From: h.account, To: &to})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := h.tx.WaitMined(context.Background(), tx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if len(h.metrics.settled) != 1 || h.metrics.settled[0].status != "failed" {
		t.Errorf("settled metrics = %+v", h.metrics.settled)
	}
}

func TestTransactor_WaitsForConfirmations(t *testing.T) {
	network := hardhat()
	network.Confirmations = 3
	h := newHarness(t, network)
	to := common.HexToAddress("0x01")

	tx, err := h.tx.Send(context.Background(), outbound.TxRequest{Action: "supply", From: h.account, To: &to})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := h.tx.WaitMined(context.Background(), tx)
		done <- err
	}()

	select {
	case err := <-done:
		t.Fatalf("returned before confirmations: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	h.chain.Mine(2)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("WaitMined: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitMined did not return after confirmations")
	}
}

func TestTransactor_SendError(t *testing.T) {
	h := newHarness(t, hardhat())
	h.chain.SendErr = errors.New("insufficient funds")
	to := common.HexToAddress("0x01")

	if _, err := h.tx.Send(context.Background(), outbound.TxRequest{Action: "supply", From: h.account, To: &to}); err == nil {
		t.Fatal("expected send error")
	}
	if _, err := h.tx.Send(context.Background(), outbound.TxRequest{Action: "supply", To: &to}); err == nil {
		t.Fatal("expected error for missing sender")
	}
	records, _ := h.journal.List(context.Background(), "hardhat", 0)
	if len(records) != 0 {
		t.Errorf("failed sends must not be journaled: %+v", records)
	}
}

func TestTransactor_ContractCreationEstimatesGas(t *testing.T) {
	h := newHarness(t, hardhat())
	h.chain.EstimatedGas = 3_500_000
	initCode := make([]byte, 20_000)

	tx, err := h.tx.Send(context.Background(), outbound.TxRequest{Action: "deploy", From: h.account, Data: initCode})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if tx.To() != nil {
		t.Fatalf("expected contract creation, got to=%s", tx.To().Hex())
	}
	if tx.Gas() != 3_500_000 {
		t.Errorf("gas = %d, want the estimate rather than the network limit", tx.Gas())
	}
	if len(h.chain.Estimates) != 1 || h.chain.Estimates[0].To != nil || len(h.chain.Estimates[0].Data) != len(initCode) {
		t.Errorf("unexpected estimate calls: %d", len(h.chain.Estimates))
	}

	// Calls to an existing contract keep the network limit without estimating.
	to := common.HexToAddress("0x01")
	tx, err = h.tx.Send(context.Background(), outbound.TxRequest{Action: "supply", From: h.account, To: &to})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if tx.Gas() != 2074040 || len(h.chain.Estimates) != 1 {
		t.Errorf("gas=%d estimates=%d, want 2074040 and 1", tx.Gas(), len(h.chain.Estimates))
	}
}

func TestTransactor_WaitMinedRetriesTransientReceiptErrors(t *testing.T) {
	fast := retry.Config{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
	to := common.HexToAddress("0x01")

	t.Run("recovers", func(t *testing.T) {
		h := newHarness(t, hardhat())
		h.tx.config.ReceiptRetry = fast
		tx, err := h.tx.Send(context.Background(), outbound.TxRequest{Action: "supply", From: h.account, To: &to})
		if err != nil {
			t.Fatalf("Send: %v", err)
		}
		h.chain.ReceiptErrs = []error{errors.New("502 Bad Gateway"), errors.New("connection reset by peer")}

		receipt, err := h.tx.WaitMined(context.Background(), tx)
		if err != nil {
			t.Fatalf("WaitMined: %v", err)
		}
		if receipt.TxHash != tx.Hash() {
			t.Errorf("receipt hash = %s", receipt.TxHash.Hex())
		}
	})

	t.Run("gives up", func(t *testing.T) {
		h := newHarness(t, hardhat())
		h.tx.config.ReceiptRetry = fast
		tx, err := h.tx.Send(context.Background(), outbound.TxRequest{Action: "supply", From: h.account, To: &to})
		if err != nil {
			t.Fatalf("Send: %v", err)
		}
		down := errors.New("502 Bad Gateway")
		h.chain.ReceiptErrs = []error{down, down, down, down}

		_, err = h.tx.WaitMined(context.Background(), tx)
		if !errors.Is(err, retry.ErrExhausted) || !errors.Is(err, down) {
			t.Fatalf("expected exhausted retries wrapping the RPC error, got %v", err)
		}
	})
}
