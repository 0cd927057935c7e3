package ethereum

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/archon-research/lendpool/internal/domain/entity"
	"github.com/archon-research/lendpool/internal/pkg/retry"
	"github.com/archon-research/lendpool/internal/ports/outbound"
)

const tracerName = "github.com/archon-research/lendpool/internal/adapters/outbound/ethereum"

// ErrTransactionReverted is returned by WaitMined when the receipt status is 0.
var ErrTransactionReverted = errors.New("transaction reverted")

var _ outbound.Transactor = (*Transactor)(nil)

// TransactorConfig holds configuration for the Transactor.
type TransactorConfig struct {
	Network *entity.Network

	// PollInterval is the first wait between receipt polls; it backs off up to MaxPollInterval.
	PollInterval    time.Duration
	MaxPollInterval time.Duration

	// MineTimeout bounds WaitMined. Defaults to 5 minutes.
	MineTimeout time.Duration

	// ReceiptRetry governs retries of a failed receipt lookup within one poll.
	ReceiptRetry retry.Config

	Journal outbound.TransactionJournal
	Events  outbound.EventSink
	Metrics outbound.MetricsRecorder
	Logger  *slog.Logger

	// Now is overridable for tests.
	Now func() time.Time
}

// TransactorConfigDefaults returns a config with default values.
func TransactorConfigDefaults() TransactorConfig {
	return TransactorConfig{
		PollInterval:    500 * time.Millisecond,
		MaxPollInterval: 4 * time.Second,
		MineTimeout:     5 * time.Minute,
		Logger:          slog.Default(),
		Now:             time.Now,
		ReceiptRetry: retry.Config{
			MaxRetries:     5,
			InitialBackoff: 200 * time.Millisecond,
			MaxBackoff:     3 * time.Second,
			BackoffFactor:  2.0,
			Jitter:         true,
		},
	}
}

type submitted struct {
	record *entity.TransactionRecord
	action string
	from   common.Address
	at     time.Time
}

// Transactor signs, submits and awaits transactions on one network.
type Transactor struct {
	client  outbound.ChainClient
	network *entity.Network
	chainID *big.Int
	config  TransactorConfig
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[common.Hash]submitted
}

// NewTransactor creates a Transactor. Journal, Events and Metrics are optional.
func NewTransactor(client outbound.ChainClient, config TransactorConfig) (*Transactor, error) {
	if client == nil {
		return nil, errors.New("client is required")
	}
	if config.Network == nil || config.Network.ChainID <= 0 {
		return nil, errors.New("network with a chain ID is required")
	}
	defaults := TransactorConfigDefaults()
	if config.PollInterval == 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.MaxPollInterval == 0 {
		config.MaxPollInterval = defaults.MaxPollInterval
	}
	if config.MineTimeout == 0 {
		config.MineTimeout = defaults.MineTimeout
	}
	if config.ReceiptRetry == (retry.Config{}) {
		config.ReceiptRetry = defaults.ReceiptRetry
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	if config.Now == nil {
		config.Now = defaults.Now
	}

	return &Transactor{
		client:  client,
		network: config.Network,
		chainID: big.NewInt(config.Network.ChainID),
		config:  config,
		logger:  config.Logger.With("component", "transactor", "network", config.Network.Name),
		pending: make(map[common.Hash]submitted),
	}, nil
}

// Send builds, signs and submits req. It does not wait for inclusion.
func (t *Transactor) Send(ctx context.Context, req outbound.TxRequest) (*types.Transaction, error) {
	if req.From == nil {
		return nil, errors.New("transaction has no sender")
	}
	from := req.From.Address()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "transactor.send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("tx.action", req.Action),
			attribute.String("tx.from", from.Hex()),
		),
	)
	defer span.End()

	tx, err := t.buildTx(ctx, from, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build failed")
		return nil, fmt.Errorf("%s: %w", req.Action, err)
	}

	signed, err := req.From.SignTx(ctx, tx, t.chainID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sign failed")
		return nil, fmt.Errorf("%s: signing transaction: %w", req.Action, err)
	}

	if err := t.client.SendTransaction(ctx, signed); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		return nil, fmt.Errorf("%s: sending transaction: %w", req.Action, err)
	}

	now := t.config.Now()
	span.SetAttributes(attribute.String("tx.hash", signed.Hash().Hex()))
	t.logger.Info("transaction sent", "action", req.Action, "hash", signed.Hash().Hex(), "nonce", signed.Nonce(), "gas", signed.Gas())

	entry := submitted{action: req.Action, from: from, at: now}
	if t.config.Journal != nil {
		record, err := entity.NewTransactionRecord(t.network.Name, t.network.ChainID, req.Action, from, signed.To(), signed.Hash(), now)
		if err != nil {
			return nil, fmt.Errorf("%s: building journal record: %w", req.Action, err)
		}
		if err := t.config.Journal.Record(ctx, record); err != nil {
			// The transaction is already on the wire; journaling is best effort.
			t.logger.Warn("failed to journal transaction", "hash", signed.Hash().Hex(), "error", err)
		} else {
			entry.record = record
		}
	}
	if t.config.Metrics != nil {
		t.config.Metrics.RecordTransactionSubmitted(ctx, req.Action)
	}

	t.mu.Lock()
	t.pending[signed.Hash()] = entry
	t.mu.Unlock()

	return signed, nil
}

func (t *Transactor) buildTx(ctx context.Context, from common.Address, req outbound.TxRequest) (*types.Transaction, error) {
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	nonce, err := t.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("fetching nonce: %w", err)
	}

	// Contract creation always estimates; the network limit is sized for pool calls.
	gas := req.GasLimit
	if gas == 0 && req.To != nil {
		gas = t.network.GasLimit
	}
	if gas == 0 {
		gas, err = t.client.EstimateGas(ctx, ethereum.CallMsg{From: from, To: req.To, Value: value, Data: req.Data})
		if err != nil {
			return nil, fmt.Errorf("estimating gas: %w", err)
		}
	}

	head, err := t.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching head: %w", err)
	}

	if head.BaseFee == nil {
		gasPrice, err := t.client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("suggesting gas price: %w", err)
		}
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gas,
			To:       req.To,
			Value:    value,
			Data:     req.Data,
		}), nil
	}

	tip, err := t.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggesting gas tip: %w", err)
	}
	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   t.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        req.To,
		Value:     value,
		Data:      req.Data,
	}), nil
}

// WaitMined blocks until tx has a receipt and the configured number of
// confirmations. A reverted transaction returns its receipt together with
// ErrTransactionReverted.
func (t *Transactor) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	t.mu.Lock()
	entry, tracked := t.pending[tx.Hash()]
	delete(t.pending, tx.Hash())
	t.mu.Unlock()
	if !tracked {
		entry = submitted{action: "external", at: t.config.Now()}
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "transactor.waitMined",
		trace.WithAttributes(
			attribute.String("tx.hash", tx.Hash().Hex()),
			attribute.String("tx.action", entry.action),
		),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, t.config.MineTimeout)
	defer cancel()

	t.logger.Debug("waiting for transaction", "action", entry.action, "hash", tx.Hash().Hex())

	receipt, err := t.pollReceipt(ctx, tx.Hash())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "receipt not found")
		if t.config.Metrics != nil {
			t.config.Metrics.RecordTransactionSettled(ctx, entry.action, "failed", t.config.Now().Sub(entry.at))
		}
		return nil, fmt.Errorf("waiting for %s: %w", tx.Hash().Hex(), err)
	}

	if err := t.awaitConfirmations(ctx, receipt.BlockNumber.Uint64()); err != nil {
		span.RecordError(err)
		return receipt, fmt.Errorf("waiting for confirmations of %s: %w", tx.Hash().Hex(), err)
	}

	status := entity.TxStatusConfirmed
	if receipt.Status != types.ReceiptStatusSuccessful {
		status = entity.TxStatusReverted
	}
	t.settle(ctx, tx, receipt, entry, status)
	span.SetAttributes(
		attribute.Int64("tx.block", receipt.BlockNumber.Int64()),
		attribute.String("tx.status", string(status)),
	)

	if status == entity.TxStatusReverted {
		span.SetStatus(codes.Error, "reverted")
		return receipt, fmt.Errorf("%s %s: %w", entry.action, tx.Hash().Hex(), ErrTransactionReverted)
	}
	t.logger.Info("transaction confirmed", "action", entry.action, "hash", tx.Hash().Hex(), "block", receipt.BlockNumber, "gasUsed", receipt.GasUsed)
	return receipt, nil
}

func (t *Transactor) pollConfig() retry.Config {
	return retry.Config{
		InitialBackoff: t.config.PollInterval,
		MaxBackoff:     t.config.MaxPollInterval,
		BackoffFactor:  1.5,
	}
}

func (t *Transactor) pollReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	onRetry := func(attempt int, err error, backoff time.Duration) {
		t.logger.Warn("receipt lookup failed, retrying", "hash", hash.Hex(), "attempt", attempt, "backoff", backoff, "error", err)
	}
	return retry.Poll(ctx, t.pollConfig(), func() (*types.Receipt, bool, error) {
		receipt, err := retry.Do(ctx, t.config.ReceiptRetry, isTransientRPCError, onRetry, func() (*types.Receipt, error) {
			return t.client.TransactionReceipt(ctx, hash)
		})
		if errors.Is(err, ethereum.NotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return receipt, true, nil
	})
}

// isTransientRPCError reports whether a failed RPC call is worth repeating.
// NotFound is an answer, not a failure.
func isTransientRPCError(err error) bool {
	return !errors.Is(err, ethereum.NotFound) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

func (t *Transactor) awaitConfirmations(ctx context.Context, included uint64) error {
	if t.network.Confirmations <= 1 {
		return nil
	}
	target := included + t.network.Confirmations - 1
	_, err := retry.Poll(ctx, t.pollConfig(), func() (uint64, bool, error) {
		head, err := t.client.BlockNumber(ctx)
		if err != nil {
			return 0, false, err
		}
		return head, head >= target, nil
	})
	return err
}

func (t *Transactor) settle(ctx context.Context, tx *types.Transaction, receipt *types.Receipt, entry submitted, status entity.TxStatus) {
	now := t.config.Now()

	if t.config.Metrics != nil {
		t.config.Metrics.RecordTransactionSettled(ctx, entry.action, string(status), now.Sub(entry.at))
	}

	if entry.record != nil && t.config.Journal != nil {
		if err := entry.record.Settle(status, receipt.GasUsed, receipt.BlockNumber.Uint64(), now); err == nil {
			if err := t.config.Journal.UpdateStatus(ctx, entry.record); err != nil {
				t.logger.Warn("failed to update journal", "hash", tx.Hash().Hex(), "error", err)
			}
		}
	}

	if t.config.Events != nil {
		event := outbound.TransactionConfirmedEvent{
			ChainID:     t.network.ChainID,
			Network:     t.network.Name,
			Action:      entry.action,
			TxHash:      tx.Hash().Hex(),
			Status:      string(status),
			BlockNumber: receipt.BlockNumber.Uint64(),
			GasUsed:     receipt.GasUsed,
			ConfirmedAt: now,
		}
		if entity.IsSet(entry.from) {
			event.From = entry.from.Hex()
		}
		if tx.To() != nil {
			event.To = tx.To().Hex()
		}
		if err := t.config.Events.Publish(ctx, event); err != nil {
			t.logger.Warn("failed to publish event", "hash", tx.Hash().Hex(), "error", err)
		}
	}
}
