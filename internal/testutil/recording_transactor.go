package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/archon-research/lendpool/internal/ports/outbound"
)

var _ outbound.Transactor = (*RecordingTransactor)(nil)

// RecordingTransactor wraps a Transactor and records the order of Send and
// WaitMined calls as "send:<action>" / "wait:<action>". Sending while an
// earlier transaction has not been waited for is recorded as a violation.
type RecordingTransactor struct {
	Inner outbound.Transactor

	mu         sync.Mutex
	log        []string
	unwaited   map[common.Hash]string
	violations []string
}

func NewRecordingTransactor(inner outbound.Transactor) *RecordingTransactor {
	return &RecordingTransactor{Inner: inner, unwaited: make(map[common.Hash]string)}
}

func (r *RecordingTransactor) Send(ctx context.Context, req outbound.TxRequest) (*types.Transaction, error) {
	r.mu.Lock()
	for _, action := range r.unwaited {
		r.violations = append(r.violations, fmt.Sprintf("%s sent before %s was mined", req.Action, action))
	}
	r.log = append(r.log, "send:"+req.Action)
	r.mu.Unlock()

	tx, err := r.Inner.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.unwaited[tx.Hash()] = req.Action
	r.mu.Unlock()
	return tx, nil
}

func (r *RecordingTransactor) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	r.mu.Lock()
	action := r.unwaited[tx.Hash()]
	delete(r.unwaited, tx.Hash())
	r.log = append(r.log, "wait:"+action)
	r.mu.Unlock()

	return r.Inner.WaitMined(ctx, tx)
}

// Log returns the recorded call sequence.
func (r *RecordingTransactor) Log() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.log...)
}

// Violations lists sends issued while an earlier transaction was still
// unconfirmed, plus any transaction never waited for.
func (r *RecordingTransactor) Violations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string(nil), r.violations...)
	for _, action := range r.unwaited {
		out = append(out, action+" never waited for")
	}
	return out
}
