package outbound

import (
	"context"
	"time"
)

// MetricsRecorder lets services record transaction metrics without depending
// on a telemetry implementation.
type MetricsRecorder interface {
	RecordTransactionSubmitted(ctx context.Context, action string)

	// RecordTransactionSettled records the outcome ("confirmed", "reverted" or
	// "failed") and the time from submission to settlement.
	RecordTransactionSettled(ctx context.Context, action, status string, elapsed time.Duration)
}
