package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/archon-research/lendpool/internal/ports/outbound"
)

var _ outbound.MetricsRecorder = (*Metrics)(nil)

// Metrics implements outbound.MetricsRecorder using OpenTelemetry.
type Metrics struct {
	submitted           metric.Int64Counter
	settled             metric.Int64Counter
	confirmationLatency metric.Float64Histogram
	network             attribute.KeyValue
}

// NewMetrics creates a recorder on the global meter provider. Every data
// point carries the network name.
func NewMetrics(meterName, network string) (*Metrics, error) {
	return NewMetricsWithMeter(otel.Meter(meterName), network)
}

// NewMetricsWithMeter creates a recorder on an explicit meter (used in tests).
func NewMetricsWithMeter(meter metric.Meter, network string) (*Metrics, error) {
	submitted, err := meter.Int64Counter(
		"transactions_submitted_total",
		metric.WithDescription("Total number of transactions submitted"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactions_submitted_total counter: %w", err)
	}

	settled, err := meter.Int64Counter(
		"transactions_confirmed_total",
		metric.WithDescription("Total number of transactions settled, by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactions_confirmed_total counter: %w", err)
	}

	latency, err := meter.Float64Histogram(
		"transaction_confirmation_seconds",
		metric.WithDescription("Time from submission until the receipt was final"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction_confirmation_seconds histogram: %w", err)
	}

	return &Metrics{
		submitted:           submitted,
		settled:             settled,
		confirmationLatency: latency,
		network:             attribute.String("network", network),
	}, nil
}

func (m *Metrics) RecordTransactionSubmitted(ctx context.Context, action string) {
	m.submitted.Add(ctx, 1, metric.WithAttributes(m.network, attribute.String("action", action)))
}

func (m *Metrics) RecordTransactionSettled(ctx context.Context, action, status string, elapsed time.Duration) {
	attrs := metric.WithAttributes(m.network, attribute.String("action", action), attribute.String("status", status))
	m.settled.Add(ctx, 1, attrs)
	m.confirmationLatency.Record(ctx, elapsed.Seconds(), attrs)
}
