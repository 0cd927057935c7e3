package telemetry

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetrics_RecordsTransactionLifecycle(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	m, err := NewMetricsWithMeter(provider.Meter("test"), "hardhat")
	if err != nil {
		t.Fatalf("NewMetricsWithMeter: %v", err)
	}

	ctx := context.Background()
	m.RecordTransactionSubmitted(ctx, "supply")
	m.RecordTransactionSubmitted(ctx, "approve")
	m.RecordTransactionSettled(ctx, "supply", "confirmed", 1500*time.Millisecond)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	found := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			found[md.Name] = md.Data
		}
	}

	submitted, ok := found["transactions_submitted_total"].(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("transactions_submitted_total missing or wrong type: %T", found["transactions_submitted_total"])
	}
	var total int64
	for _, dp := range submitted.DataPoints {
		total += dp.Value
	}
	if total != 2 {
		t.Errorf("submitted total = %d, want 2", total)
	}

	if _, ok := found["transactions_confirmed_total"].(metricdata.Sum[int64]); !ok {
		t.Error("transactions_confirmed_total missing")
	}
	hist, ok := found["transaction_confirmation_seconds"].(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 {
		t.Errorf("unexpected confirmation histogram: %+v", found["transaction_confirmation_seconds"])
	}
}

func TestInit_DisabledWithoutEndpoint(t *testing.T) {
	ctx := context.Background()
	shutdownTracer, err := InitTracer(ctx, TracerConfig{})
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}
	if err := shutdownTracer(ctx); err != nil {
		t.Errorf("tracer shutdown: %v", err)
	}

	shutdownMetrics, err := InitMetrics(ctx, MetricConfig{})
	if err != nil {
		t.Fatalf("InitMetrics: %v", err)
	}
	if err := shutdownMetrics(ctx); err != nil {
		t.Errorf("metrics shutdown: %v", err)
	}
}
