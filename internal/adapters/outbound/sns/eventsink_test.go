package sns

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/archon-research/lendpool/internal/ports/outbound"
	"github.com/archon-research/lendpool/internal/testutil"
)

// mockSNSClient implements SNSPublisher for testing.
type mockSNSClient struct {
	publishFunc func(ctx context.Context, params *sns.PublishInput) (*sns.PublishOutput, error)
	calls       []*sns.PublishInput
}

func (m *mockSNSClient) Publish(ctx context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls = append(m.calls, params)
	if m.publishFunc != nil {
		return m.publishFunc(ctx, params)
	}
	return &sns.PublishOutput{MessageId: aws.String("test-message-id")}, nil
}

const testTopicARN = "arn:aws:sns:us-east-1:123456789:lendpool-events"

func newTestSink(t *testing.T, client SNSPublisher) *EventSink {
	t.Helper()
	sink, err := NewEventSink(client, Config{
		TopicARN:       testTopicARN,
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		Logger:         testutil.DiscardLogger(),
	})
	if err != nil {
		t.Fatalf("NewEventSink: %v", err)
	}
	return sink
}

func testEvent() outbound.TransactionConfirmedEvent {
	return outbound.TransactionConfirmedEvent{
		ChainID:     31337,
		Network:     "hardhat",
		Action:      "supply",
		TxHash:      "0xabc",
		From:        "0x01",
		Status:      "confirmed",
		BlockNumber: 5,
		GasUsed:     21000,
		ConfirmedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestNewEventSink_Validation(t *testing.T) {
	if _, err := NewEventSink(nil, Config{TopicARN: testTopicARN}); err == nil || err.Error() != "sns client is required" {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := NewEventSink(&mockSNSClient{}, Config{}); err == nil || err.Error() != "topic ARN is required" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewEventSink_AppliesDefaults(t *testing.T) {
	sink, err := NewEventSink(&mockSNSClient{}, Config{TopicARN: testTopicARN})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.config.MaxRetries != 3 {
		t.Errorf("expected MaxRetries=3, got %d", sink.config.MaxRetries)
	}
	if sink.config.InitialBackoff != 100*time.Millisecond {
		t.Errorf("expected InitialBackoff=100ms, got %v", sink.config.InitialBackoff)
	}
	if sink.config.MaxBackoff != 5*time.Second {
		t.Errorf("expected MaxBackoff=5s, got %v", sink.config.MaxBackoff)
	}
}

func TestPublish_Success(t *testing.T) {
	client := &mockSNSClient{}
	sink := newTestSink(t, client)

	if err := sink.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(client.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(client.calls))
	}

	input := client.calls[0]
	if aws.ToString(input.TopicArn) != testTopicARN {
		t.Errorf("topic = %q", aws.ToString(input.TopicArn))
	}

	var decoded outbound.TransactionConfirmedEvent
	if err := json.Unmarshal([]byte(aws.ToString(input.Message)), &decoded); err != nil {
		t.Fatalf("message is not JSON: %v", err)
	}
	if decoded.Action != "supply" || decoded.TxHash != "0xabc" {
		t.Errorf("unexpected message: %+v", decoded)
	}

	attrs := map[string]string{}
	for k, v := range input.MessageAttributes {
		attrs[k] = aws.ToString(v.StringValue)
	}
	if attrs["eventType"] != "transaction_confirmed" || attrs["chainId"] != "31337" || attrs["network"] != "hardhat" {
		t.Errorf("unexpected attributes: %v", attrs)
	}
}

func TestPublish_RetriesThrottling(t *testing.T) {
	attempts := 0
	client := &mockSNSClient{publishFunc: func(context.Context, *sns.PublishInput) (*sns.PublishOutput, error) {
		attempts++
		if attempts < 3 {
			return nil, &types.ThrottledException{Message: aws.String("slow down")}
		}
		return &sns.PublishOutput{}, nil
	}}
	sink := newTestSink(t, client)

	if err := sink.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestPublish_NonRetryableStopsImmediately(t *testing.T) {
	client := &mockSNSClient{publishFunc: func(context.Context, *sns.PublishInput) (*sns.PublishOutput, error) {
		return nil, &types.NotFoundException{Message: aws.String("no topic")}
	}}
	sink := newTestSink(t, client)

	err := sink.Publish(context.Background(), testEvent())
	if err == nil || !strings.Contains(err.Error(), "failed to publish to SNS") {
		t.Fatalf("expected publish error, got %v", err)
	}
	if len(client.calls) != 1 {
		t.Errorf("expected 1 call, got %d", len(client.calls))
	}
}

func TestPublish_ExhaustsRetries(t *testing.T) {
	client := &mockSNSClient{publishFunc: func(context.Context, *sns.PublishInput) (*sns.PublishOutput, error) {
		return nil, errors.New("connection reset")
	}}
	sink := newTestSink(t, client)

	if err := sink.Publish(context.Background(), testEvent()); err == nil {
		t.Fatal("expected error")
	}
	if len(client.calls) != 3 {
		t.Errorf("expected 3 calls (1 + 2 retries), got %d", len(client.calls))
	}
}

func TestPublish_AfterClose(t *testing.T) {
	client := &mockSNSClient{}
	sink := newTestSink(t, client)

	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sink.Publish(context.Background(), testEvent()); err == nil {
		t.Fatal("expected error after close")
	}
	if len(client.calls) != 0 {
		t.Errorf("expected no calls after close, got %d", len(client.calls))
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"throttled", &types.ThrottledException{}, true},
		{"internal", &types.InternalErrorException{}, true},
		{"kms throttled", &types.KMSThrottlingException{}, true},
		{"not found", &types.NotFoundException{}, false},
		{"auth", &types.AuthorizationErrorException{}, false},
		{"unknown", errors.New("eof"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
