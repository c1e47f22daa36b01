package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("kind", "tokens"),
		attribute.String("user_id", "456"),
		attribute.String("model", "openai/gpt-4o"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "kind" && attrs[1].Key != "kind" {
		t.Fatalf("expected kind to be retained")
	}
	if attrs[0].Key != "model" && attrs[1].Key != "model" {
		t.Fatalf("expected model to be retained")
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordQuotaCheck(ctx, "allowed")
	m.RecordQuotaRejection(ctx, "tokens")
	m.RecordTokensCommitted(ctx, 10)
	m.RecordProviderCall(ctx, "m", "ok")
	m.RecordRateLimitAllowed(ctx, "submit")
	m.RecordRateLimitDenied(ctx, "submit", "user-rate")
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "lpt-test"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.RecordTokensCommitted(context.Background(), 5)
}
